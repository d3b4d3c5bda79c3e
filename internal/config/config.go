// Package config loads sentcraft settings from an optional YAML file and
// SENTCRAFT_* environment variables on top of built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/abhisek/sentcraft/internal/compose"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/itemgen"
	"github.com/abhisek/sentcraft/internal/llm"
	"github.com/abhisek/sentcraft/internal/pipeline"
	"github.com/abhisek/sentcraft/internal/store"
	"github.com/abhisek/sentcraft/internal/validate"
)

// FileName is the config file looked up when no path is given.
const FileName = "sentcraft"

type Config struct {
	DB         DBConfig         `mapstructure:"db"`
	Log        LogConfig        `mapstructure:"log"`
	Bank       BankConfig       `mapstructure:"bank"`
	Compose    compose.Config   `mapstructure:"compose"`
	Difficulty DifficultyConfig `mapstructure:"difficulty"`
	Pipeline   pipeline.Config  `mapstructure:"pipeline"`
	Generator  itemgen.Config   `mapstructure:"generator"`
	LLM        llm.Config       `mapstructure:"llm"`
}

// DBConfig locates the SQLite file. An empty path resolves through
// store.DefaultDBPath.
type DBConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig selects the log level and encoder. Env "production" logs JSON.
type LogConfig struct {
	Level string `mapstructure:"level"`
	Env   string `mapstructure:"env"`
}

type BankConfig struct {
	Path string `mapstructure:"path"`
}

// DifficultyConfig is the ratio target sets are reported against.
type DifficultyConfig struct {
	Target    difficulty.Mix[float64] `mapstructure:"target"`
	Tolerance difficulty.Mix[float64] `mapstructure:"tolerance"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Log:       LogConfig{Level: "info", Env: "development"},
		Bank:      BankConfig{Path: "question_bank.json"},
		Compose:   compose.DefaultConfig(),
		Pipeline:  pipeline.DefaultConfig(),
		Generator: itemgen.DefaultConfig(),
		LLM:       llm.DefaultConfig(),
		Difficulty: DifficultyConfig{
			Target:    difficulty.DefaultTarget(),
			Tolerance: difficulty.DefaultTolerance(),
		},
	}
}

// Load reads path, or sentcraft.yaml from the working directory or
// $XDG_CONFIG_HOME/sentcraft when path is empty. A missing default file is
// not an error; a missing explicit file is.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	v.SetEnvPrefix("SENTCRAFT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := configDir(); err == nil {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.DB.Path == "" {
		p, err := store.DefaultDBPath()
		if err != nil {
			return nil, fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DB.Path = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	var errs []error
	if c.Compose.MaxRetries < 1 {
		errs = append(errs, fmt.Errorf("compose.max_retries must be at least 1, got %d", c.Compose.MaxRetries))
	}
	if c.Compose.StrictFraction < 0 || c.Compose.StrictFraction > 1 {
		errs = append(errs, fmt.Errorf("compose.strict_fraction must be in [0,1], got %v", c.Compose.StrictFraction))
	}
	if !strings.Contains(c.Compose.SetIDFormat, "%") {
		errs = append(errs, fmt.Errorf("compose.set_id_format %q has no number verb", c.Compose.SetIDFormat))
	}
	for name, r := range map[string]validate.Range{
		"question_marks": c.Compose.SetRules.QuestionMarks,
		"distractors":    c.Compose.SetRules.Distractors,
		"embedded":       c.Compose.SetRules.Embedded,
	} {
		if r.Min > r.Max {
			errs = append(errs, fmt.Errorf("compose.set_rules.%s: min %d > max %d", name, r.Min, r.Max))
		}
	}
	if c.Pipeline.TargetSets < 0 || c.Pipeline.Rounds < 0 {
		errs = append(errs, fmt.Errorf("pipeline.rounds and pipeline.target_sets must not be negative"))
	}
	return errors.Join(errs...)
}

func configDir() (string, error) {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "sentcraft"), nil
}

// setDefaults registers every leaf key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("db.path", d.DB.Path)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.env", d.Log.Env)
	v.SetDefault("bank.path", d.Bank.Path)

	v.SetDefault("compose.max_retries", d.Compose.MaxRetries)
	v.SetDefault("compose.strict_fraction", d.Compose.StrictFraction)
	v.SetDefault("compose.set_id_format", d.Compose.SetIDFormat)
	v.SetDefault("compose.first_set_number", d.Compose.FirstSetNumber)
	setRange(v, "compose.set_rules.question_marks", d.Compose.SetRules.QuestionMarks)
	setRange(v, "compose.set_rules.distractors", d.Compose.SetRules.Distractors)
	setRange(v, "compose.set_rules.embedded", d.Compose.SetRules.Embedded)
	setBand(v, "compose.strict", d.Compose.Strict)
	setBand(v, "compose.relaxed", d.Compose.Relaxed)

	setMix(v, "difficulty.target", d.Difficulty.Target)
	setMix(v, "difficulty.tolerance", d.Difficulty.Tolerance)

	v.SetDefault("pipeline.rounds", d.Pipeline.Rounds)
	v.SetDefault("pipeline.target_sets", d.Pipeline.TargetSets)
	v.SetDefault("pipeline.strict", d.Pipeline.Strict)
	v.SetDefault("pipeline.concurrency", d.Pipeline.Concurrency)
	v.SetDefault("pipeline.min_review_score", d.Pipeline.MinReviewScore)
	v.SetDefault("pipeline.grammar_focus", []string{})

	v.SetDefault("generator.batch_size", d.Generator.BatchSize)
	v.SetDefault("generator.max_tokens", d.Generator.MaxTokens)
	v.SetDefault("generator.review_max_tokens", d.Generator.ReviewMaxTokens)
	v.SetDefault("generator.temperature", d.Generator.Temperature)
	v.SetDefault("generator.max_prior_answers", d.Generator.MaxPriorAnswers)

	v.SetDefault("llm.provider", d.LLM.Provider)
	v.SetDefault("llm.timeout", d.LLM.Timeout)
	v.SetDefault("llm.anthropic.api_key", "")
	v.SetDefault("llm.anthropic.model", d.LLM.Anthropic.Model)
	v.SetDefault("llm.anthropic.base_url", "")
	v.SetDefault("llm.openai.api_key", "")
	v.SetDefault("llm.openai.model", d.LLM.OpenAI.Model)
	v.SetDefault("llm.openai.base_url", "")
	v.SetDefault("llm.gemini.api_key", "")
	v.SetDefault("llm.gemini.model", d.LLM.Gemini.Model)
	v.SetDefault("llm.openrouter.api_key", "")
	v.SetDefault("llm.openrouter.model", d.LLM.OpenRouter.Model)
	v.SetDefault("llm.openrouter.base_url", "")
	v.SetDefault("llm.openrouter.app_name", d.LLM.OpenRouter.AppName)
	v.SetDefault("llm.retry.max_attempts", d.LLM.Retry.MaxAttempts)
	v.SetDefault("llm.retry.initial_wait", d.LLM.Retry.InitialWait)
	v.SetDefault("llm.retry.max_wait", d.LLM.Retry.MaxWait)
	v.SetDefault("llm.retry.multiplier", d.LLM.Retry.Multiplier)
}

func setRange(v *viper.Viper, key string, r validate.Range) {
	v.SetDefault(key+".min", r.Min)
	v.SetDefault(key+".max", r.Max)
}

func setBand(v *viper.Viper, key string, b compose.StyleBand) {
	setRange(v, key+".question_marks", b.QuestionMarks)
	setRange(v, key+".distractors", b.Distractors)
	setRange(v, key+".embedded", b.Embedded)
	v.SetDefault(key+".mean_answer_words.min", b.MeanAnswerWords.Min)
	v.SetDefault(key+".mean_answer_words.max", b.MeanAnswerWords.Max)
	v.SetDefault(key+".mean_chunks.min", b.MeanChunks.Min)
	v.SetDefault(key+".mean_chunks.max", b.MeanChunks.Max)
}

func setMix(v *viper.Viper, key string, m difficulty.Mix[float64]) {
	v.SetDefault(key+".easy", m.Easy)
	v.SetDefault(key+".medium", m.Medium)
	v.SetDefault(key+".hard", m.Hard)
}
