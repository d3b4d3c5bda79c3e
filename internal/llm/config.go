package llm

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// EnvPrefix prefixes every environment variable read by ConfigFromEnv.
const EnvPrefix = "SENTCRAFT_"

// Provider names accepted by Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	Provider string `mapstructure:"provider"`

	Anthropic  AnthropicConfig  `mapstructure:"anthropic"`
	OpenAI     OpenAIConfig     `mapstructure:"openai"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	OpenRouter OpenRouterConfig `mapstructure:"openrouter"`
	Retry      RetryConfig      `mapstructure:"retry"`

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration `mapstructure:"timeout"`
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string `mapstructure:"api_key"`
	Model  string `mapstructure:"model"`
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
	BaseURL string `mapstructure:"base_url"`
	// AppName is sent as X-Title for OpenRouter attribution.
	AppName string `mapstructure:"app_name"`
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	InitialWait time.Duration `mapstructure:"initial_wait"`
	MaxWait     time.Duration `mapstructure:"max_wait"`
	Multiplier  float64       `mapstructure:"multiplier"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-sonnet"},
		OpenAI:     OpenAIConfig{Model: "gpt-4.1-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.5-flash", AppName: "sentcraft"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		// Item batches are long structured responses.
		Timeout: 90 * time.Second,
	}
}

// envBinding ties one environment variable suffix to a Config field.
type envBinding struct {
	key string
	set func(c *Config, v string) error
}

func str(dst func(c *Config) *string) func(*Config, string) error {
	return func(c *Config, v string) error {
		*dst(c) = v
		return nil
	}
}

var envBindings = []envBinding{
	{"LLM_PROVIDER", str(func(c *Config) *string { return &c.Provider })},
	{"ANTHROPIC_API_KEY", str(func(c *Config) *string { return &c.Anthropic.APIKey })},
	{"ANTHROPIC_MODEL", str(func(c *Config) *string { return &c.Anthropic.Model })},
	{"ANTHROPIC_BASE_URL", str(func(c *Config) *string { return &c.Anthropic.BaseURL })},
	{"OPENAI_API_KEY", str(func(c *Config) *string { return &c.OpenAI.APIKey })},
	{"OPENAI_MODEL", str(func(c *Config) *string { return &c.OpenAI.Model })},
	{"OPENAI_BASE_URL", str(func(c *Config) *string { return &c.OpenAI.BaseURL })},
	{"GEMINI_API_KEY", str(func(c *Config) *string { return &c.Gemini.APIKey })},
	{"GEMINI_MODEL", str(func(c *Config) *string { return &c.Gemini.Model })},
	{"OPENROUTER_API_KEY", str(func(c *Config) *string { return &c.OpenRouter.APIKey })},
	{"OPENROUTER_MODEL", str(func(c *Config) *string { return &c.OpenRouter.Model })},
	{"OPENROUTER_BASE_URL", str(func(c *Config) *string { return &c.OpenRouter.BaseURL })},
	{"LLM_TIMEOUT", func(c *Config, v string) error {
		d, err := time.ParseDuration(v)
		if err != nil {
			return err
		}
		c.Timeout = d
		return nil
	}},
	{"LLM_MAX_ATTEMPTS", func(c *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		c.Retry.MaxAttempts = n
		return nil
	}},
}

// ConfigFromEnv overlays SENTCRAFT_* environment variables onto base.
// Malformed numeric or duration values are reported, not ignored.
func ConfigFromEnv(base Config) (Config, error) {
	cfg := base
	for _, b := range envBindings {
		v := os.Getenv(EnvPrefix + b.key)
		if v == "" {
			continue
		}
		if err := b.set(&cfg, v); err != nil {
			return base, fmt.Errorf("%s%s: %w", EnvPrefix, b.key, err)
		}
	}
	return cfg, nil
}

// DiscoverConfig probes the vendors' standard API key variables in priority
// order (Anthropic, OpenAI, Gemini, OpenRouter) and selects the first found.
func DiscoverConfig(base Config) (Config, bool) {
	cfg := base
	switch {
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		return base, false
	}
	return cfg, true
}

// HasKey reports whether the selected provider has credentials.
func (c Config) HasKey() bool {
	return c.Provider == ProviderMock || c.apiKey() != ""
}

func (c Config) apiKey() string {
	switch c.Provider {
	case ProviderAnthropic:
		return c.Anthropic.APIKey
	case ProviderOpenAI:
		return c.OpenAI.APIKey
	case ProviderGemini:
		return c.Gemini.APIKey
	case ProviderOpenRouter:
		return c.OpenRouter.APIKey
	}
	return ""
}

// Validate checks that the selected provider is known and has its API key.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderMock:
		return nil
	case ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter:
		if c.apiKey() == "" {
			return fmt.Errorf("%s%s_API_KEY is required for the %s provider", EnvPrefix, strings.ToUpper(c.Provider), c.Provider)
		}
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry max attempts must be at least 1, got %d", c.Retry.MaxAttempts)
	}
	return nil
}
