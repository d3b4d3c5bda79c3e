package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/abhisek/sentcraft/internal/compose"
	"github.com/abhisek/sentcraft/internal/config"
	"github.com/abhisek/sentcraft/internal/llm"
	"github.com/abhisek/sentcraft/internal/logger"
	"github.com/abhisek/sentcraft/internal/store"
)

// skipSetup marks commands that run without config or logger.
const skipSetup = "skip-setup"

var (
	appCfg *config.Config
	appLog = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "sentcraft",
	Short: "Build a Sentence item engine",
	Long: `sentcraft validates "Build a Sentence" items, aligns them to the runtime
slot model, estimates their difficulty and composes balanced question sets.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[skipSetup] == "true" {
			return nil
		}
		return setup(cmd)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = appLog.Sync()
	},
}

func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides SENTCRAFT_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file (default ./sentcraft.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(estimateCmd)
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(practiceCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and applies flag overrides. The --db flag wins
// over the config file, which wins over SENTCRAFT_DB and the XDG default.
func setup(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		if err := store.EnsureDir(p); err != nil {
			return fmt.Errorf("resolve database path: %w", err)
		}
		cfg.DB.Path = p
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	l, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	appCfg, appLog = cfg, l
	return nil
}

func openStore() (*store.Store, error) {
	s, err := store.Open(appCfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newProvider builds the configured LLM provider. SENTCRAFT_* variables
// override the config file; when the chosen provider still has no key the
// vendors' own variables are probed.
func newProvider(ctx context.Context, sink llm.EventSink) (llm.Provider, error) {
	cfg, err := llm.ConfigFromEnv(appCfg.LLM)
	if err != nil {
		return nil, err
	}
	if !cfg.HasKey() {
		if found, ok := llm.DiscoverConfig(cfg); ok {
			cfg = found
		}
	}
	return llm.NewProvider(ctx, cfg, sink, appLog.Named("llm"))
}

func newComposer(seed uint64) *compose.Composer {
	opts := []compose.Option{compose.WithLogger(appLog.Named("compose"))}
	if seed != 0 {
		opts = append(opts, compose.WithRand(seededRand(seed)))
	}
	return compose.New(appCfg.Compose, opts...)
}
