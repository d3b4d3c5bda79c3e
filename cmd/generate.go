package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentcraft/internal/itemgen"
	"github.com/abhisek/sentcraft/internal/pipeline"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate items with an LLM until the requested sets are composed",
	Long: `Run the generation pipeline: each round asks the LLM for a batch of
items shaped to the pool's deficit, optionally has a second call review
them, screens the survivors and adds them to the pool, then composes and
commits as many sets as the pool allows.

Provider keys come from the config file, SENTCRAFT_* variables or the
vendors' own variables (ANTHROPIC_API_KEY, OPENAI_API_KEY, ...).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg := appCfg.Pipeline
		if cmd.Flags().Changed("sets") {
			cfg.TargetSets, _ = cmd.Flags().GetInt("sets")
		}
		if cmd.Flags().Changed("rounds") {
			cfg.Rounds, _ = cmd.Flags().GetInt("rounds")
		}
		noReview, _ := cmd.Flags().GetBool("no-review")
		seed, _ := cmd.Flags().GetUint64("seed")
		if cmd.Flags().Changed("focus") {
			cfg.GrammarFocus, _ = cmd.Flags().GetStringSlice("focus")
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		provider, err := newProvider(ctx, s.EventRepo())
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		gen := itemgen.New(provider, appCfg.Generator)
		opts := []pipeline.Option{pipeline.WithLogger(appLog.Named("pipeline"))}
		if !noReview {
			opts = append(opts, pipeline.WithReviewer(itemgen.NewReviewer(provider, appCfg.Generator)))
		}

		runner := pipeline.New(gen, s.PoolRepo(), s.SetRepo(), newComposer(seed), cfg, opts...)
		rep, err := runner.Run(ctx)
		if rep != nil {
			printReport(rep)
		}
		return err
	},
}

func printReport(rep *pipeline.Report) {
	fmt.Printf("Run %s\n", rep.RunID)
	fmt.Printf("  rounds:              %d\n", rep.Rounds)
	fmt.Printf("  generated:           %d\n", rep.Generated)
	fmt.Printf("  rejected by review:  %d\n", rep.RejectedReview)
	fmt.Printf("  failed validation:   %d\n", rep.RejectedValidation)
	fmt.Printf("  not alignable:       %d\n", rep.RejectedAlignment)
	fmt.Printf("  added to pool:       %d\n", rep.Added)
	if len(rep.Sets) == 0 {
		fmt.Println("  sets:                none")
		return
	}
	fmt.Printf("  sets:                %s\n", strings.Join(rep.Sets, ", "))
}

func init() {
	generateCmd.Flags().IntP("sets", "n", 1, "Number of sets to commit (default from config)")
	generateCmd.Flags().Int("rounds", 10, "Maximum generation rounds (default from config)")
	generateCmd.Flags().Bool("no-review", false, "Skip the LLM review gate")
	generateCmd.Flags().Uint64("seed", 0, "Composer random seed (0 picks one)")
	generateCmd.Flags().StringSlice("focus", nil, "Grammar points to emphasize, e.g. \"embedded question\"")
}
