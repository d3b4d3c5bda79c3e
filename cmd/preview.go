package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/itemgen"
	"github.com/abhisek/sentcraft/internal/practice"
	"github.com/abhisek/sentcraft/internal/validate"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Generate one batch of items and inspect it (no database)",
	Long: `Generate a single batch of items and print each one with its validation
report, difficulty and runtime alignment.

This is a stateless developer tool: nothing is pooled and no LLM events are
stored. Useful for judging prompt changes and model choices.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		count, _ := cmd.Flags().GetInt("count")
		out, _ := cmd.Flags().GetString("out")
		play, _ := cmd.Flags().GetBool("play")
		focus, _ := cmd.Flags().GetStringSlice("focus")

		provider, err := newProvider(ctx, nil)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}

		gen := itemgen.New(provider, appCfg.Generator)
		fmt.Printf("Generating %d items with %s...\n\n", count, provider.ModelID())
		items, err := gen.Generate(ctx, itemgen.GenerateInput{
			Count:        count,
			Need:         difficulty.TargetCount10(),
			GrammarFocus: focus,
		})
		if err != nil {
			return fmt.Errorf("generate: %w", err)
		}

		v := validate.Default()
		var playable []item.RuntimeItem
		for i, a := range items {
			p := difficulty.Estimate(a)
			fmt.Printf("── Item %d/%d  %s  %s %.2f ──\n", i+1, len(items), a.ID, p.Bucket, p.Score)
			if a.Prompt != "" {
				fmt.Println(a.Prompt)
			}
			fmt.Println(a.Answer)
			fmt.Printf("chunks: %v\n", a.Chunks)
			for _, msg := range v.ValidateItem(a).Messages() {
				fmt.Printf("  %s\n", msg)
			}
			if msg, ok := replayCanonical(a); !ok {
				fmt.Printf("  %s\n", msg)
			}
			r, err := align.NormalizeToRuntime(item.PositionBased{AuthoredItem: a})
			if err != nil {
				fmt.Printf("  align: %v\n", err)
			} else {
				playable = append(playable, r)
			}
			fmt.Println()
		}

		ev := difficulty.EvaluateAgainstTarget(items, appCfg.Difficulty.Target, appCfg.Difficulty.Tolerance)
		fmt.Printf("── Mix: %d easy / %d medium / %d hard, %d of %d alignable ──\n",
			ev.Profile.Counts.Easy, ev.Profile.Counts.Medium, ev.Profile.Counts.Hard,
			len(playable), len(items))

		if out != "" {
			data, err := json.MarshalIndent(items, "", "  ")
			if err != nil {
				return err
			}
			if err := os.WriteFile(out, append(data, '\n'), 0o644); err != nil {
				return err
			}
			fmt.Printf("Wrote %s\n", out)
		}

		if play && len(playable) > 0 {
			sum, err := practice.Run(ctx, playable)
			if err != nil {
				return err
			}
			fmt.Printf("── Summary: %d/%d correct ──\n", sum.Correct, sum.Answered)
		}
		return nil
	},
}

func init() {
	previewCmd.Flags().Int("count", 10, "Number of items to generate")
	previewCmd.Flags().String("out", "", "Write the generated items to this JSON file")
	previewCmd.Flags().Bool("play", false, "Practice the generated items in the terminal")
	previewCmd.Flags().StringSlice("focus", nil, "Grammar points to emphasize")
}
