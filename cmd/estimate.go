package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/validate"
)

type itemEstimate struct {
	ID string `json:"id"`
	difficulty.Profile
}

type groupEstimate struct {
	SetID      string                `json:"set_id,omitempty"`
	Items      []itemEstimate        `json:"items"`
	Evaluation difficulty.Evaluation `json:"evaluation"`
	Style      validate.SetCounts    `json:"style"`
	SetRules   *validate.SetResult   `json:"set_rules,omitempty"`
}

var estimateCmd = &cobra.Command{
	Use:   "estimate <file>",
	Short: "Estimate item difficulty and check set mixes against the target",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		groups, err := readGroups(args[0])
		if err != nil {
			return err
		}

		out := make([]groupEstimate, 0, len(groups))
		for _, g := range groups {
			items, skipped := authoredOnly(g.Items)
			if skipped > 0 {
				appLog.Sugar().Warnf("%d legacy items skipped; difficulty needs authoring fields", skipped)
			}

			ge := groupEstimate{
				SetID:      g.SetID,
				Evaluation: difficulty.EvaluateAgainstTarget(items, appCfg.Difficulty.Target, appCfg.Difficulty.Tolerance),
				Style:      validate.CountSet(items),
			}
			for _, a := range items {
				ge.Items = append(ge.Items, itemEstimate{ID: a.ID, Profile: difficulty.Estimate(a)})
			}
			if g.SetID != "" {
				res := validate.ValidateSet(items, appCfg.Compose.SetRules)
				ge.SetRules = &res
			}
			out = append(out, ge)
		}

		if asJSON {
			return writeJSON(out)
		}
		for _, ge := range out {
			printEstimate(ge)
		}
		return nil
	},
}

func printEstimate(ge groupEstimate) {
	if ge.SetID != "" {
		fmt.Printf("── %s ──\n", ge.SetID)
	}
	for _, it := range ge.Items {
		f := it.Features
		fmt.Printf("%-24s %-6s %6.2f  words=%d chunks=%d distractor=%v embedded=%v long=%v prefilled=%d\n",
			it.ID, it.Bucket, it.Score,
			f.AnswerWords, f.EffectiveChunks, f.HasDistractor, f.HasEmbedded, f.HasLongChunk, f.PrefilledCount)
	}

	ev := ge.Evaluation
	p := ev.Profile
	fmt.Printf("\nMix:      %d easy / %d medium / %d hard (%d items)\n",
		p.Counts.Easy, p.Counts.Medium, p.Counts.Hard, p.Total)
	fmt.Printf("Ratios:   %.2f / %.2f / %.2f  target %.2f / %.2f / %.2f  distance %.2f\n",
		p.Ratios.Easy, p.Ratios.Medium, p.Ratios.Hard,
		ev.Target.Easy, ev.Target.Medium, ev.Target.Hard, ev.Distance)
	fmt.Printf("Target:   within tolerance=%v  exact 2/5/3=%v\n", ev.OK, ev.MeetsTargetCount10)
	fmt.Printf("Style:    %d question marks, %d distractors, %d embedded\n",
		ge.Style.QuestionMarks, ge.Style.Distractors, ge.Style.Embedded)
	if ge.SetRules != nil {
		if ge.SetRules.OK {
			fmt.Println("Set rules: ok")
		} else {
			for _, e := range ge.SetRules.Errors {
				fmt.Printf("Set rules: %s\n", e)
			}
		}
	}
	fmt.Println()
}

func init() {
	estimateCmd.Flags().Bool("json", false, "Print results as JSON")
}
