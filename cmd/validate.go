package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/response"
	"github.com/abhisek/sentcraft/internal/validate"
)

type validateResult struct {
	ID         string            `json:"id"`
	Shape      string            `json:"shape"`
	Issues     []string          `json:"issues,omitempty"`
	AlignError string            `json:"align_error,omitempty"`
	Replay     string            `json:"replay,omitempty"`
	Runtime    *item.RuntimeItem `json:"runtime,omitempty"`
	Blocking   bool              `json:"blocking"`
}

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate items and align them to the runtime slot model",
	Long: `Validate every item in a JSON item array or question-bank file.

Position-based items run the full check chain and are then aligned.
Legacy items are already in runtime shape and are only checked against
the slot-model invariants.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		strict, _ := cmd.Flags().GetBool("strict")
		asJSON, _ := cmd.Flags().GetBool("json")

		items, err := readAuthored(args[0])
		if err != nil {
			return err
		}

		v := validate.Default()
		results := make([]validateResult, 0, len(items))
		failed := 0
		for _, a := range items {
			res := validateResult{ID: a.ItemID()}
			switch p := a.(type) {
			case item.PositionBased:
				res.Shape = "position-based"
				report := v.ValidateItem(p.AuthoredItem)
				res.Issues = report.Messages()
				res.Blocking = report.Blocking(strict)
				if msg, ok := replayCanonical(p.AuthoredItem); !ok {
					res.Replay = msg
					res.Blocking = true
				}
			case item.Legacy:
				res.Shape = "legacy"
			}
			r, err := align.NormalizeToRuntime(a)
			if err != nil {
				res.AlignError = err.Error()
				res.Blocking = true
			} else {
				res.Runtime = &r
			}
			if res.Blocking {
				failed++
			}
			results = append(results, res)
		}

		if asJSON {
			if err := writeJSON(results); err != nil {
				return err
			}
		} else {
			printValidation(results)
		}

		if failed > 0 {
			return fmt.Errorf("%d of %d items failed validation", failed, len(results))
		}
		return nil
	},
}

func printValidation(results []validateResult) {
	for _, r := range results {
		status := "✓"
		if r.Blocking {
			status = "✗"
		}
		fmt.Printf("%s %-24s %s\n", status, r.ID, r.Shape)
		for _, msg := range r.Issues {
			fmt.Printf("    %s\n", msg)
		}
		if r.Replay != "" {
			fmt.Printf("    %s\n", r.Replay)
		}
		if r.AlignError != "" {
			fmt.Printf("    align: %s\n", r.AlignError)
		}
		if r.Runtime != nil && len(r.Issues) == 0 {
			fmt.Printf("    %s\n", align.Reconstruct(*r.Runtime))
		}
	}
}

// replayCanonical plays the derived movable order back with the prefilled
// words pinned at their offsets. Items whose order cannot be derived are
// reported by alignment instead.
func replayCanonical(a item.AuthoredItem) (string, bool) {
	order, err := align.DeriveMovableOrder(a.Answer, a.EffectiveChunks(), a.PrefilledPositions)
	if err != nil {
		return "", true
	}
	res := response.EvaluateAuthored(a, order)
	if res.IsCorrect {
		return "", true
	}
	return fmt.Sprintf("replay: canonical order gives %q, departs from the answer at word %d",
		res.Submitted, res.FirstMismatch), false
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Treat format issues as failures")
	validateCmd.Flags().Bool("json", false, "Print results as JSON")
}
