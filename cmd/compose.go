package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentcraft/internal/compose"
	"github.com/abhisek/sentcraft/internal/difficulty"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/pipeline"
	"github.com/abhisek/sentcraft/internal/validate"
)

var composeCmd = &cobra.Command{
	Use:   "compose",
	Short: "Compose 2/5/3 question sets from the pool",
	Long: `Compose question sets from the persistent pool and commit them, marking
their members consumed. With --from, sets are composed in memory from an
item file instead and nothing is stored.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		target, _ := cmd.Flags().GetInt("sets")
		seed, _ := cmd.Flags().GetUint64("seed")
		from, _ := cmd.Flags().GetString("from")
		export, _ := cmd.Flags().GetString("export")

		var sets []item.QuestionSet
		var err error
		if from != "" {
			sets, err = composeFromFile(from, target, seed)
		} else {
			sets, err = composeFromStore(cmd, target, seed)
		}
		if err != nil {
			return err
		}

		if len(sets) == 0 {
			fmt.Println("The pool cannot yield a set yet.")
			return nil
		}
		for _, s := range sets {
			printSetSummary(s)
		}

		if export == "" {
			return nil
		}
		b, err := openBank(export)
		if err != nil {
			return err
		}
		if err := b.Add(sets...); err != nil {
			return fmt.Errorf("export: %w", err)
		}
		if err := b.Save(); err != nil {
			return err
		}
		fmt.Printf("Exported %d sets to %s\n", len(sets), export)
		return nil
	},
}

func composeFromStore(cmd *cobra.Command, target int, seed uint64) ([]item.QuestionSet, error) {
	s, err := openStore()
	if err != nil {
		return nil, err
	}
	defer s.Close()

	cfg := appCfg.Pipeline
	cfg.Rounds = 0
	cfg.TargetSets = target

	runner := pipeline.New(nil, s.PoolRepo(), s.SetRepo(), newComposer(seed), cfg,
		pipeline.WithLogger(appLog.Named("pipeline")))
	rep, err := runner.Run(cmd.Context())
	if err != nil {
		return nil, err
	}

	out := make([]item.QuestionSet, 0, len(rep.Sets))
	for _, id := range rep.Sets {
		stored, err := s.SetRepo().Get(cmd.Context(), id)
		if err != nil {
			return nil, err
		}
		if stored != nil {
			out = append(out, stored.Set)
		}
	}
	return out, nil
}

func composeFromFile(path string, target int, seed uint64) ([]item.QuestionSet, error) {
	authored, err := readAuthored(path)
	if err != nil {
		return nil, err
	}
	items, skipped := authoredOnly(authored)
	if skipped > 0 {
		appLog.Sugar().Warnf("%d legacy items skipped", skipped)
	}

	v := validate.Default()
	pool := compose.NewPool()
	for _, a := range items {
		if v.ValidateItem(a).Blocking(appCfg.Pipeline.Strict) {
			continue
		}
		pool.Add(a)
	}

	built := newComposer(seed).BuildSetsFromPool(pool, target)
	out := make([]item.QuestionSet, len(built))
	for i, s := range built {
		out[i] = *s
	}
	return out, nil
}

func printSetSummary(s item.QuestionSet) {
	p := difficulty.ProfileSet(s.Questions)
	c := validate.CountSet(s.Questions)
	fmt.Printf("%s  %d/%d/%d  ?=%d distractors=%d embedded=%d\n",
		s.SetID, p.Counts.Easy, p.Counts.Medium, p.Counts.Hard,
		c.QuestionMarks, c.Distractors, c.Embedded)
}

func init() {
	composeCmd.Flags().IntP("sets", "n", 1, "Number of sets to compose")
	composeCmd.Flags().Uint64("seed", 0, "Random seed (0 picks one)")
	composeCmd.Flags().String("from", "", "Compose in memory from an item file instead of the pool")
	composeCmd.Flags().String("export", "", "Append the composed sets to this question-bank file")
}
