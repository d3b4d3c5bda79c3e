package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentcraft/internal/bank"
	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/practice"
)

var practiceCmd = &cobra.Command{
	Use:   "practice [set_id]",
	Short: "Practice bank items in the terminal",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		if path == "" {
			path = appCfg.Bank.Path
		}
		limit, _ := cmd.Flags().GetInt("limit")
		seed, _ := cmd.Flags().GetUint64("seed")

		b, err := bank.Load(path, bank.WithLogger(appLog.Named("bank")))
		if err != nil {
			return err
		}

		var items []item.RuntimeItem
		if len(args) == 1 {
			s, ok := b.Set(args[0])
			if !ok {
				return fmt.Errorf("set %s not found in %s", args[0], path)
			}
			items = s.Runtime
		} else {
			for _, s := range b.Sets() {
				items = append(items, s.Runtime...)
			}
		}
		if limit > 0 && len(items) > limit {
			items = items[:limit]
		}
		if len(items) == 0 {
			fmt.Println("Nothing to practice.")
			return nil
		}

		var opts []practice.Option
		if seed != 0 {
			opts = append(opts, practice.WithSeed(seed))
		}
		sum, err := practice.Run(cmd.Context(), items, opts...)
		if err != nil {
			return err
		}
		fmt.Printf("%d of %d correct\n", sum.Correct, sum.Answered)
		return nil
	},
}

func init() {
	practiceCmd.Flags().StringP("file", "f", "", "Question-bank file (default from config bank.path)")
	practiceCmd.Flags().Int("limit", 0, "Stop after this many items")
	practiceCmd.Flags().Uint64("seed", 0, "Chunk shuffle seed (0 picks one)")
}
