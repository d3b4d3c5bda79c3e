package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentcraft/internal/align"
	"github.com/abhisek/sentcraft/internal/bank"
	"github.com/abhisek/sentcraft/internal/item"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "Inspect and update the question-bank file",
}

// openBank loads path, or starts an empty bank there when the file does not
// exist yet.
func openBank(path string) (*bank.QuestionBank, error) {
	opts := []bank.Option{bank.WithLogger(appLog.Named("bank"))}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return bank.New(path, opts...), nil
	}
	return bank.Load(path, opts...)
}

func bankPath(cmd *cobra.Command) string {
	if p, _ := cmd.Flags().GetString("file"); p != "" {
		return p
	}
	return appCfg.Bank.Path
}

var bankShowCmd = &cobra.Command{
	Use:   "show [set_id]",
	Short: "List the bank's sets, or print one set's items",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := bank.Load(bankPath(cmd), bank.WithLogger(appLog.Named("bank")))
		if err != nil {
			return err
		}

		if len(args) == 0 {
			sets := b.Sets()
			if len(sets) == 0 {
				fmt.Println("The bank has no sets.")
				return nil
			}
			for _, s := range sets {
				fmt.Printf("%-12s %2d items  %2d aligned\n", s.ID, len(s.Items), len(s.Runtime))
			}
			fmt.Printf("\n%d sets, %d runtime items\n", len(sets), b.Len())
			return nil
		}

		s, ok := b.Set(args[0])
		if !ok {
			return fmt.Errorf("set %s not found", args[0])
		}
		for _, r := range s.Runtime {
			given := "-"
			if r.HasGiven() {
				given = fmt.Sprintf("%q@%d", *r.Given, r.GivenIndex)
			}
			fmt.Printf("%-16s %s\n", r.ID, align.Reconstruct(r))
			fmt.Printf("%-16s bank=%v given=%s", "", r.Bank, given)
			if r.Distractor != nil {
				fmt.Printf(" distractor=%q", *r.Distractor)
			}
			fmt.Println()
		}
		return nil
	},
}

var bankCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the bank file and align every item",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := bankPath(cmd)
		b, err := bank.Load(path, bank.WithStrict(true), bank.WithLogger(appLog.Named("bank")))
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d sets, %d items, all aligned\n", path, len(b.Sets()), b.Len())
		return nil
	},
}

var bankExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Append committed sets from the database to the bank file",
	RunE: func(cmd *cobra.Command, args []string) error {
		path := bankPath(cmd)
		b, err := openBank(path)
		if err != nil {
			return err
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		stored, err := s.SetRepo().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list sets: %w", err)
		}
		var fresh []item.QuestionSet
		for _, st := range stored {
			if _, exists := b.Set(st.Set.SetID); exists {
				continue
			}
			fresh = append(fresh, st.Set)
		}
		if len(fresh) == 0 {
			fmt.Println("The bank already has every committed set.")
			return nil
		}
		if err := b.Add(fresh...); err != nil {
			return err
		}
		if err := b.Save(); err != nil {
			return err
		}
		fmt.Printf("Exported %d sets to %s\n", len(fresh), path)
		return nil
	},
}

func init() {
	bankCmd.PersistentFlags().StringP("file", "f", "", "Question-bank file (default from config bank.path)")

	bankCmd.AddCommand(bankShowCmd)
	bankCmd.AddCommand(bankCheckCmd)
	bankCmd.AddCommand(bankExportCmd)
}
