package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/sentcraft/internal/item"
	"github.com/abhisek/sentcraft/internal/pipeline"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Manage the persistent candidate pool",
}

var poolAddCmd = &cobra.Command{
	Use:   "add <file>...",
	Short: "Validate, align and estimate items, then add them to the pool",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var items []item.AuthoredItem
		for _, path := range args {
			authored, err := readAuthored(path)
			if err != nil {
				return err
			}
			kept, skipped := authoredOnly(authored)
			if skipped > 0 {
				appLog.Sugar().Warnf("%s: %d legacy items skipped; the pool holds authored items only", path, skipped)
			}
			items = append(items, kept...)
		}

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		runner := pipeline.New(nil, s.PoolRepo(), s.SetRepo(), newComposer(0), appCfg.Pipeline,
			pipeline.WithLogger(appLog.Named("pipeline")))
		rep, err := runner.Ingest(cmd.Context(), items)
		if err != nil {
			return err
		}

		fmt.Printf("Read %d items: %d added, %d rejected by validation, %d not alignable, %d already pooled.\n",
			rep.Generated, rep.Added, rep.RejectedValidation, rep.RejectedAlignment,
			rep.Generated-rep.Added-rep.RejectedValidation-rep.RejectedAlignment)
		return nil
	},
}

var poolStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show pool counts per difficulty bucket",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		stats, err := s.PoolRepo().Stats(ctx)
		if err != nil {
			return fmt.Errorf("pool stats: %w", err)
		}
		sets, err := s.SetRepo().Count(ctx)
		if err != nil {
			return fmt.Errorf("count sets: %w", err)
		}

		fmt.Printf("%-10s %6s\n", "Bucket", "Items")
		fmt.Println(strings.Repeat("─", 17))
		total := 0
		for _, b := range item.AllBuckets() {
			n := stats.Available[b]
			total += n
			fmt.Printf("%-10s %6d\n", b, n)
		}
		fmt.Println(strings.Repeat("─", 17))
		fmt.Printf("%-10s %6d\n", "available", total)
		fmt.Printf("%-10s %6d\n", "consumed", stats.Consumed)
		fmt.Printf("%-10s %6d\n", "sets", sets)
		return nil
	},
}

var poolListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available pool items",
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, _ := cmd.Flags().GetString("bucket")

		s, err := openStore()
		if err != nil {
			return err
		}
		defer s.Close()

		avail, err := s.PoolRepo().ListAvailable(cmd.Context())
		if err != nil {
			return fmt.Errorf("list pool: %w", err)
		}
		shown := 0
		for _, p := range avail {
			if bucket != "" && string(p.Bucket) != bucket {
				continue
			}
			shown++
			fmt.Printf("%-8s %-6s %6.2f  %s\n", truncate(p.Key, 8), p.Bucket, p.Score, p.Item.Answer)
		}
		if shown == 0 {
			fmt.Println("No available items.")
		}
		return nil
	},
}

func init() {
	poolListCmd.Flags().String("bucket", "", "Only show one bucket (easy, medium, hard)")

	poolCmd.AddCommand(poolAddCmd)
	poolCmd.AddCommand(poolStatsCmd)
	poolCmd.AddCommand(poolListCmd)
}
