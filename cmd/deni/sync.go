package main

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Replay every queued write to the server once",
	Long: `Replay queued customer, item and transaction writes in order.

Records that fail stay queued and are retried on the next sync. The command
succeeds even when some records fail; check the printed report.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()

		report, err := a.SyncNow(ctx)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		entities := make([]string, 0, len(report.Entities))
		for name := range report.Entities {
			entities = append(entities, name)
		}
		sort.Strings(entities)
		for _, name := range entities {
			t := report.Entities[name]
			fmt.Fprintf(out, "%-12s replayed=%d failed=%d skipped=%d\n", name, t.Replayed, t.Failed, t.Skipped)
		}

		depth, err := a.Coordinator.QueueDepth(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "still queued: %d (took %s)\n", depth, report.Duration.Round(1e6))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
}
