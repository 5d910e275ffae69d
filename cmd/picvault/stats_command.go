package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show upload statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			snap, err := client.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch stats: %w", err)
			}

			rows := [][]string{
				{"Total uploads", strconv.Itoa(snap.Total)},
				{"Failed uploads", strconv.Itoa(snap.Failed)},
				{"Success rate", snap.SuccessRate},
				{"Avg processing time", fmt.Sprintf("%.3fs", snap.AvgDurationSeconds)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
}
