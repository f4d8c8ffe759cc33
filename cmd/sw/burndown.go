package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprintwell/sprintwell/internal/burndown"
)

func newBurndownCmd() *cobra.Command {
	var (
		configPath  string
		recalculate bool
	)

	cmd := &cobra.Command{
		Use:   "burndown <sprint-id>",
		Short: "Show the sprint burndown chart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBurndown(cmd, configPath, args[0], recalculate)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().BoolVarP(&recalculate, "recalculate", "r", false, "recompute and persist snapshots first")

	cmd.AddCommand(newBurndownDebugCmd())
	return cmd
}

func runBurndown(cmd *cobra.Command, configPath, sprintID string, recalculate bool) error {
	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	calc := burndown.New(st)

	if recalculate {
		if _, err := calc.Recalculate(sprintID); err != nil {
			return err
		}
	}

	stats, err := calc.Stats(sprintID)
	if err != nil {
		return err
	}
	series, err := calc.Get(sprintID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Sprint %s: %.1f/%.1f points done (%.0f%%)\n",
		sprintID, stats.CompletedPoints, stats.TotalPoints, stats.ProgressPct)
	if stats.Unavailable {
		fmt.Fprintf(out, "Burndown unavailable: %s\n", stats.Reason)
		return nil
	}

	fmt.Fprintf(out, "%-12s %10s %10s\n", "DATE", "IDEAL", "ACTUAL")
	for _, snap := range series {
		fmt.Fprintf(out, "%-12s %10.1f %10.1f  %s\n",
			snap.Date.Format("2006-01-02"), snap.IdealRemaining, snap.RemainingPoints,
			bar(100-snap.RemainingPoints/max(stats.TotalPoints, 1)*100, 20))
	}
	return nil
}

func newBurndownDebugCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "debug <sprint-id>",
		Short: "Dump the burndown diagnostic report as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			report, err := burndown.New(st).Debug(args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}
