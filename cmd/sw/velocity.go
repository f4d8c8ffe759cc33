package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprintwell/sprintwell/internal/velocity"
)

func newVelocityCmd() *cobra.Command {
	var (
		configPath string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "velocity <project-id>",
		Short: "Show team velocity history for a project",
		Long:  "Prints points completed per sprint, oldest first, plus the rolling average.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVelocity(cmd, configPath, args[0], limit)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of recent sprints (default from config)")

	cmd.AddCommand(newVelocitySprintCmd())
	return cmd
}

func runVelocity(cmd *cobra.Command, configPath, projectID string, limit int) error {
	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	if limit <= 0 {
		limit = cfg.Velocity.Window
	}

	history, err := velocity.New(st).TeamHistory(projectID, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(history.Entries) == 0 {
		fmt.Fprintln(out, "No completed sprints.")
		return nil
	}
	var peak float64 = 1
	for _, entry := range history.Entries {
		if entry.Velocity > peak {
			peak = entry.Velocity
		}
	}
	for _, entry := range history.Entries {
		fmt.Fprintf(out, "%-24s %6.1f  %s\n",
			truncate(entry.SprintName, 24), entry.Velocity, bar(entry.Velocity/peak*100, 20))
	}
	fmt.Fprintf(out, "Average: %d points/sprint over last %d sprint(s)\n",
		history.Average, len(history.Entries))
	return nil
}

func newVelocitySprintCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "sprint <sprint-id>",
		Short: "Show the completed points for one sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := openStore(configPath)
			if err != nil {
				return err
			}
			points, err := velocity.New(st).SprintVelocity(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.1f points\n", points)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}
