package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprintwell/sprintwell/internal/burndown"
	"github.com/sprintwell/sprintwell/internal/health"
	"github.com/sprintwell/sprintwell/internal/velocity"
)

func newHealthCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "health <project-id>",
		Short: "Score a project's health",
		Long:  "Combines schedule, velocity, and flow signals into a 0-100 score with a status tier.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func runHealth(cmd *cobra.Command, configPath, projectID string) error {
	cfg, st, err := openStore(configPath)
	if err != nil {
		return err
	}
	bd := burndown.New(st)
	vc := velocity.New(st)

	report, err := health.New(st, bd, vc, cfg.Health).Score(projectID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Health: %d/100 (%s)  %s\n", report.Score, report.Status, bar(float64(report.Score), 20))
	if report.InsufficientData {
		fmt.Fprintln(out, "Insufficient data: project has no sprints or no stories.")
		return nil
	}
	fmt.Fprintf(out, "  schedule  %5.1f\n", report.Components.Schedule)
	fmt.Fprintf(out, "  velocity  %5.1f\n", report.Components.Velocity)
	fmt.Fprintf(out, "  flow      %5.1f\n", report.Components.Flow)
	return nil
}
