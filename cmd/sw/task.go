package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/store"
	"github.com/sprintwell/sprintwell/internal/workflow"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Task workflow commands",
	}

	cmd.AddCommand(newTaskCreateCmd())
	cmd.AddCommand(newTaskLogCmd())
	cmd.AddCommand(newTaskAssignCmd())
	cmd.AddCommand(newTaskHistoryCmd())
	return cmd
}

func newMachine(configPath string) (*workflow.Machine, *store.Store, error) {
	_, st, err := openStore(configPath)
	if err != nil {
		return nil, nil, err
	}
	return workflow.New(st), st, nil
}

func newTaskCreateCmd() *cobra.Command {
	var (
		configPath string
		storyID    string
		assignee   string
		estimate   float64
	)

	cmd := &cobra.Command{
		Use:   "create <title>",
		Short: "Create a task in TODO status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, _, err := newMachine(configPath)
			if err != nil {
				return err
			}
			task, err := machine.CreateTask(workflow.CreateOpts{
				Title:          args[0],
				StoryID:        storyID,
				Assignee:       assignee,
				EstimatedHours: estimate,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", task.ID, task.Status)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVarP(&storyID, "story", "s", "", "parent story id (required)")
	cmd.Flags().StringVarP(&assignee, "assignee", "a", "", "assignee user id")
	cmd.Flags().Float64VarP(&estimate, "estimate", "e", 0, "estimated hours")
	cmd.MarkFlagRequired("story")
	return cmd
}

func newTaskLogCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "log <task-id> <hours>",
		Short: "Log time spent on a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var hours float64
			if _, err := fmt.Sscanf(args[1], "%g", &hours); err != nil {
				return fmt.Errorf("invalid hours %q", args[1])
			}
			machine, _, err := newMachine(configPath)
			if err != nil {
				return err
			}
			task, err := machine.LogTime(args[0], hours, actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %.1fh on %s (total %.1fh)\n", hours, task.ID, task.SpentHours)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&actor, "actor", "", "who logged the time")
	return cmd
}

func newTaskAssignCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "assign <task-id> <user-id>",
		Short: "Assign a task to a user",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			machine, _, err := newMachine(configPath)
			if err != nil {
				return err
			}
			task, err := machine.Assign(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Assigned %s to %s\n", task.ID, task.Assignee)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func newTaskHistoryCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "history <task-id>",
		Short: "Show the audit trail for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := newMachine(configPath)
			if err != nil {
				return err
			}
			entries, err := st.TaskHistoryByTask(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No history.")
				return nil
			}
			for _, e := range entries {
				ts := e.CreatedAt.Format("2006-01-02 15:04")
				switch e.Kind {
				case models.HistoryTransition:
					fmt.Fprintf(out, "%s  %s -> %s", ts, e.FromStatus, e.ToStatus)
				case models.HistoryTimeLog:
					fmt.Fprintf(out, "%s  logged %.1fh", ts, e.Hours)
				case models.HistoryAssignment:
					fmt.Fprintf(out, "%s  %s", ts, e.Note)
				default:
					fmt.Fprintf(out, "%s  %s", ts, e.Kind)
				}
				if e.Actor != "" {
					fmt.Fprintf(out, " (%s)", e.Actor)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}
