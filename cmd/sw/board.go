package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sprintwell/sprintwell/internal/board"
	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/workflow"
)

func newBoardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Sprint board commands",
	}

	cmd.AddCommand(newBoardShowCmd())
	cmd.AddCommand(newBoardMoveCmd())
	cmd.AddCommand(newBoardCheckCmd())
	return cmd
}

// newBoard builds a Board from config-driven WIP limits.
func newBoard(configPath string) (*board.Board, error) {
	cfg, st, err := openStore(configPath)
	if err != nil {
		return nil, err
	}
	limits := map[models.TaskStatus]int{}
	for status, limit := range cfg.Board.WIPLimits {
		limits[models.TaskStatus(status)] = limit
	}
	return board.New(st, workflow.New(st), limits), nil
}

func newBoardShowCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "show <sprint-id>",
		Short: "Show the sprint board with WIP occupancy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoardShow(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func runBoardShow(cmd *cobra.Command, configPath, sprintID string) error {
	b, err := newBoard(configPath)
	if err != nil {
		return err
	}
	cols, err := b.Columns(sprintID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	titleWidth := terminalWidth() - 30
	for _, col := range cols {
		occupancy := fmt.Sprintf("%d", len(col.Tasks))
		if col.Limit > 0 {
			occupancy = fmt.Sprintf("%d/%d", len(col.Tasks), col.Limit)
		}
		fmt.Fprintf(out, "%s (%s)\n", col.Status, occupancy)
		for _, task := range col.Tasks {
			assignee := task.Assignee
			if assignee == "" {
				assignee = "unassigned"
			}
			fmt.Fprintf(out, "  %-10s %-*s %s\n", task.ID, titleWidth, truncate(task.Title, titleWidth), assignee)
		}
	}
	return nil
}

func newBoardMoveCmd() *cobra.Command {
	var (
		configPath string
		actor      string
	)

	cmd := &cobra.Command{
		Use:   "move <task-id> <from> <to>",
		Short: "Move a task between board columns",
		Long:  "Moves a task from one status column to another, enforcing WIP limits on the target column.",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoardMove(cmd, configPath, actor, args[0], args[1], args[2])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVar(&actor, "actor", "", "who performed the move (defaults to the task's assignee)")
	return cmd
}

func runBoardMove(cmd *cobra.Command, configPath, actor, taskID, from, to string) error {
	b, err := newBoard(configPath)
	if err != nil {
		return err
	}
	task, err := b.MoveTask(taskID, models.TaskStatus(from), models.TaskStatus(to), actor)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s\n", task.ID, task.Status)
	return nil
}

func newBoardCheckCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "check <sprint-id>",
		Short: "Validate board invariants for a sprint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBoardCheck(cmd, configPath, args[0])
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	return cmd
}

func runBoardCheck(cmd *cobra.Command, configPath, sprintID string) error {
	b, err := newBoard(configPath)
	if err != nil {
		return err
	}
	cols, err := b.Columns(sprintID)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	violations := board.Validate(cols)
	if len(violations) == 0 {
		fmt.Fprintln(out, "Board OK")
		return nil
	}
	for _, v := range violations {
		fmt.Fprintf(out, "VIOLATION: %s\n", v)
	}
	return fmt.Errorf("board check: %d violation(s)", len(violations))
}
