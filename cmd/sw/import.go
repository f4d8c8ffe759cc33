package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sprintwell/sprintwell/internal/ghimport"
)

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import external work items",
	}

	cmd.AddCommand(newImportGitHubCmd())
	return cmd
}

func newImportGitHubCmd() *cobra.Command {
	var (
		configPath string
		token      string
	)

	cmd := &cobra.Command{
		Use:   "github <project-id> <owner/repo>",
		Short: "Import open GitHub issues as backlog stories",
		Long: `Imports every open issue from the repository into the project's backlog.
Issues already imported are skipped, so the command is safe to re-run.
Story points are read from "points:N" labels when present.

The token flag falls back to the GITHUB_TOKEN environment variable.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, ok := strings.Cut(args[1], "/")
			if !ok || owner == "" || repo == "" {
				return fmt.Errorf("repository must be in owner/repo form, got %q", args[1])
			}
			if token == "" {
				token = os.Getenv("GITHUB_TOKEN")
			}
			return runImportGitHub(cmd, configPath, token, args[0], owner, repo)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVarP(&token, "token", "t", "", "GitHub API token")
	return cmd
}

func runImportGitHub(cmd *cobra.Command, configPath, token, projectID, owner, repo string) error {
	_, st, err := openStore(configPath)
	if err != nil {
		return err
	}

	result, err := ghimport.New(st, token).Run(cmd.Context(), projectID, owner, repo)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	for _, story := range result.Imported {
		fmt.Fprintf(out, "Imported %s: %s\n", story.ID, truncate(story.Title, 60))
	}
	fmt.Fprintf(out, "%d imported, %d already present\n", len(result.Imported), result.Skipped)
	return nil
}
