package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/sprintwell/sprintwell/internal/db"
	"github.com/sprintwell/sprintwell/internal/doctor"
	"github.com/sprintwell/sprintwell/internal/store"
)

func newDoctorCmd() *cobra.Command {
	var (
		configPath string
		projectID  string
	)

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration, database, and data consistency",
		Long:  "Runs diagnostic checks: config validity, database connectivity, schema, and per-project data consistency findings.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd, configPath, projectID)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().StringVarP(&projectID, "project", "p", "", "limit data checks to one project")
	return cmd
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command, configPath, projectID string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Sprintwell Doctor")
	fmt.Fprintln(out, "=================")

	var results []checkResult

	cfg, err := loadConfig(configPath)
	if err != nil {
		results = append(results, checkResult{"Config", "FAIL", err.Error()})
		printResults(out, results)
		return fmt.Errorf("doctor: config check failed")
	}
	results = append(results, checkResult{"Config", "PASS", configPath})

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		results = append(results, checkResult{"Database", "FAIL", err.Error()})
		printResults(out, results)
		return fmt.Errorf("doctor: database check failed")
	}
	results = append(results, checkResult{"Database", "PASS", cfg.Database.Driver})

	results = append(results, checkSchema(gormDB))

	st := store.New(gormDB)
	findings, failed := checkData(st, projectID)
	results = append(results, findings...)

	printResults(out, results)
	if failed {
		return fmt.Errorf("doctor: checks failed")
	}
	return nil
}

// checkSchema verifies that every model's table exists.
func checkSchema(gormDB *gorm.DB) checkResult {
	missing := 0
	for _, model := range db.AllModels() {
		if !gormDB.Migrator().HasTable(model) {
			missing++
		}
	}
	if missing > 0 {
		return checkResult{"Schema", "FAIL", fmt.Sprintf("%d table(s) missing, run 'sw db init'", missing)}
	}
	return checkResult{"Schema", "PASS", fmt.Sprintf("%d tables", len(db.AllModels()))}
}

// checkData runs consistency findings per project.
func checkData(st *store.Store, projectID string) ([]checkResult, bool) {
	checker := doctor.New(st)

	var projectIDs []string
	if projectID != "" {
		projectIDs = []string{projectID}
	} else {
		projects, err := st.Projects()
		if err != nil {
			return []checkResult{{"Data", "FAIL", err.Error()}}, true
		}
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
		}
	}

	var results []checkResult
	failed := false
	for _, id := range projectIDs {
		findings, err := checker.Check(id)
		if err != nil {
			results = append(results, checkResult{"Data " + id, "FAIL", err.Error()})
			failed = true
			continue
		}
		if len(findings) == 0 {
			results = append(results, checkResult{"Data " + id, "PASS", "no findings"})
			continue
		}
		failed = true
		for _, f := range findings {
			results = append(results, checkResult{
				"Data " + id, "WARN", fmt.Sprintf("%s %s: %s", f.Code, f.EntityID, f.Message),
			})
		}
	}
	if len(results) == 0 {
		results = append(results, checkResult{"Data", "PASS", "no projects"})
	}
	return results, failed
}

func printResults(out io.Writer, results []checkResult) {
	for _, r := range results {
		fmt.Fprintf(out, "[%-4s] %-16s %s\n", r.status, r.name, r.detail)
	}
}
