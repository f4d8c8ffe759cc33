package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/sprintwell/sprintwell/internal/burndown"
	"github.com/sprintwell/sprintwell/internal/config"
	"github.com/sprintwell/sprintwell/internal/dashboard"
	"github.com/sprintwell/sprintwell/internal/health"
	"github.com/sprintwell/sprintwell/internal/notify"
	"github.com/sprintwell/sprintwell/internal/store"
	"github.com/sprintwell/sprintwell/internal/velocity"
)

func newServeCmd() *cobra.Command {
	var (
		configPath string
		port       int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the metrics API server",
		Long:  "Launches the JSON API with SSE board events, plus optional scheduled snapshot refresh and health alerts.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath, port)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to config file")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "port to listen on (overrides config)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string, port int) error {
	cfg, gormDB, err := connectFromConfig(configPath)
	if err != nil {
		return err
	}
	if port > 0 {
		cfg.Server.Port = port
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		fmt.Fprintf(cmd.OutOrStdout(), "\nReceived %s, shutting down...\n", sig)
		cancel()
	}()

	if cfg.Server.RefreshCron != "" {
		sched, err := startSchedule(cfg, store.New(gormDB))
		if err != nil {
			return err
		}
		defer sched.Stop()
		fmt.Fprintf(cmd.OutOrStdout(), "Snapshot refresh scheduled: %s\n", cfg.Server.RefreshCron)
	}

	return dashboard.Start(ctx, dashboard.StartOpts{
		DB:  gormDB,
		Cfg: cfg,
		Out: cmd.OutOrStdout(),
	})
}

// startSchedule wires the periodic jobs: burndown recalculation for every
// active sprint, then a health evaluation pass that alerts on tier changes.
func startSchedule(cfg *config.Config, st *store.Store) (*cron.Cron, error) {
	bd := burndown.New(st)
	vc := velocity.New(st)
	scorer := health.New(st, bd, vc, cfg.Health)

	fanout, err := notify.New(cfg.Notify)
	if err != nil {
		return nil, err
	}
	monitor := notify.NewMonitor(st, scorer, fanout)

	c := cron.New()
	_, err = c.AddFunc(cfg.Server.RefreshCron, func() {
		sprints, err := st.ActiveSprints()
		if err != nil {
			log.Printf("serve: list active sprints: %v", err)
			return
		}
		for _, sp := range sprints {
			if _, err := bd.Recalculate(sp.ID); err != nil {
				log.Printf("serve: recalculate sprint %s: %v", sp.ID, err)
			}
		}
		monitor.Evaluate()
	})
	if err != nil {
		return nil, fmt.Errorf("serve: invalid refresh_cron %q: %w", cfg.Server.RefreshCron, err)
	}
	c.Start()
	return c, nil
}
