// Package dashboard exposes the metrics engine as a JSON HTTP API plus an
// SSE stream of board activity.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/sprintwell/sprintwell/internal/board"
	"github.com/sprintwell/sprintwell/internal/burndown"
	"github.com/sprintwell/sprintwell/internal/config"
	"github.com/sprintwell/sprintwell/internal/health"
	"github.com/sprintwell/sprintwell/internal/models"
	"github.com/sprintwell/sprintwell/internal/store"
	"github.com/sprintwell/sprintwell/internal/velocity"
	"github.com/sprintwell/sprintwell/internal/workflow"
)

// StartOpts holds configuration for the API server.
type StartOpts struct {
	DB  *gorm.DB
	Cfg *config.Config
	Out io.Writer
}

// services bundles everything the handlers need.
type services struct {
	store    *store.Store
	machine  *workflow.Machine
	board    *board.Board
	burndown *burndown.Calculator
	velocity *velocity.Calculator
	health   *health.Scorer
	window   int
}

func newServices(db *gorm.DB, cfg *config.Config) *services {
	st := store.New(db)
	machine := workflow.New(st)

	limits := map[models.TaskStatus]int{}
	for status, limit := range cfg.Board.WIPLimits {
		limits[models.TaskStatus(status)] = limit
	}

	bd := burndown.New(st)
	vc := velocity.New(st)
	return &services{
		store:    st,
		machine:  machine,
		board:    board.New(st, machine, limits),
		burndown: bd,
		velocity: vc,
		health:   health.New(st, bd, vc, cfg.Health),
		window:   cfg.Velocity.Window,
	}
}

// Start launches the API server. It blocks until ctx is cancelled, then
// shuts down gracefully.
func Start(ctx context.Context, opts StartOpts) error {
	if opts.DB == nil {
		return fmt.Errorf("dashboard: db is required")
	}
	if opts.Cfg == nil {
		opts.Cfg = config.Default()
	}
	port := opts.Cfg.Server.Port
	if port <= 0 {
		port = 8080
	}

	gin.SetMode(gin.ReleaseMode)
	router := newRouter(newServices(opts.DB, opts.Cfg))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		srv.Shutdown(context.Background())
	}()

	if opts.Out != nil {
		fmt.Fprintf(opts.Out, "API running at http://localhost:%d\n", port)
	}

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("dashboard: %w", err)
	}
	return nil
}
