package notify

import (
	"log"
	"sync"

	"github.com/sprintwell/sprintwell/internal/health"
	"github.com/sprintwell/sprintwell/internal/models"
)

// ProjectLister is the storage port the monitor depends on.
type ProjectLister interface {
	Projects() ([]models.Project, error)
}

// Scorer evaluates one project's health.
type Scorer interface {
	Score(projectID string) (*health.Report, error)
}

// Monitor evaluates every project's health on demand and fires an alert
// whenever a project's tier differs from the previous evaluation. The first
// evaluation of a project only establishes its baseline.
type Monitor struct {
	store    ProjectLister
	scorer   Scorer
	notifier Notifier

	mu    sync.Mutex
	tiers map[string]string
}

// NewMonitor creates a Monitor.
func NewMonitor(store ProjectLister, scorer Scorer, notifier Notifier) *Monitor {
	return &Monitor{
		store:    store,
		scorer:   scorer,
		notifier: notifier,
		tiers:    map[string]string{},
	}
}

// Evaluate scores every project and alerts on tier changes. Per-project
// failures are logged and skipped so one broken project cannot starve the
// rest.
func (m *Monitor) Evaluate() {
	projects, err := m.store.Projects()
	if err != nil {
		log.Printf("notify: list projects: %v", err)
		return
	}

	for _, p := range projects {
		report, err := m.scorer.Score(p.ID)
		if err != nil {
			log.Printf("notify: score project %s: %v", p.ID, err)
			continue
		}

		m.mu.Lock()
		previous, seen := m.tiers[p.ID]
		m.tiers[p.ID] = report.Status
		m.mu.Unlock()

		if seen && previous != report.Status {
			m.notifier.HealthChanged(p.Name, report, previous)
		}
	}
}
