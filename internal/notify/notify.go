// Package notify delivers project health alerts to chat channels. Delivery
// is best-effort: failures are logged, never propagated into the metric
// paths that triggered them.
package notify

import (
	"fmt"
	"log"

	"github.com/sprintwell/sprintwell/internal/config"
	"github.com/sprintwell/sprintwell/internal/health"
)

// Notifier delivers one health tier-change alert.
type Notifier interface {
	HealthChanged(projectName string, report *health.Report, previousTier string) error
}

// Fanout sends to every configured notifier, logging individual failures.
type Fanout struct {
	notifiers []Notifier
}

// New builds a Fanout from configuration. Channels without credentials are
// skipped; an empty config yields a no-op Fanout.
func New(cfg config.NotifyConfig) (*Fanout, error) {
	var ns []Notifier
	if cfg.SlackToken != "" && cfg.SlackChannel != "" {
		ns = append(ns, NewSlack(cfg.SlackToken, cfg.SlackChannel))
	}
	if cfg.DiscordToken != "" && cfg.DiscordChannel != "" {
		d, err := NewDiscord(cfg.DiscordToken, cfg.DiscordChannel)
		if err != nil {
			return nil, err
		}
		ns = append(ns, d)
	}
	return &Fanout{notifiers: ns}, nil
}

// NewFanout wraps explicit notifiers, used by tests and custom wiring.
func NewFanout(ns ...Notifier) *Fanout {
	return &Fanout{notifiers: ns}
}

// HealthChanged forwards the alert to every notifier. Errors are logged and
// swallowed; the first one is returned for observability in tests.
func (f *Fanout) HealthChanged(projectName string, report *health.Report, previousTier string) error {
	var first error
	for _, n := range f.notifiers {
		if err := n.HealthChanged(projectName, report, previousTier); err != nil {
			log.Printf("notify: %v", err)
			if first == nil {
				first = err
			}
		}
	}
	return first
}

// message renders the alert text shared by all channels.
func message(projectName string, report *health.Report, previousTier string) string {
	return fmt.Sprintf("Project %s health changed: %s → %s (score %d)",
		projectName, previousTier, report.Status, report.Score)
}
