package config

import (
	"math"
	"strings"
	"testing"
)

func TestParse_Full(t *testing.T) {
	yaml := `
database:
  driver: mysql
  host: db.internal
  port: 3307
  database: scrum
server:
  port: 9090
  refresh_cron: "0 2 * * *"
board:
  wip_limits:
    IN_PROGRESS: 3
    REVIEW: 2
velocity:
  window: 5
health:
  schedule_weight: 0.5
  velocity_weight: 0.25
  flow_weight: 0.25
notify:
  slack_token: xoxb-test
  slack_channel: "#scrum"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Database.Driver != "mysql" || cfg.Database.Host != "db.internal" || cfg.Database.Port != 3307 {
		t.Errorf("database = %+v", cfg.Database)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("server.port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Server.RefreshCron != "0 2 * * *" {
		t.Errorf("server.refresh_cron = %q", cfg.Server.RefreshCron)
	}
	if got := cfg.Board.WIPLimits["IN_PROGRESS"]; got != 3 {
		t.Errorf("wip_limits.IN_PROGRESS = %d, want 3", got)
	}
	if cfg.Velocity.Window != 5 {
		t.Errorf("velocity.window = %d, want 5", cfg.Velocity.Window)
	}
	if cfg.Notify.SlackChannel != "#scrum" {
		t.Errorf("notify.slack_channel = %q", cfg.Notify.SlackChannel)
	}
}

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("{}"))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("database.driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Database.Path != "sprintwell.db" {
		t.Errorf("database.path = %q, want sprintwell.db", cfg.Database.Path)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("server.port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Velocity.Window != 10 {
		t.Errorf("velocity.window = %d, want 10", cfg.Velocity.Window)
	}
	sum := cfg.Health.ScheduleWeight + cfg.Health.VelocityWeight + cfg.Health.FlowWeight
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("health weights sum = %v, want 1", sum)
	}
}

func TestParse_NormalizesWeights(t *testing.T) {
	yaml := `
health:
  schedule_weight: 2
  velocity_weight: 1
  flow_weight: 1
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if math.Abs(cfg.Health.ScheduleWeight-0.5) > 1e-9 {
		t.Errorf("schedule_weight = %v, want 0.5", cfg.Health.ScheduleWeight)
	}
}

func TestParse_RejectsUnknownDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "not supported") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_RejectsUnknownWIPStatus(t *testing.T) {
	_, err := Parse([]byte("board:\n  wip_limits:\n    DOING: 3\n"))
	if err == nil {
		t.Fatal("expected error for unknown status key")
	}
	if !strings.Contains(err.Error(), `unknown status "DOING"`) {
		t.Errorf("error = %q", err.Error())
	}
}

func TestParse_RejectsNegativeLimit(t *testing.T) {
	_, err := Parse([]byte("board:\n  wip_limits:\n    REVIEW: -1\n"))
	if err == nil {
		t.Fatal("expected error for negative limit")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/sprintwell.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !strings.Contains(err.Error(), "config: read") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Database.Driver != "sqlite" || cfg.Server.Port != 8080 {
		t.Errorf("Default() = %+v", cfg)
	}
}
