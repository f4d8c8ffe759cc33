// Package config provides YAML-based configuration loading for Sprintwell.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/sprintwell/sprintwell/internal/models"
	"gopkg.in/yaml.v3"
)

// Config is the top-level Sprintwell configuration, loaded from sprintwell.yaml.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Board    BoardConfig    `yaml:"board"`
	Velocity VelocityConfig `yaml:"velocity"`
	Health   HealthConfig   `yaml:"health"`
	Notify   NotifyConfig   `yaml:"notify"`
}

// DatabaseConfig holds connection settings. Driver is "sqlite" (default) or
// "mysql".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Path     string `yaml:"path"` // sqlite only
	Host     string `yaml:"host"` // mysql only
	Port     int    `yaml:"port"`
	Database string `yaml:"database"`
}

// ServerConfig holds dashboard server settings. RefreshCron, when set, is a
// 5-field cron expression for periodic snapshot recalculation of active
// sprints; empty disables the schedule.
type ServerConfig struct {
	Port        int    `yaml:"port"`
	RefreshCron string `yaml:"refresh_cron"`
}

// BoardConfig holds per-column WIP limits keyed by task status. A missing or
// zero entry means the column is unconstrained.
type BoardConfig struct {
	WIPLimits map[string]int `yaml:"wip_limits"`
}

// Limit returns the configured WIP limit for a status, or 0 if unconstrained.
func (b BoardConfig) Limit(status models.TaskStatus) int {
	return b.WIPLimits[string(status)]
}

// VelocityConfig controls the rolling team-velocity window.
type VelocityConfig struct {
	Window int `yaml:"window"`
}

// HealthConfig holds the component weights for the project health score.
// Weights are normalized at load time so they always sum to 1.
type HealthConfig struct {
	ScheduleWeight float64 `yaml:"schedule_weight"`
	VelocityWeight float64 `yaml:"velocity_weight"`
	FlowWeight     float64 `yaml:"flow_weight"`
}

// NotifyConfig holds settings for health tier-change alerts. Either or both
// channels may be configured; empty disables that channel.
type NotifyConfig struct {
	SlackToken     string `yaml:"slack_token"`
	SlackChannel   string `yaml:"slack_channel"`
	DiscordToken   string `yaml:"discord_token"`
	DiscordChannel string `yaml:"discord_channel"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no config file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "sprintwell.db"
	}
	if c.Database.Driver == "mysql" {
		if c.Database.Host == "" {
			c.Database.Host = "127.0.0.1"
		}
		if c.Database.Port == 0 {
			c.Database.Port = 3306
		}
		if c.Database.Database == "" {
			c.Database.Database = "sprintwell"
		}
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Velocity.Window == 0 {
		c.Velocity.Window = 10
	}
	if c.Health.ScheduleWeight == 0 && c.Health.VelocityWeight == 0 && c.Health.FlowWeight == 0 {
		c.Health.ScheduleWeight = 0.4
		c.Health.VelocityWeight = 0.3
		c.Health.FlowWeight = 0.3
	}
	c.Health.normalize()
}

// normalize rescales the weights to sum to 1.
func (h *HealthConfig) normalize() {
	sum := h.ScheduleWeight + h.VelocityWeight + h.FlowWeight
	if sum <= 0 {
		return
	}
	h.ScheduleWeight /= sum
	h.VelocityWeight /= sum
	h.FlowWeight /= sum
}

// validate checks that all fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Velocity.Window < 0 {
		errs = append(errs, "velocity.window must not be negative")
	}
	if c.Health.ScheduleWeight < 0 || c.Health.VelocityWeight < 0 || c.Health.FlowWeight < 0 {
		errs = append(errs, "health weights must not be negative")
	}
	for status, limit := range c.Board.WIPLimits {
		if !models.TaskStatus(status).Valid() {
			errs = append(errs, fmt.Sprintf("board.wip_limits: unknown status %q", status))
		}
		if limit < 0 {
			errs = append(errs, fmt.Sprintf("board.wip_limits.%s must not be negative", status))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: invalid: %s", strings.Join(errs, "; "))
	}
	return nil
}
