package main

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
	"gorm.io/gorm"

	"github.com/sprintwell/sprintwell/internal/config"
	"github.com/sprintwell/sprintwell/internal/db"
	"github.com/sprintwell/sprintwell/internal/store"
)

const defaultConfigPath = "sprintwell.yaml"

// loadConfig reads the config file, falling back to defaults when the file
// does not exist so a bare sqlite setup needs no config at all.
func loadConfig(path string) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) && path == defaultConfigPath {
		return config.Default(), nil
	}
	return config.Load(path)
}

// connectFromConfig loads config and opens the database.
func connectFromConfig(path string) (*config.Config, *gorm.DB, error) {
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, nil, err
	}
	return cfg, gormDB, nil
}

// openStore is the common entry point for data commands.
func openStore(path string) (*config.Config, *store.Store, error) {
	cfg, gormDB, err := connectFromConfig(path)
	if err != nil {
		return nil, nil, err
	}
	return cfg, store.New(gormDB), nil
}

// terminalWidth returns the stdout width, or a sane default when stdout is
// not a terminal (tests, pipes).
func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 40 {
		return w
	}
	return 100
}

// truncate shortens s to max runes with an ellipsis.
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// bar renders a fixed-width progress bar for a 0-100 percentage.
func bar(pct float64, width int) string {
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := int(pct / 100 * float64(width))
	return fmt.Sprintf("[%s%s]", strings.Repeat("#", filled), strings.Repeat("-", width-filled))
}
