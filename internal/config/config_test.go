package config

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/sandeepkv93/taskstracker/internal/model"
)

func TestRuntimeConfigDefaults(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if cfg.DBPath != "tasks-tracker.db" || cfg.CatalogDir != "catalogs" {
		t.Fatalf("unexpected path defaults: %+v", cfg)
	}
	if cfg.StartCategory() != model.CategoryCombat || cfg.LoadTimeout != 10*time.Second {
		t.Fatalf("unexpected runtime defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestRuntimeConfigFromEnv(t *testing.T) {
	t.Setenv("TASKSTRACKER_DB_PATH", "state/custom.db")
	t.Setenv("TASKSTRACKER_CATALOG_DIR", "data/catalogs")
	t.Setenv("TASKSTRACKER_CATEGORY", "league-3")
	t.Setenv("TASKSTRACKER_LOG_LEVEL", "debug")
	t.Setenv("TASKSTRACKER_LOAD_TIMEOUT", "3s")

	cfg, err := RuntimeConfigFromEnv(DefaultRuntimeConfig())
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.DBPath != "state/custom.db" || cfg.CatalogDir != "data/catalogs" {
		t.Fatalf("unexpected path overrides: %+v", cfg)
	}
	if cfg.StartCategory() != model.CategoryLeague3 {
		t.Fatalf("unexpected category: %q", cfg.Category)
	}
	if cfg.LoadTimeout != 3*time.Second {
		t.Fatalf("unexpected timeout: %s", cfg.LoadTimeout)
	}
	if cfg.LogFile != "tasks-tracker.log" {
		t.Fatalf("unset variable should keep the default, got %q", cfg.LogFile)
	}
	level, err := cfg.SlogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Fatalf("unexpected level %v err %v", level, err)
	}
}

func TestRuntimeConfigFromEnvRejectsBadDuration(t *testing.T) {
	t.Setenv("TASKSTRACKER_LOAD_TIMEOUT", "soon")
	if _, err := RuntimeConfigFromEnv(DefaultRuntimeConfig()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	mutate := map[string]func(*RuntimeConfig){
		"empty db":      func(c *RuntimeConfig) { c.DBPath = " " },
		"empty catalog": func(c *RuntimeConfig) { c.CatalogDir = "" },
		"bad category":  func(c *RuntimeConfig) { c.Category = "RAIDS" },
		"bad level":     func(c *RuntimeConfig) { c.LogLevel = "loud" },
		"zero timeout":  func(c *RuntimeConfig) { c.LoadTimeout = 0 },
	}
	for name, fn := range mutate {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultRuntimeConfig()
			fn(&cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("expected ErrInvalidConfig, got: %v", err)
			}
		})
	}
}
