package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/sandeepkv93/taskstracker/internal/model"
)

// EnvPrefix is prepended to every variable name in RuntimeConfig.
const EnvPrefix = "TASKSTRACKER_"

var ErrInvalidConfig = errors.New("config: invalid runtime config")

type RuntimeConfig struct {
	DBPath      string        `env:"DB_PATH"`
	CatalogDir  string        `env:"CATALOG_DIR"`
	Category    string        `env:"CATEGORY"`
	LogFile     string        `env:"LOG_FILE"`
	LogLevel    string        `env:"LOG_LEVEL"`
	LoadTimeout time.Duration `env:"LOAD_TIMEOUT"`
}

func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		DBPath:      "tasks-tracker.db",
		CatalogDir:  "catalogs",
		Category:    string(model.CategoryCombat),
		LogFile:     "tasks-tracker.log",
		LogLevel:    "info",
		LoadTimeout: 10 * time.Second,
	}
}

// RuntimeConfigFromEnv overlays TASKSTRACKER_* variables on base. Unset
// variables keep the base value.
func RuntimeConfigFromEnv(base RuntimeConfig) (RuntimeConfig, error) {
	cfg := base
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return base, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

func (c RuntimeConfig) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return fmt.Errorf("%w: db path is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(c.CatalogDir) == "" {
		return fmt.Errorf("%w: catalog dir is required", ErrInvalidConfig)
	}
	if _, err := model.ParseCategory(c.Category); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	if c.LoadTimeout <= 0 {
		return fmt.Errorf("%w: load timeout must be positive, got %s", ErrInvalidConfig, c.LoadTimeout)
	}
	return nil
}

// StartCategory is the category shown first.
func (c RuntimeConfig) StartCategory() model.Category {
	category, err := model.ParseCategory(c.Category)
	if err != nil {
		return model.CategoryCombat
	}
	return category
}

func (c RuntimeConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidConfig, c.LogLevel)
	}
	return level, nil
}
