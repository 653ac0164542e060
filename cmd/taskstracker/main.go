package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	flag "github.com/spf13/pflag"

	"github.com/sandeepkv93/taskstracker/internal/catalog"
	"github.com/sandeepkv93/taskstracker/internal/config"
	"github.com/sandeepkv93/taskstracker/internal/filter"
	"github.com/sandeepkv93/taskstracker/internal/manager"
	"github.com/sandeepkv93/taskstracker/internal/scheduler"
	"github.com/sandeepkv93/taskstracker/internal/storage"
	"github.com/sandeepkv93/taskstracker/internal/tracker"
	"github.com/sandeepkv93/taskstracker/internal/update"
)

const jobBuffer = 64

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "taskstracker failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.RuntimeConfigFromEnv(config.DefaultRuntimeConfig())
	if err != nil {
		return err
	}
	cfg, err = parseFlags(args, cfg)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	backend, err := storage.OpenSQLite(cfg.DBPath)
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx := context.Background()
	store := tracker.New(backend, logger)
	report, err := store.Load(ctx)
	if err != nil {
		return err
	}
	logger.Info("tracker data loaded", "records", report.Loaded, "skipped", len(report.Skipped))

	filters := filter.NewEngine(backend, logger)
	if err := filters.Load(ctx); err != nil {
		return err
	}

	engine := scheduler.NewEngine(jobBuffer)
	engine.Start()
	defer engine.Stop()

	sink := update.NewSink()
	registry := manager.NewRegistry(manager.Config{
		Store:      store,
		Loader:     catalog.NewFileLoader(cfg.CatalogDir),
		Dispatcher: engine,
		Refresher:  sink,
		Messenger:  sink,
		Logger:     logger,
	})
	model, err := update.NewModel(ctx, update.Deps{
		Registry:      registry,
		Filters:       filters,
		Scheduler:     engine,
		Sink:          sink,
		StartCategory: cfg.StartCategory(),
		LoadTimeout:   cfg.LoadTimeout,
		Logger:        logger,
	})
	if err != nil {
		return err
	}

	program := tea.NewProgram(model)
	if _, err := program.Run(); err != nil {
		return err
	}
	if dropped := engine.Dropped(); dropped > 0 {
		logger.Debug("jobs dropped at shutdown", "count", dropped)
	}
	return nil
}

// parseFlags overlays command line flags on base.
func parseFlags(args []string, base config.RuntimeConfig) (config.RuntimeConfig, error) {
	cfg := base
	flagSet := flag.NewFlagSet("taskstracker", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&cfg.DBPath, "db", base.DBPath, "SQLite database path")
	flagSet.StringVar(&cfg.CatalogDir, "catalogs", base.CatalogDir, "directory holding task catalogs")
	flagSet.StringVarP(&cfg.Category, "category", "c", base.Category, "category shown first")
	flagSet.StringVar(&cfg.LogFile, "log-file", base.LogFile, "log file, empty disables logging")
	flagSet.StringVar(&cfg.LogLevel, "log-level", base.LogLevel, "debug, info, warn or error")
	flagSet.DurationVar(&cfg.LoadTimeout, "load-timeout", base.LoadTimeout, "catalog load timeout")
	if err := flagSet.Parse(args); err != nil {
		return base, fmt.Errorf("parse flags: %w", err)
	}
	if flagSet.NArg() > 0 {
		return base, fmt.Errorf("parse flags: unexpected argument %q", flagSet.Arg(0))
	}
	return cfg, nil
}

// openLogger writes text logs to the configured file. The terminal belongs to
// the UI, so an empty path discards logs.
func openLogger(cfg config.RuntimeConfig) (*slog.Logger, func(), error) {
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, err
	}
	if cfg.LogFile == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() {
		if err := f.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			fmt.Fprintf(os.Stderr, "close log file: %v\n", err)
		}
	}, nil
}
