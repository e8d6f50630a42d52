// Package cli wires the data layer into a small command-line surface:
// profile creation, export, import, and stats. All logic lives in the
// repositories; commands are composition glue.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/shelftrack/shelftrack/internal/config"
	"github.com/shelftrack/shelftrack/internal/database"
	"github.com/shelftrack/shelftrack/internal/logger"
	"github.com/shelftrack/shelftrack/internal/snapshot"
)

var (
	flagDataDir   string
	flagLogLevel  string
	flagLogFormat string
)

var rootCmd = &cobra.Command{
	Use:   "shelftrack",
	Short: "Personal book catalog and reading tracker",
	Long: `shelftrack keeps a personal catalog of books, series, genres and
reading progress in an embedded database, and can export or import the
whole dataset as a portable JSON document.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (default ./data)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFormat, "log-format", "", "log format: pretty or json")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(importRetailerCmd)
	rootCmd.AddCommand(statsCmd)
}

// app bundles everything a command needs.
type app struct {
	cfg   *config.Config
	log   *slog.Logger
	store *snapshot.BadgerStore
	db    *database.Database
}

var session database.Session

func openApp() (*app, error) {
	cfg := config.NewConfig()
	if flagDataDir != "" {
		cfg.Database.Dir = flagDataDir
		cfg.Snapshot.Dir = flagDataDir + "/snapshot"
	}
	if flagLogLevel != "" {
		cfg.Logging.Level = flagLogLevel
	}
	if flagLogFormat != "" {
		cfg.Logging.Format = flagLogFormat
	}

	log := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	store, err := snapshot.OpenBadger(cfg.Snapshot.Dir)
	if err != nil {
		return nil, err
	}

	db, err := session.Initialize(cfg, store, log)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("initialize database: %w", err)
	}

	return &app{cfg: cfg, log: log, store: store, db: db}, nil
}

func (a *app) close() {
	if err := a.db.Close(); err != nil {
		a.log.Warn("failed to close database", "error", err)
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("failed to close snapshot store", "error", err)
	}
	session.Clear()
}
