package main

import (
	"fmt"

	"github.com/ganot/parley/internal/app"
	"github.com/ganot/parley/internal/config"
	"github.com/ganot/parley/internal/sqlite"
	"github.com/spf13/cobra"
)

var dbPath string

var rootCmd = &cobra.Command{
	Use:           "parleyctl",
	Short:         "Manage parley users, projects and tokens",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default from PARLEY_DB_PATH or config)")
}

// openApp opens and migrates the configured database. The caller closes
// the returned func.
func openApp() (*app.App, func(), error) {
	path := dbPath
	if path == "" {
		cfg, err := config.Load()
		if err != nil {
			return nil, nil, err
		}
		path = cfg.DB.Path
	}

	db, err := sqlite.New(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}
	a, err := app.New(app.Options{DB: db})
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return a, func() {
		_ = a.Events.Close()
		_ = db.Close()
	}, nil
}
