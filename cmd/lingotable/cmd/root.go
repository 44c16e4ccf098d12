// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package cmd implements the lingotable command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/olegiv/lingotable/internal/config"
	"github.com/olegiv/lingotable/internal/logging"
	"github.com/olegiv/lingotable/internal/store"
	"github.com/olegiv/lingotable/internal/version"
)

var (
	dbDir   string
	dbName  string
	jsonOut bool
	verbose bool

	appConfig *config.Config
	appLogger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "lingotable",
	Short: "Multilingual string table manager",
	Long: `lingotable manages tables of source strings and their translations
into a fixed set of languages. Each project is one SQLite file in the
database directory.

Environment variables (LINGO_*) and a .env file configure defaults;
flags override them.`,
	Version:           version.Get().Version,
	SilenceUsage:      true,
	PersistentPreRunE: loadApp,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDir, "db-dir", "", "database directory (default: $LINGO_DB_DIR or ./databases)")
	rootCmd.PersistentFlags().StringVar(&dbName, "db", "", "database file to use instead of the default one")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "print JSON output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose logging")
}

// loadApp reads the configuration and builds the logger for every command.
func loadApp(cmd *cobra.Command, _ []string) error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	appConfig = cfg

	// Command output goes to stdout, so logs of one-shot commands go to stderr.
	var w io.Writer = os.Stderr
	if cmd.Name() == "serve" {
		w = os.Stdout
	}
	appLogger = logging.New(w, logging.ParseLevel(cfg.LogLevel), cfg.LogFormat)
	slog.SetDefault(appLogger)
	return nil
}

// openRegistry opens the database directory. The caller closes it.
func openRegistry() (*store.Registry, error) {
	reg, err := store.NewRegistry(store.RegistryConfig{
		Dir:         appConfig.DBDir,
		DefaultName: appConfig.DefaultDB,
	}, appLogger)
	if err != nil {
		return nil, err
	}
	if dbName != "" {
		if err := reg.Select(dbName); err != nil {
			return nil, err
		}
	}
	return reg, nil
}

// withDatabase runs fn with the database chosen by --db, or the current one.
func withDatabase(ctx context.Context, fn func(*store.Registry, *store.Database) error) error {
	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer func() { _ = reg.Close() }()

	var d *store.Database
	if dbName != "" {
		d, err = reg.Open(ctx, dbName)
	} else {
		d, err = reg.Current(ctx)
	}
	if err != nil {
		return err
	}
	return fn(reg, d)
}

// printJSON writes v as indented JSON to stdout.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printf writes human readable output unless --json is set.
func printf(format string, args ...any) {
	if jsonOut {
		return
	}
	_, _ = fmt.Fprintf(os.Stdout, format, args...)
}
