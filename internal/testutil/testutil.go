// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package testutil provides shared test helpers.
package testutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/olegiv/lingotable/internal/store"
)

// TestLogger creates a test logger that only outputs warnings and errors.
func TestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// TestLoggerSilent creates a logger that only outputs errors.
func TestLoggerSilent() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// TestDatabase opens a schema-initialized database file in a temp dir.
// The handle is closed when the test ends.
func TestDatabase(t *testing.T) *store.Database {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	d, err := store.OpenDatabase(context.Background(), "test.db", path, store.DefaultDBConfig(), TestLoggerSilent())
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d
}

// TestRegistry creates a registry over an empty temp directory.
func TestRegistry(t *testing.T) *store.Registry {
	t.Helper()

	r, err := store.NewRegistry(store.RegistryConfig{
		Dir:         filepath.Join(t.TempDir(), "databases"),
		DefaultName: "default.db",
	}, TestLoggerSilent())
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// MustAdd adds an entry or fails the test.
func MustAdd(t *testing.T, d *store.Database, in store.EntryInput) int64 {
	t.Helper()

	id, err := d.AddTranslation(context.Background(), in)
	if err != nil {
		t.Fatalf("AddTranslation(%q): %v", in.Text, err)
	}
	return id
}
