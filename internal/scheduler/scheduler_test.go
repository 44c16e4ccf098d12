// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package scheduler

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/olegiv/lingotable/internal/store"
	"github.com/olegiv/lingotable/internal/testutil"
)

func TestNew(t *testing.T) {
	logger := testutil.TestLoggerSilent()

	s := New(nil, Config{}, logger)
	if s == nil {
		t.Fatal("New() returned nil")
	}
	if s.cron == nil {
		t.Error("New() scheduler has nil cron")
	}
	if s.cfg.Schedule != "@daily" {
		t.Errorf("default schedule = %q, want @daily", s.cfg.Schedule)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	reg := testutil.TestRegistry(t)
	s := New(reg, Config{Retention: 24 * time.Hour, Schedule: "@hourly"}, testutil.TestLoggerSilent())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n := len(s.cron.Entries()); n != 1 {
		t.Errorf("cron entries = %d, want 1", n)
	}
	s.Stop()
}

func TestScheduler_StartDisabled(t *testing.T) {
	s := New(nil, Config{}, testutil.TestLoggerSilent())

	if err := s.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if n := len(s.cron.Entries()); n != 0 {
		t.Errorf("cron entries = %d, want 0", n)
	}
	s.Stop()
}

func TestScheduler_StartInvalidSchedule(t *testing.T) {
	s := New(nil, Config{Retention: time.Hour, Schedule: "not a schedule"}, testutil.TestLoggerSilent())

	if err := s.Start(); err == nil {
		t.Fatal("Start() expected error for invalid schedule")
	}
}

func TestPruneLogs(t *testing.T) {
	ctx := context.Background()
	reg := testutil.TestRegistry(t)

	for _, name := range []string{"alpha", "beta"} {
		if _, err := reg.Create(name); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
		d, err := reg.Open(ctx, name)
		if err != nil {
			t.Fatalf("Open(%s) error = %v", name, err)
		}
		testutil.MustAdd(t, d, store.EntryInput{Text: "Hello " + name})
		testutil.MustAdd(t, d, store.EntryInput{Text: "Bye " + name})
	}
	// Files the registry cannot open are not pruned and do not fail the run.
	if err := os.WriteFile(filepath.Join(reg.Dir(), "legacy-copy.db"), nil, 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	s := New(reg, Config{Retention: 24 * time.Hour}, testutil.TestLoggerSilent())

	// Entries written now are within the retention period.
	n, err := s.PruneLogs(ctx)
	if err != nil {
		t.Fatalf("PruneLogs() error = %v", err)
	}
	if n != 0 {
		t.Errorf("PruneLogs() = %d, want 0", n)
	}

	s.now = func() time.Time { return time.Now().Add(48 * time.Hour) }
	n, err = s.PruneLogs(ctx)
	if err != nil {
		t.Fatalf("PruneLogs() error = %v", err)
	}
	if n != 4 {
		t.Errorf("PruneLogs() = %d, want 4", n)
	}

	d, err := reg.Open(ctx, "alpha")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	logs, err := d.RecentLogs(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLogs() error = %v", err)
	}
	if len(logs) != 0 {
		t.Errorf("len(logs) = %d, want 0", len(logs))
	}
}

func TestPruneLogsDisabled(t *testing.T) {
	s := New(nil, Config{}, testutil.TestLoggerSilent())

	n, err := s.PruneLogs(context.Background())
	if err != nil || n != 0 {
		t.Errorf("PruneLogs() = %d, %v; want 0, nil", n, err)
	}
}
