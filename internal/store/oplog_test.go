// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestRecentLogsNewestFirst(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if err := d.AppendLog(ctx, "create", int64(i), fmt.Sprintf("entry %d", i)); err != nil {
			t.Fatalf("AppendLog: %v", err)
		}
	}

	logs, err := d.RecentLogs(ctx, 2)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}
	if logs[0].Description != "entry 3" || logs[1].Description != "entry 2" {
		t.Errorf("order = [%q %q], want [entry 3, entry 2]", logs[0].Description, logs[1].Description)
	}
	if logs[0].OperationDate.IsZero() {
		t.Error("OperationDate should be set")
	}

	all, err := d.RecentLogs(ctx, 0)
	if err != nil {
		t.Fatalf("RecentLogs(0): %v", err)
	}
	if len(all) != 3 {
		t.Errorf("RecentLogs(0) returned %d, want 3 (default limit)", len(all))
	}
}

func TestAppendLogRequiresType(t *testing.T) {
	d := testDatabase(t)

	if err := d.AppendLog(context.Background(), "", 0, "x"); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("err = %v, want ErrInvalidArgument", err)
	}
}

func TestPruneLogs(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	old := sqlTimestamp(time.Now().Add(-72 * time.Hour))
	if _, err := d.DB().Exec(
		`INSERT INTO operation_logs (operation_type, entry_count, description, operation_date) VALUES ('create', 1, 'old', ?)`,
		old); err != nil {
		t.Fatalf("inserting old log: %v", err)
	}
	if err := d.AppendLog(ctx, "create", 1, "fresh"); err != nil {
		t.Fatalf("AppendLog: %v", err)
	}

	n, err := d.PruneLogs(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("PruneLogs: %v", err)
	}
	if n != 1 {
		t.Errorf("pruned %d, want 1", n)
	}

	logs, err := d.RecentLogs(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(logs) != 1 || logs[0].Description != "fresh" {
		t.Errorf("remaining logs = %+v, want only fresh", logs)
	}
}
