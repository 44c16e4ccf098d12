// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"
	"time"
)

// DefaultLogLimit is the number of log entries returned when no limit is given.
const DefaultLogLimit = 10

// LogEntry is one row of the operation log.
type LogEntry struct {
	ID            int64     `json:"id"`
	OperationType string    `json:"operation_type"`
	EntryCount    int64     `json:"entry_count"`
	Description   string    `json:"description"`
	OperationDate time.Time `json:"operation_date"`
}

// AppendLog records an operation.
func (d *Database) AppendLog(ctx context.Context, opType string, count int64, description string) error {
	if opType == "" {
		return fmt.Errorf("%w: operation type is required", ErrInvalidArgument)
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO operation_logs (operation_type, entry_count, description, operation_date)
		VALUES (?, ?, ?, ?)`,
		opType, count, description, sqlTimestamp(time.Now()))
	return storageErr("append log", err)
}

// RecentLogs returns up to limit entries, newest first.
func (d *Database) RecentLogs(ctx context.Context, limit int) ([]LogEntry, error) {
	if limit < 1 {
		limit = DefaultLogLimit
	}

	rows, err := d.db.QueryContext(ctx, `
		SELECT id, operation_type, COALESCE(entry_count, 0), COALESCE(description, ''), operation_date
		FROM operation_logs
		ORDER BY operation_date DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, storageErr("read logs", err)
	}
	defer func() { _ = rows.Close() }()

	logs := make([]LogEntry, 0, limit)
	for rows.Next() {
		var (
			e  LogEntry
			ts timestamp
		)
		if err := rows.Scan(&e.ID, &e.OperationType, &e.EntryCount, &e.Description, &ts); err != nil {
			return nil, storageErr("read logs", err)
		}
		e.OperationDate = ts.Time
		logs = append(logs, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("read logs", err)
	}
	return logs, nil
}

// PruneLogs deletes entries recorded before the given time and returns how
// many were removed.
func (d *Database) PruneLogs(ctx context.Context, before time.Time) (int64, error) {
	res, err := d.db.ExecContext(ctx,
		`DELETE FROM operation_logs WHERE operation_date < ?`, sqlTimestamp(before))
	if err != nil {
		return 0, storageErr("prune logs", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storageErr("prune logs", err)
	}
	return n, nil
}

// logOperation appends a log entry after a committed mutation and notifies
// change listeners. A failed append does not undo the mutation.
func (d *Database) logOperation(ctx context.Context, opType string, count int64, description string) {
	if err := d.AppendLog(ctx, opType, count, description); err != nil {
		d.logger.Error("failed to record operation",
			"operation", opType,
			"error", err,
		)
	}
	d.changed(opType)
}
