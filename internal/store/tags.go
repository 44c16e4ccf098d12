// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/olegiv/lingotable/internal/model"
)

// ListTags returns all tag names sorted by name.
func (d *Database) ListTags(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT name FROM tags ORDER BY name`)
	if err != nil {
		return nil, storageErr("list tags", err)
	}
	defer func() { _ = rows.Close() }()

	tags := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, storageErr("list tags", err)
		}
		tags = append(tags, name)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list tags", err)
	}
	return tags, nil
}

// CreateTag registers a tag name.
func (d *Database) CreateTag(ctx context.Context, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: tag name is required", ErrInvalidArgument)
	}

	if _, err := d.db.ExecContext(ctx, `INSERT INTO tags (name) VALUES (?)`, name); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: tag %q", ErrAlreadyExists, name)
		}
		return storageErr("create tag", err)
	}

	d.logOperation(ctx, model.OperationCreateTag, 1, "Created tag: "+name)
	return nil
}

// TagUsage returns the number of entries carrying the tag.
func (d *Database) TagUsage(ctx context.Context, name string) (int64, error) {
	var n int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM english WHERE tag = ?`, name).Scan(&n); err != nil {
		return 0, storageErr("tag usage", err)
	}
	return n, nil
}

// DeleteTag removes the tag and clears it from every entry. It returns the
// number of entries that lost the tag.
func (d *Database) DeleteTag(ctx context.Context, name string) (int64, error) {
	var cleared int64
	err := d.withTx(ctx, "delete tag", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM tags WHERE name = ?`, name)
		if err != nil {
			return err
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return err
		}

		res, err = tx.ExecContext(ctx,
			`UPDATE english SET tag = NULL, updated_at = CURRENT_TIMESTAMP WHERE tag = ?`, name)
		if err != nil {
			return err
		}
		if cleared, err = res.RowsAffected(); err != nil {
			return err
		}

		if removed == 0 && cleared == 0 {
			return fmt.Errorf("%w: tag %q", ErrNotFound, name)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	d.logOperation(ctx, model.OperationDeleteTag, cleared, "Deleted tag: "+name)
	return cleared, nil
}
