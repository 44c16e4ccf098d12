// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/olegiv/lingotable/internal/model"
)

// errDryRun rolls back a dry-run import.
var errDryRun = errors.New("dry run")

// KeyedOptions controls ImportKeyed.
type KeyedOptions struct {
	// CreateMissing adds a source entry for unknown keys. Only honored when
	// importing the source language.
	CreateMissing bool
	// Tag is set on entries created by CreateMissing.
	Tag string
	// DryRun computes the result without writing.
	DryRun bool
}

// KeyedResult summarizes an ImportKeyed call.
type KeyedResult struct {
	Language    model.Language `json:"language"`
	Matched     int            `json:"matched"`
	Updated     int            `json:"updated"`
	Unchanged   int            `json:"unchanged"`
	Created     int            `json:"created"`
	SkippedKeys []string       `json:"skipped_keys"`
	DryRun      bool           `json:"dry_run"`
}

// ImportKeyed writes key→text pairs for language l. Every entry whose
// translation key equals a given key receives the text; for the source
// language the entry text itself is replaced. Blank keys or texts and
// unknown keys are reported in SkippedKeys. The import runs in one
// transaction.
func (d *Database) ImportKeyed(ctx context.Context, l model.Language, values map[string]string, opts KeyedOptions) (KeyedResult, error) {
	if err := checkLanguage(l); err != nil {
		return KeyedResult{}, err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := KeyedResult{Language: l, SkippedKeys: []string{}, DryRun: opts.DryRun}

	d.schemaMu.RLock()
	err := d.withTx(ctx, "import "+string(l), func(tx *sql.Tx) error {
		if err := requireActive(ctx, tx, []model.Language{l}); err != nil {
			return err
		}

		for _, key := range keys {
			text := values[key]
			if strings.TrimSpace(key) == "" || strings.TrimSpace(text) == "" {
				res.SkippedKeys = append(res.SkippedKeys, key)
				continue
			}

			ids, err := entryIDsByKey(ctx, tx, key)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				if !opts.CreateMissing || !l.IsSource() {
					res.SkippedKeys = append(res.SkippedKeys, key)
					continue
				}
				if _, err := tx.ExecContext(ctx, `
					INSERT INTO english (english_text, translation_key, tag)
					VALUES (?, ?, ?)`, text, key, nullString(opts.Tag)); err != nil {
					return fmt.Errorf("creating entry for %s: %w", key, err)
				}
				res.Created++
				continue
			}

			res.Matched += len(ids)
			for _, id := range ids {
				changed, err := applyKeyed(ctx, tx, l, id, key, text)
				if err != nil {
					return err
				}
				if changed {
					res.Updated++
				} else {
					res.Unchanged++
				}
			}
		}

		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	d.schemaMu.RUnlock()

	if errors.Is(err, errDryRun) {
		err = nil
	}
	if err != nil {
		return KeyedResult{}, err
	}

	if !opts.DryRun && res.Updated+res.Created > 0 {
		d.logOperation(ctx, model.OperationImport, int64(res.Updated+res.Created),
			fmt.Sprintf("Imported %d %s translations", res.Updated+res.Created, l))
	}
	return res, nil
}

func entryIDsByKey(ctx context.Context, q querier, key string) ([]int64, error) {
	rows, err := q.QueryContext(ctx, `SELECT id FROM english WHERE translation_key = ? ORDER BY id`, key)
	if err != nil {
		return nil, fmt.Errorf("looking up key %s: %w", key, err)
	}
	defer func() { _ = rows.Close() }()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// applyKeyed writes text for entry id and reports whether anything changed.
func applyKeyed(ctx context.Context, q querier, l model.Language, id int64, key, text string) (bool, error) {
	if l.IsSource() {
		res, err := q.ExecContext(ctx, `
			UPDATE english SET english_text = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND english_text IS NOT ?`, text, id, text)
		if err != nil {
			return false, fmt.Errorf("updating entry %d: %w", id, err)
		}
		n, err := res.RowsAffected()
		return n > 0, err
	}

	var current sql.NullString
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE english_id = ? ORDER BY id LIMIT 1`,
			quoteIdent(l.TextColumn()), quoteIdent(string(l))), id).Scan(&current)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return false, fmt.Errorf("reading %s translation: %w", l, err)
	case current.Valid && current.String == text:
		return false, nil
	}

	if err := upsertTranslationRow(ctx, q, l, id, text, key); err != nil {
		return false, err
	}
	return true, nil
}
