// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/lingotable/internal/model"
)

const (
	sourceTable     = "english"
	activationTable = "language_activation"
)

// LanguageStatus reports the activation flag of a language and whether its
// translation table physically exists.
type LanguageStatus struct {
	Language    model.Language `json:"language"`
	Active      bool           `json:"active"`
	TableExists bool           `json:"table_exists"`
	IsSource    bool           `json:"is_source"`
}

// quoteIdent quotes a SQL identifier. Identifiers are only ever built from
// model.Languages, quoting keeps keywords like "no" harmless.
func quoteIdent(name string) string {
	return `"` + name + `"`
}

// checkLanguage validates that l is a supported language.
func checkLanguage(l model.Language) error {
	if !l.IsSupported() {
		return fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(l))
	}
	return nil
}

// tableExists reports whether a table named name exists.
func tableExists(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ensureActivationTable creates the activation table and seeds every
// supported language as active. Existing rows are left untouched.
func ensureActivationTable(ctx context.Context, q querier) error {
	if _, err := q.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS language_activation (
			language TEXT PRIMARY KEY,
			is_active BOOLEAN DEFAULT 1,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("creating activation table: %w", err)
	}

	for _, l := range model.Languages {
		if _, err := q.ExecContext(ctx,
			`INSERT OR IGNORE INTO language_activation (language, is_active) VALUES (?, 1)`,
			string(l)); err != nil {
			return fmt.Errorf("seeding activation for %s: %w", l, err)
		}
	}
	return nil
}

// activationFlags returns the stored flag of every language. The activation
// table is created first when missing.
func activationFlags(ctx context.Context, q querier) (map[model.Language]bool, error) {
	exists, err := tableExists(ctx, q, activationTable)
	if err != nil {
		return nil, err
	}
	if !exists {
		if err := ensureActivationTable(ctx, q); err != nil {
			return nil, err
		}
	}

	rows, err := q.QueryContext(ctx, `SELECT language, is_active FROM language_activation`)
	if err != nil {
		return nil, fmt.Errorf("reading activation flags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	flags := make(map[model.Language]bool, len(model.Languages))
	for rows.Next() {
		var (
			lang   string
			active bool
		)
		if err := rows.Scan(&lang, &active); err != nil {
			return nil, err
		}
		flags[model.Language(lang)] = active
	}
	return flags, rows.Err()
}

// activeLanguages lists active languages in model.Languages order.
// Languages without a stored flag default to active; the source language is
// always active.
func activeLanguages(ctx context.Context, q querier) ([]model.Language, error) {
	flags, err := activationFlags(ctx, q)
	if err != nil {
		return nil, err
	}
	active := make([]model.Language, 0, len(model.Languages))
	for _, l := range model.Languages {
		if flag, ok := flags[l]; l.IsSource() || !ok || flag {
			active = append(active, l)
		}
	}
	return active, nil
}

// isActive reports the activation flag of l.
func isActive(ctx context.Context, q querier, l model.Language) (bool, error) {
	if l.IsSource() {
		return true, nil
	}
	flags, err := activationFlags(ctx, q)
	if err != nil {
		return false, err
	}
	if flag, ok := flags[l]; ok {
		return flag, nil
	}
	return true, nil
}

// setActivation writes the activation flag of l.
func setActivation(ctx context.Context, q querier, l model.Language, active bool) error {
	if err := ensureActivationTable(ctx, q); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx, `
		UPDATE language_activation
		SET is_active = ?, updated_at = CURRENT_TIMESTAMP
		WHERE language = ?`, active, string(l))
	if err != nil {
		return fmt.Errorf("updating activation of %s: %w", l, err)
	}
	return nil
}

// createLanguageTable creates the translation table of l. Tables created by
// older schema versions lack translation_key; the column is added to them.
func createLanguageTable(ctx context.Context, q querier, l model.Language) error {
	table := quoteIdent(string(l))
	ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			english_id INTEGER NOT NULL,
			%s TEXT,
			translation_key TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (english_id) REFERENCES english (id) ON DELETE CASCADE
		)`, table, quoteIdent(l.TextColumn()))
	if _, err := q.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating table %s: %w", l, err)
	}

	var hasKey int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = 'translation_key'`,
		string(l)).Scan(&hasKey); err != nil {
		return fmt.Errorf("inspecting table %s: %w", l, err)
	}
	if hasKey == 0 {
		if _, err := q.ExecContext(ctx,
			fmt.Sprintf(`ALTER TABLE %s ADD COLUMN translation_key TEXT`, table)); err != nil {
			return fmt.Errorf("adding translation_key to %s: %w", l, err)
		}
	}

	index := quoteIdent("idx_" + string(l) + "_english_id")
	if _, err := q.ExecContext(ctx,
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s(english_id)`, index, table)); err != nil {
		return fmt.Errorf("indexing table %s: %w", l, err)
	}
	return nil
}

// dropLanguageTable drops the translation table of l with all its rows.
func dropLanguageTable(ctx context.Context, q querier, l model.Language) error {
	if _, err := q.ExecContext(ctx, fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(string(l)))); err != nil {
		return fmt.Errorf("dropping table %s: %w", l, err)
	}
	return nil
}

// InitSchema runs the static migrations, seeds activation flags, and
// reconciles per-language tables with them: active languages get their
// table, inactive languages lose it. Safe to call repeatedly.
func (d *Database) InitSchema(ctx context.Context) error {
	d.schemaMu.Lock()
	defer d.schemaMu.Unlock()

	if err := Migrate(d.db); err != nil {
		return storageErr("init schema", err)
	}

	return d.withTx(ctx, "init schema", func(tx *sql.Tx) error {
		if err := ensureActivationTable(ctx, tx); err != nil {
			return err
		}
		flags, err := activationFlags(ctx, tx)
		if err != nil {
			return err
		}
		for _, l := range model.Languages {
			if l.IsSource() {
				continue
			}
			if flag, ok := flags[l]; !ok || flag {
				if err := createLanguageTable(ctx, tx, l); err != nil {
					return err
				}
				continue
			}
			if err := dropLanguageTable(ctx, tx, l); err != nil {
				return err
			}
		}
		return nil
	})
}

// EnsureActivationTable creates and seeds the activation table if needed.
func (d *Database) EnsureActivationTable(ctx context.Context) error {
	return storageErr("ensure activation table", ensureActivationTable(ctx, d.db))
}

// Activation returns the activation flag of l. A missing activation table
// is created on the fly; a missing row means active.
func (d *Database) Activation(ctx context.Context, l model.Language) (bool, error) {
	if err := checkLanguage(l); err != nil {
		return false, err
	}
	d.schemaMu.RLock()
	defer d.schemaMu.RUnlock()

	active, err := isActive(ctx, d.db, l)
	if err != nil {
		return false, storageErr("read activation", err)
	}
	return active, nil
}

// SetActivation writes only the activation flag of l. It does not create or
// drop the language table; use ActivateLanguage or DeactivateLanguage to
// keep both in step.
func (d *Database) SetActivation(ctx context.Context, l model.Language, active bool) error {
	if err := checkLanguage(l); err != nil {
		return err
	}
	if l.IsSource() {
		return fmt.Errorf("%w: the source language is always active", ErrInvalidOperation)
	}
	d.schemaMu.Lock()
	defer d.schemaMu.Unlock()

	return d.withTx(ctx, "set activation", func(tx *sql.Tx) error {
		return setActivation(ctx, tx, l, active)
	})
}

// ActivateLanguage creates the translation table of l and marks it active.
func (d *Database) ActivateLanguage(ctx context.Context, l model.Language) error {
	if err := checkLanguage(l); err != nil {
		return err
	}
	if l.IsSource() {
		return fmt.Errorf("%w: the source language cannot be toggled", ErrInvalidOperation)
	}

	d.schemaMu.Lock()
	err := d.withTx(ctx, "activate "+string(l), func(tx *sql.Tx) error {
		if err := createLanguageTable(ctx, tx, l); err != nil {
			return err
		}
		return setActivation(ctx, tx, l, true)
	})
	d.schemaMu.Unlock()
	if err != nil {
		return err
	}

	d.logOperation(ctx, model.OperationActivate, 0, "Activated language: "+string(l))
	return nil
}

// DeactivateLanguage drops the translation table of l, discarding its
// translations, and marks it inactive.
func (d *Database) DeactivateLanguage(ctx context.Context, l model.Language) error {
	if err := checkLanguage(l); err != nil {
		return err
	}
	if l.IsSource() {
		return fmt.Errorf("%w: the source language cannot be removed", ErrInvalidOperation)
	}

	d.schemaMu.Lock()
	err := d.withTx(ctx, "deactivate "+string(l), func(tx *sql.Tx) error {
		if err := dropLanguageTable(ctx, tx, l); err != nil {
			return err
		}
		return setActivation(ctx, tx, l, false)
	})
	d.schemaMu.Unlock()
	if err != nil {
		return err
	}

	d.logOperation(ctx, model.OperationDeactivate, 0, "Deactivated language: "+string(l))
	return nil
}

// SetLanguageActive activates or deactivates l.
func (d *Database) SetLanguageActive(ctx context.Context, l model.Language, active bool) error {
	if active {
		return d.ActivateLanguage(ctx, l)
	}
	return d.DeactivateLanguage(ctx, l)
}

// ActiveLanguages lists the active languages, source language first.
func (d *Database) ActiveLanguages(ctx context.Context) ([]model.Language, error) {
	d.schemaMu.RLock()
	defer d.schemaMu.RUnlock()

	langs, err := activeLanguages(ctx, d.db)
	if err != nil {
		return nil, storageErr("list active languages", err)
	}
	return langs, nil
}

// LanguageStatuses reports every supported language.
func (d *Database) LanguageStatuses(ctx context.Context) ([]LanguageStatus, error) {
	d.schemaMu.RLock()
	defer d.schemaMu.RUnlock()

	flags, err := activationFlags(ctx, d.db)
	if err != nil {
		return nil, storageErr("list languages", err)
	}

	statuses := make([]LanguageStatus, 0, len(model.Languages))
	for _, l := range model.Languages {
		table := string(l)
		if l.IsSource() {
			table = sourceTable
		}
		exists, err := tableExists(ctx, d.db, table)
		if err != nil {
			return nil, storageErr("list languages", err)
		}
		flag, ok := flags[l]
		statuses = append(statuses, LanguageStatus{
			Language:    l,
			Active:      l.IsSource() || !ok || flag,
			TableExists: exists,
			IsSource:    l.IsSource(),
		})
	}
	return statuses, nil
}

// requireActive fails with ErrInactiveLanguage unless every language in
// langs is active.
func requireActive(ctx context.Context, q querier, langs []model.Language) error {
	if len(langs) == 0 {
		return nil
	}
	active, err := activeLanguages(ctx, q)
	if err != nil {
		return err
	}
	set := make(map[model.Language]bool, len(active))
	for _, l := range active {
		set[l] = true
	}
	for _, l := range langs {
		if !set[l] {
			return fmt.Errorf("%w: %s", ErrInactiveLanguage, l)
		}
	}
	return nil
}

// errNoRows maps sql.ErrNoRows to ErrNotFound.
func errNoRows(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}
