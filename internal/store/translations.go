// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/olegiv/lingotable/internal/model"
)

// gatherBatchSize bounds the number of ids bound into one IN (...) list.
const gatherBatchSize = 500

// TagAll disables the tag filter.
const TagAll = "all"

// Entry is a source entry together with its translations.
type Entry struct {
	ID           int64                      `json:"english_id"`
	Text         string                     `json:"english"`
	Key          string                     `json:"key"`
	Tag          string                     `json:"tag"`
	Tags         []string                   `json:"tags"`
	Translations map[model.Language]*string `json:"translations"`
	CreatedAt    time.Time                  `json:"created_at"`
	UpdatedAt    time.Time                  `json:"updated_at"`
}

// Translation returns the text for l, or "" when there is none.
func (e Entry) Translation(l model.Language) string {
	if s := e.Translations[l]; s != nil {
		return *s
	}
	return ""
}

// EntryInput carries the fields of a new or updated entry. Translations is
// keyed by language name as received from clients.
type EntryInput struct {
	Text         string            `json:"english"`
	Key          string            `json:"key"`
	Tag          string            `json:"tag"`
	Translations map[string]string `json:"translations"`
}

// ListParams selects a page of entries.
type ListParams struct {
	Page     int
	Limit    int
	Tag      string
	Language string
}

// ListResult is one page of entries.
type ListResult struct {
	Entries []Entry
	Total   int64
	HasMore bool
}

// SearchParams filters entries by substring.
type SearchParams struct {
	Query    string
	Tag      string
	Language string
}

// parseTranslations validates the language names of in and returns the
// parsed map without the source language.
func parseTranslations(in map[string]string) (map[model.Language]string, error) {
	out := make(map[model.Language]string, len(in))
	for name, text := range in {
		l, ok := model.ParseLanguage(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, name)
		}
		if l.IsSource() {
			continue
		}
		out[l] = text
	}
	return out, nil
}

// orderedLanguages returns the keys of m in model.Languages order.
func orderedLanguages(m map[model.Language]string, nonEmptyOnly bool) []model.Language {
	langs := make([]model.Language, 0, len(m))
	for _, l := range model.Languages {
		text, ok := m[l]
		if !ok || (nonEmptyOnly && text == "") {
			continue
		}
		langs = append(langs, l)
	}
	return langs
}

// AddTranslation inserts a source entry and one row per language with a
// non-empty translation. It returns the new entry id.
func (d *Database) AddTranslation(ctx context.Context, in EntryInput) (int64, error) {
	if in.Text == "" {
		return 0, fmt.Errorf("%w: english text is required", ErrInvalidArgument)
	}
	translations, err := parseTranslations(in.Translations)
	if err != nil {
		return 0, err
	}
	langs := orderedLanguages(translations, true)

	d.schemaMu.RLock()
	var id int64
	err = d.withTx(ctx, "add translation", func(tx *sql.Tx) error {
		if err := requireActive(ctx, tx, langs); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO english (english_text, translation_key, tag)
			VALUES (?, ?, ?)`, in.Text, nullString(in.Key), nullString(in.Tag))
		if err != nil {
			return fmt.Errorf("inserting source entry: %w", err)
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}

		for _, l := range langs {
			if err := insertTranslationRow(ctx, tx, l, id, translations[l], in.Key); err != nil {
				return err
			}
		}
		return nil
	})
	d.schemaMu.RUnlock()
	if err != nil {
		return 0, err
	}

	d.logOperation(ctx, model.OperationCreate, 1, "Added translation: "+model.Preview(in.Text))
	return id, nil
}

// UpdateTranslation rewrites the source fields of entry id and upserts the
// translations listed in the input. Languages absent from the input keep
// their rows.
func (d *Database) UpdateTranslation(ctx context.Context, id int64, in EntryInput) error {
	if in.Text == "" {
		return fmt.Errorf("%w: english text is required", ErrInvalidArgument)
	}
	translations, err := parseTranslations(in.Translations)
	if err != nil {
		return err
	}
	langs := orderedLanguages(translations, false)

	d.schemaMu.RLock()
	err = d.withTx(ctx, "update translation", func(tx *sql.Tx) error {
		if err := requireActive(ctx, tx, langs); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, `
			UPDATE english
			SET english_text = ?, translation_key = ?, tag = ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ?`, in.Text, nullString(in.Key), nullString(in.Tag), id)
		if err != nil {
			return fmt.Errorf("updating source entry: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("%w: translation %d", ErrNotFound, id)
		}

		for _, l := range langs {
			if err := upsertTranslationRow(ctx, tx, l, id, translations[l], in.Key); err != nil {
				return err
			}
		}
		return nil
	})
	d.schemaMu.RUnlock()
	if err != nil {
		return err
	}

	d.logOperation(ctx, model.OperationUpdate, 1, "Updated translation: "+model.Preview(in.Text))
	return nil
}

func insertTranslationRow(ctx context.Context, q querier, l model.Language, sourceID int64, text, key string) error {
	query := fmt.Sprintf(`INSERT INTO %s (english_id, %s, translation_key) VALUES (?, ?, ?)`,
		quoteIdent(string(l)), quoteIdent(l.TextColumn()))
	if _, err := q.ExecContext(ctx, query, sourceID, nullString(text), nullString(key)); err != nil {
		return fmt.Errorf("inserting %s translation: %w", l, err)
	}
	return nil
}

// upsertTranslationRow updates the row of sourceID in table l or inserts it
// when there is none.
func upsertTranslationRow(ctx context.Context, q querier, l model.Language, sourceID int64, text, key string) error {
	var rowID int64
	err := q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT id FROM %s WHERE english_id = ? ORDER BY id LIMIT 1`, quoteIdent(string(l))),
		sourceID).Scan(&rowID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return insertTranslationRow(ctx, q, l, sourceID, text, key)
	case err != nil:
		return fmt.Errorf("looking up %s translation: %w", l, err)
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = ?, translation_key = ?, updated_at = CURRENT_TIMESTAMP
		WHERE english_id = ?`, quoteIdent(string(l)), quoteIdent(l.TextColumn()))
	if _, err := q.ExecContext(ctx, query, nullString(text), nullString(key), sourceID); err != nil {
		return fmt.Errorf("updating %s translation: %w", l, err)
	}
	return nil
}

// DeleteTranslation removes entry id; its translations cascade.
func (d *Database) DeleteTranslation(ctx context.Context, id int64) error {
	d.schemaMu.RLock()
	var text string
	err := d.withTx(ctx, "delete translation", func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `SELECT english_text FROM english WHERE id = ?`, id).Scan(&text)
		if err != nil {
			return errNoRows(err, fmt.Sprintf("translation %d", id))
		}
		_, err = tx.ExecContext(ctx, `DELETE FROM english WHERE id = ?`, id)
		return err
	})
	d.schemaMu.RUnlock()
	if err != nil {
		return err
	}

	d.logOperation(ctx, model.OperationDelete, 1, "Deleted translation: "+model.Preview(text))
	return nil
}

const entryColumns = `id, english_text, COALESCE(translation_key, ''), COALESCE(tag, ''), created_at, updated_at`

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	entries := []Entry{}
	for rows.Next() {
		var (
			e                Entry
			created, updated timestamp
		)
		if err := rows.Scan(&e.ID, &e.Text, &e.Key, &e.Tag, &created, &updated); err != nil {
			return nil, err
		}
		e.CreatedAt = created.Time
		e.UpdatedAt = updated.Time
		e.Tags = []string{}
		if e.Tag != "" {
			e.Tags = []string{e.Tag}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetTranslation returns entry id with all active translations.
func (d *Database) GetTranslation(ctx context.Context, id int64) (Entry, error) {
	d.schemaMu.RLock()
	defer d.schemaMu.RUnlock()

	rows, err := d.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM english WHERE id = ?`, id)
	if err != nil {
		return Entry{}, storageErr("get translation", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return Entry{}, storageErr("get translation", err)
	}
	if len(entries) == 0 {
		return Entry{}, fmt.Errorf("%w: translation %d", ErrNotFound, id)
	}
	if err := d.gather(ctx, entries, ""); err != nil {
		return Entry{}, err
	}
	return entries[0], nil
}

// tagFilter returns the WHERE fragment and args of a tag filter.
func tagFilter(tag string) (string, []any) {
	if tag == "" || tag == TagAll {
		return "", nil
	}
	return "tag = ?", []any{tag}
}

// ListTranslations returns one page of entries, newest first.
func (d *Database) ListTranslations(ctx context.Context, p ListParams) (ListResult, error) {
	if p.Page < 1 || p.Limit < 1 {
		return ListResult{}, fmt.Errorf("%w: page and limit must be positive", ErrInvalidArgument)
	}

	d.schemaMu.RLock()
	defer d.schemaMu.RUnlock()

	where, args := tagFilter(p.Tag)
	if where != "" {
		where = " WHERE " + where
	}

	var total int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM english`+where, args...).Scan(&total); err != nil {
		return ListResult{}, storageErr("count translations", err)
	}

	offset := (p.Page - 1) * p.Limit
	rows, err := d.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM english`+where+` ORDER BY id DESC LIMIT ? OFFSET ?`,
		append(args, p.Limit, offset)...)
	if err != nil {
		return ListResult{}, storageErr("list translations", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return ListResult{}, storageErr("list translations", err)
	}
	if err := d.gather(ctx, entries, p.Language); err != nil {
		return ListResult{}, err
	}
	if entries == nil {
		entries = []Entry{}
	}

	return ListResult{
		Entries: entries,
		Total:   total,
		HasMore: int64(p.Page)*int64(p.Limit) < total,
	}, nil
}

// likeEscaper escapes LIKE wildcards so the query matches literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// SearchTranslations returns every entry whose text or key contains the
// query, newest first.
func (d *Database) SearchTranslations(ctx context.Context, p SearchParams) ([]Entry, error) {
	if p.Query == "" {
		return nil, fmt.Errorf("%w: search query is required", ErrInvalidArgument)
	}

	d.schemaMu.RLock()
	defer d.schemaMu.RUnlock()

	pattern := "%" + likeEscaper.Replace(p.Query) + "%"
	where := `(english_text LIKE ? ESCAPE '\' OR translation_key LIKE ? ESCAPE '\')`
	args := []any{pattern, pattern}
	if tw, targs := tagFilter(p.Tag); tw != "" {
		where += " AND " + tw
		args = append(args, targs...)
	}

	rows, err := d.db.QueryContext(ctx,
		`SELECT `+entryColumns+` FROM english WHERE `+where+` ORDER BY id DESC`, args...)
	if err != nil {
		return nil, storageErr("search translations", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, storageErr("search translations", err)
	}
	if err := d.gather(ctx, entries, p.Language); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// TranslationTable returns every entry in ascending id order with the
// translations of langs. Each language must be active.
func (d *Database) TranslationTable(ctx context.Context, langs []model.Language) ([]Entry, error) {
	for _, l := range langs {
		if err := checkLanguage(l); err != nil {
			return nil, err
		}
	}

	d.schemaMu.RLock()
	defer d.schemaMu.RUnlock()

	if err := requireActive(ctx, d.db, langs); err != nil {
		return nil, storageErr("read translation table", err)
	}
	return d.translationTable(ctx, langs)
}

// ActiveTranslationTable is TranslationTable over every active language,
// read under one schema lock. It also returns the languages.
func (d *Database) ActiveTranslationTable(ctx context.Context) ([]model.Language, []Entry, error) {
	d.schemaMu.RLock()
	defer d.schemaMu.RUnlock()

	langs, err := activeLanguages(ctx, d.db)
	if err != nil {
		return nil, nil, storageErr("read translation table", err)
	}
	entries, err := d.translationTable(ctx, langs)
	if err != nil {
		return nil, nil, err
	}
	return langs, entries, nil
}

// translationTable reads the table of langs. Callers hold schemaMu.
func (d *Database) translationTable(ctx context.Context, langs []model.Language) ([]Entry, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT `+entryColumns+` FROM english ORDER BY id`)
	if err != nil {
		return nil, storageErr("read translation table", err)
	}
	entries, err := scanEntries(rows)
	if err != nil {
		return nil, storageErr("read translation table", err)
	}
	for i := range entries {
		entries[i].Translations = map[model.Language]*string{}
	}
	for _, l := range langs {
		if l.IsSource() {
			for i := range entries {
				text := entries[i].Text
				entries[i].Translations[l] = &text
			}
			continue
		}
		if err := fillLanguage(ctx, d.db, l, entries); err != nil {
			return nil, storageErr("read translation table", err)
		}
	}
	return entries, nil
}

// gather fills Translations of entries from every active language. When
// language names an active language, only that language is kept.
// Callers hold schemaMu.
func (d *Database) gather(ctx context.Context, entries []Entry, language string) error {
	if len(entries) == 0 {
		return nil
	}
	active, err := activeLanguages(ctx, d.db)
	if err != nil {
		return storageErr("gather translations", err)
	}

	if filter, ok := model.ParseLanguage(language); ok {
		for _, l := range active {
			if l == filter {
				active = []model.Language{filter}
				break
			}
		}
	}

	for i := range entries {
		entries[i].Translations = make(map[model.Language]*string, len(active))
	}
	for _, l := range active {
		if l.IsSource() {
			for i := range entries {
				text := entries[i].Text
				entries[i].Translations[l] = &text
			}
			continue
		}
		for i := range entries {
			entries[i].Translations[l] = nil
		}
		if err := fillLanguage(ctx, d.db, l, entries); err != nil {
			return storageErr("gather translations", err)
		}
	}
	return nil
}

// fillLanguage loads the l translations of entries in batches. The lowest
// row id per entry wins, matching a per-entry "SELECT ... LIMIT 1" lookup.
func fillLanguage(ctx context.Context, q querier, l model.Language, entries []Entry) error {
	index := make(map[int64][]int, len(entries))
	ids := make([]any, 0, len(entries))
	for i, e := range entries {
		if _, seen := index[e.ID]; !seen {
			ids = append(ids, e.ID)
		}
		index[e.ID] = append(index[e.ID], i)
	}

	filled := make(map[int64]bool, len(ids))
	for start := 0; start < len(ids); start += gatherBatchSize {
		end := min(start+gatherBatchSize, len(ids))
		batch := ids[start:end]

		query := fmt.Sprintf(`SELECT english_id, %s FROM %s WHERE english_id IN (%s) ORDER BY id`,
			quoteIdent(l.TextColumn()), quoteIdent(string(l)), placeholders(len(batch)))
		rows, err := q.QueryContext(ctx, query, batch...)
		if err != nil {
			return fmt.Errorf("reading %s translations: %w", l, err)
		}
		for rows.Next() {
			var (
				sourceID int64
				text     sql.NullString
			)
			if err := rows.Scan(&sourceID, &text); err != nil {
				_ = rows.Close()
				return err
			}
			if filled[sourceID] {
				continue
			}
			filled[sourceID] = true
			if !text.Valid {
				continue
			}
			for _, i := range index[sourceID] {
				s := text.String
				entries[i].Translations[l] = &s
			}
		}
		err = rows.Err()
		_ = rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
