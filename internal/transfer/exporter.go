// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/olegiv/lingotable/internal/cache"
	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
)

// bundleCacheKey is the cache key suffix of ExportAll results.
const bundleCacheKey = "_all"

// Source is the part of a database handle the exporter reads.
type Source interface {
	Name() string
	Revision(ctx context.Context) (int64, error)
	Activation(ctx context.Context, lang model.Language) (bool, error)
	ActiveTranslationTable(ctx context.Context) ([]model.Language, []store.Entry, error)
	TranslationTable(ctx context.Context, langs []model.Language) ([]store.Entry, error)
}

// Exporter turns translation tables into key/value maps. Results are cached
// per database, data revision and language, so a change made through any
// handle or process is never served from the cache.
type Exporter struct {
	cache  cache.Cacher
	ttl    time.Duration
	logger *slog.Logger
}

// NewExporter creates an Exporter. A nil cache disables caching.
func NewExporter(c cache.Cacher, ttl time.Duration, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		cache:  c,
		ttl:    ttl,
		logger: logger,
	}
}

// CacheKey returns the cache key of an export of database at revision rev.
func CacheKey(database string, rev int64, suffix string) string {
	return cachePrefix(database) + strconv.FormatInt(rev, 10) + ":" + suffix
}

func cachePrefix(database string) string {
	return "export:" + database + ":"
}

// Invalidate drops every cached export of database. Entries of older
// revisions are never read again; this only frees them early.
func (e *Exporter) Invalidate(ctx context.Context, database string) {
	if e.cache == nil {
		return
	}
	if err := e.cache.DeleteByPrefix(ctx, cachePrefix(database)); err != nil {
		e.logger.Warn("failed to invalidate export cache", "database", database, "error", err)
	}
}

// HandleChange invalidates the exports of the changed database. It is meant
// to be registered with store.Registry.OnChange.
func (e *Exporter) HandleChange(ev store.ChangeEvent) {
	e.Invalidate(context.Background(), ev.Database)
}

// lookup reads a cached export. Misses and decode failures return nil.
func lookup[T any](ctx context.Context, e *Exporter, key string) *T {
	if e.cache == nil {
		return nil
	}
	v, err := cache.GetJSON[T](ctx, e.cache, key)
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			e.logger.Warn("failed to read export cache", "key", key, "error", err)
		}
		return nil
	}
	return v
}

func (e *Exporter) remember(ctx context.Context, key string, v any) {
	if e.cache == nil {
		return
	}
	if err := cache.SetJSON(ctx, e.cache, key, v, e.ttl); err != nil {
		e.logger.Warn("failed to write export cache", "key", key, "error", err)
	}
}

// ExportLanguage returns the key/value table of lang. Only entries with a
// non-blank key and translation are included; entries are read in id
// order so later entries overwrite earlier ones sharing a key.
func (e *Exporter) ExportLanguage(ctx context.Context, db Source, lang model.Language) (*LanguageExport, error) {
	if !lang.IsSupported() {
		return nil, fmt.Errorf("%w: %q", store.ErrUnsupportedLanguage, string(lang))
	}

	active, err := db.Activation(ctx, lang)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, fmt.Errorf("%w: %s", store.ErrInactiveLanguage, lang)
	}

	// The revision is read before the data, so a cached table is never
	// older than its key.
	rev, err := db.Revision(ctx)
	if err != nil {
		return nil, err
	}
	key := CacheKey(db.Name(), rev, string(lang))
	if cached := lookup[LanguageExport](ctx, e, key); cached != nil {
		return cached, nil
	}

	entries, err := db.TranslationTable(ctx, []model.Language{lang})
	if err != nil {
		return nil, err
	}

	out := &LanguageExport{
		Language: lang,
		Data:     make(map[string]string),
		Stats:    Stats{Total: len(entries), DuplicateKeys: []string{}},
	}
	seen := make(map[string]bool)
	for _, entry := range entries {
		text := entry.Translation(lang)
		if strings.TrimSpace(entry.Key) == "" || strings.TrimSpace(text) == "" {
			continue
		}
		out.Stats.Exported++
		out.Stats.WithKey++
		if _, dup := out.Data[entry.Key]; dup && !seen[entry.Key] {
			seen[entry.Key] = true
			out.Stats.DuplicateKeys = append(out.Stats.DuplicateKeys, entry.Key)
		}
		out.Data[entry.Key] = text
	}
	sort.Strings(out.Stats.DuplicateKeys)

	if len(out.Stats.DuplicateKeys) > 0 {
		e.logger.Warn("duplicate translation keys in export, last entry wins",
			"database", db.Name(),
			"language", lang,
			"keys", out.Stats.DuplicateKeys,
		)
	}

	e.remember(ctx, key, out)
	return out, nil
}

// ExportAll returns the key/value tables of every active language.
func (e *Exporter) ExportAll(ctx context.Context, db Source) (*BundleExport, error) {
	rev, err := db.Revision(ctx)
	if err != nil {
		return nil, err
	}
	key := CacheKey(db.Name(), rev, bundleCacheKey)
	if cached := lookup[BundleExport](ctx, e, key); cached != nil {
		return cached, nil
	}

	langs, entries, err := db.ActiveTranslationTable(ctx)
	if err != nil {
		return nil, err
	}

	out := &BundleExport{
		Data:      make(map[model.Language]map[string]string, len(langs)),
		Languages: langs,
	}
	for _, l := range langs {
		out.Data[l] = make(map[string]string)
	}
	for _, entry := range entries {
		if strings.TrimSpace(entry.Key) == "" {
			continue
		}
		for _, l := range langs {
			if text := entry.Translation(l); strings.TrimSpace(text) != "" {
				out.Data[l][entry.Key] = text
			}
		}
	}

	e.remember(ctx, key, out)
	return out, nil
}
