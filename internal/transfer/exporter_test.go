// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/olegiv/lingotable/internal/cache"
	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
	"github.com/olegiv/lingotable/internal/testutil"
)

func newTestExporter(t *testing.T) (*Exporter, *cache.MemoryCache) {
	t.Helper()
	c := cache.NewMemoryCache(cache.MemoryOptions{DefaultTTL: time.Hour})
	t.Cleanup(func() { _ = c.Close() })
	return NewExporter(c, time.Hour, testutil.TestLoggerSilent()), c
}

func TestExportLanguageStats(t *testing.T) {
	db := testutil.TestDatabase(t)
	exporter, _ := newTestExporter(t)
	ctx := context.Background()

	testutil.MustAdd(t, db, store.EntryInput{Text: "Hello", Key: "greet.hello", Translations: map[string]string{"chinese": "你好"}})
	testutil.MustAdd(t, db, store.EntryInput{Text: "Bye", Key: "greet.bye", Translations: map[string]string{"chinese": "再见"}})
	testutil.MustAdd(t, db, store.EntryInput{Text: "No key", Translations: map[string]string{"chinese": "没有"}})

	out, err := exporter.ExportLanguage(ctx, db, "chinese")
	if err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}

	if len(out.Data) != 2 {
		t.Errorf("len(Data) = %d, want 2", len(out.Data))
	}
	if out.Data["greet.hello"] != "你好" || out.Data["greet.bye"] != "再见" {
		t.Errorf("Data = %v", out.Data)
	}
	want := Stats{Total: 3, Exported: 2, WithKey: 2}
	if out.Stats.Total != want.Total || out.Stats.Exported != want.Exported || out.Stats.WithKey != want.WithKey {
		t.Errorf("Stats = %+v, want %+v", out.Stats, want)
	}
	if len(out.Stats.DuplicateKeys) != 0 {
		t.Errorf("DuplicateKeys = %v, want none", out.Stats.DuplicateKeys)
	}
}

func TestExportHelloScenario(t *testing.T) {
	db := testutil.TestDatabase(t)
	exporter, _ := newTestExporter(t)
	ctx := context.Background()

	id := testutil.MustAdd(t, db, store.EntryInput{
		Text:         "Hello",
		Key:          "greet.hello",
		Tag:          "ui",
		Translations: map[string]string{"chinese": "你好"},
	})
	if id != 1 {
		t.Fatalf("id = %d, want 1", id)
	}

	out, err := exporter.ExportLanguage(ctx, db, "chinese")
	if err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}
	if out.Data["greet.hello"] != "你好" || out.Stats.Total != 1 || out.Stats.Exported != 1 || out.Stats.WithKey != 1 {
		t.Errorf("export = %+v", out)
	}

	if err := db.DeleteTranslation(ctx, id); err != nil {
		t.Fatalf("DeleteTranslation: %v", err)
	}
	// No change listener is registered; the revision alone keeps the
	// cached export from being served.
	out, err = exporter.ExportLanguage(ctx, db, "chinese")
	if err != nil {
		t.Fatalf("ExportLanguage after delete: %v", err)
	}
	if len(out.Data) != 0 {
		t.Errorf("Data after delete = %v, want empty", out.Data)
	}
}

func TestExportDuplicateKeysLastWins(t *testing.T) {
	db := testutil.TestDatabase(t)
	exporter, _ := newTestExporter(t)
	ctx := context.Background()

	testutil.MustAdd(t, db, store.EntryInput{Text: "First", Key: "dup", Translations: map[string]string{"french": "premier"}})
	testutil.MustAdd(t, db, store.EntryInput{Text: "Second", Key: "dup", Translations: map[string]string{"french": "second"}})

	out, err := exporter.ExportLanguage(ctx, db, "french")
	if err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}
	if out.Data["dup"] != "second" {
		t.Errorf("Data[dup] = %q, want second (last by id)", out.Data["dup"])
	}
	if out.Stats.Exported != 2 {
		t.Errorf("Exported = %d, want 2", out.Stats.Exported)
	}
	if len(out.Stats.DuplicateKeys) != 1 || out.Stats.DuplicateKeys[0] != "dup" {
		t.Errorf("DuplicateKeys = %v, want [dup]", out.Stats.DuplicateKeys)
	}
}

func TestExportSourceLanguage(t *testing.T) {
	db := testutil.TestDatabase(t)
	exporter, _ := newTestExporter(t)

	testutil.MustAdd(t, db, store.EntryInput{Text: "Hello", Key: "greet.hello"})

	out, err := exporter.ExportLanguage(context.Background(), db, model.SourceLanguage)
	if err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}
	if out.Data["greet.hello"] != "Hello" {
		t.Errorf("Data = %v", out.Data)
	}
}

func TestExportLanguageErrors(t *testing.T) {
	db := testutil.TestDatabase(t)
	exporter, _ := newTestExporter(t)
	ctx := context.Background()

	if _, err := exporter.ExportLanguage(ctx, db, "klingon"); !errors.Is(err, store.ErrUnsupportedLanguage) {
		t.Errorf("unsupported: err = %v", err)
	}

	if err := db.DeactivateLanguage(ctx, "polish"); err != nil {
		t.Fatalf("DeactivateLanguage: %v", err)
	}
	if _, err := exporter.ExportLanguage(ctx, db, "polish"); !errors.Is(err, store.ErrInactiveLanguage) {
		t.Errorf("inactive: err = %v", err)
	}
}

func TestExportAll(t *testing.T) {
	db := testutil.TestDatabase(t)
	exporter, _ := newTestExporter(t)
	ctx := context.Background()

	if err := db.DeactivateLanguage(ctx, "russian"); err != nil {
		t.Fatalf("DeactivateLanguage: %v", err)
	}
	testutil.MustAdd(t, db, store.EntryInput{Text: "Hello", Key: "greet.hello", Translations: map[string]string{"chinese": "你好"}})
	testutil.MustAdd(t, db, store.EntryInput{Text: "Keyless", Translations: map[string]string{"chinese": "无键"}})

	out, err := exporter.ExportAll(ctx, db)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}

	if len(out.Languages) != len(model.Languages)-1 {
		t.Errorf("len(Languages) = %d, want %d", len(out.Languages), len(model.Languages)-1)
	}
	if _, ok := out.Data["russian"]; ok {
		t.Error("inactive language exported")
	}
	if out.Data[model.SourceLanguage]["greet.hello"] != "Hello" {
		t.Errorf("english = %v", out.Data[model.SourceLanguage])
	}
	if out.Data["chinese"]["greet.hello"] != "你好" || len(out.Data["chinese"]) != 1 {
		t.Errorf("chinese = %v", out.Data["chinese"])
	}
	if data, ok := out.Data["japanese"]; !ok || len(data) != 0 {
		t.Errorf("japanese = %v, want empty map", data)
	}
}

func TestExportCacheInvalidation(t *testing.T) {
	reg := testutil.TestRegistry(t)
	exporter, c := newTestExporter(t)
	reg.OnChange(exporter.HandleChange)
	ctx := context.Background()

	db, err := reg.Current(ctx)
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	testutil.MustAdd(t, db, store.EntryInput{Text: "One", Key: "one", Translations: map[string]string{"german": "eins"}})

	if _, err := exporter.ExportLanguage(ctx, db, "german"); err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}
	if _, err := exporter.ExportAll(ctx, db); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("cache entries = %d, want 2", c.Len())
	}
	rev, err := db.Revision(ctx)
	if err != nil {
		t.Fatalf("Revision: %v", err)
	}
	if _, err := c.Get(ctx, CacheKey(db.Name(), rev, "german")); err != nil {
		t.Errorf("german export not cached: %v", err)
	}

	testutil.MustAdd(t, db, store.EntryInput{Text: "Two", Key: "two", Translations: map[string]string{"german": "zwei"}})
	if c.Len() != 0 {
		t.Errorf("cache entries after mutation = %d, want 0", c.Len())
	}

	out, err := exporter.ExportLanguage(ctx, db, "german")
	if err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}
	if out.Data["two"] != "zwei" {
		t.Errorf("stale export: %v", out.Data)
	}
}

func TestExportWithoutCache(t *testing.T) {
	db := testutil.TestDatabase(t)
	exporter := NewExporter(nil, 0, nil)

	testutil.MustAdd(t, db, store.EntryInput{Text: "A", Key: "a"})
	if _, err := exporter.ExportAll(context.Background(), db); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	exporter.Invalidate(context.Background(), db.Name())
}

func TestExportCacheSeesChangesFromOtherHandles(t *testing.T) {
	db := testutil.TestDatabase(t)
	exporter, _ := newTestExporter(t)
	ctx := context.Background()

	id := testutil.MustAdd(t, db, store.EntryInput{Text: "Hello", Key: "greet.hello", Translations: map[string]string{"chinese": "你好"}})
	testutil.MustAdd(t, db, store.EntryInput{Text: "Bye", Key: "greet.bye", Translations: map[string]string{"french": "au revoir"}})

	if _, err := exporter.ExportLanguage(ctx, db, "chinese"); err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}
	if _, err := exporter.ExportLanguage(ctx, db, "french"); err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}
	if _, err := exporter.ExportAll(ctx, db); err != nil {
		t.Fatalf("ExportAll: %v", err)
	}

	// A second handle on the same file stands in for another process.
	other, err := store.OpenDatabase(ctx, db.Name(), db.Path(), store.DefaultDBConfig(), testutil.TestLoggerSilent())
	if err != nil {
		t.Fatalf("OpenDatabase: %v", err)
	}
	t.Cleanup(func() { _ = other.Close() })

	if err := other.DeactivateLanguage(ctx, "chinese"); err != nil {
		t.Fatalf("DeactivateLanguage: %v", err)
	}
	if _, err := exporter.ExportLanguage(ctx, db, "chinese"); !errors.Is(err, store.ErrInactiveLanguage) {
		t.Errorf("deactivated elsewhere: err = %v, want ErrInactiveLanguage", err)
	}

	if err := other.DeleteTranslation(ctx, id); err != nil {
		t.Fatalf("DeleteTranslation: %v", err)
	}
	testutil.MustAdd(t, other, store.EntryInput{Text: "Thanks", Key: "thanks", Translations: map[string]string{"french": "merci"}})

	out, err := exporter.ExportLanguage(ctx, db, "french")
	if err != nil {
		t.Fatalf("ExportLanguage: %v", err)
	}
	if out.Data["thanks"] != "merci" {
		t.Errorf("stale french export: %v", out.Data)
	}

	all, err := exporter.ExportAll(ctx, db)
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if _, ok := all.Data["chinese"]; ok {
		t.Error("bundle still contains the deactivated language")
	}
	if _, ok := all.Data[model.SourceLanguage]["greet.hello"]; ok {
		t.Errorf("bundle still contains the deleted entry: %v", all.Data[model.SourceLanguage])
	}
}
