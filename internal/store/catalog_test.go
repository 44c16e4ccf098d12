// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"testing"

	"github.com/olegiv/lingotable/internal/model"
)

func mustTableExists(t *testing.T, d *Database, table string) bool {
	t.Helper()

	exists, err := tableExists(context.Background(), d.DB(), table)
	if err != nil {
		t.Fatalf("tableExists(%s): %v", table, err)
	}
	return exists
}

func TestInitSchemaCreatesActiveTables(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	for _, table := range []string{"english", "tags", "operation_logs", "language_activation"} {
		if !mustTableExists(t, d, table) {
			t.Errorf("table %s missing after init", table)
		}
	}
	for _, l := range model.Languages {
		if l.IsSource() {
			continue
		}
		if !mustTableExists(t, d, string(l)) {
			t.Errorf("table %s missing after init", l)
		}
	}

	active, err := d.ActiveLanguages(ctx)
	if err != nil {
		t.Fatalf("ActiveLanguages: %v", err)
	}
	if len(active) != len(model.Languages) {
		t.Errorf("len(active) = %d, want %d", len(active), len(model.Languages))
	}
	if active[0] != model.SourceLanguage {
		t.Errorf("active[0] = %q, want source language first", active[0])
	}

	// A second init must be a no-op.
	if err := d.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema (second): %v", err)
	}
}

func TestActivationLockstep(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()
	chinese := model.Language("chinese")

	if _, err := d.AddTranslation(ctx, EntryInput{
		Text:         "Hello",
		Translations: map[string]string{"chinese": "你好"},
	}); err != nil {
		t.Fatalf("AddTranslation: %v", err)
	}

	if err := d.DeactivateLanguage(ctx, chinese); err != nil {
		t.Fatalf("DeactivateLanguage: %v", err)
	}
	if mustTableExists(t, d, "chinese") {
		t.Error("chinese table should be dropped after deactivation")
	}
	active, err := d.Activation(ctx, chinese)
	if err != nil {
		t.Fatalf("Activation: %v", err)
	}
	if active {
		t.Error("chinese should be inactive")
	}

	langs, err := d.ActiveLanguages(ctx)
	if err != nil {
		t.Fatalf("ActiveLanguages: %v", err)
	}
	for _, l := range langs {
		if l == chinese {
			t.Error("ActiveLanguages still lists chinese")
		}
	}

	if err := d.ActivateLanguage(ctx, chinese); err != nil {
		t.Fatalf("ActivateLanguage: %v", err)
	}
	if !mustTableExists(t, d, "chinese") {
		t.Fatal("chinese table should exist after activation")
	}
	if n := countRows(t, d, "chinese"); n != 0 {
		t.Errorf("reactivated table has %d rows, want 0", n)
	}
	if active, _ := d.Activation(ctx, chinese); !active {
		t.Error("chinese should be active again")
	}
}

func TestSourceLanguageCannotBeToggled(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	checks := map[string]error{
		"activate":   d.ActivateLanguage(ctx, model.SourceLanguage),
		"deactivate": d.DeactivateLanguage(ctx, model.SourceLanguage),
		"toggle":     d.SetLanguageActive(ctx, model.SourceLanguage, false),
		"flag":       d.SetActivation(ctx, model.SourceLanguage, false),
	}
	for name, err := range checks {
		if !errors.Is(err, ErrInvalidOperation) {
			t.Errorf("%s: err = %v, want ErrInvalidOperation", name, err)
		}
	}

	if !mustTableExists(t, d, "english") {
		t.Error("source table must survive")
	}
	active, err := d.Activation(ctx, model.SourceLanguage)
	if err != nil || !active {
		t.Errorf("Activation(english) = %v, %v; want true", active, err)
	}
}

func TestUnsupportedLanguage(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()
	klingon := model.Language("klingon")

	if _, err := d.Activation(ctx, klingon); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("Activation: err = %v, want ErrUnsupportedLanguage", err)
	}
	if err := d.ActivateLanguage(ctx, klingon); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ActivateLanguage: err = %v, want ErrInvalidArgument", err)
	}
	if err := d.DeactivateLanguage(ctx, "english; DROP TABLE english"); !errors.Is(err, ErrUnsupportedLanguage) {
		t.Errorf("DeactivateLanguage: err = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestInitSchemaReconciles(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	// Inactive flag with a leftover table: the table is dropped.
	if err := d.SetActivation(ctx, "thai", false); err != nil {
		t.Fatalf("SetActivation: %v", err)
	}
	if !mustTableExists(t, d, "thai") {
		t.Fatal("SetActivation must not drop the table")
	}

	// Active flag without a table: the table is created.
	if _, err := d.DB().Exec(`DROP TABLE french`); err != nil {
		t.Fatalf("dropping french: %v", err)
	}

	if err := d.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema: %v", err)
	}
	if mustTableExists(t, d, "thai") {
		t.Error("thai table should be dropped by reconcile")
	}
	if !mustTableExists(t, d, "french") {
		t.Error("french table should be recreated by reconcile")
	}
}

func TestLegacyTableGetsKeyColumn(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	if _, err := d.DB().Exec(`DROP TABLE german`); err != nil {
		t.Fatalf("dropping german: %v", err)
	}
	if _, err := d.DB().Exec(`
		CREATE TABLE german (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			english_id INTEGER NOT NULL,
			german_text TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (english_id) REFERENCES english (id) ON DELETE CASCADE
		)`); err != nil {
		t.Fatalf("creating legacy table: %v", err)
	}

	if err := d.ActivateLanguage(ctx, "german"); err != nil {
		t.Fatalf("ActivateLanguage: %v", err)
	}

	var n int
	if err := d.DB().QueryRow(
		`SELECT COUNT(*) FROM pragma_table_info('german') WHERE name = 'translation_key'`).Scan(&n); err != nil {
		t.Fatalf("inspecting german: %v", err)
	}
	if n != 1 {
		t.Error("translation_key column was not added to legacy table")
	}
}

func TestActivationDefaultsWhenTableMissing(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	if _, err := d.DB().Exec(`DROP TABLE language_activation`); err != nil {
		t.Fatalf("dropping activation table: %v", err)
	}

	active, err := d.Activation(ctx, "korean")
	if err != nil {
		t.Fatalf("Activation: %v", err)
	}
	if !active {
		t.Error("missing activation table should mean active")
	}
	if !mustTableExists(t, d, "language_activation") {
		t.Error("activation table should be recreated lazily")
	}
}

func TestLanguageStatuses(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	if err := d.SetLanguageActive(ctx, "korean", false); err != nil {
		t.Fatalf("SetLanguageActive: %v", err)
	}

	statuses, err := d.LanguageStatuses(ctx)
	if err != nil {
		t.Fatalf("LanguageStatuses: %v", err)
	}
	if len(statuses) != len(model.Languages) {
		t.Fatalf("len(statuses) = %d, want %d", len(statuses), len(model.Languages))
	}
	for _, s := range statuses {
		switch s.Language {
		case model.SourceLanguage:
			if !s.Active || !s.TableExists || !s.IsSource {
				t.Errorf("source status = %+v", s)
			}
		case "korean":
			if s.Active || s.TableExists {
				t.Errorf("korean status = %+v, want inactive without table", s)
			}
		default:
			if s.Active != s.TableExists {
				t.Errorf("%s: active=%v table=%v out of step", s.Language, s.Active, s.TableExists)
			}
		}
	}
}

func TestActivationChangesAreLogged(t *testing.T) {
	d := testDatabase(t)
	ctx := context.Background()

	if err := d.DeactivateLanguage(ctx, "latin"); err != nil {
		t.Fatalf("DeactivateLanguage: %v", err)
	}
	if err := d.ActivateLanguage(ctx, "latin"); err != nil {
		t.Fatalf("ActivateLanguage: %v", err)
	}

	logs, err := d.RecentLogs(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLogs: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("len(logs) = %d, want 2", len(logs))
	}
	if logs[0].OperationType != model.OperationActivate {
		t.Errorf("logs[0].OperationType = %q, want %q", logs[0].OperationType, model.OperationActivate)
	}
	if logs[1].OperationType != model.OperationDeactivate {
		t.Errorf("logs[1].OperationType = %q, want %q", logs[1].OperationType, model.OperationDeactivate)
	}
}
