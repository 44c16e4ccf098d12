// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"fmt"

	"github.com/olegiv/lingotable/internal/model"
)

// demoEntry is a sample entry written by SeedDemo.
type demoEntry struct {
	text         string
	key          string
	tag          string
	translations map[model.Language]string
}

// Demo tags created by SeedDemo.
var demoTags = []string{"common", "errors", "navigation"}

func getDemoEntries() []demoEntry {
	return []demoEntry{
		{
			text: "Hello",
			key:  "common.hello",
			tag:  "common",
			translations: map[model.Language]string{
				"chinese":  "你好",
				"japanese": "こんにちは",
				"french":   "Bonjour",
				"german":   "Hallo",
			},
		},
		{
			text: "Save",
			key:  "common.save",
			tag:  "common",
			translations: map[model.Language]string{
				"chinese": "保存",
				"french":  "Enregistrer",
				"german":  "Speichern",
			},
		},
		{
			text: "Cancel",
			key:  "common.cancel",
			tag:  "common",
			translations: map[model.Language]string{
				"chinese": "取消",
				"french":  "Annuler",
			},
		},
		{
			text: "Home",
			key:  "nav.home",
			tag:  "navigation",
			translations: map[model.Language]string{
				"chinese":  "首页",
				"japanese": "ホーム",
			},
		},
		{
			text: "Something went wrong. Please try again.",
			key:  "errors.generic",
			tag:  "errors",
			translations: map[model.Language]string{
				"chinese": "出错了，请重试。",
				"german":  "Etwas ist schiefgelaufen. Bitte versuchen Sie es erneut.",
			},
		},
		{
			text: "Draft note without a key",
			tag:  "common",
		},
	}
}

// SeedDemo fills an empty database with sample tags and entries.
// Translations for inactive languages are skipped. It does nothing when the
// database already has entries.
func (d *Database) SeedDemo(ctx context.Context) error {
	var count int64
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM english`).Scan(&count); err != nil {
		return storageErr("seed demo", err)
	}
	if count > 0 {
		d.logger.Info("database has entries, skipping demo seed", "entries", count)
		return nil
	}

	active, err := d.ActiveLanguages(ctx)
	if err != nil {
		return err
	}
	isActive := make(map[model.Language]bool, len(active))
	for _, l := range active {
		isActive[l] = true
	}

	existing, err := d.ListTags(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}
	for _, name := range demoTags {
		if have[name] {
			continue
		}
		if err := d.CreateTag(ctx, name); err != nil {
			return fmt.Errorf("creating demo tag %s: %w", name, err)
		}
	}

	for _, e := range getDemoEntries() {
		translations := make(map[string]string, len(e.translations))
		for l, text := range e.translations {
			if isActive[l] {
				translations[string(l)] = text
			}
		}
		if _, err := d.AddTranslation(ctx, EntryInput{
			Text:         e.text,
			Key:          e.key,
			Tag:          e.tag,
			Translations: translations,
		}); err != nil {
			return fmt.Errorf("creating demo entry %q: %w", e.text, err)
		}
	}

	d.logger.Info("seeded demo content", "entries", len(getDemoEntries()), "tags", len(demoTags))
	return nil
}
