// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"strings"
	"testing"

	"golang.org/x/text/language"
)

func TestLanguagesAreSupported(t *testing.T) {
	if len(Languages) != 29 {
		t.Fatalf("len(Languages) = %d, want 29", len(Languages))
	}
	if Languages[0] != SourceLanguage {
		t.Errorf("Languages[0] = %q, want %q", Languages[0], SourceLanguage)
	}
	seen := make(map[Language]bool)
	for _, l := range Languages {
		if !l.IsSupported() {
			t.Errorf("%q has no language info", l)
		}
		if seen[l] {
			t.Errorf("%q listed twice", l)
		}
		seen[l] = true
	}
}

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input string
		want  Language
		ok    bool
	}{
		{"chinese", "chinese", true},
		{" Chinese ", "chinese", true},
		{"South African", "south_african", true},
		{"southAfrican", "south_african", true},
		{"south_african", "south_african", true},
		{"klingon", "klingon", false},
		{"", "", false},
		{"chinese; DROP TABLE english", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseLanguage(tt.input)
			if ok != tt.ok {
				t.Fatalf("ParseLanguage(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if tt.ok && got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLanguageIdentifiers(t *testing.T) {
	l := Language("japanese")
	if l.TextColumn() != "japanese_text" {
		t.Errorf("TextColumn() = %q, want %q", l.TextColumn(), "japanese_text")
	}
	if !SourceLanguage.IsSource() || l.IsSource() {
		t.Error("IsSource mismatch")
	}
	if got := l.Tag(); got != language.Japanese {
		t.Errorf("Tag() = %v, want %v", got, language.Japanese)
	}
	if got := Language("nope").Tag(); got != language.Und {
		t.Errorf("Tag() of unknown = %v, want und", got)
	}
}

func TestDisplayName(t *testing.T) {
	if got := Language("chinese").DisplayName(language.English); got != "Chinese" {
		t.Errorf("english label = %q, want Chinese", got)
	}
	if got := Language("south_african").DisplayName(language.Chinese); got != "南非语" {
		t.Errorf("chinese label = %q, want 南非语", got)
	}
	if got := Language("german").DisplayName(language.French); got == "" {
		t.Error("french label should not be empty")
	}

	names := DisplayNames(language.English)
	if len(names) != len(Languages) {
		t.Errorf("len(DisplayNames) = %d, want %d", len(names), len(Languages))
	}
}

func TestPreview(t *testing.T) {
	if got := Preview("Hello"); got != "Hello" {
		t.Errorf("Preview(short) = %q", got)
	}
	long := strings.Repeat("你", 60)
	got := Preview(long)
	if !strings.HasSuffix(got, "...") {
		t.Errorf("Preview(long) = %q, want ... suffix", got)
	}
	if n := len([]rune(strings.TrimSuffix(got, "..."))); n != 50 {
		t.Errorf("Preview(long) kept %d runes, want 50", n)
	}
}
