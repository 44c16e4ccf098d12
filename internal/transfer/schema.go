// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer exports translation tables as key/value files and
// imports them back.
package transfer

import (
	"fmt"
	"strings"

	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
)

// Stats counts the rows seen by a single-language export.
type Stats struct {
	// Total is the number of source entries.
	Total int `json:"total"`
	// Exported is the number of entries with both a key and a translation.
	Exported int `json:"exported"`
	// WithKey counts the same entries as Exported.
	WithKey int `json:"with_key"`
	// DuplicateKeys lists keys shared by several exported entries. The
	// entry with the highest id wins.
	DuplicateKeys []string `json:"duplicate_keys"`
}

// LanguageExport is the key/value table of one language.
type LanguageExport struct {
	Language model.Language    `json:"language"`
	Data     map[string]string `json:"data"`
	Stats    Stats             `json:"stats"`
}

// BundleExport holds the key/value tables of every active language.
type BundleExport struct {
	Data      map[model.Language]map[string]string `json:"data"`
	Languages []model.Language                     `json:"languages"`
}

// Format is a file encoding for key/value tables.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format name; "" means JSON and "yml" is accepted.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: unsupported format %q", store.ErrInvalidArgument, s)
}

// Ext returns the file extension of f.
func (f Format) Ext() string {
	return "." + string(f)
}

// ContentType returns the MIME type of f.
func (f Format) ContentType() string {
	if f == FormatYAML {
		return "application/yaml; charset=utf-8"
	}
	return "application/json; charset=utf-8"
}
