// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package transfer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
)

// maxImportFileBytes bounds the uncompressed size of one imported table.
const maxImportFileBytes = 10 << 20

// ErrFileTooLarge is returned for tables above maxImportFileBytes.
var ErrFileTooLarge = errors.New("import file too large")

// Target is the part of a database handle the importer writes to.
type Target interface {
	ImportKeyed(ctx context.Context, l model.Language, values map[string]string, opts store.KeyedOptions) (store.KeyedResult, error)
}

// ImportOptions configures an import.
type ImportOptions struct {
	// Format of plain files; zip entries are detected by extension.
	Format        Format `json:"format"`
	CreateMissing bool   `json:"create_missing"`
	Tag           string `json:"tag"`
	DryRun        bool   `json:"dry_run"`
}

func (o ImportOptions) keyed() store.KeyedOptions {
	return store.KeyedOptions{CreateMissing: o.CreateMissing, Tag: o.Tag, DryRun: o.DryRun}
}

// ImportError describes a file that could not be imported.
type ImportError struct {
	File    string `json:"file"`
	Message string `json:"message"`
}

// ImportResult summarizes a multi-file import.
type ImportResult struct {
	Languages []store.KeyedResult `json:"languages"`
	Errors    []ImportError       `json:"errors"`
}

// Importer reads key/value tables written by the exporter.
type Importer struct {
	logger *slog.Logger
}

// NewImporter creates an Importer.
func NewImporter(logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{logger: logger}
}

// readLimited reads r, failing when it exceeds maxImportFileBytes.
func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportFileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxImportFileBytes {
		return nil, ErrFileTooLarge
	}
	return data, nil
}

// ImportLanguage imports one key/value table for lang.
func (i *Importer) ImportLanguage(ctx context.Context, db Target, lang model.Language, r io.Reader, opts ImportOptions) (*store.KeyedResult, error) {
	data, err := readLimited(r)
	if err != nil {
		return nil, err
	}
	values, err := Decode(bytes.NewReader(data), opts.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrInvalidArgument, err)
	}

	res, err := db.ImportKeyed(ctx, lang, values, opts.keyed())
	if err != nil {
		return nil, err
	}
	i.logger.Info("imported translations",
		"language", lang,
		"updated", res.Updated,
		"created", res.Created,
		"skipped", len(res.SkippedKeys),
		"dry_run", res.DryRun,
	)
	return &res, nil
}

// parseZipEntryName maps "<language>.<ext>" to its language and format.
// Nested paths are rejected.
func parseZipEntryName(name string) (model.Language, Format, error) {
	if name != path.Base(name) || strings.ContainsAny(name, `\/`) || strings.HasPrefix(name, ".") {
		return "", "", fmt.Errorf("invalid entry path: %s", name)
	}
	ext := path.Ext(name)
	format, err := ParseFormat(strings.TrimPrefix(ext, "."))
	if err != nil || ext == "" {
		return "", "", fmt.Errorf("unsupported file type: %s", name)
	}
	lang, ok := model.ParseLanguage(strings.TrimSuffix(name, ext))
	if !ok {
		return "", "", fmt.Errorf("unsupported language: %s", name)
	}
	return lang, format, nil
}

// ImportZip imports every <language>.json or <language>.yaml entry of an
// archive. Bad entries are reported in the result and do not stop the
// import; store failures do.
func (i *Importer) ImportZip(ctx context.Context, db Target, zr *zip.Reader, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{Languages: []store.KeyedResult{}, Errors: []ImportError{}}
	seen := make(map[model.Language]string)

	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		lang, format, err := parseZipEntryName(f.Name)
		if err != nil {
			result.Errors = append(result.Errors, ImportError{File: f.Name, Message: err.Error()})
			continue
		}
		if prev, dup := seen[lang]; dup {
			result.Errors = append(result.Errors, ImportError{
				File:    f.Name,
				Message: fmt.Sprintf("language %s already imported from %s", lang, prev),
			})
			continue
		}
		seen[lang] = f.Name
		if f.UncompressedSize64 > maxImportFileBytes {
			result.Errors = append(result.Errors, ImportError{File: f.Name, Message: ErrFileTooLarge.Error()})
			continue
		}

		rc, err := f.Open()
		if err != nil {
			result.Errors = append(result.Errors, ImportError{File: f.Name, Message: err.Error()})
			continue
		}
		fileOpts := opts
		fileOpts.Format = format
		res, err := i.ImportLanguage(ctx, db, lang, rc, fileOpts)
		_ = rc.Close()

		switch {
		case err == nil:
			result.Languages = append(result.Languages, *res)
		case errors.Is(err, store.ErrStorage):
			return result, err
		default:
			result.Errors = append(result.Errors, ImportError{File: f.Name, Message: err.Error()})
		}
	}

	return result, nil
}

// ImportZipBytes imports an in-memory archive.
func (i *Importer) ImportZipBytes(ctx context.Context, db Target, data []byte, opts ImportOptions) (*ImportResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read zip data: %v", store.ErrInvalidArgument, err)
	}
	return i.ImportZip(ctx, db, zr, opts)
}

// ImportFile imports a file from disk. Archives are imported entry by
// entry; other files need lang, or take it from the file name.
func (i *Importer) ImportFile(ctx context.Context, db Target, filename, lang string, opts ImportOptions) (*ImportResult, error) {
	if strings.EqualFold(filepath.Ext(filename), ".zip") {
		zr, err := zip.OpenReader(filename)
		if err != nil {
			return nil, fmt.Errorf("failed to open zip file: %w", err)
		}
		defer func() { _ = zr.Close() }()
		return i.ImportZip(ctx, db, &zr.Reader, opts)
	}

	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	if lang == "" {
		lang = strings.TrimSuffix(base, ext)
	}
	l, ok := model.ParseLanguage(lang)
	if !ok {
		return nil, fmt.Errorf("%w: %q", store.ErrUnsupportedLanguage, lang)
	}
	if format, err := ParseFormat(strings.TrimPrefix(ext, ".")); err == nil && ext != "" {
		opts.Format = format
	}

	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	res, err := i.ImportLanguage(ctx, db, l, f, opts)
	if err != nil {
		return nil, err
	}
	return &ImportResult{Languages: []store.KeyedResult{*res}, Errors: []ImportError{}}, nil
}
