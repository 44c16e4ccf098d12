// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lingotable/internal/middleware"
	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
	"github.com/olegiv/lingotable/internal/transfer"
)

// maxImportUploadBytes bounds import uploads, archives included.
const maxImportUploadBytes = 32 << 20

// TransferHandler handles export and import of key/value tables.
type TransferHandler struct {
	exporter *transfer.Exporter
	importer *transfer.Importer
	logger   *slog.Logger
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(exporter *transfer.Exporter, importer *transfer.Importer, logger *slog.Logger) *TransferHandler {
	return &TransferHandler{exporter: exporter, importer: importer, logger: logger}
}

// attachment writes body as a file download.
func attachment(w http.ResponseWriter, filename, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	_, _ = w.Write(body)
}

// ExportLanguage handles GET /api/export/{language}. JSON exports are
// wrapped in the response envelope unless download is set; YAML exports
// are always files.
func (h *TransferHandler) ExportLanguage(w http.ResponseWriter, r *http.Request) {
	format, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid format", err)
		return
	}

	raw := chi.URLParam(r, "language")
	lang, ok := model.ParseLanguage(raw)
	if !ok {
		lang = model.Language(raw)
	}

	out, err := h.exporter.ExportLanguage(r.Context(), middleware.GetDatabase(r), lang)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to export language", err)
		return
	}

	if format == transfer.FormatJSON && !queryBool(r, "download") {
		writeJSONSuccess(w, map[string]any{
			"language": out.Language,
			"data":     out.Data,
			"stats":    out.Stats,
		})
		return
	}

	var buf bytes.Buffer
	if err := transfer.Encode(&buf, format, out.Data); err != nil {
		writeStoreError(w, r, h.logger, "failed to encode export", err)
		return
	}
	attachment(w, string(out.Language)+format.Ext(), format.ContentType(), buf.Bytes())
}

// ExportAll handles GET /api/export. With zip set the tables are returned
// as an archive of one file per language.
func (h *TransferHandler) ExportAll(w http.ResponseWriter, r *http.Request) {
	format, err := transfer.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid format", err)
		return
	}

	d := middleware.GetDatabase(r)
	out, err := h.exporter.ExportAll(r.Context(), d)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to export translations", err)
		return
	}

	base := strings.TrimSuffix(d.Name(), store.DBExt)
	var buf bytes.Buffer
	switch {
	case queryBool(r, "zip"):
		if err := transfer.WriteZip(&buf, out, format); err != nil {
			writeStoreError(w, r, h.logger, "failed to write archive", err)
			return
		}
		attachment(w, base+"-translations.zip", "application/zip", buf.Bytes())
	case format == transfer.FormatYAML || queryBool(r, "download"):
		if err := transfer.Encode(&buf, format, out.Data); err != nil {
			writeStoreError(w, r, h.logger, "failed to encode export", err)
			return
		}
		attachment(w, base+"-translations"+format.Ext(), format.ContentType(), buf.Bytes())
	default:
		writeJSONSuccess(w, map[string]any{
			"data":      out.Data,
			"languages": out.Languages,
		})
	}
}

// importOptions reads the import flags from the query or form.
func importOptions(r *http.Request) (transfer.ImportOptions, error) {
	opts := transfer.ImportOptions{
		CreateMissing: queryBool(r, "create_missing"),
		DryRun:        queryBool(r, "dry_run"),
		Tag:           strings.TrimSpace(r.FormValue("tag")),
	}
	format := r.FormValue("format")
	if format == "" {
		if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && strings.Contains(mt, "yaml") {
			format = "yaml"
		}
	}
	f, err := transfer.ParseFormat(format)
	if err != nil {
		return opts, err
	}
	opts.Format = f
	return opts, nil
}

// ImportLanguage handles POST /api/import/{language}. The body is a JSON
// or YAML key/value table.
func (h *TransferHandler) ImportLanguage(w http.ResponseWriter, r *http.Request) {
	lang, err := parseLanguage(chi.URLParam(r, "language"))
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid language", err)
		return
	}
	opts, err := importOptions(r)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid import options", err)
		return
	}

	body := http.MaxBytesReader(w, r.Body, maxImportUploadBytes)
	res, err := h.importer.ImportLanguage(r.Context(), middleware.GetDatabase(r), lang, body, opts)
	if err != nil {
		h.writeImportError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{"result": res})
}

// Import handles POST /api/import with a multipart "file" upload. Zip
// archives are imported per entry; other files need a language field or
// take the language from the file name.
func (h *TransferHandler) Import(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportUploadBytes)
	if err := r.ParseMultipartForm(maxImportUploadBytes); err != nil {
		writeJSONError(w, http.StatusBadRequest, "Failed to parse upload: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "Failed to read upload")
		return
	}

	d := middleware.GetDatabase(r)
	filename := filepath.Base(header.Filename)
	ext := strings.ToLower(filepath.Ext(filename))

	if ext == ".zip" {
		opts, err := importOptions(r)
		if err != nil {
			writeStoreError(w, r, h.logger, "invalid import options", err)
			return
		}
		result, err := h.importer.ImportZipBytes(r.Context(), d, content, opts)
		if err != nil {
			h.writeImportError(w, r, err)
			return
		}
		writeJSONSuccess(w, map[string]any{
			"languages": result.Languages,
			"errors":    result.Errors,
		})
		return
	}

	rawLang := r.FormValue("language")
	if rawLang == "" {
		rawLang = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	lang, err := parseLanguage(rawLang)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid language", err)
		return
	}
	opts, err := importOptions(r)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid import options", err)
		return
	}
	if r.FormValue("format") == "" && (ext == ".yaml" || ext == ".yml") {
		opts.Format = transfer.FormatYAML
	}

	res, err := h.importer.ImportLanguage(r.Context(), d, lang, bytes.NewReader(content), opts)
	if err != nil {
		h.writeImportError(w, r, err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"languages": []store.KeyedResult{*res},
		"errors":    []transfer.ImportError{},
	})
}

func (h *TransferHandler) writeImportError(w http.ResponseWriter, r *http.Request, err error) {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, transfer.ErrFileTooLarge), errors.As(err, &maxErr):
		writeJSONError(w, http.StatusRequestEntityTooLarge, "Import file is too large")
	default:
		writeStoreError(w, r, h.logger, "import failed", err)
	}
}
