// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lingotable/internal/middleware"
	"github.com/olegiv/lingotable/internal/store"
)

// Default page size of translation listings.
const (
	defaultPage  = 1
	defaultLimit = 10
)

// TranslationsHandler handles translation entries.
type TranslationsHandler struct {
	logger *slog.Logger
}

// NewTranslationsHandler creates a new TranslationsHandler.
func NewTranslationsHandler(logger *slog.Logger) *TranslationsHandler {
	return &TranslationsHandler{logger: logger}
}

// pagination describes a page of a listing.
type pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasMore bool  `json:"has_more"`
}

func entryID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: invalid translation id", store.ErrInvalidArgument)
	}
	return id, nil
}

// List handles GET /api/translations.
func (h *TranslationsHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", defaultPage)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid page", err)
		return
	}
	limit, err := queryInt(r, "limit", defaultLimit)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid limit", err)
		return
	}

	q := r.URL.Query()
	res, err := middleware.GetDatabase(r).ListTranslations(r.Context(), store.ListParams{
		Page:     page,
		Limit:    limit,
		Tag:      q.Get("tag"),
		Language: q.Get("language"),
	})
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to list translations", err)
		return
	}

	writeJSONSuccess(w, map[string]any{
		"translations": res.Entries,
		"pagination": pagination{
			Page:    page,
			Limit:   limit,
			Total:   res.Total,
			HasMore: res.HasMore,
		},
	})
}

// Get handles GET /api/translations/{id}.
func (h *TranslationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid id", err)
		return
	}
	entry, err := middleware.GetDatabase(r).GetTranslation(r.Context(), id)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to get translation", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"translation": entry})
}

// Create handles POST /api/translations.
func (h *TranslationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in store.EntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeStoreError(w, r, h.logger, "invalid request", err)
		return
	}

	id, err := middleware.GetDatabase(r).AddTranslation(r.Context(), in)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to add translation", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"id":      id,
		"message": "Translation added",
	})
}

// Update handles PUT /api/translations/{id}.
func (h *TranslationsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid id", err)
		return
	}
	var in store.EntryInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeStoreError(w, r, h.logger, "invalid request", err)
		return
	}

	if err := middleware.GetDatabase(r).UpdateTranslation(r.Context(), id, in); err != nil {
		writeStoreError(w, r, h.logger, "failed to update translation", err)
		return
	}
	writeMessage(w, "Translation updated")
}

// Delete handles DELETE /api/translations/{id}.
func (h *TranslationsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := entryID(r)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid id", err)
		return
	}
	if err := middleware.GetDatabase(r).DeleteTranslation(r.Context(), id); err != nil {
		writeStoreError(w, r, h.logger, "failed to delete translation", err)
		return
	}
	writeMessage(w, "Translation deleted")
}

// Search handles GET /api/search.
func (h *TranslationsHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	entries, err := middleware.GetDatabase(r).SearchTranslations(r.Context(), store.SearchParams{
		Query:    q.Get("q"),
		Tag:      q.Get("tag"),
		Language: q.Get("language"),
	})
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to search translations", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"translations": entries,
		"total":        len(entries),
	})
}
