// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/text/language"

	"github.com/olegiv/lingotable/internal/middleware"
	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
)

// LanguagesHandler handles language activation.
type LanguagesHandler struct {
	logger *slog.Logger
}

// NewLanguagesHandler creates a new LanguagesHandler.
func NewLanguagesHandler(logger *slog.Logger) *LanguagesHandler {
	return &LanguagesHandler{logger: logger}
}

type languageRequest struct {
	Language string `json:"language"`
	Active   *bool  `json:"active"`
}

// parseLanguage resolves a client-supplied language name.
func parseLanguage(raw string) (model.Language, error) {
	if raw == "" {
		return "", fmt.Errorf("%w: language is required", store.ErrInvalidArgument)
	}
	l, ok := model.ParseLanguage(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", store.ErrUnsupportedLanguage, raw)
	}
	return l, nil
}

// uiLanguage picks the language of display labels from the ui query
// parameter or the Accept-Language header. English is the default.
func uiLanguage(r *http.Request) language.Tag {
	if ui := r.URL.Query().Get("ui"); ui != "" {
		if tag, err := language.Parse(ui); err == nil {
			return tag
		}
	}
	if tags, _, err := language.ParseAcceptLanguage(r.Header.Get("Accept-Language")); err == nil && len(tags) > 0 {
		return tags[0]
	}
	return language.English
}

// List handles GET /api/languages.
func (h *LanguagesHandler) List(w http.ResponseWriter, r *http.Request) {
	d := middleware.GetDatabase(r)

	active, err := d.ActiveLanguages(r.Context())
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to list languages", err)
		return
	}
	statuses, err := d.LanguageStatuses(r.Context())
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to list languages", err)
		return
	}

	writeJSONSuccess(w, map[string]any{
		"languages":      active,
		"statuses":       statuses,
		"language_names": model.DisplayNames(uiLanguage(r)),
	})
}

// Toggle handles POST /api/languages/toggle.
func (h *LanguagesHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeStoreError(w, r, h.logger, "invalid request", err)
		return
	}
	l, err := parseLanguage(req.Language)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid language", err)
		return
	}
	if req.Active == nil {
		writeJSONError(w, http.StatusBadRequest, "active is required")
		return
	}

	if err := middleware.GetDatabase(r).SetLanguageActive(r.Context(), l, *req.Active); err != nil {
		writeStoreError(w, r, h.logger, "failed to toggle language", err)
		return
	}

	msg := fmt.Sprintf("Language %s activated", l)
	if !*req.Active {
		msg = fmt.Sprintf("Language %s deactivated", l)
	}
	writeMessage(w, msg)
}

// Remove handles POST /api/languages/remove.
func (h *LanguagesHandler) Remove(w http.ResponseWriter, r *http.Request) {
	var req languageRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeStoreError(w, r, h.logger, "invalid request", err)
		return
	}
	l, err := parseLanguage(req.Language)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid language", err)
		return
	}

	if err := middleware.GetDatabase(r).DeactivateLanguage(r.Context(), l); err != nil {
		writeStoreError(w, r, h.logger, "failed to remove language", err)
		return
	}
	writeMessage(w, fmt.Sprintf("Language %s removed", l))
}
