// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/olegiv/lingotable/internal/middleware"
	"github.com/olegiv/lingotable/internal/store"
)

// TagsHandler handles tags and the operation log.
type TagsHandler struct {
	logger *slog.Logger
}

// NewTagsHandler creates a new TagsHandler.
func NewTagsHandler(logger *slog.Logger) *TagsHandler {
	return &TagsHandler{logger: logger}
}

type tagRequest struct {
	Name string `json:"name"`
}

// tagParam returns the {name} path parameter. chi matches on RawPath when
// the request has one, and then the parameter is still escaped.
func tagParam(r *http.Request) string {
	param := chi.URLParam(r, "name")
	if r.URL.RawPath == "" {
		return param
	}
	if name, err := url.PathUnescape(param); err == nil {
		return name
	}
	return param
}

// List handles GET /api/tags.
func (h *TagsHandler) List(w http.ResponseWriter, r *http.Request) {
	tags, err := middleware.GetDatabase(r).ListTags(r.Context())
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to list tags", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"tags": tags})
}

// Create handles POST /api/tags.
func (h *TagsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeStoreError(w, r, h.logger, "invalid request", err)
		return
	}
	if err := middleware.GetDatabase(r).CreateTag(r.Context(), req.Name); err != nil {
		writeStoreError(w, r, h.logger, "failed to create tag", err)
		return
	}
	writeMessage(w, "Tag created")
}

// Info handles GET /api/tags/{name}/info.
func (h *TagsHandler) Info(w http.ResponseWriter, r *http.Request) {
	name := tagParam(r)
	count, err := middleware.GetDatabase(r).TagUsage(r.Context(), name)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to read tag", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"tag":               name,
		"translation_count": count,
	})
}

// Delete handles DELETE /api/tags/{name}.
func (h *TagsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	name := tagParam(r)
	cleared, err := middleware.GetDatabase(r).DeleteTag(r.Context(), name)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to delete tag", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"translation_count": cleared,
		"message":           fmt.Sprintf("Tag %s deleted", name),
	})
}

// Logs handles GET /api/logs.
func (h *TagsHandler) Logs(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", store.DefaultLogLimit)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid limit", err)
		return
	}
	logs, err := middleware.GetDatabase(r).RecentLogs(r.Context(), limit)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to read logs", err)
		return
	}
	writeJSONSuccess(w, map[string]any{"logs": logs})
}
