// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"fmt"
	"log/slog"
	"net/http"
	"slices"

	"github.com/olegiv/lingotable/internal/middleware"
	"github.com/olegiv/lingotable/internal/model"
	"github.com/olegiv/lingotable/internal/store"
)

// DatabasesHandler manages the database files of the registry.
type DatabasesHandler struct {
	registry *store.Registry
	logger   *slog.Logger
	demoMode bool
}

// NewDatabasesHandler creates a new DatabasesHandler. In demo mode every
// created database is seeded with demo entries.
func NewDatabasesHandler(registry *store.Registry, logger *slog.Logger, demoMode bool) *DatabasesHandler {
	return &DatabasesHandler{registry: registry, logger: logger, demoMode: demoMode}
}

type databaseRequest struct {
	Name string `json:"name"`
	Demo bool   `json:"demo"`
}

// List handles GET /api/databases.
func (h *DatabasesHandler) List(w http.ResponseWriter, r *http.Request) {
	names, err := h.registry.ListAvailable()
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to list databases", err)
		return
	}
	writeJSONSuccess(w, map[string]any{
		"databases":        names,
		"current_database": h.registry.CurrentName(),
	})
}

// Create handles POST /api/databases. The new file is initialized and its
// creation is recorded in its own operation log.
func (h *DatabasesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req databaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeStoreError(w, r, h.logger, "invalid request", err)
		return
	}

	name, err := h.registry.Create(req.Name)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to create database", err)
		return
	}

	d, err := h.registry.Open(r.Context(), name)
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to initialize database", err)
		return
	}
	if err := d.AppendLog(r.Context(), model.OperationCreateDatabase, 1, "Created database: "+name); err != nil {
		h.logger.WarnContext(r.Context(), "failed to log database creation", "database", name, "error", err)
	}
	if h.demoMode || req.Demo {
		if err := d.SeedDemo(r.Context()); err != nil {
			writeStoreError(w, r, h.logger, "failed to seed database", err)
			return
		}
	}

	h.logger.InfoContext(r.Context(), "database created", "database", name)
	writeJSONSuccess(w, map[string]any{
		"name":    name,
		"message": fmt.Sprintf("Database %s created", name),
	})
}

// Switch handles POST /api/databases/switch.
func (h *DatabasesHandler) Switch(w http.ResponseWriter, r *http.Request) {
	var req databaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeStoreError(w, r, h.logger, "invalid request", err)
		return
	}

	name, err := store.NormalizeName(req.Name)
	if err != nil {
		writeStoreError(w, r, h.logger, "invalid database name", err)
		return
	}
	names, err := h.registry.ListAvailable()
	if err != nil {
		writeStoreError(w, r, h.logger, "failed to list databases", err)
		return
	}
	if !slices.Contains(names, name) {
		writeJSONError(w, http.StatusNotFound, fmt.Sprintf("Database %s does not exist", name))
		return
	}
	if err := h.registry.Select(name); err != nil {
		writeStoreError(w, r, h.logger, "failed to switch database", err)
		return
	}

	writeJSONSuccess(w, map[string]any{
		"current_database": name,
		"message":          fmt.Sprintf("Switched to database %s", name),
	})
}

// Init handles POST /api/init.
func (h *DatabasesHandler) Init(w http.ResponseWriter, r *http.Request) {
	d := middleware.GetDatabase(r)
	if err := d.InitSchema(r.Context()); err != nil {
		writeStoreError(w, r, h.logger, "failed to initialize database", err)
		return
	}
	writeMessage(w, fmt.Sprintf("Database %s initialized", d.Name()))
}
