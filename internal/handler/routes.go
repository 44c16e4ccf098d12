// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package handler implements the JSON HTTP API. Every response uses the
// envelope {"success": bool, ...payload} or {"success": false, "error": msg}.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/olegiv/lingotable/internal/metrics"
	"github.com/olegiv/lingotable/internal/middleware"
	"github.com/olegiv/lingotable/internal/store"
	"github.com/olegiv/lingotable/internal/transfer"
)

// RouterConfig holds the dependencies and HTTP options of the API.
type RouterConfig struct {
	Registry *store.Registry
	Exporter *transfer.Exporter
	Importer *transfer.Importer
	Logger   *slog.Logger
	Version  string
	DemoMode bool

	CORS           middleware.CORSOptions
	RateLimiter    *middleware.RateLimiter // nil disables rate limiting
	RequestTimeout time.Duration           // 0 disables the timeout
	Metrics        *metrics.Metrics        // nil disables /metrics
	RequestLog     bool
	Development    bool // disables HSTS
}

// NewRouter builds the chi router of the API.
func NewRouter(cfg RouterConfig) chi.Router {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	databases := NewDatabasesHandler(cfg.Registry, logger, cfg.DemoMode)
	languages := NewLanguagesHandler(logger)
	translations := NewTranslationsHandler(logger)
	tags := NewTagsHandler(logger)
	transfers := NewTransferHandler(cfg.Exporter, cfg.Importer, logger)
	health := NewHealthHandler(cfg.Registry, logger, cfg.Version)

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	if cfg.RequestLog {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/health", health.Health)
	r.Get("/health/live", health.Liveness)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.SecurityHeaders(middleware.DefaultSecurityHeadersConfig(cfg.Development)))
		r.Use(middleware.CORS(cfg.CORS))
		r.Use(chimw.Compress(5, "application/json", "application/yaml", "text/plain"))
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware())
		}
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Get("/databases", databases.List)
		r.Post("/databases", databases.Create)
		r.Post("/databases/switch", databases.Switch)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Database(cfg.Registry, logger))

			r.Post("/init", databases.Init)

			r.Get("/languages", languages.List)
			r.Post("/languages/toggle", languages.Toggle)
			r.Post("/languages/remove", languages.Remove)

			r.Get("/translations", translations.List)
			r.Post("/translations", translations.Create)
			r.Get("/translations/{id}", translations.Get)
			r.Put("/translations/{id}", translations.Update)
			r.Delete("/translations/{id}", translations.Delete)
			r.Get("/search", translations.Search)

			r.Get("/tags", tags.List)
			r.Post("/tags", tags.Create)
			r.Get("/tags/{name}/info", tags.Info)
			r.Delete("/tags/{name}", tags.Delete)
			r.Get("/logs", tags.Logs)

			r.Get("/export", transfers.ExportAll)
			r.Get("/export/{language}", transfers.ExportLanguage)
			r.Post("/import", transfers.Import)
			r.Post("/import/{language}", transfers.ImportLanguage)
		})

		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, http.StatusNotFound, "Not found")
		})
		r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
			writeJSONError(w, http.StatusMethodNotAllowed, "Method not allowed")
		})
	})

	return r
}
