// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/olegiv/lingotable/internal/logging"
	"github.com/olegiv/lingotable/internal/store"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

// ContextKeyDatabase is the context key of the request's database handle.
const ContextKeyDatabase ContextKey = "database"

// DatabaseHeader names the response header carrying the database name.
const DatabaseHeader = "X-Database"

// DatabaseResolver returns the handle a request operates on.
type DatabaseResolver interface {
	Current(ctx context.Context) (*store.Database, error)
}

// Database resolves the current database once per request and stores the
// handle in the request context. A switch made while the request runs does
// not affect it.
func Database(resolver DatabaseResolver, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d, err := resolver.Current(r.Context())
			if err != nil {
				logger.Error("failed to open current database", "error", err)
				msg := "Database unavailable"
				status := http.StatusInternalServerError
				if errors.Is(err, store.ErrInvalidArgument) {
					msg, status = err.Error(), http.StatusBadRequest
				}
				writeError(w, status, msg)
				return
			}

			w.Header().Set(DatabaseHeader, d.Name())
			ctx := context.WithValue(r.Context(), ContextKeyDatabase, d)
			ctx = logging.WithAttrs(ctx, slog.String("database", d.Name()))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetDatabase returns the request's database handle, or nil outside the
// Database middleware.
func GetDatabase(r *http.Request) *store.Database {
	d, _ := r.Context().Value(ContextKeyDatabase).(*store.Database)
	return d
}
