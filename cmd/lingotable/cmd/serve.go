// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/olegiv/lingotable/internal/cache"
	"github.com/olegiv/lingotable/internal/handler"
	"github.com/olegiv/lingotable/internal/metrics"
	"github.com/olegiv/lingotable/internal/middleware"
	"github.com/olegiv/lingotable/internal/scheduler"
	"github.com/olegiv/lingotable/internal/transfer"
	"github.com/olegiv/lingotable/internal/version"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default: $LINGO_SERVER_HOST:$LINGO_SERVER_PORT)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := appConfig
	logger := appLogger
	info := version.Get()

	reg, err := openRegistry()
	if err != nil {
		return err
	}
	defer func() {
		if err := reg.Close(); err != nil {
			logger.Error("error closing databases", "error", err)
		}
	}()

	// Open the current database up front so a broken directory fails fast.
	d, err := reg.Current(cmd.Context())
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	logger.Info("database ready", "dir", reg.Dir(), "database", d.Name())

	exportCache := cache.New(cache.Config{
		RedisURL:        cfg.RedisURL,
		Prefix:          cfg.CachePrefix,
		DefaultTTL:      cfg.CacheTTL,
		MaxSize:         cfg.CacheMaxSize,
		CleanupInterval: time.Minute,
	}, logger)
	defer func() { _ = exportCache.Close() }()

	exporter := transfer.NewExporter(exportCache, cfg.CacheTTL, logger)
	reg.OnChange(exporter.HandleChange)

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
		reg.OnChange(m.HandleChange)
	}

	var limiter *middleware.RateLimiter
	if cfg.RateLimitEnabled() {
		limiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)
	}

	sched := scheduler.New(reg, scheduler.Config{
		Retention: cfg.LogRetention(),
		Schedule:  cfg.LogRetentionSchedule,
	}, logger)
	if err := sched.Start(); err != nil {
		return err
	}
	defer sched.Stop()

	router := handler.NewRouter(handler.RouterConfig{
		Registry:       reg,
		Exporter:       exporter,
		Importer:       transfer.NewImporter(logger),
		Logger:         logger,
		Version:        info.Version,
		DemoMode:       cfg.DemoMode,
		Development:    cfg.IsDevelopment(),
		CORS:           middleware.CORSOptions{AllowedOrigins: cfg.CORSOrigins},
		RateLimiter:    limiter,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        m,
		RequestLog:     cfg.IsDevelopment(),
	})

	addr := serveAddr
	if addr == "" {
		addr = cfg.ServerAddr()
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // imports and zip exports can be large
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", addr, "env", cfg.Env, "version", info.Version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-quit:
	}

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server stopped")
	return nil
}
