// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs background maintenance of the database files.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/olegiv/lingotable/internal/store"
)

// pruneTimeout bounds one retention run over all database files.
const pruneTimeout = 5 * time.Minute

// Config configures the scheduler.
type Config struct {
	// Retention is the age after which operation log entries are pruned.
	// Zero disables pruning.
	Retention time.Duration
	// Schedule is a standard cron expression or descriptor such as "@daily".
	Schedule string
}

// Scheduler prunes old operation log entries of every database file.
type Scheduler struct {
	registry *store.Registry
	cfg      Config
	cron     *cron.Cron
	logger   *slog.Logger
	now      func() time.Time
}

// New creates a new scheduler instance.
func New(registry *store.Registry, cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Schedule == "" {
		cfg.Schedule = "@daily"
	}
	return &Scheduler{
		registry: registry,
		cfg:      cfg,
		cron:     cron.New(),
		logger:   logger,
		now:      time.Now,
	}
}

// Start schedules the retention job and starts the cron runner. It does
// nothing when retention is disabled.
func (s *Scheduler) Start() error {
	if s.cfg.Retention <= 0 {
		s.logger.Debug("log retention disabled, scheduler not started")
		return nil
	}

	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), pruneTimeout)
		defer cancel()
		if _, err := s.PruneLogs(ctx); err != nil {
			s.logger.Error("failed to prune operation logs", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid retention schedule %q: %w", s.cfg.Schedule, err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started",
		"jobs", len(s.cron.Entries()),
		"schedule", s.cfg.Schedule,
		"retention", s.cfg.Retention,
	)
	return nil
}

// Stop gracefully stops the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// PruneLogs deletes log entries older than the retention period from every
// database file and returns the number removed. A failing file does not
// stop the others; their errors are joined.
func (s *Scheduler) PruneLogs(ctx context.Context) (int64, error) {
	if s.cfg.Retention <= 0 {
		return 0, nil
	}

	names, err := s.registry.ListAvailable()
	if err != nil {
		return 0, err
	}

	cutoff := s.now().Add(-s.cfg.Retention)
	var (
		total int64
		errs  []error
	)
	for _, name := range names {
		d, err := s.registry.Open(ctx, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		n, err := d.PruneLogs(ctx, cutoff)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		if n > 0 {
			s.logger.Info("pruned operation logs", "database", name, "count", n)
		}
		total += n
	}

	return total, errors.Join(errs...)
}
