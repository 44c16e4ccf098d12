// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// DBExt is the file extension of database files.
const DBExt = ".db"

// RegistryConfig configures a Registry.
type RegistryConfig struct {
	// Dir is the directory holding the database files.
	Dir string
	// DefaultName is the file created when the directory has none.
	DefaultName string
	// DB configures the connection pool of every opened file.
	DB DBConfig
}

// Registry manages the database files of a directory and tracks which one
// is current. Handles are opened lazily and cached until Close.
type Registry struct {
	cfg    RegistryConfig
	logger *slog.Logger

	mu      sync.Mutex
	current string
	handles map[string]*Database

	listenersMu sync.RWMutex
	listeners   []func(ChangeEvent)
}

// NewRegistry creates a registry over cfg.Dir. The directory is created on
// first use.
func NewRegistry(cfg RegistryConfig, logger *slog.Logger) (*Registry, error) {
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: database directory is required", ErrInvalidArgument)
	}
	if cfg.DefaultName == "" {
		cfg.DefaultName = "default" + DBExt
	}
	defaultName, err := NormalizeName(cfg.DefaultName)
	if err != nil {
		return nil, err
	}
	cfg.DefaultName = defaultName
	if cfg.DB.MaxOpenConns == 0 {
		cfg.DB = DefaultDBConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Registry{
		cfg:     cfg,
		logger:  logger,
		current: defaultName,
		handles: make(map[string]*Database),
	}, nil
}

// NormalizeName appends the .db extension when missing and validates the
// result. Names are NFC-normalized, may contain letters, digits, '_' and
// '.', and must not start with '.'.
func NormalizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if name == "" {
		return "", fmt.Errorf("%w: database name is required", ErrInvalidArgument)
	}
	if !strings.HasSuffix(name, DBExt) {
		name += DBExt
	}
	if strings.HasPrefix(name, ".") || name == DBExt {
		return "", fmt.Errorf("%w: invalid database name %q", ErrInvalidArgument, name)
	}
	for _, r := range name {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
			return "", fmt.Errorf("%w: invalid database name %q", ErrInvalidArgument, name)
		}
	}
	return name, nil
}

// Dir returns the database directory.
func (r *Registry) Dir() string {
	return r.cfg.Dir
}

func (r *Registry) path(name string) string {
	return filepath.Join(r.cfg.Dir, name)
}

func (r *Registry) ensureDir() error {
	if err := os.MkdirAll(r.cfg.Dir, 0o755); err != nil {
		return storageErr("create database directory", err)
	}
	return nil
}

// ListAvailable returns the database file names in the directory, sorted.
// Files whose names NormalizeName would reject or rewrite are skipped, as
// they cannot be opened through the registry.
func (r *Registry) ListAvailable() ([]string, error) {
	if err := r.ensureDir(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(r.cfg.Dir)
	if err != nil {
		return nil, storageErr("list databases", err)
	}

	names := []string{}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), DBExt) {
			continue
		}
		if n, err := NormalizeName(e.Name()); err != nil || n != e.Name() {
			r.logger.Debug("skipping database file with unsupported name", "file", e.Name())
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Exists reports whether the named database file exists.
func (r *Registry) Exists(name string) (bool, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(r.path(name))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	}
	return false, storageErr("stat database", err)
}

// CurrentName returns the name of the selected database file.
func (r *Registry) CurrentName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Select makes name the current database. The file is not checked; Current
// falls back to another file when it is missing.
func (r *Registry) Select(name string) error {
	name, err := NormalizeName(name)
	if err != nil {
		return err
	}
	r.mu.Lock()
	r.current = name
	r.mu.Unlock()

	r.logger.Info("database selected", "database", name)
	return nil
}

// Current returns the handle of the current database. When the selected
// file is missing, the first available file is selected instead; when the
// directory is empty, the default file is created and initialized.
func (r *Registry) Current(ctx context.Context) (*Database, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureDir(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(r.path(r.current)); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, storageErr("stat database", err)
		}

		available, err := r.ListAvailable()
		if err != nil {
			return nil, err
		}
		previous := r.current
		if len(available) > 0 {
			r.current = available[0]
		} else {
			r.current = r.cfg.DefaultName
		}
		r.logger.Warn("current database missing, falling back",
			"missing", previous,
			"database", r.current,
		)
	}

	return r.openLocked(ctx, r.current)
}

// Open returns the schema-initialized handle of an existing database file.
func (r *Registry) Open(ctx context.Context, name string) (*Database, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, err := os.Stat(r.path(name)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.dropLocked(name)
			return nil, fmt.Errorf("%w: database %s", ErrNotFound, name)
		}
		return nil, storageErr("stat database", err)
	}
	return r.openLocked(ctx, name)
}

// openLocked returns the cached handle of name or opens it, creating the
// file if needed. Callers hold r.mu.
func (r *Registry) openLocked(ctx context.Context, name string) (*Database, error) {
	path := r.path(name)
	if d, ok := r.handles[name]; ok {
		if _, err := os.Stat(path); err == nil {
			return d, nil
		}
		r.dropLocked(name)
		// A fresh file must not pick up the journal of the deleted one.
		for _, suffix := range []string{"-wal", "-shm"} {
			_ = os.Remove(path + suffix)
		}
	}

	d, err := OpenDatabase(ctx, name, path, r.cfg.DB, r.logger)
	if err != nil {
		return nil, err
	}
	d.notify = r.emit
	r.handles[name] = d

	r.logger.Debug("database opened", "database", name)
	return d, nil
}

// dropLocked closes and forgets the cached handle of name.
func (r *Registry) dropLocked(name string) {
	d, ok := r.handles[name]
	if !ok {
		return
	}
	delete(r.handles, name)
	if err := d.Close(); err != nil {
		r.logger.Warn("failed to close database", "database", name, "error", err)
	}
}

// Create creates an empty database file and returns its normalized name.
// The schema is initialized when the file is first opened.
func (r *Registry) Create(name string) (string, error) {
	name, err := NormalizeName(name)
	if err != nil {
		return "", err
	}
	if err := r.ensureDir(); err != nil {
		return "", err
	}

	f, err := os.OpenFile(r.path(name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("%w: database %s", ErrAlreadyExists, name)
		}
		return "", storageErr("create database", err)
	}
	if err := f.Close(); err != nil {
		return "", storageErr("create database", err)
	}

	r.logger.Info("database created", "database", name)
	return name, nil
}

// OnChange registers fn to be called after every committed mutation of any
// database opened through the registry.
func (r *Registry) OnChange(fn func(ChangeEvent)) {
	r.listenersMu.Lock()
	r.listeners = append(r.listeners, fn)
	r.listenersMu.Unlock()
}

func (r *Registry) emit(ev ChangeEvent) {
	r.listenersMu.RLock()
	listeners := r.listeners
	r.listenersMu.RUnlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// Close closes every open handle.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, d := range r.handles {
		if err := d.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", name, err))
		}
		delete(r.handles, name)
	}
	return errors.Join(errs...)
}
