// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package store implements the translation table engine: database files,
// per-language schema management, translation CRUD, tags, and the
// operation log.
package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite" // SQLite driver for database/sql
)

//go:embed migrations/*.sql
var migrations embed.FS

// gooseMu serializes Migrate calls; goose keeps its FS and dialect in
// package-level state.
var gooseMu sync.Mutex

// DBConfig holds database configuration options.
type DBConfig struct {
	// MaxOpenConns is the maximum number of open connections to the database.
	// For SQLite, this is typically 1 for writes but can be higher for reads with WAL mode.
	MaxOpenConns int
	// MaxIdleConns is the maximum number of connections in the idle connection pool.
	MaxIdleConns int
	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration
	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration
}

// DefaultDBConfig returns sensible defaults for SQLite.
func DefaultDBConfig() DBConfig {
	return DBConfig{
		MaxOpenConns:    8,
		MaxIdleConns:    4,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
	}
}

// connPragmas are applied to every pooled connection through the DSN.
// foreign_keys must be on for each connection or cascade deletes from the
// source table silently stop working.
var connPragmas = []string{
	"foreign_keys(1)",
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"synchronous(NORMAL)",
	"temp_store(MEMORY)",
}

// dsn builds a modernc.org/sqlite DSN for path.
func dsn(path string) string {
	q := url.Values{}
	for _, p := range connPragmas {
		q.Add("_pragma", p)
	}
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// NewDB opens a SQLite database connection with the default pool settings.
func NewDB(path string) (*sql.DB, error) {
	return NewDBWithConfig(path, DefaultDBConfig())
}

// NewDBWithConfig opens a SQLite database connection with custom configuration.
func NewDBWithConfig(path string, cfg DBConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return db, nil
}

// Migrate runs all pending migrations of the static tables.
func Migrate(db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("setting dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	return nil
}

// ChangeEvent describes a committed mutation of a database file.
type ChangeEvent struct {
	Database  string
	Operation string
}

// Database is a handle to one schema-initialized database file.
//
// Schema-changing operations (language activation, schema init) hold
// schemaMu exclusively; data operations hold it shared, so the set of
// per-language tables never changes under a running query.
type Database struct {
	name   string
	path   string
	db     *sql.DB
	logger *slog.Logger
	notify func(ChangeEvent)

	schemaMu sync.RWMutex
}

// OpenDatabase opens the file at path and initializes its schema.
// The registry is the usual way to obtain handles; OpenDatabase is used for
// standalone files.
func OpenDatabase(ctx context.Context, name, path string, cfg DBConfig, logger *slog.Logger) (*Database, error) {
	sqlDB, err := NewDBWithConfig(path, cfg)
	if err != nil {
		return nil, storageErr("open "+name, err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	d := &Database{
		name:   name,
		path:   path,
		db:     sqlDB,
		logger: logger.With("database", name),
	}
	if err := d.InitSchema(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return d, nil
}

// Name returns the database file name, e.g. "default.db".
func (d *Database) Name() string {
	return d.name
}

// Path returns the path of the database file.
func (d *Database) Path() string {
	return d.path
}

// DB exposes the underlying connection pool.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Close closes the connection pool.
func (d *Database) Close() error {
	return d.db.Close()
}

// changed notifies listeners about a committed mutation.
func (d *Database) changed(op string) {
	if d.notify != nil {
		d.notify(ChangeEvent{Database: d.name, Operation: op})
	}
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// withTx runs fn in a transaction, committing on success. Every committed
// transaction bumps the data revision of the file.
func (d *Database) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr(op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return storageErr(op, err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE data_revision SET revision = revision + 1 WHERE id = 1`); err != nil {
		_ = tx.Rollback()
		return storageErr(op, err)
	}
	if err := tx.Commit(); err != nil {
		return storageErr(op, err)
	}
	return nil
}

// Revision returns the data revision of the file. It increases with every
// committed mutation made through any handle, in any process.
func (d *Database) Revision(ctx context.Context) (int64, error) {
	var rev int64
	err := d.db.QueryRowContext(ctx, `SELECT revision FROM data_revision WHERE id = 1`).Scan(&rev)
	if err != nil {
		return 0, storageErr("read revision", err)
	}
	return rev, nil
}

// nullString maps "" to NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// timestamp scans SQLite timestamps stored either as text or as time values.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// Scan implements sql.Scanner.
func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	}
	return fmt.Errorf("unsupported timestamp type %T", src)
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// sqlTimestamp formats t the way CURRENT_TIMESTAMP stores it.
func sqlTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
