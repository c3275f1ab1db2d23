// Package db owns the SQLite database that records conversion jobs: opening
// it with the pragmas the service relies on, schema migrations, busy retry
// and the /debug admin routes.
package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the job database connection.
type DB struct {
	*sql.DB
	path string
}

var pragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA temp_store=MEMORY",
	"PRAGMA foreign_keys=ON",
}

// OpenDB opens the database at path and applies connection pragmas without
// touching the schema.
func OpenDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under the worker pool.
	sqlDB.SetMaxOpenConns(1)
	for _, p := range pragmas {
		if _, err := sqlDB.Exec(p); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("%s: %w", p, err)
		}
	}
	return &DB{DB: sqlDB, path: path}, nil
}

// NewDB opens the database and brings the schema up to date.
func NewDB(path string) (*DB, error) {
	d, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := d.MigrateUp(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Path returns the file the database was opened from.
func (db *DB) Path() string { return db.path }

const (
	busyAttempts = 5
	busyBackoff  = 20 * time.Millisecond
)

// RetryOnBusy runs fn, retrying with linear backoff while SQLite reports
// the database as busy or locked.
func RetryOnBusy(fn func() error) error {
	var err error
	for attempt := 1; attempt <= busyAttempts; attempt++ {
		if err = fn(); err == nil || !IsBusy(err) {
			return err
		}
		time.Sleep(time.Duration(attempt) * busyBackoff)
	}
	return fmt.Errorf("database busy after %d attempts: %w", busyAttempts, err)
}

// IsBusy reports whether err is a SQLITE_BUSY or SQLITE_LOCKED failure.
func IsBusy(err error) bool {
	if err == nil || errors.Is(err, sql.ErrNoRows) {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") ||
		strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "SQLITE_LOCKED")
}
