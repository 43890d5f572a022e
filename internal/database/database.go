// Package database stores the archive index of an install in a SQLite
// manifest so resources can be searched with plain SQL.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var errClosed = errors.New("database connection is closed")

// Database is an open manifest
type Database struct {
	db   *sql.DB
	path string
}

// DatabaseOptions configures how the manifest is opened
type DatabaseOptions struct {
	Path string

	// ReadOnly opens an existing manifest without write access; the file is
	// never created
	ReadOnly bool

	WALMode     bool
	ForeignKeys bool
	BusyTimeout time.Duration
}

// DefaultDatabaseOptions returns the options used by the index command
func DefaultDatabaseOptions(path string) *DatabaseOptions {
	return &DatabaseOptions{
		Path:        path,
		WALMode:     true,
		ForeignKeys: true,
		BusyTimeout: 30 * time.Second,
	}
}

// ReadOnlyOptions returns options for querying an existing manifest
func ReadOnlyOptions(path string) *DatabaseOptions {
	return &DatabaseOptions{
		Path:        path,
		ReadOnly:    true,
		BusyTimeout: 5 * time.Second,
	}
}

// NewDatabase opens the manifest described by options
func NewDatabase(options *DatabaseOptions) (*Database, error) {
	if options == nil {
		return nil, fmt.Errorf("database options cannot be nil")
	}
	if options.Path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}

	if options.ReadOnly {
		if _, err := os.Stat(options.Path); err != nil {
			return nil, fmt.Errorf("opening database %s: %w", options.Path, err)
		}
	} else if dir := filepath.Dir(options.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName(options))
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", options.Path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("testing database connection: %w", err)
	}

	return &Database{db: db, path: options.Path}, nil
}

// dataSourceName builds a go-sqlite3 URI; underscore parameters are
// applied by the driver as pragmas on every connection
func dataSourceName(options *DatabaseOptions) string {
	params := url.Values{}
	if options.ReadOnly {
		params.Set("mode", "ro")
	} else {
		params.Set("_synchronous", "NORMAL")
		if options.WALMode {
			params.Set("_journal_mode", "WAL")
		}
	}
	if options.ForeignKeys {
		params.Set("_foreign_keys", "on")
	}
	if options.BusyTimeout > 0 {
		params.Set("_busy_timeout", strconv.FormatInt(options.BusyTimeout.Milliseconds(), 10))
	}
	params.Set("_cache_size", "-16000") // KiB

	return "file:" + uriPathEscaper.Replace(options.Path) + "?" + params.Encode()
}

// sqlite percent-decodes the path of a file: URI and splits it at the first
// '?' or '#'
var uriPathEscaper = strings.NewReplacer("%", "%25", "?", "%3F", "#", "%23")

// Close closes the database connection. Closing twice is a no-op.
func (d *Database) Close() error {
	if d.db == nil {
		return nil
	}

	err := d.db.Close()
	d.db = nil
	if err != nil {
		return fmt.Errorf("closing database connection: %w", err)
	}
	return nil
}

// Path returns the database file path
func (d *Database) Path() string {
	return d.path
}

// withTx runs fn in a transaction, committing only when fn succeeds
func (d *Database) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	if d.db == nil {
		return errClosed
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Exec executes a SQL statement that doesn't return rows
func (d *Database) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if d.db == nil {
		return nil, errClosed
	}

	result, err := d.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing statement: %w", err)
	}
	return result, nil
}

// Query executes a SQL query that returns rows
func (d *Database) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	if d.db == nil {
		return nil, errClosed
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("executing query: %w", err)
	}
	return rows, nil
}

// Tables lists the user tables of the database, excluding SQLite internals
// and underscore-prefixed bookkeeping tables
func (d *Database) Tables(ctx context.Context) ([]string, error) {
	rows, err := d.Query(ctx, `SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' AND substr(name, 1, 1) <> '_' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scanning table name: %w", err)
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}
