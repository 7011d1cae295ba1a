package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/koban-io/koban/internal/common"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	stateKey  = "state"
	signalKey = "signal"
)

// SQLiteBackend stores the document in a single-row key-value table. It is
// the backend of choice when several processes share one data directory:
// SQLite serializes the whole-document writes for us.
type SQLiteBackend struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteBackend opens (creating if needed) the database at dbPath.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	if dbPath == "" {
		return nil, common.NewValidationError("dbPath", "must not be empty")
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite doesn't benefit from multiple connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS documents (
			key   TEXT PRIMARY KEY,
			value BLOB NOT NULL
		)
	`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create documents table: %w", err)
	}

	return &SQLiteBackend{db: db, dbPath: dbPath}, nil
}

// Read returns the raw document.
func (b *SQLiteBackend) Read(ctx context.Context) ([]byte, error) {
	return b.get(ctx, stateKey)
}

// Write replaces the document.
func (b *SQLiteBackend) Write(ctx context.Context, data []byte) error {
	return b.put(ctx, stateKey, data)
}

// ReadSignal returns the timestamp of the last save.
func (b *SQLiteBackend) ReadSignal(ctx context.Context) (int64, error) {
	var ts int64
	err := b.db.QueryRowContext(ctx,
		`SELECT CAST(value AS INTEGER) FROM documents WHERE key = ?`, signalKey,
	).Scan(&ts)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, common.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read signal: %w", err)
	}
	return ts, nil
}

// WriteSignal records the timestamp of a save.
func (b *SQLiteBackend) WriteSignal(ctx context.Context, ts int64) error {
	return b.put(ctx, signalKey, []byte(fmt.Sprintf("%d", ts)))
}

// Delete removes the document and its signal.
func (b *SQLiteBackend) Delete(ctx context.Context) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// WatchPath returns empty: observers poll ReadSignal instead of watching
// the database file, which also changes on reads under WAL.
func (b *SQLiteBackend) WatchPath() string {
	return ""
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func (b *SQLiteBackend) get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := b.db.QueryRowContext(ctx,
		`SELECT value FROM documents WHERE key = ?`, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

func (b *SQLiteBackend) put(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx, `
		INSERT INTO documents (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}
