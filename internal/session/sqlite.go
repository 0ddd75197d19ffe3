package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

// SQLiteRegistry is a Registry backed by a local SQLite database. The CLI
// uses it so `pdfchat ingest` in one process leaves a session that
// `pdfchat ask` and `pdfchat delete` can find in later processes.
type SQLiteRegistry struct {
	// db is the underlying database connection pool.
	db *sql.DB
}

// DefaultDBPath returns the default path for the session database.
// It resolves to ~/.pdfchat/sessions.db, creating the directory if needed.
func DefaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("session: could not determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".pdfchat")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("session: could not create %s: %w", dir, err)
	}
	return filepath.Join(dir, "sessions.db"), nil
}

// OpenSQLite opens (or creates) a SQLiteRegistry at the given path and runs
// the schema migration. Use ":memory:" for an in-memory database in tests.
func OpenSQLite(path string) (*SQLiteRegistry, error) {
	// WAL mode improves concurrent read performance and is safe for single-host use.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	// Limit to a single writer connection to avoid SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)

	r := &SQLiteRegistry{db: db}
	if err := r.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// migrate creates the schema if it does not already exist.
func (r *SQLiteRegistry) migrate() error {
	const ddl = `
CREATE TABLE IF NOT EXISTS sessions (
    id          TEXT    PRIMARY KEY,
    storage_ref TEXT    NOT NULL,
    filename    TEXT    NOT NULL,
    created_at  INTEGER NOT NULL  -- Unix timestamp (seconds)
);
`
	if _, err := r.db.Exec(ddl); err != nil {
		return fmt.Errorf("session: migrate: %w", err)
	}
	return nil
}

// Insert registers a new session.
func (r *SQLiteRegistry) Insert(ctx context.Context, s Session) error {
	const q = `INSERT INTO sessions (id, storage_ref, filename, created_at) VALUES (?, ?, ?, ?)`
	created := s.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, q, s.ID, s.StorageRef, s.Filename, created.Unix()); err != nil {
		return fmt.Errorf("session: insert %s: %w", s.ID, err)
	}
	return nil
}

// Lookup returns the session with the given ID.
func (r *SQLiteRegistry) Lookup(ctx context.Context, id string) (Session, error) {
	const q = `SELECT id, storage_ref, filename, created_at FROM sessions WHERE id = ?`

	var s Session
	var ts int64
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.StorageRef, &s.Filename, &ts)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, ErrNotFound
	}
	if err != nil {
		return Session{}, fmt.Errorf("session: lookup %s: %w", id, err)
	}
	s.CreatedAt = time.Unix(ts, 0)
	return s, nil
}

// Remove deletes the session with the given ID.
func (r *SQLiteRegistry) Remove(ctx context.Context, id string) error {
	const q = `DELETE FROM sessions WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("session: remove %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("session: remove %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Close releases the database connection pool.
func (r *SQLiteRegistry) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("session: close: %w", err)
	}
	return nil
}
