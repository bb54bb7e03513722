// Package sampledb maintains the local sample index: every known audio file
// on disk keyed by absolute path with its name, size, and modification time.
// Reconciliation consumes a read-only in-memory snapshot of this index.
package sampledb

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Entry is one indexed audio file.
type Entry struct {
	Path         string
	Name         string
	Size         int64
	LastModified int64
}

// Store manages index persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the index database and applies migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure index directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) applyMigrations(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS samples (
	path TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	size INTEGER NOT NULL,
	last_modified INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_samples_name ON samples(name);
`
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Path returns the on-disk database location.
func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Upsert inserts or replaces a single entry.
func (s *Store) Upsert(ctx context.Context, entry Entry) error {
	const query = `
INSERT INTO samples (path, name, size, last_modified)
VALUES (?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	name = excluded.name,
	size = excluded.size,
	last_modified = excluded.last_modified
`
	if _, err := s.db.ExecContext(ctx, query, entry.Path, entry.Name, entry.Size, entry.LastModified); err != nil {
		return fmt.Errorf("upsert %s: %w", entry.Path, err)
	}
	return nil
}

// UpsertMany writes entries within a single transaction.
func (s *Store) UpsertMany(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const query = `
INSERT INTO samples (path, name, size, last_modified)
VALUES (?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	name = excluded.name,
	size = excluded.size,
	last_modified = excluded.last_modified
`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	for _, entry := range entries {
		if _, err := stmt.ExecContext(ctx, entry.Path, entry.Name, entry.Size, entry.LastModified); err != nil {
			return fmt.Errorf("upsert %s: %w", entry.Path, err)
		}
	}
	return tx.Commit()
}

// Has reports whether path is already indexed.
func (s *Store) Has(ctx context.Context, path string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM samples WHERE path = ?`, path).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("query %s: %w", path, err)
	}
	return true, nil
}

// Count returns the number of indexed samples.
func (s *Store) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count samples: %w", err)
	}
	return count, nil
}

// Snapshot returns every entry ordered by path. The stable ordering keeps
// reconciliation's first-match-wins scan deterministic across runs.
func (s *Store) Snapshot(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, name, size, last_modified FROM samples ORDER BY path`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.Path, &entry.Name, &entry.Size, &entry.LastModified); err != nil {
			return nil, fmt.Errorf("scan sample row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return entries, nil
}
