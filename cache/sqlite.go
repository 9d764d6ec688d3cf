// SQLite-backed cache store.
//
// Information Hiding:
// - SQLite connection management hidden behind the Store interface
// - Schema details encapsulated
// - Thread-safe via sql.DB's built-in connection pooling

package cache

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SqliteStore implements Store using a SQLite database file.
type SqliteStore struct {
	db *sql.DB
}

// OpenSqlite opens or creates a SQLite cache database at the given path.
// Creates parent directories if they don't exist.
func OpenSqlite(path string) (*SqliteStore, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// NewSqliteInMemory creates an in-memory store (useful for testing).
func NewSqliteInMemory() (*SqliteStore, error) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory SQLite: %w", err)
	}

	store := &SqliteStore{db: db}
	if err := store.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *SqliteStore) Close() error {
	return s.db.Close()
}

func (s *SqliteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS cache_entries (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_cache_created
		ON cache_entries(created_at);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Get returns the value and creation time for key.
func (s *SqliteStore) Get(ctx context.Context, key string) (string, time.Time, bool, error) {
	var value string
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT value, created_at FROM cache_entries WHERE key = ?",
		key).Scan(&value, &createdAt)

	if err == sql.ErrNoRows {
		return "", time.Time{}, false, nil
	}
	if err != nil {
		return "", time.Time{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	return value, time.Unix(createdAt, 0), true, nil
}

// Set upserts a value.
func (s *SqliteStore) Set(ctx context.Context, key, value string, createdAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO cache_entries (key, value, created_at)
		VALUES (?, ?, ?)`,
		key, value, createdAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes a key.
func (s *SqliteStore) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// PurgeBefore removes rows created before cutoff.
func (s *SqliteStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE created_at < ?",
		cutoff.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return removed, nil
}

// Verify SqliteStore implements Store
var _ Store = (*SqliteStore)(nil)
