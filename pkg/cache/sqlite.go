package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);`

// SQLiteCache stores entries in a single SQLite database file.
type SQLiteCache struct {
	db *sql.DB
}

// NewSQLiteCache opens or creates the database at path.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; SQLite serializes writes anyway.
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create cache schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Get retrieves a value from the database.
func (c *SQLiteCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		data      []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		"SELECT data, expires_at FROM cache_entries WHERE key = ?", key,
	).Scan(&data, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if expiresAt != 0 && time.Now().UnixNano() > expiresAt {
		_, _ = c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ? AND expires_at = ?", key, expiresAt)
		return nil, false, nil
	}
	return data, true, nil
}

// Set stores a value, replacing any existing entry.
func (c *SQLiteCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	_, err := c.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache_entries(key, data, expires_at) VALUES(?, ?, ?)",
		key, data, expiry(ttl))
	return err
}

// Add stores a value unless a live entry exists.
func (c *SQLiteCache) Add(ctx context.Context, key string, data []byte, ttl time.Duration) (bool, error) {
	now := time.Now().UnixNano()
	if _, err := c.db.ExecContext(ctx,
		"DELETE FROM cache_entries WHERE key = ? AND expires_at != 0 AND expires_at < ?", key, now,
	); err != nil {
		return false, err
	}
	res, err := c.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO cache_entries(key, data, expires_at) VALUES(?, ?, ?)",
		key, data, expiry(ttl))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// Delete removes a value.
func (c *SQLiteCache) Delete(ctx context.Context, key string) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key)
	return err
}

// Clear removes every entry.
func (c *SQLiteCache) Clear(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, "DELETE FROM cache_entries")
	return err
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func expiry(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return time.Now().Add(ttl).UnixNano()
}

var (
	_ Cache = (*SQLiteCache)(nil)
	_ Adder = (*SQLiteCache)(nil)
)
