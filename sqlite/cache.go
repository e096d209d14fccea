// Package sqlite provides the SQLite-backed origin response cache.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fangraph/fangraph"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Compile-time interface verification.
var _ fangraph.ResponseCache = (*Cache)(nil)

// migrations is the ordered schema history. Each entry is a single
// statement; entry i runs only when the database's user_version is below
// i+1, and advances it to exactly i+1. Re-opening an up-to-date database
// runs nothing, and opening an old one applies only the missing tail.
var migrations = []string{
	"CREATE TABLE pages (id INTEGER PRIMARY KEY) STRICT",
	"ALTER TABLE pages ADD COLUMN url TEXT NOT NULL",
	"ALTER TABLE pages ADD COLUMN method TEXT NOT NULL",
	"ALTER TABLE pages ADD COLUMN data TEXT",
	"ALTER TABLE pages ADD COLUMN response TEXT NOT NULL",
	"ALTER TABLE pages ADD COLUMN retrieved TEXT NOT NULL",
	"CREATE UNIQUE INDEX pages_index ON pages (url, method, data)",
}

// Cache is a persistent response cache over a SQLite database. Rows are
// append-only and keyed by (url, method, request body); the body column is
// NULL for body-less requests and NULL keys compare equal on lookup.
type Cache struct {
	db   *sql.DB
	path string
}

// NewCache creates a Cache backed by the database file at path.
// Use ":memory:" for an in-memory database.
func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Open opens the database connection and applies pending migrations.
// Any failure here is fatal to gateway construction: the system refuses to
// run without its cache.
func (c *Cache) Open() error {
	conn, err := sql.Open("sqlite3", c.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit to one connection.
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Wait out lock contention instead of failing with "database is locked".
	if _, err := conn.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := c.migrate(conn); err != nil {
		conn.Close()
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	c.db = conn
	return nil
}

// migrate applies the pending tail of the migration list in one
// transaction, gated on the user_version pragma.
func (c *Cache) migrate(conn *sql.DB) error {
	tx, err := conn.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var version int
	if err := tx.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for i, migration := range migrations {
		if version >= i+1 {
			continue
		}
		if _, err := tx.Exec(migration); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// Close closes the database connection.
func (c *Cache) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Lookup returns the cached response body for the exact call signature.
func (c *Cache) Lookup(ctx context.Context, url, method string, body []byte) (string, bool, error) {
	var response string
	err := c.db.QueryRowContext(ctx, `
		SELECT response
		FROM pages
		WHERE url = ? AND method = ? AND data IS ?
	`, url, method, bodyValue(body)).Scan(&response)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return response, true, nil
}

// Store records a response for a call signature. The unique index rejects a
// second row for the same key; callers must Store only after a Lookup miss.
func (c *Cache) Store(ctx context.Context, url, method string, body []byte, response string) error {
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO pages (url, method, data, response, retrieved)
		VALUES (?, ?, ?, ?, ?)
	`, url, method, bodyValue(body), response, time.Now().UTC().Format(time.RFC3339))

	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint") {
		return fangraph.Errorf(fangraph.ECONFLICT, "response already cached for %s %s", method, url)
	}
	return err
}

// bodyValue maps a nil body to SQL NULL so body-less requests share one key.
func bodyValue(body []byte) any {
	if body == nil {
		return nil
	}
	return string(body)
}
