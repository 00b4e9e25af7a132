package metadata

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Schema version tracking:
// 1 - Initial schema (descriptors table)
const cacheSchemaVersion = 1

const cacheSchema = `
CREATE TABLE IF NOT EXISTS descriptors (
	key   TEXT PRIMARY KEY,
	value BLOB NOT NULL
);
`

// SQLiteCache persists descriptor sets on disk. CLI processes are
// short-lived, so without it every invocation would refetch the same
// entity, attribute, and relationship definitions.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache creates or opens a cache database at the given path.
// Applies required pragmas and migrations automatically; safe to call
// multiple times against the same file.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to cache database: %w", err)
	}

	// SQLite supports one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent resolver fetches.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &SQLiteCache{db: db}
	if err := c.applyPragmas(); err != nil {
		db.Close()
		return nil, err
	}
	if err := c.applySchema(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// NewSQLiteCacheFromDB wraps an existing database handle. The schema must
// already be in place. Used by tests that inject a mock driver.
func NewSQLiteCacheFromDB(db *sql.DB) *SQLiteCache {
	return &SQLiteCache{db: db}
}

// Close releases the underlying database connection.
func (c *SQLiteCache) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

func (c *SQLiteCache) Get(key string) ([]byte, bool) {
	var value []byte
	err := c.db.QueryRow(`SELECT value FROM descriptors WHERE key = ?`, key).Scan(&value)
	if err != nil {
		return nil, false
	}
	return value, true
}

func (c *SQLiteCache) Put(key string, value []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO descriptors (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("cache put %q: %w", key, err)
	}
	return nil
}

// Bust discards every cached descriptor. Invoked by the CLI's --refresh
// flag when the remote schema has changed under a stale cache.
func (c *SQLiteCache) Bust() error {
	if _, err := c.db.Exec(`DELETE FROM descriptors`); err != nil {
		return fmt.Errorf("cache bust: %w", err)
	}
	return nil
}

func (c *SQLiteCache) applyPragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := c.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// applySchema creates the table if needed and runs migrations. Idempotent.
func (c *SQLiteCache) applySchema() error {
	if _, err := c.db.Exec(cacheSchema); err != nil {
		return fmt.Errorf("apply cache schema: %w", err)
	}

	var version int
	if err := c.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version < cacheSchemaVersion {
		if _, err := c.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", cacheSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}
	return nil
}
