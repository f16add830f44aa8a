package pm

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Cache is a local archive cache keyed by (name, version) that stores
// each archive's bytes with its content hash, backed by a
// modernc.org/sqlite database, so repeated builds avoid re-fetching
// from the dependency server.
type Cache struct {
	db *sql.DB
}

func OpenCache(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("pm: opening cache at %s: %w", path, err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS archives (
	name    TEXT NOT NULL,
	version TEXT NOT NULL,
	hash    TEXT NOT NULL,
	data    BLOB NOT NULL,
	PRIMARY KEY (name, version)
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("pm: initialising cache schema: %w", err)
	}
	return &Cache{db: db}, nil
}

func (c *Cache) Close() error { return c.db.Close() }

// Get returns the cached archive bytes for (name, version) and whether
// the recorded hash matches wantHash.
func (c *Cache) Get(name, version, wantHash string) ([]byte, bool, error) {
	var data []byte
	var hash string
	err := c.db.QueryRow(
		`SELECT hash, data FROM archives WHERE name = ? AND version = ?`,
		name, version,
	).Scan(&hash, &data)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("pm: cache lookup for %s@%s: %w", name, version, err)
	}
	return data, hash == wantHash, nil
}

// Put stores an archive's bytes and content hash in the cache.
func (c *Cache) Put(name, version, hash string, data []byte) error {
	_, err := c.db.Exec(
		`INSERT INTO archives (name, version, hash, data) VALUES (?, ?, ?, ?)
		 ON CONFLICT(name, version) DO UPDATE SET hash = excluded.hash, data = excluded.data`,
		name, version, hash, data,
	)
	if err != nil {
		return fmt.Errorf("pm: caching archive for %s@%s: %w", name, version, err)
	}
	return nil
}
