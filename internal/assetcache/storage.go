package assetcache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// Storage holds every named cache generation. It is shared by all workers
// in the process.
type Storage struct {
	db *sql.DB
}

// Response is a stored copy of an upstream reply.
type Response struct {
	Path   string
	Status int
	Header http.Header
	Body   []byte
}

func OpenStorage(path string) (*Storage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create cache directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache storage: %w", err)
	}
	db.SetMaxOpenConns(1)

	const ddl = `
	PRAGMA journal_mode=WAL;
	PRAGMA foreign_keys=ON;
	CREATE TABLE IF NOT EXISTS caches (
		name TEXT PRIMARY KEY
	);
	CREATE TABLE IF NOT EXISTS cache_entries (
		cache_name TEXT NOT NULL REFERENCES caches(name) ON DELETE CASCADE,
		path       TEXT NOT NULL,
		status     INTEGER NOT NULL,
		header     TEXT NOT NULL,
		body       BLOB NOT NULL,
		PRIMARY KEY (cache_name, path)
	);
	`
	if _, err := db.Exec(ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("init cache storage: %w", err)
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Close() error {
	return s.db.Close()
}

// Keys lists cache names in name order.
func (s *Storage) Keys() ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM caches ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list caches: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, err
		}
		names = append(names, n)
	}
	return names, rows.Err()
}

// Delete drops a cache and all its entries. Deleting a missing cache
// reports false.
func (s *Storage) Delete(name string) (bool, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return false, fmt.Errorf("delete cache %q: %w", name, err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cache_entries WHERE cache_name = ?`, name); err != nil {
		return false, fmt.Errorf("delete entries of %q: %w", name, err)
	}
	res, err := tx.Exec(`DELETE FROM caches WHERE name = ?`, name)
	if err != nil {
		return false, fmt.Errorf("delete cache %q: %w", name, err)
	}
	n, _ := res.RowsAffected()
	return n > 0, tx.Commit()
}

// Open returns a handle on a named cache. The cache is created lazily by
// the first PutAll.
func (s *Storage) Open(name string) *Cache {
	return &Cache{s: s, name: name}
}

// Cache is one named generation.
type Cache struct {
	s    *Storage
	name string
}

func (c *Cache) Name() string { return c.name }

// Match looks up a stored response by request path.
func (c *Cache) Match(path string) (*Response, bool, error) {
	r := &Response{Path: path}
	var header string
	err := c.s.db.QueryRow(
		`SELECT status, header, body FROM cache_entries WHERE cache_name = ? AND path = ?`,
		c.name, path,
	).Scan(&r.Status, &header, &r.Body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("match %q in %q: %w", path, c.name, err)
	}
	if err := json.Unmarshal([]byte(header), &r.Header); err != nil {
		return nil, false, fmt.Errorf("decode header of %q: %w", path, err)
	}
	return r, true, nil
}

// PutAll stores every response in one transaction, creating the cache if
// needed. Either all responses are stored or none.
func (c *Cache) PutAll(responses []Response) error {
	tx, err := c.s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT OR IGNORE INTO caches (name) VALUES (?)`, c.name); err != nil {
		return fmt.Errorf("create cache %q: %w", c.name, err)
	}
	for _, r := range responses {
		header, err := json.Marshal(r.Header)
		if err != nil {
			return fmt.Errorf("encode header of %q: %w", r.Path, err)
		}
		_, err = tx.Exec(
			`INSERT INTO cache_entries (cache_name, path, status, header, body) VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT(cache_name, path) DO UPDATE SET status = excluded.status, header = excluded.header, body = excluded.body`,
			c.name, r.Path, r.Status, string(header), r.Body,
		)
		if err != nil {
			return fmt.Errorf("put %q: %w", r.Path, err)
		}
	}
	return tx.Commit()
}

// Len counts stored entries.
func (c *Cache) Len() (int, error) {
	var n int
	err := c.s.db.QueryRow(`SELECT COUNT(*) FROM cache_entries WHERE cache_name = ?`, c.name).Scan(&n)
	return n, err
}
