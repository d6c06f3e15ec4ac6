package kinetics

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteCache is the local tier of the three-tier enzyme-kinetics lookup:
// a plain database/sql table keyed by EC number, backed by the pure-Go
// modernc.org/sqlite driver so the cache works without cgo.
type SQLiteCache struct {
	db *sql.DB
}

// OpenSQLiteCache opens (creating if necessary) a SQLite file at path and
// ensures the kinetics_entries table exists. path may be ":memory:" for a
// process-local cache.
func OpenSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("kinetics: open sqlite cache: %w", err)
	}
	const schema = `
CREATE TABLE IF NOT EXISTS kinetics_entries (
	ec_number TEXT PRIMARY KEY,
	kind INTEGER NOT NULL,
	vmax REAL NOT NULL,
	km REAL NOT NULL,
	k REAL NOT NULL,
	estimated INTEGER NOT NULL
);`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("kinetics: create sqlite schema: %w", err)
	}
	return &SQLiteCache{db: db}, nil
}

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error { return c.db.Close() }

// Lookup returns the cached Entry for ec, or an error if absent.
func (c *SQLiteCache) Lookup(ec string) (*Entry, error) {
	row := c.db.QueryRow(
		`SELECT kind, vmax, km, k, estimated FROM kinetics_entries WHERE ec_number = ?`, ec)
	var e Entry
	var kind, estimated int
	if err := row.Scan(&kind, &e.Vmax, &e.Km, &e.K, &estimated); err != nil {
		return nil, fmt.Errorf("kinetics: sqlite cache miss for %s: %w", ec, err)
	}
	e.Kind = LawKind(kind)
	e.Estimated = estimated != 0
	return &e, nil
}

// Store upserts entry under ec, populating the cache tier after a remote
// hit so subsequent lookups avoid the network tier entirely.
func (c *SQLiteCache) Store(ec string, entry *Entry) error {
	_, err := c.db.Exec(
		`INSERT INTO kinetics_entries (ec_number, kind, vmax, km, k, estimated)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(ec_number) DO UPDATE SET
			kind=excluded.kind, vmax=excluded.vmax, km=excluded.km,
			k=excluded.k, estimated=excluded.estimated`,
		ec, int(entry.Kind), entry.Vmax, entry.Km, entry.K, boolToInt(entry.Estimated))
	if err != nil {
		return fmt.Errorf("kinetics: sqlite cache store %s: %w", ec, err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
