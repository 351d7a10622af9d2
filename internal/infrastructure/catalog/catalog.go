// Package catalog records which backend sessions have been trained and
// indexed, in a small SQLite database.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tesso57/rsscluster/internal/application/usecase"
	_ "modernc.org/sqlite"
)

// FileName is the catalog database name inside the data directory.
const FileName = "catalog.db"

const schema = `CREATE TABLE IF NOT EXISTS sessions (
	name         TEXT PRIMARY KEY,
	backend      TEXT NOT NULL DEFAULT '',
	method       TEXT NOT NULL DEFAULT '',
	trained_at   INTEGER NOT NULL DEFAULT 0,
	trained_docs INTEGER NOT NULL DEFAULT 0,
	indexed_at   INTEGER NOT NULL DEFAULT 0,
	indexed_docs INTEGER NOT NULL DEFAULT 0
)`

// Catalog implements usecase.SessionCatalog.
type Catalog struct {
	db *sql.DB
}

// Open opens (creating if needed) the catalog database at path.
func Open(path string) (*Catalog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

// Lookup returns the recorded state of a session.
func (c *Catalog) Lookup(ctx context.Context, name string) (usecase.SessionInfo, bool, error) {
	var (
		info                 usecase.SessionInfo
		trainedAt, indexedAt int64
	)
	err := c.db.QueryRowContext(ctx, `SELECT name, backend, method, trained_at, trained_docs, indexed_at, indexed_docs
		FROM sessions WHERE name = ?`, name).
		Scan(&info.Name, &info.Backend, &info.Method, &trainedAt, &info.TrainedDocs, &indexedAt, &info.IndexedDocs)
	if errors.Is(err, sql.ErrNoRows) {
		return usecase.SessionInfo{}, false, nil
	}
	if err != nil {
		return usecase.SessionInfo{}, false, fmt.Errorf("query session %q: %w", name, err)
	}
	info.TrainedAt = fromUnixNano(trainedAt)
	info.IndexedAt = fromUnixNano(indexedAt)
	return info, true, nil
}

// RecordTraining stores a completed training run for the session.
func (c *Catalog) RecordTraining(ctx context.Context, name, backend, method string, docs int, at time.Time) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO sessions (name, backend, method, trained_at, trained_docs)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			backend = excluded.backend,
			method = excluded.method,
			trained_at = excluded.trained_at,
			trained_docs = excluded.trained_docs`,
		name, backend, method, at.UnixNano(), docs)
	if err != nil {
		return fmt.Errorf("record training for %q: %w", name, err)
	}
	return nil
}

// RecordIndexing stores a completed indexing run for the session.
func (c *Catalog) RecordIndexing(ctx context.Context, name string, docs int, at time.Time) error {
	_, err := c.db.ExecContext(ctx, `INSERT INTO sessions (name, indexed_at, indexed_docs)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			indexed_at = excluded.indexed_at,
			indexed_docs = excluded.indexed_docs`,
		name, at.UnixNano(), docs)
	if err != nil {
		return fmt.Errorf("record indexing for %q: %w", name, err)
	}
	return nil
}

// Forget removes the session's record.
func (c *Catalog) Forget(ctx context.Context, name string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, name); err != nil {
		return fmt.Errorf("forget session %q: %w", name, err)
	}
	return nil
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
