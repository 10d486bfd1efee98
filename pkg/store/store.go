// Package store persists sessions, category mappings, and privacy rules in
// SQLite. The sampling loop is the sole session writer; report queries run
// concurrently against WAL snapshots.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"tally/pkg/protocol"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store wraps the tally SQLite database.
type Store struct {
	db *sql.DB
}

// New creates a Store backed by the given database. Call Init before use on
// a fresh database.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (or creates) the SQLite database at path with WAL journal mode
// and a 5-second busy timeout, verifies the connection, and applies the
// schema. The caller owns the returned DB and must close it.
func Open(path string) (*Store, *sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	ctx := context.Background()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("set WAL mode on %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("set busy_timeout on %s: %w", path, err)
	}

	s := New(db)
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, db, nil
}

// Init applies the schema. Idempotent.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, protocol.SchemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
