// Package store is the SQLite-backed entity store for the ledger book.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // register sqlite driver
)

// Store provides typed access to the book database. Reads run against the
// committed state; all mutations go through RunWrite.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens or creates the book database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating book dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening book db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the book database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the book file path.
func (s *Store) Path() string {
	return s.path
}

// WriteTx is an isolated write context. Reads through it observe the
// transaction's own uncommitted changes.
type WriteTx struct {
	tx *sql.Tx
}

// RunWrite executes fn inside a write transaction. The transaction commits
// if fn returns nil and rolls back otherwise; no partial state is visible
// to readers either way.
func (s *Store) RunWrite(fn func(*WriteTx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning write tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(&WriteTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// dbtx is satisfied by both *sql.DB and *sql.Tx so the typed queries below
// can serve reads and write contexts alike.
type dbtx interface {
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
	Exec(query string, args ...any) (sql.Result, error)
}
