// Package sqlite persists the item sheet to an embedded SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"studiostock/internal/infra/persistence/sqlsheet"
	"studiostock/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.RecordStore = (*Store)(nil)

var dialect = sqlsheet.Dialect{
	Name: "sqlite",
	CreateTable: `CREATE TABLE IF NOT EXISTS stock_sheet (
		position INTEGER PRIMARY KEY,
		cells BLOB NOT NULL
	)`,
	Insert: `INSERT INTO stock_sheet(position, cells) VALUES(?, ?)`,
}

// Store persists the item sheet to an embedded SQLite file.
type Store struct {
	*sqlsheet.Table
	path string
}

// NewStore opens (creating if needed) the SQLite file at path.
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "studiostock.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps the DELETE + INSERT rewrite serialised on the file
	db.SetMaxOpenConns(1)
	table, err := sqlsheet.Open(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Table: table, path: path}, nil
}

// Path returns the configured database path.
func (s *Store) Path() string { return s.path }

// Close releases the database handle.
func (s *Store) Close() error { return s.DB().Close() }
