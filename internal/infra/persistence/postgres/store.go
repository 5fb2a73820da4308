// Package postgres persists the item sheet to a PostgreSQL table through the
// pgx database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"studiostock/internal/infra/persistence/sqlsheet"
	"studiostock/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.RecordStore = (*Store)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/studiostock?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

var dialect = sqlsheet.Dialect{
	Name: "postgres",
	CreateTable: `CREATE TABLE IF NOT EXISTS stock_sheet (
		position INTEGER PRIMARY KEY,
		cells JSONB NOT NULL
	)`,
	Insert: `INSERT INTO stock_sheet(position, cells) VALUES($1, $2)`,
}

// Store persists the item sheet to Postgres.
type Store struct {
	*sqlsheet.Table
}

// NewStore opens a Postgres-backed store using dsn (falls back to defaultDSN),
// pings the server and ensures the sheet table exists.
func NewStore(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	table, err := sqlsheet.Open(ctx, db, dialect)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{Table: table}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error { return s.DB().Close() }

// OverrideSQLOpen swaps the sqlOpen function for tests and returns a restore function.
func OverrideSQLOpen(fn func(driverName, dataSourceName string) (*sql.DB, error)) func() {
	openMu.Lock()
	defer openMu.Unlock()
	prev := sqlOpen
	sqlOpen = fn
	return func() {
		openMu.Lock()
		defer openMu.Unlock()
		sqlOpen = prev
	}
}
