// Package sqlsheet stores the item sheet in a single SQL table, one row per
// sheet row with the header at position 0. Both the sqlite and postgres
// record stores are built on it; they differ only in dialect.
package sqlsheet

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	"studiostock/internal/infra/persistence/tabular"
	"studiostock/pkg/domain"
)

// Dialect captures the statements that differ between engines.
type Dialect struct {
	Name        string
	CreateTable string
	Insert      string
}

// Table implements domain.RecordStore over a *sql.DB.
type Table struct {
	db      *sql.DB
	dialect Dialect
	mu      sync.Mutex
}

// Open ensures the sheet table exists and returns a Table bound to db.
func Open(ctx context.Context, db *sql.DB, dialect Dialect) (*Table, error) {
	if _, err := db.ExecContext(ctx, dialect.CreateTable); err != nil {
		return nil, fmt.Errorf("create %s sheet table: %w", dialect.Name, err)
	}
	return &Table{db: db, dialect: dialect}, nil
}

// DB exposes the underlying sql.DB for integration testing hooks.
func (t *Table) DB() *sql.DB { return t.db }

// Load reads every row in position order and decodes it.
func (t *Table) Load(ctx context.Context) (domain.Collection, error) {
	rows, err := t.db.QueryContext(ctx, `SELECT cells FROM stock_sheet ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("select sheet: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var raw [][]string
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan sheet row: %w", err)
		}
		var cells []string
		if err := json.Unmarshal(payload, &cells); err != nil {
			return nil, fmt.Errorf("decode sheet row %d: %w", len(raw), err)
		}
		raw = append(raw, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sheet: %w", err)
	}
	return tabular.Decode(raw)
}

// ReplaceAll clears the table and writes the header plus items inside one
// SQL transaction.
func (t *Table) ReplaceAll(ctx context.Context, items domain.Collection) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `DELETE FROM stock_sheet`); err != nil {
		return fmt.Errorf("clear sheet: %w", err)
	}
	for pos, row := range tabular.Encode(items) {
		payload, err := json.Marshal(row)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, t.dialect.Insert, pos, payload); err != nil {
			return fmt.Errorf("insert sheet row %d: %w", pos, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	committed = true
	return nil
}
