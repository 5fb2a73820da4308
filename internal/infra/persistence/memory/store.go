// Package memory provides an in-process record store used for tests and
// ephemeral environments. Rows are kept in their encoded text form so the
// store exercises the same decode path as the durable backends.
package memory

import (
	"context"
	"sync"

	"studiostock/internal/infra/persistence/tabular"
	"studiostock/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.RecordStore = (*Store)(nil)

// Store keeps the sheet rows in memory.
type Store struct {
	mu        sync.Mutex
	rows      [][]string
	loadErr   error
	writeErr  error
	loads     int
	writes    int
	failAfter int
}

// NewStore returns an empty store.
func NewStore() *Store { return &Store{failAfter: -1} }

// NewStoreWithItems returns a store already holding items.
func NewStoreWithItems(items domain.Collection) *Store {
	s := NewStore()
	s.rows = tabular.Encode(items)
	return s
}

// NewStoreWithRows returns a store holding raw rows (header first), for
// exercising coercion and schema checks.
func NewStoreWithRows(rows [][]string) *Store {
	s := NewStore()
	s.rows = cloneRows(rows)
	return s
}

// Load decodes the stored rows.
func (s *Store) Load(ctx context.Context) (domain.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return nil, s.loadErr
	}
	return tabular.Decode(cloneRows(s.rows))
}

// ReplaceAll overwrites the stored rows with the header plus items.
func (s *Store) ReplaceAll(ctx context.Context, items domain.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	if s.failAfter == 0 {
		return domain.ErrStoreUnavailable
	}
	if s.failAfter > 0 {
		s.failAfter--
	}
	s.rows = tabular.Encode(items)
	return nil
}

// FailLoads makes every Load return err until cleared with nil.
func (s *Store) FailLoads(err error) {
	s.mu.Lock()
	s.loadErr = err
	s.mu.Unlock()
}

// FailWrites makes every ReplaceAll return err until cleared with nil.
func (s *Store) FailWrites(err error) {
	s.mu.Lock()
	s.writeErr = err
	s.mu.Unlock()
}

// FailWritesAfter lets n writes succeed, then fails with ErrStoreUnavailable.
// A negative n disables the trigger.
func (s *Store) FailWritesAfter(n int) {
	s.mu.Lock()
	s.failAfter = n
	s.mu.Unlock()
}

// Rows returns a copy of the raw stored rows.
func (s *Store) Rows() [][]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneRows(s.rows)
}

// Loads reports how many times Load reached the store.
func (s *Store) Loads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads
}

// Writes reports how many times ReplaceAll reached the store.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

func cloneRows(rows [][]string) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = append([]string(nil), r...)
	}
	return out
}
