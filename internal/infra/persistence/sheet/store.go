// Package sheet keeps the item sheet as a single CSV document in a blob store,
// the same shape a spreadsheet export has: header row plus one row per item.
package sheet

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"studiostock/internal/blob/core"
	"studiostock/internal/infra/persistence/tabular"
	"studiostock/pkg/domain"
)

// Compile-time contract assertion.
var _ domain.RecordStore = (*Store)(nil)

// DefaultKey is the blob key used when none is configured.
const DefaultKey = "estoque.csv"

const contentType = "text/csv; charset=utf-8"

// Store implements domain.RecordStore over a blob key.
type Store struct {
	blobs core.Store
	key   string
}

// NewStore binds a sheet to key inside blobs.
func NewStore(blobs core.Store, key string) *Store {
	if key == "" {
		key = DefaultKey
	}
	return &Store{blobs: blobs, key: key}
}

// Key returns the blob key holding the sheet.
func (s *Store) Key() string { return s.key }

// Load reads and decodes the sheet. A missing key is an empty sheet.
func (s *Store) Load(ctx context.Context) (domain.Collection, error) {
	_, rc, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, core.ErrNotFound) {
		return domain.Collection{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", s.key, err)
	}
	defer func() { _ = rc.Close() }()
	items, err := tabular.ReadCSV(rc)
	if err != nil {
		return nil, fmt.Errorf("decode sheet %s: %w", s.key, err)
	}
	return items, nil
}

// ReplaceAll writes header plus rows as one blob overwrite.
func (s *Store) ReplaceAll(ctx context.Context, items domain.Collection) error {
	var buf bytes.Buffer
	if err := tabular.WriteCSV(&buf, items); err != nil {
		return fmt.Errorf("encode sheet: %w", err)
	}
	if _, err := s.blobs.Put(ctx, s.key, bytes.NewReader(buf.Bytes()), core.PutOptions{ContentType: contentType}); err != nil {
		return fmt.Errorf("write sheet %s: %w", s.key, err)
	}
	return nil
}
