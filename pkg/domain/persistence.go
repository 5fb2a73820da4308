package domain

import "context"

// RecordStore is the narrow contract every backend offers: bulk read and
// destructive bulk overwrite. There is no partial update path.
type RecordStore interface {
	// Load returns every stored item in stored order. An empty backend yields
	// an empty collection.
	Load(ctx context.Context) (Collection, error)
	// ReplaceAll clears the backend and writes items in the given order.
	ReplaceAll(ctx context.Context, items Collection) error
}
