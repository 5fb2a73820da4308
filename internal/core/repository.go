package core

import (
	"sync"

	"studiostock/internal/infra/persistence/tabular"
	"studiostock/pkg/domain"
)

// Repository is the in-process authoritative copy of the item sheet. It owns
// identity assignment and is the only place a collection is accepted after
// validation.
type Repository struct {
	mu          sync.RWMutex
	items       domain.Collection
	highWater   int64
	fingerprint string
}

// NewRepository returns an empty repository.
func NewRepository() *Repository {
	return &Repository{items: domain.Collection{}}
}

// Snapshot returns a deep copy of the current collection.
func (r *Repository) Snapshot() domain.Collection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items.Clone()
}

// Len reports the number of items held.
func (r *Repository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.items)
}

// NextID returns the id the next created item will receive. Ids of deleted
// items are never handed out again within the session.
func (r *Repository) NextID() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.nextIDLocked()
}

func (r *Repository) nextIDLocked() int64 {
	top := r.highWater
	if m := r.items.MaxID(); m > top {
		top = m
	}
	return top + 1
}

// allocator hands out consecutive ids starting at NextID. Ids it hands out
// only become reserved once a collection containing them is accepted.
func (r *Repository) allocator() func() int64 {
	next := r.NextID()
	return func() int64 {
		id := next
		next++
		return id
	}
}

// Replace validates c and swaps it in atomically.
func (r *Repository) Replace(c domain.Collection) error {
	if err := c.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapLocked(c)
	return nil
}

func (r *Repository) swapLocked(c domain.Collection) {
	r.items = c.Clone()
	if m := r.items.MaxID(); m > r.highWater {
		r.highWater = m
	}
}

// Restore accepts a collection freshly loaded from the backend. Rows without a
// usable id receive new ones; the number of such rows is returned. The
// restored state is recorded as durable.
func (r *Repository) Restore(c domain.Collection) (int, error) {
	c = c.Clone()
	next := c.MaxID()
	r.mu.RLock()
	if r.highWater > next {
		next = r.highWater
	}
	r.mu.RUnlock()
	assigned := 0
	for i := range c {
		if c[i].ID == 0 {
			next++
			c[i].ID = next
			assigned++
		}
	}
	if err := c.Validate(); err != nil {
		return 0, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.swapLocked(c)
	r.fingerprint = tabular.Fingerprint(c)
	return assigned, nil
}

// rollback reinstates a previous snapshot after a failed persist. The id
// high-water mark is kept.
func (r *Repository) rollback(prev domain.Collection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items = prev.Clone()
}

// markDurable records c as the state last confirmed written to the backend.
func (r *Repository) markDurable(c domain.Collection) {
	fp := tabular.Fingerprint(c)
	r.mu.Lock()
	r.fingerprint = fp
	r.mu.Unlock()
}

// Fingerprint identifies the last collection known to be durable.
func (r *Repository) Fingerprint() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.fingerprint
}
