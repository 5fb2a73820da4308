package domain

import (
	"errors"
	"fmt"
)

// Collection is the ordered set of items as stored in the backend.
type Collection []Item

// Clone returns an independent copy of the collection. Never nil.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	copy(out, c)
	return out
}

// Index maps each id to its position.
func (c Collection) Index() map[int64]int {
	idx := make(map[int64]int, len(c))
	for i, it := range c {
		idx[it.ID] = i
	}
	return idx
}

// Find looks an item up by id.
func (c Collection) Find(id int64) (Item, bool) {
	for _, it := range c {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// IDs returns the ids in collection order.
func (c Collection) IDs() []int64 {
	out := make([]int64, len(c))
	for i, it := range c {
		out[i] = it.ID
	}
	return out
}

// MaxID returns the highest id present, or 0 for an empty collection.
func (c Collection) MaxID() int64 {
	var max int64
	for _, it := range c {
		if it.ID > max {
			max = it.ID
		}
	}
	return max
}

// Equal reports element-wise equality in order.
func (c Collection) Equal(other Collection) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if !c[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Validate checks every item and id uniqueness. All violations are joined.
func (c Collection) Validate() error {
	var errs []error
	seen := make(map[int64]struct{}, len(c))
	for _, it := range c {
		if err := it.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, dup := seen[it.ID]; dup {
			errs = append(errs, &FieldError{ItemID: it.ID, Field: FieldID, Reason: "duplicate id", Err: ErrInvariantViolation})
			continue
		}
		seen[it.ID] = struct{}{}
	}
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	return fmt.Errorf("%d items rejected: %w", len(errs), errors.Join(errs...))
}
