package core

import (
	"errors"
	"fmt"

	"studiostock/pkg/domain"
)

// ReconcileRequest is one editor submission.
type ReconcileRequest struct {
	// Visible holds the ids the editor displayed. A visible id with no
	// matching edit was removed in the editor.
	Visible []int64 `json:"visible"`
	// Edits carries one patch per edited or created row.
	Edits []domain.ItemEdit `json:"edits"`
	// Delete lists ids explicitly marked for deletion.
	Delete []int64 `json:"delete,omitempty"`
	// Today is the purchase date given to created rows that carry none.
	Today domain.Date `json:"-"`
}

// RowRejection reports an edit that was not applied. Index is the position in
// Edits, or -1 for an entry of Delete.
type RowRejection struct {
	Index  int    `json:"index"`
	ItemID int64  `json:"item_id,omitempty"`
	Field  string `json:"field,omitempty"`
	Err    error  `json:"-"`
	Reason string `json:"reason"`
}

// ReconcileResult is the merged collection plus what happened to each row.
type ReconcileResult struct {
	Items    domain.Collection `json:"items"`
	Created  []int64           `json:"created"`
	Deleted  []int64           `json:"deleted"`
	Updated  []int64           `json:"updated"`
	Rejected []RowRejection    `json:"rejected"`
}

// Changed reports whether the merge differs from the original collection.
func (r ReconcileResult) Changed() bool {
	return len(r.Created)+len(r.Deleted)+len(r.Updated) > 0
}

func reject(index int, id int64, err error) RowRejection {
	rj := RowRejection{Index: index, ItemID: id, Err: err, Reason: err.Error()}
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		rj.Field = fe.Field
	}
	return rj
}

// Reconcile folds an editor submission into original without touching rows the
// editor never showed. Edits merge field by field. A row is deleted when it
// was visible but omitted, flagged Exclude, or listed in Delete; deletion wins
// over any edit in the same submission. Rows that fail validation keep their
// original values and are reported in Rejected while the rest of the batch is
// applied. New rows receive ids from nextID and are appended in edit order.
// The merged collection is validated as a whole before it is returned.
func Reconcile(original domain.Collection, req ReconcileRequest, nextID func() int64) (ReconcileResult, error) {
	index := original.Index()
	working := make(map[int64]domain.Item, len(original))
	for _, it := range original {
		working[it.ID] = it
	}
	deleted := make(map[int64]bool, len(req.Delete))
	touched := make(map[int64]bool, len(req.Edits))
	var result ReconcileResult
	var created domain.Collection

	for _, id := range req.Delete {
		if _, ok := index[id]; !ok {
			result.Rejected = append(result.Rejected, reject(-1, id, &domain.UnknownItemError{ItemID: id}))
			continue
		}
		deleted[id] = true
	}

	for i, edit := range req.Edits {
		if edit.IsCreation() {
			if edit.Exclude {
				continue
			}
			it := edit.ApplyTo(domain.Item{})
			if edit.Unit == nil {
				it.Unit = domain.DefaultUnit
			}
			if edit.LastPurchaseDate == nil {
				it.LastPurchaseDate = req.Today
			}
			if err := it.ValidateFields(); err != nil {
				result.Rejected = append(result.Rejected, reject(i, 0, err))
				continue
			}
			it.ID = nextID()
			created = append(created, it)
			continue
		}
		id := edit.TargetID()
		if _, ok := index[id]; !ok {
			result.Rejected = append(result.Rejected, reject(i, id, &domain.UnknownItemError{ItemID: id}))
			continue
		}
		touched[id] = true
		if edit.Exclude {
			deleted[id] = true
		}
		if deleted[id] {
			continue
		}
		merged := edit.ApplyTo(working[id])
		if err := merged.Validate(); err != nil {
			result.Rejected = append(result.Rejected, reject(i, id, err))
			continue
		}
		working[id] = merged
	}

	for _, id := range req.Visible {
		if _, ok := index[id]; ok && !touched[id] {
			deleted[id] = true
		}
	}

	items := make(domain.Collection, 0, len(original)+len(created))
	for _, orig := range original {
		if deleted[orig.ID] {
			result.Deleted = append(result.Deleted, orig.ID)
			continue
		}
		cur := working[orig.ID]
		if !cur.Equal(orig) {
			result.Updated = append(result.Updated, orig.ID)
		}
		items = append(items, cur)
	}
	for _, it := range created {
		result.Created = append(result.Created, it.ID)
		items = append(items, it)
	}
	if err := items.Validate(); err != nil {
		return ReconcileResult{}, fmt.Errorf("reconciled collection rejected: %w", err)
	}
	result.Items = items
	return result, nil
}
