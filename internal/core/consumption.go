package core

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"studiostock/pkg/domain"
)

// ConsumptionLine is one staged "use N units of item X" entry.
type ConsumptionLine struct {
	ItemID   int64           `json:"item_id"`
	Name     string          `json:"name"`
	Unit     string          `json:"unit"`
	Quantity decimal.Decimal `json:"quantity"`
}

// ApplyConsumption subtracts every line from a copy of snapshot. Lines for the
// same item are summed first. Nothing is applied unless every item can cover
// its total.
func ApplyConsumption(snapshot domain.Collection, lines []ConsumptionLine) (domain.Collection, error) {
	totals := make(map[int64]decimal.Decimal, len(lines))
	var order []int64
	for _, l := range lines {
		if !l.Quantity.IsPositive() {
			return nil, &domain.FieldError{ItemID: l.ItemID, Field: domain.FieldQuantityOnHand, Reason: "consumption must be positive", Err: domain.ErrNonPositiveQuantity}
		}
		if _, seen := totals[l.ItemID]; !seen {
			order = append(order, l.ItemID)
		}
		totals[l.ItemID] = totals[l.ItemID].Add(l.Quantity)
	}
	working := snapshot.Clone()
	index := working.Index()
	for _, id := range order {
		pos, ok := index[id]
		if !ok {
			return nil, &domain.UnknownItemError{ItemID: id}
		}
		want := totals[id]
		have := working[pos].QuantityOnHand
		if want.GreaterThan(have) {
			return nil, &domain.InsufficientStockError{ItemID: id, Requested: want, Available: have}
		}
		working[pos].QuantityOnHand = have.Sub(want)
	}
	return working, nil
}

// ConsumptionBatch accumulates consumption lines for one session and commits
// them atomically through the owning Service.
type ConsumptionBatch struct {
	id      uuid.UUID
	svc     *Service
	created time.Time

	mu    sync.Mutex
	lines []ConsumptionLine
}

// ID identifies the batch.
func (b *ConsumptionBatch) ID() string { return b.id.String() }

// CreatedAt reports when the batch was opened.
func (b *ConsumptionBatch) CreatedAt() time.Time { return b.created }

// Stage validates and appends a line. The repository is not touched.
func (b *ConsumptionBatch) Stage(itemID int64, quantity decimal.Decimal) error {
	if !quantity.IsPositive() {
		return &domain.FieldError{ItemID: itemID, Field: domain.FieldQuantityOnHand, Reason: "consumption must be positive", Err: domain.ErrNonPositiveQuantity}
	}
	it, ok := b.svc.repo.Snapshot().Find(itemID)
	if !ok {
		return &domain.UnknownItemError{ItemID: itemID}
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, ConsumptionLine{ItemID: itemID, Name: it.Name, Unit: it.Unit, Quantity: quantity})
	return nil
}

// Lines returns a copy of the staged lines.
func (b *ConsumptionBatch) Lines() []ConsumptionLine {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ConsumptionLine(nil), b.lines...)
}

// Len reports the number of staged lines.
func (b *ConsumptionBatch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.lines)
}

// Discard empties the batch.
func (b *ConsumptionBatch) Discard() {
	b.mu.Lock()
	b.lines = nil
	b.mu.Unlock()
}

// Commit applies every staged line, persists the result and reports how many
// lines were applied. On any failure the repository is unchanged and the lines
// stay staged. An empty batch is a no-op.
func (b *ConsumptionBatch) Commit(ctx context.Context) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.lines) == 0 {
		return 0, nil
	}
	if err := b.svc.consume(ctx, b.lines); err != nil {
		return 0, err
	}
	n := len(b.lines)
	b.lines = nil
	return n, nil
}
