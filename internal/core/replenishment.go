package core

import (
	"sort"

	"github.com/shopspring/decimal"

	"studiostock/pkg/domain"
)

// Shortfall is one shopping list entry.
type Shortfall struct {
	Item            domain.Item     `json:"item"`
	ReorderQuantity decimal.Decimal `json:"reorder_quantity"`
}

// ReorderPolicy scales the order target. A TargetMultiplier of k orders up to
// k times the minimum; values below 1 are treated as 1.
type ReorderPolicy struct {
	TargetMultiplier decimal.Decimal
}

// ShortfallList selects the items at or below their minimum, in snapshot
// order, with reorder quantity max(0, minimum - on hand).
func ShortfallList(snapshot domain.Collection) []Shortfall {
	return ShortfallListWithPolicy(snapshot, ReorderPolicy{})
}

// ShortfallListWithPolicy is ShortfallList with the order target scaled by
// policy. Selection is unaffected by the policy.
func ShortfallListWithPolicy(snapshot domain.Collection, policy ReorderPolicy) []Shortfall {
	k := policy.TargetMultiplier
	if k.LessThan(decimal.NewFromInt(1)) {
		k = decimal.NewFromInt(1)
	}
	out := make([]Shortfall, 0)
	for _, it := range snapshot {
		if !it.BelowMinimum() {
			continue
		}
		target := it.MinimumQuantity.Mul(k)
		out = append(out, Shortfall{Item: it, ReorderQuantity: decimal.Max(decimal.Zero, target.Sub(it.QuantityOnHand))})
	}
	return out
}

// SupplierOrder is the part of the shopping list bought from one supplier.
type SupplierOrder struct {
	Supplier  string          `json:"supplier"`
	Lines     []Shortfall     `json:"lines"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// GroupBySupplier groups shortfalls by supplier, sorted by supplier name.
// Lines keep their list order; TotalCost prices the reorder quantities.
func GroupBySupplier(shortfalls []Shortfall) []SupplierOrder {
	bySupplier := make(map[string]*SupplierOrder)
	for _, s := range shortfalls {
		o, ok := bySupplier[s.Item.Supplier]
		if !ok {
			o = &SupplierOrder{Supplier: s.Item.Supplier, TotalCost: decimal.Zero}
			bySupplier[s.Item.Supplier] = o
		}
		o.Lines = append(o.Lines, s)
		o.TotalCost = o.TotalCost.Add(s.ReorderQuantity.Mul(s.Item.UnitCost))
	}
	out := make([]SupplierOrder, 0, len(bySupplier))
	for _, o := range bySupplier {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Supplier < out[j].Supplier })
	return out
}
