package core

import (
	"github.com/shopspring/decimal"

	"studiostock/pkg/domain"
)

// TotalValue is the sum of on-hand quantity times unit cost.
func TotalValue(snapshot domain.Collection) decimal.Decimal {
	total := decimal.Zero
	for _, it := range snapshot {
		total = total.Add(it.QuantityOnHand.Mul(it.UnitCost))
	}
	return total
}

// AlertCount is the length of the shortfall list.
func AlertCount(snapshot domain.Collection) int {
	n := 0
	for _, it := range snapshot {
		if it.BelowMinimum() {
			n++
		}
	}
	return n
}

// UniqueItemCount is the number of items in the snapshot.
func UniqueItemCount(snapshot domain.Collection) int { return len(snapshot) }

// Summary bundles the dashboard figures.
type Summary struct {
	TotalValue      decimal.Decimal `json:"total_value"`
	AlertCount      int             `json:"alert_count"`
	UniqueItemCount int             `json:"unique_item_count"`
}

// Summarize computes every dashboard figure for snapshot.
func Summarize(snapshot domain.Collection) Summary {
	return Summary{
		TotalValue:      TotalValue(snapshot),
		AlertCount:      AlertCount(snapshot),
		UniqueItemCount: UniqueItemCount(snapshot),
	}
}
