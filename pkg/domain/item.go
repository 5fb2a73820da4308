// Package domain holds the stock item model shared by the core engine and
// every record store backend.
package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Field names used in validation errors and edit reports.
const (
	FieldID               = "id"
	FieldName             = "name"
	FieldBrand            = "brand"
	FieldSpec             = "spec"
	FieldCategory         = "category"
	FieldSupplier         = "supplier"
	FieldQuantityOnHand   = "quantity_on_hand"
	FieldMinimumQuantity  = "minimum_quantity"
	FieldUnit             = "unit"
	FieldUnitCost         = "unit_cost"
	FieldSKU              = "sku"
	FieldNotes            = "notes"
	FieldLastPurchaseDate = "last_purchase_date"
)

// DefaultUnit is applied to new items created without a unit of measure.
const DefaultUnit = "Unidade"

// Item is one stocked product.
type Item struct {
	ID               int64           `json:"id"`
	Name             string          `json:"name"`
	Brand            string          `json:"brand,omitempty"`
	Spec             string          `json:"spec,omitempty"`
	Category         string          `json:"category"`
	Supplier         string          `json:"supplier"`
	QuantityOnHand   decimal.Decimal `json:"quantity_on_hand"`
	MinimumQuantity  decimal.Decimal `json:"minimum_quantity"`
	Unit             string          `json:"unit"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
	SKU              string          `json:"sku,omitempty"`
	Notes            string          `json:"notes,omitempty"`
	LastPurchaseDate Date            `json:"last_purchase_date"`
}

// Validate checks the item against the data model invariants. The first
// violation found is returned as a *FieldError.
func (it Item) Validate() error {
	if it.ID <= 0 {
		return invariant(it.ID, FieldID, "must be a positive integer")
	}
	return it.ValidateFields()
}

// ValidateFields checks every invariant except identity. It is used for rows
// that have not been assigned an id yet.
func (it Item) ValidateFields() error {
	required := []struct {
		field string
		value string
	}{
		{FieldName, it.Name},
		{FieldCategory, it.Category},
		{FieldSupplier, it.Supplier},
		{FieldUnit, it.Unit},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return invariant(it.ID, r.field, "required field is blank")
		}
	}
	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{FieldQuantityOnHand, it.QuantityOnHand},
		{FieldMinimumQuantity, it.MinimumQuantity},
		{FieldUnitCost, it.UnitCost},
	}
	for _, a := range amounts {
		if a.value.IsNegative() {
			return invariant(it.ID, a.field, "must not be negative")
		}
	}
	return nil
}

// Equal reports whether both items hold the same values in every field.
func (it Item) Equal(other Item) bool {
	return it.ID == other.ID &&
		it.Name == other.Name &&
		it.Brand == other.Brand &&
		it.Spec == other.Spec &&
		it.Category == other.Category &&
		it.Supplier == other.Supplier &&
		it.QuantityOnHand.Equal(other.QuantityOnHand) &&
		it.MinimumQuantity.Equal(other.MinimumQuantity) &&
		it.Unit == other.Unit &&
		it.UnitCost.Equal(other.UnitCost) &&
		it.SKU == other.SKU &&
		it.Notes == other.Notes &&
		it.LastPurchaseDate.Equal(other.LastPurchaseDate)
}

// BelowMinimum reports whether the item is at or below its reorder threshold.
func (it Item) BelowMinimum() bool {
	return it.QuantityOnHand.LessThanOrEqual(it.MinimumQuantity)
}

// NormalizeText is the canonical form of a text cell: surrounding whitespace
// is dropped and line breaks are stored as "\n". Stored text and edited text
// both pass through it so a written row reads back unchanged.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.TrimSpace(s)
}

func invariant(id int64, field, reason string) *FieldError {
	return &FieldError{ItemID: id, Field: field, Reason: reason, Err: ErrInvariantViolation}
}
