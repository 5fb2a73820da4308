package domain

import "github.com/shopspring/decimal"

// ItemEdit is a field-level patch submitted from an editor. Nil fields are
// left untouched; a nil or zero ID marks a row created in the editor.
// Exclude mirrors the editor's delete flag column.
type ItemEdit struct {
	ID               *int64           `json:"id,omitempty"`
	Name             *string          `json:"name,omitempty"`
	Brand            *string          `json:"brand,omitempty"`
	Spec             *string          `json:"spec,omitempty"`
	Category         *string          `json:"category,omitempty"`
	Supplier         *string          `json:"supplier,omitempty"`
	QuantityOnHand   *decimal.Decimal `json:"quantity_on_hand,omitempty"`
	MinimumQuantity  *decimal.Decimal `json:"minimum_quantity,omitempty"`
	Unit             *string          `json:"unit,omitempty"`
	UnitCost         *decimal.Decimal `json:"unit_cost,omitempty"`
	SKU              *string          `json:"sku,omitempty"`
	Notes            *string          `json:"notes,omitempty"`
	LastPurchaseDate *Date            `json:"last_purchase_date,omitempty"`
	Exclude          bool             `json:"exclude,omitempty"`
}

// IsCreation reports whether the edit describes a new row.
func (e ItemEdit) IsCreation() bool {
	return e.ID == nil || *e.ID == 0
}

// TargetID returns the edited id, or 0 for creations.
func (e ItemEdit) TargetID() int64 {
	if e.ID == nil {
		return 0
	}
	return *e.ID
}

// ApplyTo merges the carried fields onto it. Text is normalized with
// NormalizeText. The id is never changed.
func (e ItemEdit) ApplyTo(it Item) Item {
	setString(&it.Name, e.Name)
	setString(&it.Brand, e.Brand)
	setString(&it.Spec, e.Spec)
	setString(&it.Category, e.Category)
	setString(&it.Supplier, e.Supplier)
	setString(&it.Unit, e.Unit)
	setString(&it.SKU, e.SKU)
	setString(&it.Notes, e.Notes)
	setDecimal(&it.QuantityOnHand, e.QuantityOnHand)
	setDecimal(&it.MinimumQuantity, e.MinimumQuantity)
	setDecimal(&it.UnitCost, e.UnitCost)
	if e.LastPurchaseDate != nil {
		it.LastPurchaseDate = *e.LastPurchaseDate
	}
	return it
}

// Fields lists the names of the fields carried by the edit.
func (e ItemEdit) Fields() []string {
	var out []string
	add := func(set bool, name string) {
		if set {
			out = append(out, name)
		}
	}
	add(e.Name != nil, FieldName)
	add(e.Brand != nil, FieldBrand)
	add(e.Spec != nil, FieldSpec)
	add(e.Category != nil, FieldCategory)
	add(e.Supplier != nil, FieldSupplier)
	add(e.QuantityOnHand != nil, FieldQuantityOnHand)
	add(e.MinimumQuantity != nil, FieldMinimumQuantity)
	add(e.Unit != nil, FieldUnit)
	add(e.UnitCost != nil, FieldUnitCost)
	add(e.SKU != nil, FieldSKU)
	add(e.Notes != nil, FieldNotes)
	add(e.LastPurchaseDate != nil, FieldLastPurchaseDate)
	return out
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = NormalizeText(*src)
	}
}

func setDecimal(dst *decimal.Decimal, src *decimal.Decimal) {
	if src != nil {
		*dst = *src
	}
}
