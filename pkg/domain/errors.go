package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrStoreUnavailable reports a network, auth or remote failure of the record store.
	ErrStoreUnavailable = errors.New("record store unavailable")
	// ErrSchemaMismatch reports a backend that lacks expected columns.
	ErrSchemaMismatch = errors.New("record store schema mismatch")
	// ErrInvariantViolation reports a collection or item that breaks the data model.
	ErrInvariantViolation = errors.New("invariant violation")
	// ErrUnknownItem reports an id that is not part of the live collection.
	ErrUnknownItem = errors.New("unknown item")
	// ErrNonPositiveQuantity reports a consumption line with quantity <= 0.
	ErrNonPositiveQuantity = errors.New("quantity must be positive")
	// ErrInsufficientStock reports a consumption that would drive stock negative.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrPersistFailure reports a mutation that was rolled back because the store write failed.
	ErrPersistFailure = errors.New("persist failure")
	// ErrConflict reports a backend modified by another writer since the last load.
	ErrConflict = errors.New("record store modified concurrently")
)

// FieldError identifies the item and field that failed validation.
type FieldError struct {
	ItemID int64
	Field  string
	Reason string
	Err    error
}

func (e *FieldError) Error() string {
	if e.ItemID == 0 {
		return fmt.Sprintf("%v: new item: %s %s", e.Err, e.Field, e.Reason)
	}
	return fmt.Sprintf("%v: item %d: %s %s", e.Err, e.ItemID, e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return e.Err }

// InsufficientStockError names the item whose stock cannot cover a consumption.
type InsufficientStockError struct {
	ItemID    int64
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%v: item %d: requested %s, available %s", ErrInsufficientStock, e.ItemID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// UnknownItemError names the id that could not be resolved.
type UnknownItemError struct {
	ItemID int64
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("%v: %d", ErrUnknownItem, e.ItemID)
}

func (e *UnknownItemError) Unwrap() error { return ErrUnknownItem }

// SchemaError lists the columns a backend is missing.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: missing columns %s", ErrSchemaMismatch, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }
