// Package httpapi exposes the inventory engine over a JSON HTTP API.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiostock/pkg/domain"
)

// jsonError represents a JSON error payload.
type jsonError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Field   string `json:"field,omitempty"`
	ItemID  int64  `json:"item_id,omitempty"`
}

func writeError(c *gin.Context, status int, code, details string) {
	c.AbortWithStatusJSON(status, jsonError{Error: code, Details: details})
}

// writeDomainError maps an engine error onto a status code and error code.
func writeDomainError(c *gin.Context, err error) {
	status, code := classify(err)
	body := jsonError{Error: code, Details: err.Error()}
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		body.Field = fe.Field
		body.ItemID = fe.ItemID
	}
	var ue *domain.UnknownItemError
	if errors.As(err, &ue) {
		body.ItemID = ue.ItemID
	}
	var ie *domain.InsufficientStockError
	if errors.As(err, &ie) {
		body.ItemID = ie.ItemID
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrPersistFailure):
		return http.StatusServiceUnavailable, "persist_failure"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "store_unavailable"
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict, "insufficient_stock"
	case errors.Is(err, domain.ErrUnknownItem):
		return http.StatusNotFound, "unknown_item"
	case errors.Is(err, domain.ErrNonPositiveQuantity):
		return http.StatusUnprocessableEntity, "non_positive_quantity"
	case errors.Is(err, domain.ErrInvariantViolation):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, domain.ErrSchemaMismatch):
		return http.StatusInternalServerError, "schema_mismatch"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}
