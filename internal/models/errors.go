package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrUnauthorized    = errors.New("authentication required")
	ErrForbidden       = errors.New("not allowed")
	ErrEmptyCart       = errors.New("cart has no items")
)

// ValidationError reports which required fields were missing or malformed.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or invalid fields: %s", strings.Join(e.Fields, ", "))
}

// InsufficientStockError is returned when a requested quantity exceeds the
// available stock, either at cart-update time or during checkout. Available
// is the quantity actually purchasable so the client can offer a correction.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// StatusTransitionError is returned for an order status update that is not
// part of the allowed progression.
type StatusTransitionError struct {
	From string
	To   string
}

func (e *StatusTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition %s -> %s", e.From, e.To)
}
