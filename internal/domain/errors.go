package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a reservation exceeded available stock
	// or the product is discontinued.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidTransition indicates an illegal order status change.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrPricingMismatch indicates a client-supplied total disagrees with the
	// server-computed total.
	ErrPricingMismatch = errors.New("pricing mismatch")
)

// ValidationError reports malformed input for a named field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validationErr(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
