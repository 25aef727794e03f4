package entity

import (
	"errors"
	"fmt"
)

// Terminal placement outcomes. Every failure of a placement maps to exactly
// one of these; handlers translate them to distinct status/error codes.
var (
	// ErrUnauthorized: bad or missing credential, or the caller is not
	// recognized by the identity collaborator.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrProductNotFound: the requested product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock: the requested quantity exceeds available stock,
	// either at the advisory check or at the authoritative decrement.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDependencyUnavailable: transport or 5xx failure from a remote
	// collaborator or the order store.
	ErrDependencyUnavailable = errors.New("dependency unavailable")

	// ErrInconsistentState: stock was decremented, the order write failed,
	// and the compensating re-increment failed too. Manual reconciliation
	// is required.
	ErrInconsistentState = errors.New("inconsistent state: stock decremented without order")

	// ErrStorageFailure: order-store write error.
	ErrStorageFailure = errors.New("order storage failure")

	// ErrIdempotencyReplay: the supplied idempotency key was already used.
	ErrIdempotencyReplay = errors.New("idempotency key already used")

	// ErrInvalidQuantity: the requested quantity is not a positive integer.
	ErrInvalidQuantity = errors.New("quantity must be positive")
)

// InsufficientStockError reports how much stock was actually available when a
// placement was refused. It unwraps to ErrInsufficientStock.
type InsufficientStockError struct {
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock: %d available", e.Available)
}

func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}
