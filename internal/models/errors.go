package models

import "errors"

// Sentinel errors shared by the services and the inventory ledger.
// Callers classify failures with errors.Is; services add context with
// fmt.Errorf("...: %w", ...).
var (
	// ErrValidation indicates malformed input, e.g. an empty item set.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates a missing product or order. Also returned when
	// an order exists but belongs to someone else, so callers cannot probe
	// for other users' order IDs.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientStock indicates a requested quantity exceeds the
	// product's available stock.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrInvalidState indicates a mutation attempted on an order that is
	// no longer pending.
	ErrInvalidState = errors.New("invalid order state")
	// ErrConflict indicates a uniqueness violation, e.g. registering a
	// username or email that is already taken.
	ErrConflict = errors.New("already exists")
	// ErrUnauthorized indicates the caller has no valid authenticated
	// identity for the attempted operation.
	ErrUnauthorized = errors.New("unauthorized")
)
