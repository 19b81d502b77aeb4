// Package services holds the business logic: ownership-scoped CRUD, the
// double-entry balance propagation around transactions, and the recurring
// engine. Services accept store interfaces and return concrete types.
package services

import (
	"errors"

	"fintrack/internal/storage"
)

var (
	// ErrNotFound covers both an absent entity and one owned by another
	// user; callers can never distinguish the two.
	ErrNotFound = storage.ErrNotFound

	// ErrConflict marks a delete blocked by records that still reference
	// the entity, e.g. an account with transactions against it.
	ErrConflict = storage.ErrConflict

	// ErrInvalidReference marks a referenced account or category that does
	// not belong to the caller, or a transfer without a destination.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrInvalidState marks a lifecycle operation on a template in a
	// terminal state.
	ErrInvalidState = errors.New("invalid state transition")

	// ErrInconsistency marks partially applied ledger effects. It should
	// never surface in practice: effect application is transactional at the
	// storage layer. When it does, it is an operator problem, not a caller
	// problem.
	ErrInconsistency = errors.New("ledger inconsistency")
)
