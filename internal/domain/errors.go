package domain

import "errors"

var (
	// ErrValidation indicates a caller-supplied field was empty or invalid.
	// The operation did not change any state.
	ErrValidation = errors.New("validation failed")

	// ErrInvariant indicates an operation would break the tree structure,
	// or that stored data already breaks it.
	ErrInvariant = errors.New("tree invariant violated")

	// ErrStorage indicates the storage backend failed to read or write.
	ErrStorage = errors.New("storage failure")

	// ErrNotFound indicates the referenced plan or node does not exist,
	// including nodes destroyed by a cascade delete.
	ErrNotFound = errors.New("not found")

	// ErrNotReady indicates the plan store has not finished a successful load.
	ErrNotReady = errors.New("plan store not ready")
)
