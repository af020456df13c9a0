package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrForbidden        = errors.New("forbidden")
	ErrInvalidRange     = errors.New("booking start must be before end")
	ErrConflict         = errors.New("conflict")
	ErrUnsupportedState = errors.New("unsupported state")
	ErrInvalidPage      = errors.New("invalid page")
	ErrUnavailable      = errors.New("service temporarily unavailable")

	// ErrConcurrentModification is returned by a store when a versioned
	// update finds the row changed since it was read.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrTransient marks storage failures worth one more attempt:
	// lock contention, busy database, serialization failures.
	ErrTransient = errors.New("transient storage failure")
)
