// Package apperr defines the error kinds the planning engine surfaces to
// callers. Wrap them with pkg/errors to attach detail while keeping the
// kind testable via errors.Is.
package apperr

import "errors"

var (
	// ErrInvalidInput marks malformed requests rejected before any
	// computation (zero quantities, unknown ids, bad windows).
	ErrInvalidInput = errors.New("invalid input")

	// ErrDataUnavailable marks store or collaborator failures that prevent
	// a feasibility or optimization run from proceeding. Never silently
	// treated as feasible.
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrSchedulingConflict marks an optimistic-concurrency violation that
	// survived the configured number of retries.
	ErrSchedulingConflict = errors.New("scheduling conflict")
)
