package model

import "errors"

// Error taxonomy. Arithmetic edge cases (empty windows, division by zero)
// never surface as errors; they degrade confidence or mark results invalid.
// Only boundary validation and upstream failures produce hard errors.
var (
	// ErrInvalidInput marks malformed product references, unsupported
	// platforms, or out-of-range thresholds rejected at the boundary.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUpstream marks a history/subscription/FX collaborator failure.
	// Callers may retry.
	ErrUpstream = errors.New("upstream unavailable")

	// ErrNotFound marks a missing subscription or product.
	ErrNotFound = errors.New("not found")
)
