package baseline

import "errors"

var (
	// ErrBaselineNotFound indicates the baseline doesn't exist.
	ErrBaselineNotFound = errors.New("baseline not found")
	// ErrInvalidInput indicates invalid baseline input.
	ErrInvalidInput = errors.New("invalid baseline input")
)
