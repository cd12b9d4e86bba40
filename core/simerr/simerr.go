// Package simerr holds the error taxonomy shared by every microsim-core package.
//
// All failures are input failures: a run is deterministic given its inputs and
// seed, so nothing here is retryable. Callers match with errors.Is; call sites
// wrap the sentinels with the offending row, state or dimension.
package simerr

import "errors"

var (
	// ErrInvalidDistribution: a probability row has a negative entry or does
	// not sum to 1 within tolerance.
	ErrInvalidDistribution = errors.New("invalid distribution")

	// ErrDegenerateRow: a probability row carries no mass, so nothing can be drawn.
	ErrDegenerateRow = errors.New("degenerate row")

	// ErrIndexOutOfRange: a state index falls outside a table or container.
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrDimensionMismatch: vector/matrix shapes disagree with n_I, n_S or n_T.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrInvalidParameter: a scalar input (discount rate, cycle length,
	// cycle count) is outside its domain.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// IsInput reports whether err belongs to the taxonomy above.
func IsInput(err error) bool {
	return errors.Is(err, ErrInvalidDistribution) ||
		errors.Is(err, ErrDegenerateRow) ||
		errors.Is(err, ErrIndexOutOfRange) ||
		errors.Is(err, ErrDimensionMismatch) ||
		errors.Is(err, ErrInvalidParameter)
}
