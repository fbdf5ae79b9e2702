package finitediff

import "errors"

// Every message carries the "finitediff:" prefix. Callers match with
// errors.Is; functions add context with fmt.Errorf("...: %w", ErrX).
var (
	// ErrConfiguration is returned for invalid parameters, e.g. odd point
	// budgets or a missing metric for non-scalar results.
	ErrConfiguration = errors.New("finitediff: invalid configuration")

	// ErrPrecondition is returned when a numerical assumption is violated:
	// non-monotonic grids, duplicate or non-finite nodes, degenerate
	// normalisation of an error field.
	ErrPrecondition = errors.New("finitediff: numerical precondition violated")

	// ErrWindow is returned by Interpolate when the grid cannot supply the
	// requested nhead+ntail nodes. It also matches ErrPrecondition.
	ErrWindow = windowError{}

	// ErrBalancing is returned when an addition plan does not sum to the
	// round budget after the single fix-up pass.
	ErrBalancing = errors.New("finitediff: balancing failed")

	// ErrConsistency is returned when pooled estimates are too dispersed
	// relative to their claimed uncertainty.
	ErrConsistency = errors.New("finitediff: inconsistent estimates")
)

type windowError struct{}

func (windowError) Error() string { return "finitediff: interpolation window undersized" }

func (windowError) Unwrap() error { return ErrPrecondition }
