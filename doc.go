// Package finitediff estimates derivatives and interpolated values of
// sampled functions on arbitrarily spaced one-dimensional grids.
//
// The weight kernel follows Fornberg's recursion: for any set of distinct
// nodes it yields, in one pass, the weights for every derivative order up to
// a requested maximum at a target point. Everything else is built on it:
//
//	Weights             weight matrix for nodes, target and maximum order
//	Locate              bisection on a strictly increasing grid
//	DerivativesAtPoint  weights dotted with sampled values
//	Interpolate         windowed estimates at many output points
//	InterpolateAhead    look-ahead extrapolation used as a local error proxy
//	Tabulated           a sampled function evaluated through the kernel
//
// Adaptive grid construction lives in the grid subpackage.
//
// Functions never modify their inputs and report bad input as errors.
// Errors match ErrConfiguration, ErrPrecondition, ErrWindow, ErrBalancing
// or ErrConsistency via errors.Is.
package finitediff
