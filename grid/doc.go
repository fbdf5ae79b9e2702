// Package grid builds sampling grids adapted to a function.
//
// Refine and Adapted insert points where look-ahead extrapolation of the
// sampled values is poor, evaluating each round's new points in one
// callback batch. Rebalanced redistributes a grid by error density,
// PrePruningMask and PruningMask thin it, and LocateDiscontinuity finds
// steps in the sampled values.
//
// Every operation returns new slices; inputs are left untouched.
package grid
