package grid

import (
	"fmt"
	"math"

	"github.com/Maxime2/finitediff"
	"gonum.org/v1/gonum/interp"
)

// fwhmToSigma converts a full width at half maximum to a standard deviation.
const fwhmToSigma = 2.35482

// Rebalanced redistributes the points of x so that their density follows
// the error estimates err. The error is smoothed with a Gaussian per grid
// point, whose width is the local spacing times SmoothFact, and floored at
// Base times the mean error. The cumulative error mass is then divided into
// Num equal parts.
//
// The result starts at x[0], ends at x[len(x)-1] and is strictly increasing.
func Rebalanced(x, err []float64, opts ...Option) ([]float64, error) {
	cfg, e := newConfig(opts)
	if e != nil {
		return nil, e
	}
	n := len(x)
	if n < 2 || len(err) != n {
		return nil, fmt.Errorf("%d points with %d errors: %w", n, len(err), finitediff.ErrPrecondition)
	}
	if i := finitediff.CheckStrictMonotonicity(x); i >= 0 {
		return nil, fmt.Errorf("grid not strictly increasing at %d: %w", i, finitediff.ErrPrecondition)
	}
	num := cfg.Num
	if num == 0 {
		num = n
	}

	dx := diff(x)
	var area float64
	for i, d := range dx {
		area += 0.5 * (err[i+1] + err[i]) * d
	}
	floor := cfg.Base * area / (x[n-1] - x[0])
	width := avgDiff(x)

	fine := fineGrid(x, cfg.ResolutionFactor)
	density := make([]float64, len(fine))
	for j, f := range fine {
		tot := floor
		for i, gx := range x {
			sigma := width[i] * cfg.SmoothFact / fwhmToSigma
			tot += err[i] * math.Exp(-(f-gx)*(f-gx)/(2*sigma*sigma))
		}
		if !(tot > 0) || math.IsInf(tot, 0) {
			return nil, fmt.Errorf("error density %v at %v: %w", tot, f, finitediff.ErrPrecondition)
		}
		density[j] = tot
	}

	fineWidth := avgDiff(fine)
	mass := make([]float64, len(fine))
	var cum float64
	for j := range fine {
		if !(fineWidth[j] > 0) {
			return nil, fmt.Errorf("fine grid collapses at %v: %w", fine[j], finitediff.ErrPrecondition)
		}
		cum += density[j] * fineWidth[j]
		mass[j] = cum
	}

	var pl interp.PiecewiseLinear
	if e := pl.Fit(mass, fine); e != nil {
		return nil, fmt.Errorf("invert error mass: %w", e)
	}
	out := make([]float64, num)
	for i, m := range Linspace(mass[0], mass[len(mass)-1], num) {
		out[i] = pl.Predict(m)
	}
	out[0], out[num-1] = x[0], x[n-1]
	return out, nil
}

// fineGrid subdivides every interval of x into rf equal parts.
func fineGrid(x []float64, rf int) []float64 {
	n := len(x)
	fine := make([]float64, (n-1)*rf+1)
	for i := 0; i < n-1; i++ {
		copy(fine[i*rf:(i+1)*rf], Linspace(x[i], x[i+1], rf+1))
	}
	fine[len(fine)-1] = x[n-1]
	return fine
}
