package finitediff

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Direction selects which neighbours InterpolateAhead extrapolates from.
type Direction int

const (
	// Forward extrapolates each point from the points preceding it.
	Forward Direction = iota
	// Backward extrapolates each point from the points following it.
	Backward
	// Both averages Forward and Backward where they overlap.
	Both
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "fw"
	case Backward:
		return "bw"
	case Both:
		return "both"
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

// InterpolateAhead extrapolates the value at each grid point from the n
// neighbouring points on one side and returns the estimates together with
// the index range [lo, hi) of x they belong to.
//
// Forward covers [n, len(x)), Backward covers [0, len(x)-n). Both returns
// an estimate for every point, averaged where the two overlap.
func InterpolateAhead(x, y []float64, n int, dir Direction) (est []float64, lo, hi int, err error) {
	if i := CheckStrictMonotonicity(x); i >= 0 {
		return nil, 0, 0, fmt.Errorf("x not strictly monotonic at %d: %w", i, ErrPrecondition)
	}
	if len(y) != len(x) {
		return nil, 0, 0, fmt.Errorf("len(y)=%d, len(x)=%d: %w", len(y), len(x), ErrPrecondition)
	}
	if n < 1 || n >= len(x) {
		return nil, 0, 0, fmt.Errorf("%d trailing points for %d grid points: %w", n, len(x), ErrPrecondition)
	}

	switch dir {
	case Forward, Backward:
		est, lo, hi = extrapolate(x, y, n, dir == Forward)
		return est, lo, hi, nil
	case Both:
		fw, fwLo, _ := extrapolate(x, y, n, true)
		bw, _, bwHi := extrapolate(x, y, n, false)
		est = make([]float64, len(x))
		copy(est[fwLo:], fw)
		floats.Add(est[:bwHi], bw)
		for i := fwLo; i < bwHi; i++ {
			est[i] /= 2
		}
		return est, 0, len(x), nil
	}
	return nil, 0, 0, fmt.Errorf("unknown direction %v: %w", dir, ErrConfiguration)
}

// extrapolate assumes validated input. The nodes handed to the weight
// kernel are ordered farthest from the target first.
func extrapolate(x, y []float64, n int, forward bool) ([]float64, int, int) {
	m := len(x) - n
	est := make([]float64, m)
	nodes := make([]float64, n)
	vals := make([]float64, n)
	for idx := 0; idx < m; idx++ {
		var tgt int
		if forward {
			tgt = idx + n
			copy(nodes, x[idx:tgt])
			copy(vals, y[idx:tgt])
		} else {
			tgt = idx
			for k := 0; k < n; k++ {
				nodes[k] = x[idx+n-k]
				vals[k] = y[idx+n-k]
			}
		}
		c := calculateWeights(nodes, x[tgt], 0)
		est[idx] = floats.Dot(c, vals)
	}
	if forward {
		return est, n, len(x)
	}
	return est, 0, m
}

// GridError estimates the error at each grid point as the difference
// between the look-ahead extrapolation (averaged over both directions) and
// the sampled value.
func GridError(grid, y []float64, ntrail int) ([]float64, error) {
	est, _, _, err := InterpolateAhead(grid, y, ntrail, Both)
	if err != nil {
		return nil, err
	}
	floats.Sub(est, y)
	return est, nil
}

// AvgStdDev returns the weighted average of arr and the weighted standard
// deviation sqrt(Σ w·r² / (n-1) / Σ w) of its residuals. A single value has
// zero deviation.
func AvgStdDev(arr, w []float64) (avg, stddev float64, err error) {
	if len(arr) == 0 || len(arr) != len(w) {
		return 0, 0, fmt.Errorf("len(arr)=%d, len(w)=%d: %w", len(arr), len(w), ErrPrecondition)
	}
	wsum := floats.Sum(w)
	if !(wsum > 0) || math.IsInf(wsum, 0) {
		return 0, 0, fmt.Errorf("weight sum %v: %w", wsum, ErrPrecondition)
	}
	avg = stat.Mean(arr, w)
	if len(arr) == 1 {
		return avg, 0, nil
	}
	var ss float64
	for i, v := range arr {
		r := v - avg
		ss += w[i] * r * r
	}
	return avg, math.Sqrt(ss / float64(len(arr)-1) / wsum), nil
}
