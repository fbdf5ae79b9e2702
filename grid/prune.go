package grid

import (
	"fmt"
	"math"
	"slices"

	"github.com/Maxime2/finitediff"
)

// Default tolerances of distance pruning.
const (
	DefaultPruneRTol = 1e-12
	DefaultPruneATol = 0
)

// PrePruningMask marks the points of a sorted grid to keep so that no two
// kept points are closer than rtol*|ref| + atol, ref being the kept point
// the candidate is compared with. The grid is scanned from the right first,
// then from the left up to the first point outside the left end's
// tolerance. The first and last points are always kept.
func PrePruningMask(x []float64, rtol, atol float64) ([]bool, error) {
	n := len(x)
	if n == 0 {
		return nil, fmt.Errorf("empty grid: %w", finitediff.ErrPrecondition)
	}
	for i := 1; i < n; i++ {
		if x[i] < x[i-1] {
			return nil, fmt.Errorf("grid decreases at %d: %w", i, finitediff.ErrPrecondition)
		}
	}
	tol := func(ref float64) float64 { return rtol*math.Abs(ref) + atol }

	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	if n == 1 {
		return mask, nil
	}

	ref := x[n-1]
	for i := n - 2; i > 0; i-- {
		if ref-x[i] <= tol(ref) {
			mask[i] = false
		} else {
			ref = x[i]
		}
	}

	left := tol(x[0])
	for i := 1; i < n-1; i++ {
		if !mask[i] {
			continue
		}
		if x[i]-x[0] > left {
			break
		}
		mask[i] = false
	}

	if !slices.Contains(mask[1:n-1], true) && x[n-1]-x[0] <= left {
		return nil, fmt.Errorf("end points %v and %v within tolerance: %w", x[0], x[n-1], finitediff.ErrPrecondition)
	}
	return mask, nil
}

// PruningMask marks the points to keep when thinning a grid by importance.
// Each point scores err^powErr * dx^powDx with dx its local spacing. The
// protectSparse points with the widest spacing are never dropped; of the
// rest, up to ndrop are dropped in ascending score order, skipping any
// point next to one already dropped.
//
// A negative ndrop or protectSparse stands for a quarter of the grid size
// rounded up.
func PruningMask(x, err []float64, ndrop, protectSparse int, powErr, powDx float64) ([]bool, error) {
	n := len(x)
	if n < 2 || len(err) != n {
		return nil, fmt.Errorf("%d points with %d errors: %w", n, len(err), finitediff.ErrPrecondition)
	}
	quarter := int(math.Ceil(0.25 * float64(n)))
	if ndrop < 0 {
		ndrop = quarter
	}
	if protectSparse < 0 {
		protectSparse = quarter
	}
	protectSparse = min(protectSparse, n)

	dx := avgDiff(x)
	protected := make([]bool, n)
	byWidth := argsort(dx)
	for _, i := range byWidth[n-protectSparse:] {
		protected[i] = true
	}

	score := make([]float64, n)
	for i := range score {
		score[i] = math.Pow(err[i], powErr) * math.Pow(dx[i], powDx)
	}

	mask := make([]bool, n)
	for i := range mask {
		mask[i] = true
	}
	dropped := 0
	for _, i := range argsort(score) {
		if dropped == ndrop {
			break
		}
		if protected[i] || (i > 0 && !mask[i-1]) || (i < n-1 && !mask[i+1]) {
			continue
		}
		mask[i] = false
		dropped++
	}
	return mask, nil
}

// CombineGrids merges grids into one sorted grid without near-duplicate
// points.
func CombineGrids(grids [][]float64, rtol, atol float64) ([]float64, error) {
	var all []float64
	for _, g := range grids {
		all = append(all, g...)
	}
	slices.Sort(all)
	mask, err := PrePruningMask(all, rtol, atol)
	if err != nil {
		return nil, err
	}
	return ApplyMask(all, mask), nil
}
