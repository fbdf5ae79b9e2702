package grid

import (
	"fmt"
	"math"

	"github.com/Maxime2/finitediff"
	"gonum.org/v1/gonum/floats"
)

// DefaultConsistencyCriterion is the dispersion, in units of the mean
// claimed uncertainty, tolerated by PoolDiscontinuityApprox.
const DefaultConsistencyCriterion = 10

// Transform maps grid coordinates before discontinuities are searched for.
// It must be strictly increasing on the grid.
type Transform func(float64) float64

func IdentityTransform(x float64) float64 { return x }

// LogTransform searches on a logarithmic axis. The grid must be positive.
func LogTransform(x float64) float64 { return math.Log(x) }

// Located is a candidate discontinuity on the transformed axis.
type Located struct {
	Location float64 `json:"location" yaml:"location"`
	// Weight is the extrapolation error signal at Location.
	Weight float64 `json:"weight" yaml:"weight"`
	// Uncertainty is the local transformed grid spacing at Location.
	Uncertainty float64 `json:"uncertainty" yaml:"uncertainty"`
}

// LocateDiscontinuity returns the consider points of largest error signal,
// strongest first. The signal at a point is the look-ahead extrapolation
// error from each direction, divided by the transformed spacing towards
// the extrapolated side and scaled by the magnitude of the step in y over
// that interval. A nil transform is the identity.
func LocateDiscontinuity(x, y []float64, consider int, transform Transform, ntrail int) ([]Located, error) {
	n := len(x)
	if len(y) != n {
		return nil, fmt.Errorf("len(y)=%d, len(x)=%d: %w", len(y), n, finitediff.ErrPrecondition)
	}
	if ntrail < 2 {
		return nil, fmt.Errorf("ntrail %d < 2: %w", ntrail, finitediff.ErrConfiguration)
	}
	if consider < 1 {
		return nil, fmt.Errorf("consider %d < 1: %w", consider, finitediff.ErrConfiguration)
	}
	if transform == nil {
		transform = IdentityTransform
	}
	tg := make([]float64, n)
	for i, v := range x {
		tg[i] = transform(v)
	}
	if i := finitediff.CheckNaN(tg); i >= 0 {
		return nil, fmt.Errorf("transformed grid not finite at %d: %w", i, finitediff.ErrPrecondition)
	}

	dtg := diff(tg)
	dy := diff(y)
	signal := make([]float64, n)
	for _, dir := range []finitediff.Direction{finitediff.Forward, finitediff.Backward} {
		est, lo, _, err := finitediff.InterpolateAhead(tg, y, ntrail, dir)
		if err != nil {
			return nil, err
		}
		// The interval leading to the target lies on the extrapolated side.
		shift := -1
		if dir == finitediff.Backward {
			shift = 0
		}
		for i, e := range est {
			p := lo + i
			k := p + shift
			signal[p] += math.Abs(y[p]-e) / dtg[k] * math.Abs(dy[k])
		}
	}

	consider = min(consider, n)
	width := avgDiff(tg)
	order := argsort(signal)
	out := make([]Located, consider)
	for j := range out {
		m := order[n-1-j]
		out[j] = Located{Location: tg[m], Weight: signal[m], Uncertainty: width[m]}
	}
	return out, nil
}

// PoolDiscontinuityApprox combines candidates into one location, weighting
// each by its signal, and returns it with the weighted standard deviation.
// If the deviation exceeds consistencyCriterion times the weighted mean
// uncertainty the result is returned together with ErrConsistency. A
// non-positive criterion disables the check.
func PoolDiscontinuityApprox(locs []Located, consistencyCriterion float64) (loc, stddev float64, err error) {
	if len(locs) == 0 {
		return 0, 0, fmt.Errorf("no candidates: %w", finitediff.ErrPrecondition)
	}
	pos := make([]float64, len(locs))
	w := make([]float64, len(locs))
	var unc float64
	for i, c := range locs {
		pos[i], w[i] = c.Location, math.Abs(c.Weight)
		unc += w[i] * c.Uncertainty
	}
	loc, stddev, err = finitediff.AvgStdDev(pos, w)
	if err != nil {
		return 0, 0, err
	}
	if consistencyCriterion > 0 {
		unc /= floats.Sum(w)
		if stddev > consistencyCriterion*unc {
			return loc, stddev, fmt.Errorf("spread %v over %v times uncertainty %v: %w",
				stddev, consistencyCriterion, unc, finitediff.ErrConsistency)
		}
	}
	return loc, stddev, nil
}
