package grid

import (
	"fmt"
	"math"

	"github.com/Maxime2/finitediff"
	"github.com/sgostarter/i/l"
	"gonum.org/v1/gonum/floats"
)

// Extremum configures point insertion next to an extremum of y before each
// refinement round.
type Extremum struct {
	// Locate returns the index of the extremum.
	Locate func(y []float64) int
	// N points are inserted in each interval adjacent to the extremum.
	N int
	// Predicate decides whether the extremum at index i is refined.
	Predicate func(y []float64, i int) bool
}

func ExtremumMax(n int) Extremum {
	return Extremum{Locate: floats.MaxIdx, N: n, Predicate: func([]float64, int) bool { return true }}
}

func ExtremumMin(n int) Extremum {
	return Extremum{Locate: floats.MinIdx, N: n, Predicate: func([]float64, int) bool { return true }}
}

// snrEps keeps residuals with identical forward and backward estimates from
// vanishing completely.
const snrEps = 1e-8

// Refine evaluates cb on x and then, for each entry of additions, inserts
// that many points where look-ahead extrapolation is least accurate. Every
// round evaluates its new points with a single callback batch.
//
// Half of each round's budget follows the forward residuals and half the
// backward ones, so every budget must be even. A nil metric requires
// float64 results.
//
// Residuals that are all exactly zero leave nothing to distribute: the
// round fails with ErrPrecondition even when ATol or RTol are met.
func Refine[R any](x []float64, cb Callback[R], metric Metric[R], additions []int, opts ...Option) (*Samples[R], error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	for _, na := range additions {
		if na%2 != 0 || na < 0 {
			return nil, fmt.Errorf("grid addition %d not a non-negative even number: %w", na, finitediff.ErrConfiguration)
		}
	}
	if i := finitediff.CheckStrictMonotonicity(x); i >= 0 {
		return nil, fmt.Errorf("grid not strictly increasing at %d: %w", i, finitediff.ErrPrecondition)
	}
	if len(x) <= cfg.NTrail {
		return nil, fmt.Errorf("%d points with ntrail %d: %w", len(x), cfg.NTrail, finitediff.ErrPrecondition)
	}
	logger := cfg.logger("gridRefiner")

	res, y, err := evaluate(cb, metric, x)
	if err != nil {
		return nil, err
	}
	s := &Samples[R]{X: append([]float64(nil), x...), Results: res, Y: y}
	ext := cfg.extremum()

	for round, na := range additions {
		if ext != nil {
			if s, err = refineExtremum(s, ext, cb, metric); err != nil {
				logger.WithFields(l.ErrorField(err), l.IntField("round", round)).Error("extremum refinement failed")
				return nil, err
			}
		}
		var done bool
		if s, done, err = refineRound(s, na, cfg, cb, metric); err != nil {
			logger.WithFields(l.ErrorField(err), l.IntField("round", round)).Error("refinement round failed")
			return nil, err
		}
		logger.WithFields(l.IntField("round", round), l.IntField("budget", na),
			l.IntField("points", s.Len())).Debug("round applied")
		if done {
			logger.WithFields(l.IntField("round", round)).Debug("tolerances met")
			break
		}
	}
	return s, nil
}

// Adapted builds a uniform grid of additions[0] points on [xstart, xstop]
// and refines it with the remaining additions.
func Adapted[R any](xstart, xstop float64, cb Callback[R], metric Metric[R], additions []int, opts ...Option) (*Samples[R], error) {
	if len(additions) == 0 {
		return nil, fmt.Errorf("no grid additions: %w", finitediff.ErrConfiguration)
	}
	if !(xstop > xstart) {
		return nil, fmt.Errorf("empty range [%v, %v]: %w", xstart, xstop, finitediff.ErrPrecondition)
	}
	return Refine(Linspace(xstart, xstop, additions[0]), cb, metric, additions[1:], opts...)
}

func refineExtremum[R any](s *Samples[R], ext *Extremum, cb Callback[R], metric Metric[R]) (*Samples[R], error) {
	i := ext.Locate(s.Y)
	if i < 0 || i >= s.Len() || !ext.Predicate(s.Y, i) {
		return s, nil
	}
	adds := make([]int, s.Len()-1)
	if i > 0 {
		adds[i-1] = ext.N
	}
	if i < s.Len()-1 {
		adds[i] = ext.N
	}
	return s.insert(adds, cb, metric)
}

// refineRound performs one round: residuals, optional noise de-weighting and
// blurring, balancing into an addition plan and its application. done
// reports that all residuals met the configured tolerances.
func refineRound[R any](s *Samples[R], na int, cfg *Config, cb Callback[R], metric Metric[R]) (*Samples[R], bool, error) {
	n := cfg.NTrail
	var errs [2][]float64
	var los [2]int
	done := cfg.ATol != nil || cfg.RTol != nil
	for d, dir := range []finitediff.Direction{finitediff.Forward, finitediff.Backward} {
		est, lo, _, err := finitediff.InterpolateAhead(s.X, s.Y, n, dir)
		if err != nil {
			return nil, false, err
		}
		for i := range est {
			yv := s.Y[lo+i]
			e := math.Abs(yv - est[i])
			if cfg.ATol != nil {
				done = done && e < *cfg.ATol
			}
			if cfg.RTol != nil {
				done = done && e/math.Abs(yv) < *cfg.RTol
			}
			est[i] = e
		}
		errs[d], los[d] = est, lo
	}

	if cfg.SNR {
		deweightNoise(s.X, errs, los)
	}

	plan := make([]int, s.Len()-1)
	for d, blurs := range [2][]float64{cfg.BlursForward, cfg.BlursBackward} {
		blur(errs[d], blurs, d == 0)
		rerr, err := balance(errs[d], na/2)
		if err != nil {
			return nil, false, err
		}
		// A forward residual at point i belongs to interval i-1, a backward
		// one to interval i.
		offset := 0
		if d == 0 {
			offset = n - 1
		}
		for i, r := range rerr {
			plan[offset+i] += r
		}
	}

	next, err := s.insert(plan, cb, metric)
	if err != nil {
		return nil, false, err
	}
	return next, done, nil
}

// deweightNoise scales each residual by how much its forward and backward
// estimates disagree and by the normalised inverse spacing around its point.
func deweightNoise(x []float64, errs [2][]float64, los [2]int) {
	n := len(x)
	var full [2][]float64
	for d := range errs {
		full[d] = make([]float64, n)
		copy(full[d][los[d]:], errs[d])
	}
	ratio := make([]float64, n)
	for i := range ratio {
		lo, hi := math.Min(full[0][i], full[1][i]), math.Max(full[0][i], full[1][i])
		if hi > 0 {
			ratio[i] = lo / hi
		}
	}

	dx := diff(x)
	lnDelta := make([]float64, n)
	lnDelta[0] = -2 * math.Log(dx[0])
	lnDelta[n-1] = -2 * math.Log(dx[n-2])
	for i := 1; i < n-1; i++ {
		lnDelta[i] = -math.Log(dx[i-1] * dx[i])
	}
	top := floats.Max(lnDelta)

	for d := range errs {
		for i := range errs[d] {
			p := los[d] + i
			errs[d][i] *= (1 + snrEps) - ratio[p]
			errs[d][i] *= math.Exp(lnDelta[p] - top)
		}
	}
}

// blur adds fracs[k-1] of each residual to its neighbour k positions away,
// rightwards for forward residuals and leftwards for backward ones.
func blur(err []float64, fracs []float64, forward bool) {
	for k, b := range fracs {
		ib := k + 1
		if ib >= len(err) {
			return
		}
		src := append([]float64(nil), err...)
		if forward {
			floats.AddScaled(err[ib:], b, src[:len(src)-ib])
		} else {
			floats.AddScaled(err[:len(err)-ib], b, src[ib:])
		}
	}
}

// balance turns non-negative weights into integers summing to target. The
// rounded shares are corrected once by ±1 on the largest entries; a plan
// still off target is an error.
func balance(err []float64, target int) ([]int, error) {
	plan := make([]int, len(err))
	if target == 0 {
		return plan, nil
	}
	sum := floats.Sum(err)
	if !(sum > 0) || math.IsInf(sum, 0) {
		return nil, fmt.Errorf("error field sums to %v: %w", sum, finitediff.ErrPrecondition)
	}
	rounded := make([]float64, len(err))
	total := 0
	for i, e := range err {
		plan[i] = int(math.RoundToEven(e * float64(target) / sum))
		rounded[i] = float64(plan[i])
		total += plan[i]
	}
	delta := total - target
	if delta == 0 {
		return plan, nil
	}
	order := argsort(rounded)
	k := min(abs(delta), len(order))
	for _, i := range order[len(order)-k:] {
		if delta < 0 {
			plan[i]++
		} else {
			plan[i]--
		}
	}
	total = 0
	for _, p := range plan {
		if p < 0 {
			return nil, fmt.Errorf("negative share %d: %w", p, finitediff.ErrBalancing)
		}
		total += p
	}
	if total != target {
		return nil, fmt.Errorf("plan sums to %d, want %d: %w", total, target, finitediff.ErrBalancing)
	}
	return plan, nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
