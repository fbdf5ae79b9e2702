package grid

import (
	"fmt"
	"slices"

	"github.com/Maxime2/finitediff"
)

// Callback evaluates the sampled function at a batch of points. It is
// called once per batch, never point by point, and must return one result
// per point.
type Callback[R any] func(xs []float64) ([]R, error)

// Metric reduces an opaque result to the scalar that drives refinement.
type Metric[R any] func(R) float64

// Func adapts a scalar function to a Callback.
func Func(f func(float64) float64) Callback[float64] {
	return func(xs []float64) ([]float64, error) {
		out := make([]float64, len(xs))
		for i, x := range xs {
			out[i] = f(x)
		}
		return out, nil
	}
}

// Vectorized adapts a function evaluating a whole batch to a Callback.
func Vectorized(f func([]float64) []float64) Callback[float64] {
	return func(xs []float64) ([]float64, error) {
		return f(xs), nil
	}
}

// Identity is the metric of scalar results.
func Identity(v float64) float64 { return v }

// Samples is a grid together with the raw results at each point and their
// scalar projections.
type Samples[R any] struct {
	X       []float64
	Results []R
	Y       []float64
}

func (s *Samples[R]) Len() int {
	return len(s.X)
}

// Tabulated returns the scalar projection as a tabulated function.
func (s *Samples[R]) Tabulated() (*finitediff.Tabulated, error) {
	return finitediff.NewTabulated(s.X, s.Y)
}

// Clone returns a copy of s. Results are copied shallowly.
func (s *Samples[R]) Clone() *Samples[R] {
	return &Samples[R]{
		X:       slices.Clone(s.X),
		Results: slices.Clone(s.Results),
		Y:       slices.Clone(s.Y),
	}
}

// Masked returns the samples whose mask entry is true.
func (s *Samples[R]) Masked(mask []bool) (*Samples[R], error) {
	if len(mask) != len(s.X) {
		return nil, fmt.Errorf("mask of %d for %d samples: %w", len(mask), len(s.X), finitediff.ErrPrecondition)
	}
	return &Samples[R]{
		X:       ApplyMask(s.X, mask),
		Results: ApplyMask(s.Results, mask),
		Y:       ApplyMask(s.Y, mask),
	}, nil
}

// evaluate runs one callback batch and projects the results.
func evaluate[R any](cb Callback[R], metric Metric[R], xs []float64) ([]R, []float64, error) {
	res, err := cb(xs)
	if err != nil {
		return nil, nil, fmt.Errorf("evaluate %d points: %w", len(xs), err)
	}
	if len(res) != len(xs) {
		return nil, nil, fmt.Errorf("callback returned %d results for %d points: %w", len(res), len(xs), finitediff.ErrConfiguration)
	}
	y := make([]float64, len(res))
	for i, r := range res {
		if metric != nil {
			y[i] = metric(r)
			continue
		}
		v, ok := any(r).(float64)
		if !ok {
			return nil, nil, fmt.Errorf("no metric for results of type %T: %w", r, finitediff.ErrConfiguration)
		}
		y[i] = v
	}
	return res, y, nil
}

// insert returns new samples with adds[i] points spread evenly inside
// interval i. All new points are evaluated in a single callback batch;
// existing results are carried over.
func (s *Samples[R]) insert(adds []int, cb Callback[R], metric Metric[R]) (*Samples[R], error) {
	na := 0
	for i, a := range adds {
		if a < 0 {
			return nil, fmt.Errorf("%d points for interval %d: %w", a, i, finitediff.ErrConfiguration)
		}
		na += a
	}
	if na == 0 {
		return s, nil
	}
	n := len(s.X) + na
	next := &Samples[R]{
		X:       make([]float64, n),
		Results: make([]R, n),
		Y:       make([]float64, n),
	}
	next.X[0], next.Results[0], next.Y[0] = s.X[0], s.Results[0], s.Y[0]
	fresh := make([]int, 0, na)
	ptr := 1
	for gi, nloc := range adds {
		lo, hi := s.X[gi], s.X[gi+1]
		step := (hi - lo) / float64(nloc+1)
		for k := 1; k <= nloc; k++ {
			next.X[ptr] = lo + float64(k)*step
			fresh = append(fresh, ptr)
			ptr++
		}
		next.X[ptr], next.Results[ptr], next.Y[ptr] = hi, s.Results[gi+1], s.Y[gi+1]
		ptr++
	}

	xs := make([]float64, len(fresh))
	for i, p := range fresh {
		xs[i] = next.X[p]
	}
	res, y, err := evaluate(cb, metric, xs)
	if err != nil {
		return nil, err
	}
	for i, p := range fresh {
		next.Results[p], next.Y[p] = res[i], y[i]
	}
	return next, nil
}
