package grid

import (
	"errors"
	"math"
	"testing"

	"github.com/Maxime2/finitediff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
)

func sigm(x, m, o, n float64) float64 {
	return m * (x - o) * math.Pow(math.Pow(m*(x-o), n)+1, -1/n)
}

// peaked has a sharp feature near x=1 on top of a smooth parabola.
func peaked(x float64) float64 {
	s := sigm(x, 20, 1, 4)
	s2 := sigm(x, 5, 1, 4)
	return 10*(1-s2*s2)*math.Exp(20*s)/math.Exp(20*x) + 0.1*(x-3)*(x-3)
}

// counter records how the callback it wraps is invoked.
type counter struct {
	calls   int
	elems   int
	batches [][]float64
}

func (c *counter) wrap(f func(float64) float64) Callback[float64] {
	inner := Func(f)
	return func(xs []float64) ([]float64, error) {
		c.calls++
		c.elems += len(xs)
		c.batches = append(c.batches, append([]float64(nil), xs...))
		return inner(xs)
	}
}

func midpointError(s *Samples[float64]) float64 {
	var r float64
	for i := 0; i < s.Len()-1; i++ {
		bx := s.X[i] + (s.X[i+1]-s.X[i])/2
		by := s.Y[i] + (s.Y[i+1]-s.Y[i])/2
		r += math.Abs(by - peaked(bx))
	}
	return r
}

func TestRefine(t *testing.T) {
	var c counter
	s, err := Refine(Linspace(0, 2, 8), c.wrap(peaked), nil, []int{8, 8, 8})
	require.NoError(t, err)
	require.Equal(t, 32, s.Len())
	require.Len(t, s.Y, 32)
	require.Len(t, s.Results, 32)
	require.Equal(t, -1, finitediff.CheckStrictMonotonicity(s.X))
	assert.Equal(t, 0.0, s.X[0])
	assert.Equal(t, 2.0, s.X[31])

	assert.Equal(t, 4, c.calls)
	assert.Equal(t, 32, c.elems)
	require.Len(t, c.batches, 4)
	for _, b := range c.batches[1:] {
		assert.Len(t, b, 8, "each round evaluates only its new points")
	}
	for i, x := range s.X {
		assert.Equal(t, peaked(x), s.Y[i])
	}
}

func TestAdapted(t *testing.T) {
	var c counter
	s, err := Adapted(0, 2, c.wrap(peaked), nil, []int{8, 8, 8, 8})
	require.NoError(t, err)
	assert.Equal(t, 32, s.Len())
	assert.Equal(t, 4, c.calls)
	assert.Equal(t, 32, c.elems)
}

func TestAdapted_MidpointError(t *testing.T) {
	var r []float64
	for _, additions := range [][]int{{32}, {16, 16}, {8, 8, 8, 8}} {
		s, err := Adapted(0, 2, Func(peaked), nil, additions)
		require.NoError(t, err)
		require.Equal(t, 32, s.Len())
		r = append(r, midpointError(s))
	}
	t.Logf("midpoint errors: %v", r)
	for i, limit := range []float64{0.272, 0.25, 0.15} {
		assert.Less(t, r[i], limit)
	}
	assert.Less(t, r[1], r[0])
	assert.Less(t, r[2], r[1])
}

func TestRefine_MidpointError(t *testing.T) {
	var r []float64
	for _, additions := range [][]int{{16, 16}, {8, 8, 8, 8}} {
		s, err := Refine(Linspace(0, 2, additions[0]), Func(peaked), nil, additions[1:])
		require.NoError(t, err)
		r = append(r, midpointError(s))
	}
	assert.Less(t, r[0], 0.272)
	assert.Less(t, r[1], 0.25)
	assert.Less(t, r[1], r[0])
}

func TestAdapted_Metric(t *testing.T) {
	cb := func(xs []float64) ([][2]float64, error) {
		out := make([][2]float64, len(xs))
		for i, x := range xs {
			out[i] = [2]float64{peaked(x), peaked(2*x) + peaked(x)}
		}
		return out, nil
	}
	metric := func(r [2]float64) float64 { return r[0] + r[1] }

	s, err := Adapted(0, 2, cb, metric, []int{8, 8, 8, 8})
	require.NoError(t, err)
	require.Equal(t, 32, s.Len())
	require.Len(t, s.Results, 32)
	for i, x := range s.X {
		assert.Equal(t, peaked(x), s.Results[i][0])
		assert.Equal(t, metric(s.Results[i]), s.Y[i])
	}

	_, err = Adapted[[2]float64](0, 2, cb, nil, []int{8, 8})
	require.ErrorIs(t, err, finitediff.ErrConfiguration)
}

func TestRefine_ATol(t *testing.T) {
	var c counter
	sq := func(x float64) float64 { return x * x }
	s, err := Refine(Linspace(0, 1, 5), c.wrap(sq), nil, []int{4, 4, 4}, WithATol(1))
	require.NoError(t, err)
	// The first round meets the tolerance, its points are still added.
	assert.Equal(t, 9, s.Len())
	assert.Equal(t, 2, c.calls)

	c = counter{}
	s, err = Refine(Linspace(0, 1, 5), c.wrap(sq), nil, []int{4, 4, 4}, WithATol(1e-9))
	require.NoError(t, err)
	assert.Equal(t, 17, s.Len())
	assert.Equal(t, 4, c.calls)
}

func TestRefine_Extremum(t *testing.T) {
	bump := func(x float64) float64 { return math.Exp(-(x - 0.5) * (x - 0.5) * 50) }
	var c counter
	s, err := Refine(Linspace(0, 1, 5), c.wrap(bump), nil, []int{2}, WithExtremum(ExtremumMax(1)))
	require.NoError(t, err)
	// One point on each side of the maximum at 0.5, then the round budget.
	assert.Equal(t, 5+2+2, s.Len())
	assert.Equal(t, 3, c.calls)
	require.Len(t, c.batches[1], 2)
	assert.InDeltaSlice(t, []float64{0.375, 0.625}, c.batches[1], 1e-15)

	c = counter{}
	s, err = Refine(Linspace(0, 1, 5), c.wrap(bump), nil, []int{2}, WithConfig(&Config{
		NTrail: 2, ExtremumMode: "min", ExtremumPoints: 2, ResolutionFactor: 10, SmoothFact: 1,
	}))
	require.NoError(t, err)
	// The minimum sits on the boundary, so only its inner side is refined.
	assert.Equal(t, 5+2+2, s.Len())
	require.Len(t, c.batches[1], 2)
}

func TestRefine_Blurs(t *testing.T) {
	s, err := Refine(Linspace(0, 2, 8), Func(peaked), nil, []int{8, 8},
		WithBlurs([]float64{0.5, 0.25}, []float64{0.5}), WithNTrail(3))
	require.NoError(t, err)
	assert.Equal(t, 24, s.Len())
	assert.Equal(t, -1, finitediff.CheckStrictMonotonicity(s.X))
}

func TestRefine_SNR(t *testing.T) {
	s, err := Refine(Linspace(0, 2, 8), Func(peaked), nil, []int{8, 8}, WithSNR(true))
	require.NoError(t, err)
	assert.Equal(t, 24, s.Len())

	// On jittered samples de-weighting moves points elsewhere.
	var plain, snr counter
	a, err := Refine(Linspace(0, 10, 16), plain.wrap(noisy), nil, []int{16, 16})
	require.NoError(t, err)
	b, err := Refine(Linspace(0, 10, 16), snr.wrap(noisy), nil, []int{16, 16}, WithSNR(true))
	require.NoError(t, err)
	require.Equal(t, a.Len(), b.Len())
	require.Len(t, plain.batches, 3)
	require.Len(t, snr.batches, 3)
	assert.NotEqual(t, plain.batches[1], snr.batches[1])
	assert.NotEqual(t, a.X, b.X)
}

func TestRefine_Invalid(t *testing.T) {
	cb := Func(peaked)
	_, err := Refine(Linspace(0, 2, 8), cb, nil, []int{8, 7})
	require.ErrorIs(t, err, finitediff.ErrConfiguration)

	_, err = Refine([]float64{0, 1, 1, 2}, cb, nil, []int{8})
	require.ErrorIs(t, err, finitediff.ErrPrecondition)

	_, err = Refine([]float64{0, 1}, cb, nil, []int{8})
	require.ErrorIs(t, err, finitediff.ErrPrecondition)

	_, err = Refine(Linspace(0, 2, 8), cb, nil, []int{8}, WithNTrail(1))
	require.ErrorIs(t, err, finitediff.ErrConfiguration)

	_, err = Adapted(0, 2, cb, nil, nil)
	require.ErrorIs(t, err, finitediff.ErrConfiguration)

	_, err = Adapted(2, 0, cb, nil, []int{8})
	require.ErrorIs(t, err, finitediff.ErrPrecondition)

	short := func(xs []float64) ([]float64, error) { return make([]float64, len(xs)-1), nil }
	_, err = Refine(Linspace(0, 2, 8), short, nil, []int{8})
	require.ErrorIs(t, err, finitediff.ErrConfiguration)

	_, err = Refine(Linspace(0, 2, 8), cb, nil, []int{8}, WithExtremum(Extremum{
		Locate: floats.MaxIdx, N: -1, Predicate: func([]float64, int) bool { return true },
	}))
	require.ErrorIs(t, err, finitediff.ErrConfiguration)

	_, err = Refine(Linspace(0, 2, 8), cb, nil, []int{8}, WithExtremum(Extremum{N: 1}))
	require.ErrorIs(t, err, finitediff.ErrConfiguration)

	s, err := Refine(Linspace(0, 2, 8), cb, nil, []int{8}, WithConfig(nil))
	require.NoError(t, err)
	assert.Equal(t, 16, s.Len())

	// All-zero residuals cannot be balanced, met tolerances included.
	line := Func(func(x float64) float64 { return 3*x - 1 })
	_, err = Refine(Linspace(0, 7, 8), line, nil, []int{8}, WithATol(1e-6))
	require.ErrorIs(t, err, finitediff.ErrPrecondition)

	boom := errors.New("boom")
	failing := func(xs []float64) ([]float64, error) { return nil, boom }
	_, err = Refine(Linspace(0, 2, 8), failing, nil, []int{8})
	require.ErrorIs(t, err, boom)
}

func TestBalance(t *testing.T) {
	plan, err := balance([]float64{1, 1, 2}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, plan)

	// 4/3 rounds to 1 each, one short: the fix-up goes to the largest
	// entry, ties resolved towards the last index.
	plan, err = balance([]float64{1, 1, 1}, 4)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1, 2}, plan)

	plan, err = balance([]float64{0, 0}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0}, plan)

	_, err = balance([]float64{0, 0}, 2)
	require.ErrorIs(t, err, finitediff.ErrPrecondition)

	// Shares that all round to zero are made up on the last entries.
	plan, err = balance([]float64{1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1}, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 0, 0, 0, 1, 1}, plan)
}

func TestBlur(t *testing.T) {
	fw := []float64{1, 0, 0, 0}
	blur(fw, []float64{0.5, 0.25}, true)
	assert.Equal(t, []float64{1, 0.5, 0.25, 0.125}, fw)

	bw := []float64{0, 0, 0, 1}
	blur(bw, []float64{0.5}, false)
	assert.Equal(t, []float64{0, 0, 0.5, 1}, bw)
}
