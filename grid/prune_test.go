package grid

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/Maxime2/finitediff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrePruningMask(t *testing.T) {
	cases := []struct {
		name string
		x    []float64
		atol float64
		want []bool
	}{
		{"spread", []float64{0, 1, 2, 3, 4}, DefaultPruneATol, []bool{true, true, true, true, true}},
		{"left pair", []float64{0, 1e-14, 2, 3, 4}, 1e-12, []bool{true, false, true, true, true}},
		{"left cluster", []float64{0, 1e-14, 2e-14, 3, 4}, 1e-12, []bool{true, false, false, true, true}},
		{"right pair", []float64{0, 1, 2, 4, 4 + 2e-12}, DefaultPruneATol, []bool{true, true, true, false, true}},
		{"right cluster", []float64{0, 1, 4, 4 + 1e-12, 4 + 2e-12}, DefaultPruneATol, []bool{true, true, false, false, true}},
		{"both ends", []float64{0, 1e-14, 2, 4, 4 + 2e-12}, 1e-12, []bool{true, false, true, false, true}},
		{"single", []float64{3}, DefaultPruneATol, []bool{true}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mask, err := PrePruningMask(tc.x, DefaultPruneRTol, tc.atol)
			require.NoError(t, err)
			assert.Equal(t, tc.want, mask)
		})
	}
}

func TestPrePruningMask_Invalid(t *testing.T) {
	_, err := PrePruningMask([]float64{1, 1 + 1e-13, 1 + 2e-13}, DefaultPruneRTol, DefaultPruneATol)
	require.ErrorIs(t, err, finitediff.ErrPrecondition)

	_, err = PrePruningMask([]float64{0, 2, 1}, DefaultPruneRTol, DefaultPruneATol)
	require.ErrorIs(t, err, finitediff.ErrPrecondition)

	_, err = PrePruningMask(nil, DefaultPruneRTol, DefaultPruneATol)
	require.ErrorIs(t, err, finitediff.ErrPrecondition)
}

func TestPruningMask(t *testing.T) {
	x := Linspace(0, 7, 8)
	err := []float64{5, 1, 5, 1, 5, 1, 5, 5}
	mask, e := PruningMask(x, err, 2, 0, 2, 2)
	require.NoError(t, e)
	assert.Equal(t, []bool{true, false, true, false, true, true, true, true}, mask)

	mask, e = PruningMask(x, err, 0, 0, 2, 2)
	require.NoError(t, e)
	assert.NotContains(t, mask, false)
}

func TestPruningMask_ProtectSparse(t *testing.T) {
	x := []float64{0, 1, 2, 10, 11}
	err := []float64{1, 1, 1, 1, 1}
	mask, e := PruningMask(x, err, 2, 2, 2, 2)
	require.NoError(t, e)
	// The two points around the wide gap are protected; the neighbour of the
	// first dropped point is skipped.
	assert.Equal(t, []bool{false, true, true, true, false}, mask)
}

func TestPruningMask_Defaults(t *testing.T) {
	x := Linspace(0, 1, 8)
	err := []float64{3, 1, 4, 1, 5, 9, 2, 6}
	mask, e := PruningMask(x, err, -1, -1, 2, 2)
	require.NoError(t, e)
	dropped := 0
	for _, keep := range mask {
		if !keep {
			dropped++
		}
	}
	assert.Equal(t, 2, dropped)
}

func TestPruningMask_NoAdjacentDrops(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 3 + rng.Intn(30)
		x := make([]float64, n)
		err := make([]float64, n)
		v := 0.0
		for i := range x {
			v += 0.01 + rng.Float64()
			x[i] = v
			err[i] = rng.Float64()
		}
		mask, e := PruningMask(x, err, rng.Intn(n), rng.Intn(n/2+1), 2, 2)
		require.NoError(t, e)
		for i := 1; i < n; i++ {
			require.False(t, !mask[i] && !mask[i-1], "trial %d: adjacent drops at %d", trial, i)
		}
	}
}

func TestPruningMask_Invalid(t *testing.T) {
	_, err := PruningMask([]float64{0, 1}, []float64{1}, 1, 0, 2, 2)
	require.ErrorIs(t, err, finitediff.ErrPrecondition)
}

func TestCombineGrids(t *testing.T) {
	g1 := []float64{0, 1, 2}
	g2 := []float64{3, 1 + 1e-13}
	got, err := CombineGrids([][]float64{g1, g2}, DefaultPruneRTol, DefaultPruneATol)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1 + 1e-13, 2, 3}, got)

	all := append(slices.Clone(g1), g2...)
	slices.Sort(all)
	mask, err := PrePruningMask(all, DefaultPruneRTol, DefaultPruneATol)
	require.NoError(t, err)
	assert.Equal(t, ApplyMask(all, mask), got)

	again, err := CombineGrids([][]float64{got}, DefaultPruneRTol, DefaultPruneATol)
	require.NoError(t, err)
	assert.Equal(t, got, again)

	assert.Equal(t, []float64{0, 1, 2}, g1, "inputs untouched")
	assert.Equal(t, []float64{3, 1 + 1e-13}, g2, "inputs untouched")
}
