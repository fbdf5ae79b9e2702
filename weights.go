package finitediff

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Weights returns the finite difference weights for approximating the
// derivatives of order 0..maxorder at x0 from values sampled at nodes.
// Row j of the result belongs to nodes[j], column k to the k-th derivative.
//
// The nodes may be given in any order and are processed in exactly that
// order; reordering changes only rounding.
//
// References
//
//	Generation of Finite Difference Formulas on Arbitrarily Spaced Grids,
//	Bengt Fornberg, Mathematics of Computation, 51, 184, 1988, 699-706
func Weights(nodes []float64, x0 float64, maxorder int) (*mat.Dense, error) {
	if err := checkNodes(nodes, maxorder); err != nil {
		return nil, err
	}
	if math.IsNaN(x0) || math.IsInf(x0, 0) {
		return nil, fmt.Errorf("evaluation point %v: %w", x0, ErrPrecondition)
	}
	c := calculateWeights(nodes, x0, maxorder)
	return mat.NewDense(len(nodes), maxorder+1, c), nil
}

func checkNodes(nodes []float64, maxorder int) error {
	if maxorder < 0 {
		return fmt.Errorf("negative maxorder %d: %w", maxorder, ErrPrecondition)
	}
	if len(nodes) < maxorder+1 {
		return fmt.Errorf("%d nodes insufficient for order %d: %w", len(nodes), maxorder, ErrPrecondition)
	}
	if i := CheckNaN(nodes); i >= 0 {
		return fmt.Errorf("node %d is not finite: %w", i, ErrPrecondition)
	}
	sorted := slices.Clone(nodes)
	slices.Sort(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i] == sorted[i-1] {
			return fmt.Errorf("duplicate node %v: %w", sorted[i], ErrPrecondition)
		}
	}
	return nil
}

// calculateWeights fills a row-major len(x) by maxorder+1 table. Each new
// node updates every order at once from the previous table; c1 carries the
// running product of node separations.
func calculateWeights(x []float64, around float64, maxorder int) []float64 {
	n := len(x)
	ld := maxorder + 1
	c := make([]float64, n*ld)
	c[0] = 1
	c1 := 1.0
	c4 := x[0] - around
	for i := 1; i < n; i++ {
		mn := min(i, maxorder)
		c2 := 1.0
		c5 := c4
		c4 = x[i] - around
		for j := 0; j < i; j++ {
			c3 := x[i] - x[j]
			c3r := 1 / c3
			c2 *= c3
			if j == i-1 {
				c2r := 1 / c2
				for k := mn; k >= 1; k-- {
					c[i*ld+k] = c1 * (float64(k)*c[(i-1)*ld+k-1] - c5*c[(i-1)*ld+k]) * c2r
				}
				c[i*ld] = -c1 * c5 * c[(i-1)*ld] * c2r
			}
			for k := mn; k >= 1; k-- {
				c[j*ld+k] = (c4*c[j*ld+k] - float64(k)*c[j*ld+k-1]) * c3r
			}
			c[j*ld] = c4 * c[j*ld] * c3r
		}
		c1 = c2
	}
	return c
}
