package finitediff

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DerivativesAtPoint estimates the derivatives of order 0..maxorder at x0
// of the function sampled as y at nodes.
func DerivativesAtPoint(nodes, y []float64, x0 float64, maxorder int) ([]float64, error) {
	if len(y) != len(nodes) {
		return nil, fmt.Errorf("len(y)=%d, len(nodes)=%d: %w", len(y), len(nodes), ErrPrecondition)
	}
	w, err := Weights(nodes, x0, maxorder)
	if err != nil {
		return nil, err
	}
	out := make([]float64, maxorder+1)
	col := make([]float64, len(nodes))
	for k := range out {
		out[k] = floats.Dot(mat.Col(col, k, w), y)
	}
	return out, nil
}

// DerivativesAtPointSets is DerivativesAtPoint for several data series
// sampled at the same nodes. ys[s] holds series s; the result is indexed
// [s][order].
func DerivativesAtPointSets(nodes []float64, ys [][]float64, x0 float64, maxorder int) ([][]float64, error) {
	w, err := Weights(nodes, x0, maxorder)
	if err != nil {
		return nil, err
	}
	return applyWeights(w, ys, len(nodes))
}

func applyWeights(w *mat.Dense, ys [][]float64, m int) ([][]float64, error) {
	if len(ys) == 0 {
		return [][]float64{}, nil
	}
	data := make([]float64, 0, len(ys)*m)
	for s, y := range ys {
		if len(y) != m {
			return nil, fmt.Errorf("series %d has %d values for %d nodes: %w", s, len(y), m, ErrPrecondition)
		}
		data = append(data, y...)
	}
	var prod mat.Dense
	prod.Mul(mat.NewDense(len(ys), m, data), w)
	out := make([][]float64, len(ys))
	for s := range out {
		out[s] = mat.Row(nil, s, &prod)
	}
	return out, nil
}

// Interpolate estimates y and its derivatives up to maxorder at every point
// of xout. Each estimate uses nhead nodes preceding and ntail nodes following
// the insertion position of the output point; windows are shifted inwards
// at the grid boundaries. The result is indexed [i][order].
func Interpolate(xnodes, y, xout []float64, maxorder, nhead, ntail int) ([][]float64, error) {
	res, err := InterpolateSets(xnodes, [][]float64{y}, xout, maxorder, nhead, ntail)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(res))
	for i := range res {
		out[i] = res[i][0]
	}
	return out, nil
}

// InterpolateSets is Interpolate for several data series. The result is
// indexed [i][series][order].
func InterpolateSets(xnodes []float64, ys [][]float64, xout []float64, maxorder, nhead, ntail int) ([][][]float64, error) {
	n := len(xnodes)
	if i := CheckStrictMonotonicity(xnodes); i >= 0 {
		return nil, fmt.Errorf("xnodes not strictly increasing at %d: %w", i, ErrPrecondition)
	}
	if nhead < 0 || ntail < 0 {
		return nil, fmt.Errorf("nhead=%d, ntail=%d: %w", nhead, ntail, ErrPrecondition)
	}
	width := nhead + ntail
	if width > n || width == 0 {
		return nil, fmt.Errorf("need %d nodes, have %d: %w", width, n, ErrWindow)
	}
	out := make([][][]float64, len(xout))
	window := make([][]float64, len(ys))
	for i, x := range xout {
		start := clampWindow(Locate(xnodes, x)-nhead, n, width)
		for s := range ys {
			if len(ys[s]) != n {
				return nil, fmt.Errorf("series %d has %d values for %d nodes: %w", s, len(ys[s]), n, ErrPrecondition)
			}
			window[s] = ys[s][start : start+width]
		}
		w, err := Weights(xnodes[start:start+width], x, maxorder)
		if err != nil {
			return nil, err
		}
		if out[i], err = applyWeights(w, window, width); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func clampWindow(start, n, width int) int {
	if start+width > n {
		start = n - width
	}
	if start < 0 {
		start = 0
	}
	return start
}
