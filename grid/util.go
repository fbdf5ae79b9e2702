package grid

import "gonum.org/v1/gonum/floats"

// Linspace returns num evenly spaced points from start to stop inclusive.
// The last point is exactly stop.
func Linspace(start, stop float64, num int) []float64 {
	if num <= 0 {
		return []float64{}
	}
	out := make([]float64, num)
	if num == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(num-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[num-1] = stop
	return out
}

// ApplyMask returns the values whose mask entry is true.
func ApplyMask[T any](vals []T, mask []bool) []T {
	out := make([]T, 0, len(vals))
	for i, keep := range mask {
		if keep && i < len(vals) {
			out = append(out, vals[i])
		}
	}
	return out
}

func diff(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	d := make([]float64, len(x)-1)
	floats.SubTo(d, x[1:], x[:len(x)-1])
	return d
}

// avgDiff is the mean spacing around each point; the end points take the
// spacing of their single interval. len(x) must be at least 2.
func avgDiff(x []float64) []float64 {
	dx := diff(x)
	out := make([]float64, len(x))
	out[0], out[len(x)-1] = dx[0], dx[len(dx)-1]
	for i := 1; i < len(x)-1; i++ {
		out[i] = 0.5 * (dx[i] + dx[i-1])
	}
	return out
}

// argsort returns the indices that sort v ascending, ties in index order.
func argsort(v []float64) []int {
	inds := make([]int, len(v))
	floats.ArgsortStable(append([]float64(nil), v...), inds)
	return inds
}
