package finitediff

import (
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/floats"
)

type Trapolation int

const (
	// TrapolationPolynomial extrapolates with the boundary window's polynomial.
	TrapolationPolynomial Trapolation = 0
	// TrapolationClamp returns the boundary value outside the grid.
	TrapolationClamp Trapolation = 1
)

// Tabulated is a function known by its values on a strictly increasing grid.
// Values in between are estimated with finite difference weights over a
// window of Order()+1 neighbouring points.
type Tabulated struct {
	order       int
	trapolation Trapolation
	//
	X, Y []float64
}

// NewTabulated copies x and y into a tabulated function of order 3.
func NewTabulated(x, y []float64) (*Tabulated, error) {
	if len(x) != len(y) {
		return nil, fmt.Errorf("len(x)=%d, len(y)=%d: %w", len(x), len(y), ErrPrecondition)
	}
	if i := CheckStrictMonotonicity(x); i >= 0 {
		return nil, fmt.Errorf("x not strictly increasing at %d: %w", i, ErrPrecondition)
	}
	if i := CheckNaN(x); i >= 0 {
		return nil, fmt.Errorf("x[%d] is not finite: %w", i, ErrPrecondition)
	}
	return &Tabulated{
		order:       3,
		trapolation: TrapolationPolynomial,
		X:           slices.Clone(x),
		Y:           slices.Clone(y),
	}, nil
}

func (f *Tabulated) SetOrder(order int) {
	f.order = max(order, 0)
}

func (f *Tabulated) Order() int {
	return f.order
}

func (f *Tabulated) SetTrapolation(t Trapolation) {
	f.trapolation = t
}

// window returns the head/tail split of the node window, capped by the
// number of points available.
func (f *Tabulated) window() (nhead, ntail, order int) {
	order = min(f.order, len(f.X)-1)
	return (order + 2) / 2, (order + 1) / 2, order
}

// F evaluates the function at x.
func (f *Tabulated) F(x float64) (float64, error) {
	d, err := f.Derivatives(x)
	if err != nil {
		return 0, err
	}
	return d[0], nil
}

// Derivatives returns the value and the derivatives up to Order() at x.
// Orders beyond the available points are reported as zero.
func (f *Tabulated) Derivatives(x float64) ([]float64, error) {
	if len(f.X) == 0 {
		return nil, fmt.Errorf("empty tabulated function: %w", ErrPrecondition)
	}
	out := make([]float64, f.order+1)
	if f.trapolation == TrapolationClamp && (x < f.X[0] || x > f.X[len(f.X)-1]) {
		if x < f.X[0] {
			out[0] = f.Y[0]
		} else {
			out[0] = f.Y[len(f.Y)-1]
		}
		return out, nil
	}
	k, found := slices.BinarySearch(f.X, x)
	if found && f.order == 0 {
		out[0] = f.Y[k]
		return out, nil
	}
	nhead, ntail, order := f.window()
	res, err := Interpolate(f.X, f.Y, []float64{x}, order, nhead, ntail)
	if err != nil {
		return nil, err
	}
	copy(out, res[0])
	// Sampled values are returned exactly.
	if found {
		out[0] = f.Y[k]
	}
	return out, nil
}

// AddPoint inserts (x, y) keeping X sorted. A point already present has its
// value averaged with y. The stored value is returned.
func (f *Tabulated) AddPoint(x, y float64) (float64, error) {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0, fmt.Errorf("point at %v: %w", x, ErrPrecondition)
	}
	i, found := slices.BinarySearch(f.X, x)
	if found {
		f.Y[i] = (f.Y[i] + y) / 2
		return f.Y[i], nil
	}
	f.X = slices.Insert(f.X, i, x)
	f.Y = slices.Insert(f.Y, i, y)
	return y, nil
}

func (f *Tabulated) Merge(m *Tabulated) error {
	for i := range m.X {
		if _, err := f.AddPoint(m.X[i], m.Y[i]); err != nil {
			return err
		}
	}
	return nil
}

// Integrate returns the trapezoidal integral over the grid.
func (f *Tabulated) Integrate() float64 {
	var tot float64
	for i := 1; i < len(f.X); i++ {
		tot += 0.5 * (f.Y[i] + f.Y[i-1]) * (f.X[i] - f.X[i-1])
	}
	return tot
}

// MorePoints returns a copy with one interpolated point inserted at the
// middle of every interval.
func (f *Tabulated) MorePoints() (*Tabulated, error) {
	n := len(f.X)
	if n <= 1 {
		return f.clone(), nil
	}
	mid := Midpoints(f.X)
	nhead, ntail, order := f.window()
	est, err := Interpolate(f.X, f.Y, mid, order, nhead, ntail)
	if err != nil {
		return nil, err
	}
	g := &Tabulated{
		order:       f.order,
		trapolation: f.trapolation,
		X:           make([]float64, 0, 2*n-1),
		Y:           make([]float64, 0, 2*n-1),
	}
	for i := 0; i < n-1; i++ {
		g.X = append(g.X, f.X[i], mid[i])
		g.Y = append(g.Y, f.Y[i], est[i][0])
	}
	g.X = append(g.X, f.X[n-1])
	g.Y = append(g.Y, f.Y[n-1])
	return g, nil
}

func (f *Tabulated) clone() *Tabulated {
	return &Tabulated{
		order:       f.order,
		trapolation: f.trapolation,
		X:           slices.Clone(f.X),
		Y:           slices.Clone(f.Y),
	}
}

// Midpoints returns the centres of the intervals of x.
func Midpoints(x []float64) []float64 {
	if len(x) < 2 {
		return nil
	}
	mid := make([]float64, len(x)-1)
	for i := range mid {
		mid[i] = x[i] + (x[i+1]-x[i])/2
	}
	return mid
}

func (f *Tabulated) Xmin() float64 { return f.X[0] }

func (f *Tabulated) Xmax() float64 { return f.X[len(f.X)-1] }

func (f *Tabulated) Ymin() float64 { return floats.Min(f.Y) }

func (f *Tabulated) Ymax() float64 { return floats.Max(f.Y) }

func (f *Tabulated) GetNdots() int {
	return len(f.X)
}

func (f *Tabulated) String() string {
	s := "\nTabulated function:\n"
	s = fmt.Sprintf("%s\torder: %v; trapolation: %v\n", s, f.order, f.trapolation)
	if len(f.X) > 0 {
		s = fmt.Sprintf("%s\txmin: %v; xmax: %v\n", s, f.Xmin(), f.Xmax())
		s = fmt.Sprintf("%s\tymin: %v; ymax: %v\n", s, f.Ymin(), f.Ymax())
	}
	s = fmt.Sprintf("%s\tX: %v\n\tY: %v\n", s, f.X, f.Y)
	return s
}
