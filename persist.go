package finitediff

import (
	"cmp"
	"encoding/json"
	"fmt"
	"slices"
)

// Dump is a serializable representation of a Tabulated function.
type Dump struct {
	Order       int         `json:"order" yaml:"order"`
	Trapolation Trapolation `json:"trapolation" yaml:"trapolation"`
	Points      []Point     `json:"points" yaml:"points"`
}

type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// FromDump restores a tabulated function from a dump.
// Points are sorted by X since they may come from an untrusted source;
// repeated X values are rejected.
func (f *Tabulated) FromDump(d *Dump) error {
	pts := slices.Clone(d.Points)
	slices.SortFunc(pts, func(a, b Point) int {
		return cmp.Compare(a.X, b.X)
	})
	x := make([]float64, len(pts))
	y := make([]float64, len(pts))
	for i, p := range pts {
		x[i], y[i] = p.X, p.Y
	}
	g, err := NewTabulated(x, y)
	if err != nil {
		return fmt.Errorf("restore dump: %w", err)
	}
	g.SetOrder(d.Order)
	g.SetTrapolation(d.Trapolation)
	*f = *g
	return nil
}

// Dump generates a serializable dump for a tabulated function.
func (f *Tabulated) Dump() *Dump {
	pts := make([]Point, len(f.X))
	for i := range f.X {
		pts[i] = Point{X: f.X[i], Y: f.Y[i]}
	}
	return &Dump{
		Order:       f.order,
		Trapolation: f.trapolation,
		Points:      pts,
	}
}

// MarshalJSON implements the json.Marshaler interface for Tabulated.
func (f *Tabulated) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Dump())
}

// UnmarshalJSON implements the json.Unmarshaler interface for Tabulated.
func (f *Tabulated) UnmarshalJSON(bytes []byte) error {
	var dump Dump
	if err := json.Unmarshal(bytes, &dump); err != nil {
		return err
	}
	return f.FromDump(&dump)
}
