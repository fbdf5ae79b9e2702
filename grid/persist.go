package grid

import (
	"encoding/json"
	"fmt"

	"github.com/Maxime2/finitediff"
	"github.com/theothertomelliott/acyclic"
	"gopkg.in/yaml.v3"
)

// Dump is a serializable representation of Samples.
type Dump[R any] struct {
	X       []float64 `json:"x" yaml:"x"`
	Y       []float64 `json:"y" yaml:"y"`
	Results []R       `json:"results,omitempty" yaml:"results,omitempty"`
}

// Dump generates a serializable dump of the samples. Results that refer
// back to themselves cannot be serialized and are rejected.
func (s *Samples[R]) Dump() (*Dump[R], error) {
	d := &Dump[R]{
		X:       append([]float64(nil), s.X...),
		Y:       append([]float64(nil), s.Y...),
		Results: append([]R(nil), s.Results...),
	}
	if err := acyclic.Check(d.Results); err != nil {
		return nil, fmt.Errorf("dump results: %w", err)
	}
	return d, nil
}

// FromDump restores samples from a dump. The grid must be strictly
// increasing and the columns of equal length.
func FromDump[R any](d *Dump[R]) (*Samples[R], error) {
	if len(d.Y) != len(d.X) || (d.Results != nil && len(d.Results) != len(d.X)) {
		return nil, fmt.Errorf("dump columns %d/%d/%d: %w", len(d.X), len(d.Y), len(d.Results), finitediff.ErrPrecondition)
	}
	if i := finitediff.CheckStrictMonotonicity(d.X); i >= 0 {
		return nil, fmt.Errorf("dump grid not strictly increasing at %d: %w", i, finitediff.ErrPrecondition)
	}
	s := &Samples[R]{
		X:       append([]float64(nil), d.X...),
		Y:       append([]float64(nil), d.Y...),
		Results: append([]R(nil), d.Results...),
	}
	if s.Results == nil {
		s.Results = make([]R, len(s.X))
	}
	return s, nil
}

// MarshalJSON implements the json.Marshaler interface for Samples.
func (s *Samples[R]) MarshalJSON() ([]byte, error) {
	d, err := s.Dump()
	if err != nil {
		return nil, err
	}
	return json.Marshal(d)
}

// UnmarshalJSON implements the json.Unmarshaler interface for Samples.
func (s *Samples[R]) UnmarshalJSON(bytes []byte) error {
	var d Dump[R]
	if err := json.Unmarshal(bytes, &d); err != nil {
		return err
	}
	r, err := FromDump(&d)
	if err != nil {
		return err
	}
	*s = *r
	return nil
}

// MarshalYAML implements the yaml.Marshaler interface for Samples.
func (s *Samples[R]) MarshalYAML() (interface{}, error) {
	return s.Dump()
}

// UnmarshalYAML implements the yaml.Unmarshaler interface for Samples.
func (s *Samples[R]) UnmarshalYAML(node *yaml.Node) error {
	var d Dump[R]
	if err := node.Decode(&d); err != nil {
		return err
	}
	r, err := FromDump(&d)
	if err != nil {
		return err
	}
	*s = *r
	return nil
}
