package core

import "fmt"

// Range is a closed-open scalar interval [Min, Max) used for randomized spawn fields.
type Range struct {
	Min float32 `yaml:"min" toml:"min"`
	Max float32 `yaml:"max" toml:"max"`
}

func R(min, max float32) Range { return Range{Min: min, Max: max} }

// Lerp maps t in [0,1) into the range.
func (r Range) Lerp(t float32) float32 {
	return r.Min + (r.Max-r.Min)*t
}

// Contains reports whether v lies inside the range. A degenerate range contains its single value.
func (r Range) Contains(v float32) bool {
	if r.Min == r.Max {
		return v == r.Min
	}
	return v >= r.Min && v < r.Max
}

func (r Range) Validate(name string) error {
	if r.Max < r.Min {
		return fmt.Errorf("%w: %s range [%g, %g) is inverted", ErrInvalidConfig, name, r.Min, r.Max)
	}
	return nil
}
