package scale

import "fmt"

// Default is the scale used when none is chosen
const Default = "C_major"

// Definition describes a named scale by root and interval pattern
type Definition struct {
	Name      string
	Root      int
	Intervals []int
}

// Scale generates the pitches for the definition in the instrument range
func (d Definition) Scale() Scale {
	return Generate(d.Root, d.Intervals, PitchMin, PitchMax)
}

var definitions = []Definition{
	{Name: "C_major", Root: 60, Intervals: Major},
	{Name: "G_major", Root: 67, Intervals: Major},
	{Name: "D_major", Root: 62, Intervals: Major},
	{Name: "A_major", Root: 69, Intervals: Major},
	{Name: "E_major", Root: 64, Intervals: Major},
	{Name: "F_major", Root: 65, Intervals: Major},
	{Name: "A_minor", Root: 69, Intervals: NaturalMinor},
	{Name: "E_minor", Root: 64, Intervals: NaturalMinor},
	{Name: "D_minor", Root: 62, Intervals: NaturalMinor},
}

// Definitions returns every named scale in menu order
func Definitions() []Definition {
	out := make([]Definition, len(definitions))
	copy(out, definitions)
	return out
}

// Names returns the scale names in menu order
func Names() []string {
	names := make([]string, len(definitions))
	for i, d := range definitions {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the named scale
func Lookup(name string) (Scale, error) {
	for _, d := range definitions {
		if d.Name == name {
			return d.Scale(), nil
		}
	}
	return nil, fmt.Errorf("%w: unknown scale %q", ErrInvalidScale, name)
}
