package fitness

import (
	"maps"
	"slices"
)

// Weights is an immutable set of per-heuristic multipliers.
// Every builder returns a new value.
type Weights struct {
	m map[string]float64
}

// NewWeights copies m into a weight set
func NewWeights(m map[string]float64) Weights {
	return Weights{m: maps.Clone(m)}
}

// DefaultRhythmWeights is the standard rhythm blend
func DefaultRhythmWeights() Weights {
	return NewWeights(map[string]float64{
		"basic":    1.5,
		"legato":   1.2,
		"balanced": 1.0,
	})
}

// DefaultPitchWeights is the standard pitch blend
func DefaultPitchWeights() Weights {
	return NewWeights(map[string]float64{
		"stepwise":  2.0,
		"arch":      1.5,
		"end_tonic": 1.5,
	})
}

// Only enables a single heuristic
func Only(name string, weight float64) Weights {
	return NewWeights(map[string]float64{name: weight})
}

// Zeroed lists the named heuristics with weight 0
func Zeroed(names ...string) Weights {
	m := make(map[string]float64, len(names))
	for _, n := range names {
		m[n] = 0
	}
	return Weights{m: m}
}

// With returns a copy with name set to weight
func (w Weights) With(name string, weight float64) Weights {
	m := maps.Clone(w.m)
	if m == nil {
		m = make(map[string]float64, 1)
	}
	m[name] = weight
	return Weights{m: m}
}

// Isolate returns a copy where every heuristic but name is zeroed
func (w Weights) Isolate(name string, weight float64) Weights {
	m := make(map[string]float64, len(w.m)+1)
	for k := range w.m {
		m[k] = 0
	}
	m[name] = weight
	return Weights{m: m}
}

// Get returns the weight for name, 0 when absent
func (w Weights) Get(name string) float64 {
	return w.m[name]
}

// Names returns the weighted heuristic names, sorted
func (w Weights) Names() []string {
	return slices.Sorted(maps.Keys(w.m))
}

// Len returns the number of entries
func (w Weights) Len() int {
	return len(w.m)
}

// Sum returns the total of all weights
func (w Weights) Sum() float64 {
	total := 0.0
	for _, v := range w.m {
		total += v
	}
	return total
}

// Map returns a copy of the underlying weights
func (w Weights) Map() map[string]float64 {
	if w.m == nil {
		return map[string]float64{}
	}
	return maps.Clone(w.m)
}
