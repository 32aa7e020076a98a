// Package genetic provides the selection, crossover, mutation and musical
// transform operators. Operators never modify their inputs.
package genetic

import (
	"math/rand/v2"
	"slices"
)

// Roulette picks an index with probability proportional to its fitness.
// Negative fitness is shifted so the minimum becomes zero; when every
// adjusted fitness is zero the pick is uniform. fitness must be non-empty.
func Roulette(rng *rand.Rand, fitness []float64) int {
	offset := 0.0
	if lo := slices.Min(fitness); lo < 0 {
		offset = -lo
	}

	total := 0.0
	for _, f := range fitness {
		total += f + offset
	}
	if total <= 0 {
		return rng.IntN(len(fitness))
	}

	pick := rng.Float64() * total
	current := 0.0
	for i, f := range fitness {
		current += f + offset
		if current > pick {
			return i
		}
	}
	return len(fitness) - 1
}
