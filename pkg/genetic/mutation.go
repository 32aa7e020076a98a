package genetic

import (
	"math/rand/v2"

	"github.com/james-see/melodyevolve/pkg/genome"
)

// MutateRhythm redraws each slot with probability rate from dist,
// then restores the leading NOTE.
func MutateRhythm(rng *rand.Rand, genes []genome.Slot, rate float64, dist genome.RhythmDistribution) []genome.Slot {
	out := clone(genes)
	for i := range out {
		if rng.Float64() < rate {
			out[i] = dist.Draw(rng)
		}
	}
	genome.EnforceLeadingNote(out)
	return out
}

// MutatePitch redraws each index with probability rate, uniform over the scale
func MutatePitch(rng *rand.Rand, genes []int, rate float64, scaleSize int) []int {
	out := clone(genes)
	for i := range out {
		if rng.Float64() < rate {
			out[i] = rng.IntN(scaleSize)
		}
	}
	return out
}
