package genetic

import (
	"math/rand/v2"
	"slices"

	"github.com/james-see/melodyevolve/pkg/genome"
)

// Transform names a musical transformation
type Transform string

const (
	Retrograde    Transform = "retrograde"
	Transposition Transform = "transposition"
	Inversion     Transform = "inversion"
	Augmentation  Transform = "augmentation"
	Diminution    Transform = "diminution"
)

// reshapeRate is the per-slot chance used by augmentation and diminution
const reshapeRate = 0.3

var transposeShifts = []int{-2, -1, 1, 2}

func mod(v, n int) int {
	return ((v % n) + n) % n
}

// Reverse returns genes in reverse order
func Reverse[T any](genes []T) []T {
	out := clone(genes)
	slices.Reverse(out)
	return out
}

// Transpose shifts every index by shift, wrapping within the scale
func Transpose(genes []int, shift, scaleSize int) []int {
	out := make([]int, len(genes))
	for i, g := range genes {
		out[i] = mod(g+shift, scaleSize)
	}
	return out
}

// Invert reflects every index around pivot, wrapping within the scale
func Invert(genes []int, pivot, scaleSize int) []int {
	out := make([]int, len(genes))
	for i, g := range genes {
		out[i] = mod(2*pivot-g, scaleSize)
	}
	return out
}

// TransformPitch applies one of retrograde, transposition or inversion
func TransformPitch(rng *rand.Rand, genes []int, scaleSize int) ([]int, Transform) {
	switch rng.IntN(3) {
	case 0:
		return Reverse(genes), Retrograde
	case 1:
		shift := transposeShifts[rng.IntN(len(transposeShifts))]
		return Transpose(genes, shift, scaleSize), Transposition
	default:
		return Invert(genes, scaleSize/2, scaleSize), Inversion
	}
}

// Augment turns the slot after a NOTE into HOLD with probability rate
func Augment(rng *rand.Rand, genes []genome.Slot, rate float64) []genome.Slot {
	out := clone(genes)
	for i := 0; i+1 < len(out); i++ {
		if out[i] == genome.Note && rng.Float64() < rate {
			out[i+1] = genome.Hold
		}
	}
	return out
}

// Diminish turns a HOLD into a NOTE with probability rate
func Diminish(rng *rand.Rand, genes []genome.Slot, rate float64) []genome.Slot {
	out := clone(genes)
	for i := range out {
		if out[i] == genome.Hold && rng.Float64() < rate {
			out[i] = genome.Note
		}
	}
	return out
}

// TransformRhythm applies one of retrograde, augmentation or diminution and
// restores the leading NOTE.
func TransformRhythm(rng *rand.Rand, genes []genome.Slot) ([]genome.Slot, Transform) {
	var (
		out []genome.Slot
		t   Transform
	)
	switch rng.IntN(3) {
	case 0:
		out, t = Reverse(genes), Retrograde
	case 1:
		out, t = Augment(rng, genes, reshapeRate), Augmentation
	default:
		out, t = Diminish(rng, genes, reshapeRate), Diminution
	}
	genome.EnforceLeadingNote(out)
	return out, t
}
