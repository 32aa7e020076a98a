// Package scale provides the pitch sets melodies are evolved over
package scale

import (
	"errors"
	"fmt"
	"sort"
)

// Instrument range shared by every scale (F3 to G5)
const (
	PitchMin = 53
	PitchMax = 79
)

// Interval patterns in semitones
var (
	Major        = []int{2, 2, 1, 2, 2, 2, 1}
	NaturalMinor = []int{2, 1, 2, 2, 1, 2, 2}
)

// ErrInvalidScale is returned for empty, unordered or out-of-range scales
var ErrInvalidScale = errors.New("invalid scale")

// Scale is an ordered set of MIDI pitches
type Scale []int

// Generate walks intervals octave by octave from the lowest transposition of
// root at or above minPitch, collecting every pitch in [minPitch, maxPitch].
func Generate(root int, intervals []int, minPitch, maxPitch int) Scale {
	current := root
	for current-12 >= minPitch {
		current -= 12
	}

	seen := make(map[int]struct{})
	for current <= maxPitch {
		pitch := current
		for _, interval := range intervals {
			if pitch >= minPitch && pitch <= maxPitch {
				seen[pitch] = struct{}{}
			}
			pitch += interval
		}
		current += 12
	}

	out := make(Scale, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

// Validate checks that the scale is non-empty, strictly increasing and in range
func (s Scale) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidScale)
	}
	for i, p := range s {
		if p < PitchMin || p > PitchMax {
			return fmt.Errorf("%w: pitch %d out of range [%d, %d]", ErrInvalidScale, p, PitchMin, PitchMax)
		}
		if i > 0 && p <= s[i-1] {
			return fmt.Errorf("%w: pitch %d not above %d", ErrInvalidScale, p, s[i-1])
		}
	}
	return nil
}

// Size returns the number of pitches
func (s Scale) Size() int {
	return len(s)
}

// Pitch maps a scale index to a MIDI pitch, clamping out-of-range indices
func (s Scale) Pitch(index int) int {
	if index < 0 {
		index = 0
	}
	if index >= len(s) {
		index = len(s) - 1
	}
	return s[index]
}
