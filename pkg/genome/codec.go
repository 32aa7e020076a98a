package genome

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/james-see/melodyevolve/pkg/scale"
)

// ErrInvalidDistribution is returned for unusable rhythm weights
var ErrInvalidDistribution = errors.New("invalid rhythm distribution")

// RhythmDistribution weights the categorical draw for rhythm slots.
// Weights are normalised, so they need not sum to one.
type RhythmDistribution struct {
	Note float64 `json:"note" yaml:"note" msgpack:"note"`
	Hold float64 `json:"hold" yaml:"hold" msgpack:"hold"`
	Rest float64 `json:"rest" yaml:"rest" msgpack:"rest"`
}

// DefaultRhythm is 40% NOTE, 30% HOLD, 30% REST
func DefaultRhythm() RhythmDistribution {
	return RhythmDistribution{Note: 0.40, Hold: 0.30, Rest: 0.30}
}

// Validate rejects negative weights and an all-zero distribution
func (d RhythmDistribution) Validate() error {
	if d.Note < 0 || d.Hold < 0 || d.Rest < 0 {
		return fmt.Errorf("%w: negative weight", ErrInvalidDistribution)
	}
	if d.Note+d.Hold+d.Rest == 0 {
		return fmt.Errorf("%w: all weights are zero", ErrInvalidDistribution)
	}
	return nil
}

// Draw samples one rhythm slot
func (d RhythmDistribution) Draw(rng *rand.Rand) Slot {
	total := d.Note + d.Hold + d.Rest
	r := rng.Float64() * total
	switch {
	case r < d.Note:
		return Note
	case r < d.Note+d.Hold:
		return Hold
	default:
		return Rest
	}
}

// Generator creates random genomes for a fixed length and scale size
type Generator struct {
	Length    int
	ScaleSize int
	Rhythm    RhythmDistribution
}

// New draws a genome: rhythm per slot from the distribution, pitch uniform
// over the scale, slot 0 forced to NOTE.
func (gen Generator) New(rng *rand.Rand) Genome {
	g := Genome{
		Rhythm: make([]Slot, gen.Length),
		Pitch:  make([]int, gen.Length),
	}
	for i := range g.Rhythm {
		g.Rhythm[i] = gen.Rhythm.Draw(rng)
		g.Pitch[i] = rng.IntN(gen.ScaleSize)
	}
	EnforceLeadingNote(g.Rhythm)
	return g
}

// EnforceLeadingNote makes slot 0 a NOTE in place
func EnforceLeadingNote(rhythm []Slot) {
	if len(rhythm) > 0 && rhythm[0] != Note {
		rhythm[0] = Note
	}
}

// Decode scans the genome left to right and emits note events.
// NOTE closes any open note and opens a new one, HOLD extends the open note
// (or passes silently when none is open), REST closes the open note.
func Decode(g Genome, sc scale.Scale) []Note {
	notes := make([]Note, 0, len(g.Rhythm))

	open := false
	var pitch, start, slots int

	closeNote := func() {
		if open {
			notes = append(notes, Note{
				Pitch:    pitch,
				Start:    float64(start) * SlotBeats,
				Duration: float64(slots) * SlotBeats,
			})
		}
		open = false
		slots = 0
	}

	for i, s := range g.Rhythm {
		switch s {
		case Note:
			closeNote()
			idx := 0
			if i < len(g.Pitch) {
				idx = g.Pitch[i]
			}
			pitch = sc.Pitch(idx)
			start = i
			slots = 1
			open = true
		case Hold:
			if open {
				slots++
			}
		case Rest:
			closeNote()
		}
	}
	closeNote()

	return notes
}

// Notes decodes the individual against a scale
func (ind Individual) Notes(sc scale.Scale) []Note {
	return Decode(ind.Genome, sc)
}
