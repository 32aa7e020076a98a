// Package genome provides the dual-track melody genome and its codec
package genome

// Slot is a rhythm-track value
type Slot int

// Rhythm slot states
const (
	Rest Slot = 0 // silence
	Note Slot = 1 // onset of a new note
	Hold Slot = 2 // sustain the open note
)

// SlotBeats is the length of one slot (an eighth note) in beats
const SlotBeats = 0.5

// String returns a short symbol for the slot
func (s Slot) String() string {
	switch s {
	case Rest:
		return "rest"
	case Note:
		return "note"
	case Hold:
		return "hold"
	default:
		return "invalid"
	}
}

// Note is a decoded note event, times in beats
type Note struct {
	Pitch    int     `json:"pitch" msgpack:"pitch"`
	Start    float64 `json:"start" msgpack:"start"`
	Duration float64 `json:"duration" msgpack:"duration"`
}

// Genome holds the rhythm and pitch tracks, always of equal length
type Genome struct {
	Rhythm []Slot `json:"rhythm" msgpack:"rhythm"`
	Pitch  []int  `json:"pitch" msgpack:"pitch"`
}

// Len returns the slot count
func (g Genome) Len() int {
	return len(g.Rhythm)
}

// Clone returns a deep copy of both tracks
func (g Genome) Clone() Genome {
	return Genome{
		Rhythm: append([]Slot(nil), g.Rhythm...),
		Pitch:  append([]int(nil), g.Pitch...),
	}
}

// Individual is a genome plus the fitness cached for the current generation
type Individual struct {
	Genome
	RhythmFitness float64 `json:"rhythm_fitness"`
	PitchFitness  float64 `json:"pitch_fitness"`
	Fitness       float64 `json:"fitness"`
}

// NewIndividual wraps a genome with zeroed fitness
func NewIndividual(g Genome) Individual {
	return Individual{Genome: g}
}

// Clone deep-copies the genome; cached fitness is carried along
func (ind Individual) Clone() Individual {
	out := ind
	out.Genome = ind.Genome.Clone()
	return out
}

// SetFitness stores both sub-scores and their sum
func (ind *Individual) SetFitness(rhythm, pitch float64) {
	ind.RhythmFitness = rhythm
	ind.PitchFitness = pitch
	ind.Fitness = rhythm + pitch
}

// Counts tallies NOTE, HOLD and REST slots
func Counts(rhythm []Slot) (notes, holds, rests int) {
	for _, s := range rhythm {
		switch s {
		case Note:
			notes++
		case Hold:
			holds++
		case Rest:
			rests++
		}
	}
	return notes, holds, rests
}

// TotalBeats returns the musical length of a genome with n slots
func TotalBeats(n int) float64 {
	return float64(n) * SlotBeats
}
