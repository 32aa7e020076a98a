// Package fitness provides the melody view handed to fitness heuristics,
// the heuristics themselves and weighted composition.
package fitness

import (
	"errors"
	"fmt"
	"math"

	"github.com/james-see/melodyevolve/pkg/genome"
)

// ErrNonFinite is reported when a function returns NaN or an infinity
var ErrNonFinite = errors.New("non-finite fitness score")

// Melody is the read-only view a fitness function receives
type Melody struct {
	Notes  []genome.Note
	Rhythm []genome.Slot
	Pitch  []int
}

// NewMelody builds the view; the slices are copied so a function cannot
// reach back into the genome.
func NewMelody(notes []genome.Note, g genome.Genome) Melody {
	return Melody{
		Notes:  append([]genome.Note(nil), notes...),
		Rhythm: append([]genome.Slot(nil), g.Rhythm...),
		Pitch:  append([]int(nil), g.Pitch...),
	}
}

// Pitches returns the MIDI pitch of each decoded note
func (m Melody) Pitches() []int {
	out := make([]int, len(m.Notes))
	for i, n := range m.Notes {
		out[i] = n.Pitch
	}
	return out
}

// Func scores a melody; higher is better and the range is unbounded
type Func func(Melody) (float64, error)

// Heuristic is a scoring rule that cannot fail
type Heuristic func(Melody) float64

// Func adapts the heuristic to the fallible signature
func (h Heuristic) Func() Func {
	return func(m Melody) (float64, error) {
		return h(m), nil
	}
}

// Result is the outcome of one evaluation
type Result struct {
	Score float64
	Err   error
}

// OK reports whether the evaluation succeeded
func (r Result) OK() bool {
	return r.Err == nil
}

// Value returns the score, or 0 for a failed evaluation
func (r Result) Value() float64 {
	if r.Err != nil {
		return 0
	}
	return r.Score
}

// Evaluate runs fn against m, turning a returned error, a panic or a
// non-finite score into a failed Result.
func Evaluate(fn Func, m Melody) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = Result{Err: fmt.Errorf("fitness function panicked: %v", p)}
		}
	}()

	score, err := fn(m)
	if err != nil {
		return Result{Err: err}
	}
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return Result{Err: fmt.Errorf("%w: %v", ErrNonFinite, score)}
	}
	return Result{Score: score}
}
