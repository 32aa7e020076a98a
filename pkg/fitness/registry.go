package fitness

import (
	"errors"
	"fmt"
)

// ErrUnknownHeuristic is returned when a weight names no registered heuristic
var ErrUnknownHeuristic = errors.New("unknown heuristic")

// Kind separates heuristics scoring the rhythm track from the pitch track
type Kind string

const (
	KindRhythm Kind = "rhythm"
	KindPitch  Kind = "pitch"
)

// Entry is a registered heuristic
type Entry struct {
	Name        string
	Description string
	Heuristic   Heuristic
}

// Catalogue is an ordered set of heuristics of one kind
type Catalogue struct {
	Kind    Kind
	Entries []Entry
}

// Names returns the heuristic names in registration order
func (c Catalogue) Names() []string {
	names := make([]string, len(c.Entries))
	for i, e := range c.Entries {
		names[i] = e.Name
	}
	return names
}

// Lookup finds a heuristic by name
func (c Catalogue) Lookup(name string) (Entry, error) {
	for _, e := range c.Entries {
		if e.Name == name {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s %q", ErrUnknownHeuristic, c.Kind, name)
}

// Compose builds the weighted sum of the catalogue's heuristics.
// Terms with weight 0 are skipped and never invoked.
func (c Catalogue) Compose(w Weights) (Func, error) {
	type term struct {
		weight float64
		h      Heuristic
	}

	var terms []term
	for _, name := range w.Names() {
		e, err := c.Lookup(name)
		if err != nil {
			return nil, err
		}
		if weight := w.Get(name); weight != 0 {
			terms = append(terms, term{weight: weight, h: e.Heuristic})
		}
	}

	return func(m Melody) (float64, error) {
		total := 0.0
		for _, t := range terms {
			total += t.weight * t.h(m)
		}
		return total, nil
	}, nil
}

// Validate checks that every weight names a heuristic in the catalogue
func (c Catalogue) Validate(w Weights) error {
	for _, name := range w.Names() {
		if _, err := c.Lookup(name); err != nil {
			return err
		}
	}
	return nil
}

// Registry holds the rhythm and pitch catalogues
type Registry struct {
	rhythm Catalogue
	pitch  Catalogue
}

// Rhythm returns the rhythm catalogue
func (r Registry) Rhythm() Catalogue {
	return r.rhythm
}

// Pitch returns the pitch catalogue
func (r Registry) Pitch() Catalogue {
	return r.pitch
}

// Catalogue returns the catalogue for a kind
func (r Registry) Catalogue(kind Kind) (Catalogue, error) {
	switch kind {
	case KindRhythm:
		return r.rhythm, nil
	case KindPitch:
		return r.pitch, nil
	default:
		return Catalogue{}, fmt.Errorf("unknown heuristic kind %q", kind)
	}
}

// DefaultRegistry returns every built-in heuristic
func DefaultRegistry() Registry {
	return Registry{
		rhythm: Catalogue{Kind: KindRhythm, Entries: []Entry{
			{"basic", "balanced counts of onsets, rests and holds", RhythmBasic},
			{"active", "dense onsets, few rests", RhythmActive},
			{"legato", "long connected notes", RhythmLegato},
			{"syncopated", "onsets off the beat, rests on it", RhythmSyncopated},
			{"balanced", "close to a 40/30/30 mix with alternation", RhythmBalanced},
			{"sparse", "many well-spread rests", RhythmSparse},
			{"march", "strong beats sounded, repeated bar figure", RhythmMarch},
			{"varied", "many distinct short figures", RhythmVaried},
		}},
		pitch: Catalogue{Kind: KindPitch, Entries: []Entry{
			{"stepwise", "small intervals", PitchStepwise},
			{"leap", "large intervals", PitchLeap},
			{"arch", "rise to the midpoint, fall after", PitchArch},
			{"wave", "two to four turning points", PitchWave},
			{"narrow_range", "span within a fourth", PitchNarrowRange},
			{"wide_range", "span of an octave or more", PitchWideRange},
			{"end_tonic", "final degree on tonic, third or fifth", PitchEndTonic},
			{"avoid_repetition", "no repeated consecutive pitches", PitchAvoidRepetition},
			{"variety", "five or more distinct degrees", PitchVariety},
			{"ascending", "upward overall direction", PitchAscending},
			{"descending", "downward overall direction", PitchDescending},
			{"center_focus", "circles a frequent triad degree", PitchCenterFocus},
			{"pentatonic_feel", "favours pentatonic degrees", PitchPentatonicFeel},
		}},
	}
}
