package fitness

import (
	"errors"
	"math"
	"testing"

	"github.com/james-see/melodyevolve/pkg/genome"
)

func melodyOf(pitches ...int) Melody {
	m := Melody{}
	for i, p := range pitches {
		m.Notes = append(m.Notes, genome.Note{Pitch: p, Start: float64(i) * 0.5, Duration: 0.5})
		m.Rhythm = append(m.Rhythm, genome.Note)
		m.Pitch = append(m.Pitch, 0)
	}
	return m
}

func TestEvaluate(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name  string
		fn    Func
		ok    bool
		value float64
	}{
		{"score", func(Melody) (float64, error) { return 42, nil }, true, 42},
		{"negative score", func(Melody) (float64, error) { return -3, nil }, true, -3},
		{"error", func(Melody) (float64, error) { return 10, boom }, false, 0},
		{"panic", func(Melody) (float64, error) { panic("bad heuristic") }, false, 0},
		{"nan", func(Melody) (float64, error) { return math.NaN(), nil }, false, 0},
		{"inf", func(Melody) (float64, error) { return math.Inf(1), nil }, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Evaluate(tt.fn, Melody{})
			if res.OK() != tt.ok {
				t.Errorf("OK() = %v, want %v (err=%v)", res.OK(), tt.ok, res.Err)
			}
			if res.Value() != tt.value {
				t.Errorf("Value() = %v, want %v", res.Value(), tt.value)
			}
		})
	}
}

func TestHeuristicsTolerateEmptyMelody(t *testing.T) {
	reg := DefaultRegistry()
	for _, cat := range []Catalogue{reg.Rhythm(), reg.Pitch()} {
		for _, e := range cat.Entries {
			t.Run(string(cat.Kind)+"/"+e.Name, func(t *testing.T) {
				res := Evaluate(e.Heuristic.Func(), Melody{})
				if !res.OK() {
					t.Fatalf("Evaluate() error = %v", res.Err)
				}
				if res.Value() != 0 {
					t.Errorf("empty melody score = %v, want 0", res.Value())
				}
			})
		}
	}
}

func TestPitchHeuristics(t *testing.T) {
	tests := []struct {
		name     string
		h        Heuristic
		melody   Melody
		expected float64
	}{
		{"stepwise steps", PitchStepwise, melodyOf(60, 62, 64), 40},
		{"stepwise leap", PitchStepwise, melodyOf(60, 67), -10},
		{"leap", PitchLeap, melodyOf(60, 67, 70, 71), 25 + 10 - 5},
		{"arch too short", PitchArch, melodyOf(60, 62, 64), 0},
		{"arch peak", PitchArch, melodyOf(60, 64, 67, 64, 60), 15 + 15 + 15 + 50},
		{"wave", PitchWave, melodyOf(60, 64, 60, 64, 60), 100},
		{"narrow", PitchNarrowRange, melodyOf(60, 62, 65), 100},
		{"wide", PitchWideRange, melodyOf(60, 72), 100},
		{"wide penalty", PitchWideRange, melodyOf(60, 62), -50},
		{"repetition", PitchAvoidRepetition, melodyOf(60, 60, 62), -15 + 5},
		{"ascending", PitchAscending, melodyOf(60, 62, 64), 50 + 30},
		{"descending", PitchDescending, melodyOf(64, 62, 60), 50 + 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h(tt.melody); got != tt.expected {
				t.Errorf("score = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPitchGeneHeuristics(t *testing.T) {
	m := melodyOf(60, 62, 64, 65)
	m.Pitch = []int{1, 1, 1, 0}
	if got := PitchEndTonic(m); got != 100 {
		t.Errorf("PitchEndTonic() = %v, want 100", got)
	}
	m.Pitch = []int{0, 0, 0, 3}
	if got := PitchEndTonic(m); got != -20 {
		t.Errorf("PitchEndTonic() = %v, want -20", got)
	}

	m.Pitch = []int{0, 1, 2, 3, 4, 5}
	if got := PitchVariety(m); got != 100 {
		t.Errorf("PitchVariety() = %v, want 100", got)
	}

	m.Pitch = []int{1, 2, 2, 1, 2, 1, 2, 1}
	// 1 and 2 both appear four times; the earlier degree wins, which is not a triad degree
	if got := PitchCenterFocus(m); got != 60 {
		t.Errorf("PitchCenterFocus() = %v, want 60", got)
	}

	m.Pitch = []int{0, 6, 6}
	if got := PitchPentatonicFeel(m); got != 10-30 {
		t.Errorf("PitchPentatonicFeel() = %v, want -20", got)
	}
}

func TestRhythmHeuristics(t *testing.T) {
	n, h, r := genome.Note, genome.Hold, genome.Rest
	bar := []genome.Slot{n, h, r, n}

	tests := []struct {
		name     string
		h        Heuristic
		rhythm   []genome.Slot
		expected float64
	}{
		{"basic", RhythmBasic, []genome.Slot{n, h, h, r, n, r, n, n, h, r, r, n}, 50 + 30 + 20},
		{"active", RhythmActive, []genome.Slot{n, n, r}, 30 - 10 + 5},
		{"legato", RhythmLegato, []genome.Slot{n, h, h, n}, 40 + 50 - 0},
		{"syncopated", RhythmSyncopated, []genome.Slot{r, n, h, h}, 15 + 10},
		{"march repeated", RhythmMarch, append(append([]genome.Slot{}, bar...), bar...), 30 + 30 + 40},
		{"varied run", RhythmVaried, []genome.Slot{n, n, n, n}, 10 + 8 - 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h(Melody{Rhythm: tt.rhythm}); got != tt.expected {
				t.Errorf("score = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestNewMelodyCopies(t *testing.T) {
	g := genome.Genome{Rhythm: []genome.Slot{genome.Note}, Pitch: []int{3}}
	m := NewMelody(nil, g)
	m.Rhythm[0] = genome.Rest
	m.Pitch[0] = 0
	if g.Rhythm[0] != genome.Note || g.Pitch[0] != 3 {
		t.Error("NewMelody() shares gene arrays with the genome")
	}
}
