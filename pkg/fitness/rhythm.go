package fitness

import (
	"math"
	"slices"

	"github.com/james-see/melodyevolve/pkg/genome"
)

// beatSlots is the number of slots between strong beats
const beatSlots = 4

// RhythmBasic rewards a balanced count of onsets, rests and holds
func RhythmBasic(m Melody) float64 {
	notes, holds, rests := genome.Counts(m.Rhythm)
	score := 0.0
	if notes >= 4 && notes <= 8 {
		score += 50
	}
	if rests >= 2 && rests <= 5 {
		score += 30
	}
	if holds >= 2 {
		score += 20
	}
	return score
}

// RhythmActive rewards dense onsets and runs of consecutive notes
func RhythmActive(m Melody) float64 {
	notes, _, rests := genome.Counts(m.Rhythm)
	score := float64(notes)*15 - float64(rests)*10

	for i := 0; i+1 < len(m.Rhythm); i++ {
		if m.Rhythm[i] == genome.Note && m.Rhythm[i+1] == genome.Note {
			score += 5
		}
	}
	return score
}

// RhythmLegato rewards long notes and penalises fragments
func RhythmLegato(m Melody) float64 {
	notes, holds, _ := genome.Counts(m.Rhythm)
	score := float64(holds) * 20

	if notes > 0 {
		avg := float64(notes+holds) / float64(notes)
		if avg >= 2 {
			score += 50
		}
	}

	for i := 0; i+1 < len(m.Rhythm); i++ {
		if m.Rhythm[i] == genome.Note && m.Rhythm[i+1] != genome.Hold {
			score -= 5
		}
	}
	return score
}

// RhythmSyncopated rewards onsets off the beat and rests on it
func RhythmSyncopated(m Melody) float64 {
	score := 0.0
	for i, s := range m.Rhythm {
		strong := i%beatSlots == 0
		switch {
		case !strong && s == genome.Note:
			score += 10
		case strong && s == genome.Rest:
			score += 15
		}
	}
	return score
}

// RhythmBalanced scores closeness to a 40/30/30 mix plus alternation
func RhythmBalanced(m Melody) float64 {
	notes, holds, rests := genome.Counts(m.Rhythm)
	total := float64(len(m.Rhythm))

	score := 0.0
	score -= math.Abs(float64(notes)-total*0.4) * 5
	score -= math.Abs(float64(holds)-total*0.3) * 3
	score -= math.Abs(float64(rests)-total*0.3) * 3

	for i := 0; i+1 < len(m.Rhythm); i++ {
		if m.Rhythm[i] != m.Rhythm[i+1] {
			score += 2
		}
	}
	return score
}

// RhythmSparse rewards rests, spread out, and few onsets
func RhythmSparse(m Melody) float64 {
	notes, _, rests := genome.Counts(m.Rhythm)
	score := float64(rests) * 15
	if notes > 6 {
		score -= float64(notes-6) * 10
	}

	var positions []int
	for i, s := range m.Rhythm {
		if s == genome.Rest {
			positions = append(positions, i)
		}
	}
	if len(positions) >= 2 {
		span := positions[len(positions)-1] - positions[0]
		avgGap := float64(span) / float64(len(positions)-1)
		if avgGap >= 3 {
			score += 30
		}
	}
	return score
}

// RhythmMarch rewards sounding strong beats and a repeated bar pattern
func RhythmMarch(m Melody) float64 {
	score := 0.0
	for i := 0; i < len(m.Rhythm); i += beatSlots {
		switch m.Rhythm[i] {
		case genome.Note:
			score += 30
		case genome.Hold:
			score += 15
		}
	}

	var groups [][]genome.Slot
	for i := 0; i+beatSlots <= len(m.Rhythm); i += beatSlots {
		groups = append(groups, m.Rhythm[i:i+beatSlots])
	}
	for i := 0; i+1 < len(groups); i++ {
		if slices.Equal(groups[i], groups[i+1]) {
			score += 40
			break
		}
	}
	return score
}

// RhythmVaried rewards distinct 2- and 3-slot figures and punishes long runs
func RhythmVaried(m Melody) float64 {
	r := m.Rhythm
	pairs := make(map[[2]genome.Slot]struct{})
	for i := 0; i+1 < len(r); i++ {
		pairs[[2]genome.Slot{r[i], r[i+1]}] = struct{}{}
	}
	triplets := make(map[[3]genome.Slot]struct{})
	for i := 0; i+2 < len(r); i++ {
		triplets[[3]genome.Slot{r[i], r[i+1], r[i+2]}] = struct{}{}
	}

	score := float64(len(pairs))*10 + float64(len(triplets))*8
	for i := 0; i+3 < len(r); i++ {
		if r[i] == r[i+1] && r[i+1] == r[i+2] && r[i+2] == r[i+3] {
			score -= 20
		}
	}
	return score
}
