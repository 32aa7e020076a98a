package evolve

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/james-see/melodyevolve/pkg/genome"
)

// GenerationStats summarises one ranked generation
type GenerationStats struct {
	Generation int     `json:"generation" msgpack:"generation"`
	Best       float64 `json:"best" msgpack:"best"`
	Worst      float64 `json:"worst" msgpack:"worst"`
	Mean       float64 `json:"mean" msgpack:"mean"`
	StdDev     float64 `json:"std_dev" msgpack:"std_dev"`
	BestRhythm float64 `json:"best_rhythm" msgpack:"best_rhythm"`
	BestPitch  float64 `json:"best_pitch" msgpack:"best_pitch"`
	Faults     int     `json:"faults" msgpack:"faults"`
	Population int     `json:"population" msgpack:"population"`
}

// summarize expects ranked to be sorted best first
func summarize(generation int, ranked []genome.Individual, faults int) GenerationStats {
	values := make([]float64, len(ranked))
	for i, ind := range ranked {
		values[i] = ind.Fitness
	}

	s := GenerationStats{
		Generation: generation,
		Faults:     faults,
		Population: len(ranked),
	}
	if len(values) == 0 {
		return s
	}

	s.Best = floats.Max(values)
	s.Worst = floats.Min(values)
	if len(values) > 1 {
		s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	} else {
		s.Mean = values[0]
	}
	s.BestRhythm = ranked[0].RhythmFitness
	s.BestPitch = ranked[0].PitchFitness
	return s
}
