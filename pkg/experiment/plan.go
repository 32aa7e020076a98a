// Package experiment runs sets of evolution trials that differ only in their
// fitness weights.
package experiment

import (
	"fmt"

	"github.com/james-see/melodyevolve/pkg/fitness"
)

// Trial is one run's weight configuration
type Trial struct {
	Name          string
	RhythmWeights fitness.Weights
	PitchWeights  fitness.Weights
}

// Plan is an ordered list of trials; Prefix names the output files
type Plan struct {
	Prefix string
	Trials []Trial
}

// Batch pairs every rhythm heuristic with every pitch heuristic, each
// weighted 1 with everything else off.
func Batch(reg fitness.Registry) Plan {
	rhythm, pitch := reg.Rhythm().Names(), reg.Pitch().Names()
	plan := Plan{Prefix: "batch", Trials: make([]Trial, 0, len(rhythm)*len(pitch))}
	for _, r := range rhythm {
		for _, p := range pitch {
			plan.Trials = append(plan.Trials, Trial{
				Name:          fmt.Sprintf("%s_%s", r, p),
				RhythmWeights: fitness.Only(r, 1),
				PitchWeights:  fitness.Only(p, 1),
			})
		}
	}
	return plan
}

// Ablation isolates each heuristic of the default blends: an all-zero
// baseline, each non-zero rhythm default alone, each non-zero pitch default
// alone, then the full defaults. Heuristics are taken in registry order.
func Ablation(reg fitness.Registry, rhythm, pitch fitness.Weights) Plan {
	rhythmOff := fitness.Zeroed(rhythm.Names()...)
	pitchOff := fitness.Zeroed(pitch.Names()...)

	plan := Plan{Prefix: "ablation"}
	plan.Trials = append(plan.Trials, Trial{
		Name:          "baseline_all_zero",
		RhythmWeights: rhythmOff,
		PitchWeights:  pitchOff,
	})

	for _, name := range reg.Rhythm().Names() {
		if rhythm.Get(name) == 0 {
			continue
		}
		plan.Trials = append(plan.Trials, Trial{
			Name:          "rhythm_only_" + name,
			RhythmWeights: rhythm.Isolate(name, 1),
			PitchWeights:  pitchOff,
		})
	}
	for _, name := range reg.Pitch().Names() {
		if pitch.Get(name) == 0 {
			continue
		}
		plan.Trials = append(plan.Trials, Trial{
			Name:          "pitch_only_" + name,
			RhythmWeights: rhythmOff,
			PitchWeights:  pitch.Isolate(name, 1),
		})
	}

	plan.Trials = append(plan.Trials, Trial{
		Name:          "full_combination",
		RhythmWeights: rhythm,
		PitchWeights:  pitch,
	})
	return plan
}

// Single wraps one weight pair as a plan
func Single(prefix, name string, rhythm, pitch fitness.Weights) Plan {
	return Plan{Prefix: prefix, Trials: []Trial{{Name: name, RhythmWeights: rhythm, PitchWeights: pitch}}}
}

// Filename returns the output file name of the i-th trial (zero based)
func (p Plan) Filename(i int) string {
	return fmt.Sprintf("%s_%02d_%s.mid", p.Prefix, i+1, p.Trials[i].Name)
}
