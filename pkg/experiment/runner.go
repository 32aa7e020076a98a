package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/james-see/melodyevolve/pkg/evolve"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/midi"
	"github.com/james-see/melodyevolve/pkg/scale"
	"github.com/james-see/melodyevolve/pkg/store"
)

// Outcome is the result of one trial
type Outcome struct {
	Trial Trial
	Path  string
	Run   store.Run
}

// Runner executes plans trial by trial against one configuration and scale
type Runner struct {
	Config    evolve.Config
	ScaleName string
	Scale     scale.Scale
	Registry  fitness.Registry
	Writer    *midi.Writer
	// Store is optional; every finished trial is saved when set
	Store  store.Store
	OutDir string
	Logger *slog.Logger
	// Progress is called after each trial with its index and the plan size
	Progress func(index, total int, out Outcome)
}

// Run executes the plan sequentially and writes one MIDI file per trial.
// The first failure stops the plan; outcomes finished so far are returned.
func (r *Runner) Run(ctx context.Context, plan Plan) ([]Outcome, error) {
	if len(plan.Trials) == 0 {
		return nil, errors.New("experiment: empty plan")
	}
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	writer := r.Writer
	if writer == nil {
		writer = midi.NewWriter()
	}

	outcomes := make([]Outcome, 0, len(plan.Trials))
	for i, trial := range plan.Trials {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}

		out, err := r.runTrial(ctx, logger, writer, plan, i)
		if err != nil {
			return outcomes, fmt.Errorf("trial %s: %w", trial.Name, err)
		}
		outcomes = append(outcomes, out)
		if r.Progress != nil {
			r.Progress(i, len(plan.Trials), out)
		}
	}
	return outcomes, nil
}

func (r *Runner) runTrial(ctx context.Context, logger *slog.Logger, writer *midi.Writer, plan Plan, i int) (Outcome, error) {
	trial := plan.Trials[i]
	rhythmFn, err := r.Registry.Rhythm().Compose(trial.RhythmWeights)
	if err != nil {
		return Outcome{}, err
	}
	pitchFn, err := r.Registry.Pitch().Compose(trial.PitchWeights)
	if err != nil {
		return Outcome{}, err
	}

	engine, err := evolve.New(r.Config, r.Scale, rhythmFn, pitchFn,
		evolve.WithLogger(logger.With("trial", trial.Name)))
	if err != nil {
		return Outcome{}, err
	}
	res, err := engine.Run(ctx)
	if err != nil {
		return Outcome{}, err
	}

	path := filepath.Join(r.OutDir, plan.Filename(i))
	if err := writer.WriteFile(path, res.Notes); err != nil {
		return Outcome{}, err
	}

	run := store.NewRun(plan.Prefix+"/"+trial.Name, r.ScaleName, res, engine.Config(),
		trial.RhythmWeights.Map(), trial.PitchWeights.Map())
	run.MIDIPath = path
	if r.Store != nil {
		if err := r.Store.Put(ctx, run); err != nil {
			return Outcome{}, fmt.Errorf("store run: %w", err)
		}
	}

	logger.Info("trial finished", "trial", trial.Name, "best", run.BestFitness, "path", path)
	return Outcome{Trial: trial, Path: path, Run: run}, nil
}

// CountMIDI returns the number of .mid files in dir; a missing dir holds none
func CountMIDI(dir string) (int, error) {
	files, err := midiFiles(dir)
	return len(files), err
}

func midiFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.Type().IsRegular() && strings.HasSuffix(e.Name(), ".mid") {
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	return files, nil
}

// Clean removes the .mid files directly inside dir and returns how many
// were removed. Other files and subdirectories are left in place; a missing
// directory is not an error.
func Clean(dir string) (int, error) {
	files, err := midiFiles(dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, path := range files {
		if err := os.Remove(path); err != nil {
			return removed, fmt.Errorf("remove %s: %w", path, err)
		}
		removed++
	}
	return removed, nil
}
