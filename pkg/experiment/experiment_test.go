package experiment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/james-see/melodyevolve/pkg/evolve"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/midi"
	"github.com/james-see/melodyevolve/pkg/scale"
	"github.com/james-see/melodyevolve/pkg/store"
)

func TestBatchPlan(t *testing.T) {
	reg := fitness.DefaultRegistry()
	plan := Batch(reg)

	want := len(reg.Rhythm().Names()) * len(reg.Pitch().Names())
	if len(plan.Trials) != want {
		t.Fatalf("Batch() has %d trials, want %d", len(plan.Trials), want)
	}

	first := plan.Trials[0]
	if first.Name != "basic_stepwise" {
		t.Errorf("first trial = %q, want basic_stepwise", first.Name)
	}
	if first.RhythmWeights.Len() != 1 || first.RhythmWeights.Get("basic") != 1 {
		t.Errorf("first rhythm weights = %v", first.RhythmWeights.Map())
	}
	if first.PitchWeights.Len() != 1 || first.PitchWeights.Get("stepwise") != 1 {
		t.Errorf("first pitch weights = %v", first.PitchWeights.Map())
	}

	seen := map[string]bool{}
	for _, tr := range plan.Trials {
		if seen[tr.Name] {
			t.Errorf("duplicate trial %q", tr.Name)
		}
		seen[tr.Name] = true
	}
}

func TestAblationPlan(t *testing.T) {
	plan := Ablation(fitness.DefaultRegistry(), fitness.DefaultRhythmWeights(), fitness.DefaultPitchWeights())

	names := []string{
		"baseline_all_zero",
		"rhythm_only_basic",
		"rhythm_only_legato",
		"rhythm_only_balanced",
		"pitch_only_stepwise",
		"pitch_only_arch",
		"pitch_only_end_tonic",
		"full_combination",
	}
	if len(plan.Trials) != len(names) {
		t.Fatalf("Ablation() has %d trials, want %d", len(plan.Trials), len(names))
	}
	for i, name := range names {
		if plan.Trials[i].Name != name {
			t.Errorf("trial %d = %q, want %q", i, plan.Trials[i].Name, name)
		}
	}

	baseline := plan.Trials[0]
	if baseline.RhythmWeights.Sum() != 0 || baseline.PitchWeights.Sum() != 0 {
		t.Errorf("baseline weights are not zero")
	}

	legato := plan.Trials[2]
	if legato.RhythmWeights.Get("legato") != 1 || legato.RhythmWeights.Get("basic") != 0 || legato.PitchWeights.Sum() != 0 {
		t.Errorf("rhythm_only_legato weights = %v / %v", legato.RhythmWeights.Map(), legato.PitchWeights.Map())
	}

	full := plan.Trials[7]
	if full.RhythmWeights.Get("basic") != 1.5 || full.PitchWeights.Get("stepwise") != 2.0 {
		t.Errorf("full_combination weights = %v / %v", full.RhythmWeights.Map(), full.PitchWeights.Map())
	}

	if got := plan.Filename(0); got != "ablation_01_baseline_all_zero.mid" {
		t.Errorf("Filename(0) = %q", got)
	}
	if got := plan.Filename(7); got != "ablation_08_full_combination.mid" {
		t.Errorf("Filename(7) = %q", got)
	}
}

func testRunner(t *testing.T, dir string) *Runner {
	t.Helper()
	sc, err := scale.Lookup("D_major")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	cfg := evolve.DefaultConfig()
	cfg.PopulationSize = 12
	cfg.Generations = 4
	cfg.Seed = 5
	cfg.ReportInterval = 0

	return &Runner{
		Config:    cfg,
		ScaleName: "D_major",
		Scale:     sc,
		Registry:  fitness.DefaultRegistry(),
		Writer:    midi.NewWriter(),
		Store:     store.NewMemory(),
		OutDir:    dir,
		Logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestRunnerRun(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")
	r := testRunner(t, dir)

	var progress []int
	r.Progress = func(index, total int, _ Outcome) {
		progress = append(progress, index)
		if total != 8 {
			t.Errorf("Progress total = %d, want 8", total)
		}
	}

	plan := Ablation(r.Registry, fitness.DefaultRhythmWeights(), fitness.DefaultPitchWeights())
	outcomes, err := r.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(outcomes) != 8 || len(progress) != 8 {
		t.Fatalf("got %d outcomes and %d progress calls, want 8", len(outcomes), len(progress))
	}

	for i, out := range outcomes {
		want := filepath.Join(dir, plan.Filename(i))
		if out.Path != want {
			t.Errorf("outcome %d path = %q, want %q", i, out.Path, want)
		}
		sum, err := midi.ReadFile(out.Path)
		if err != nil {
			t.Fatalf("ReadFile(%s) error = %v", out.Path, err)
		}
		if len(sum.Notes) != len(out.Run.Notes) {
			t.Errorf("%s has %d notes, run has %d", out.Path, len(sum.Notes), len(out.Run.Notes))
		}
	}

	if baseline := outcomes[0].Run; baseline.BestFitness != 0 {
		t.Errorf("baseline best fitness = %v, want 0", baseline.BestFitness)
	}

	runs, err := r.Store.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(runs) != 8 {
		t.Errorf("stored %d runs, want 8", len(runs))
	}

	n, err := CountMIDI(dir)
	if err != nil || n != 8 {
		t.Errorf("CountMIDI() = %d, %v; want 8", n, err)
	}
}

func TestRunnerErrors(t *testing.T) {
	r := testRunner(t, t.TempDir())

	if _, err := r.Run(context.Background(), Plan{Prefix: "x"}); err == nil {
		t.Error("Run() expected error for an empty plan")
	}

	bad := Single("x", "bad", fitness.Only("swing", 1), fitness.DefaultPitchWeights())
	if _, err := r.Run(context.Background(), bad); !errors.Is(err, fitness.ErrUnknownHeuristic) {
		t.Errorf("Run() error = %v, want ErrUnknownHeuristic", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := Single("x", "ok", fitness.DefaultRhythmWeights(), fitness.DefaultPitchWeights())
	if _, err := r.Run(ctx, plan); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestClean(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "results")

	n, err := Clean(dir)
	if err != nil || n != 0 {
		t.Errorf("Clean(missing) = %d, %v", n, err)
	}
	if _, err := os.Stat(dir); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Clean(missing) created the directory")
	}

	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"a.mid", "b.mid", "notes.txt", filepath.Join("sub", "c.mid")} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	if n, err := CountMIDI(dir); err != nil || n != 2 {
		t.Errorf("CountMIDI() = %d, %v, want 2", n, err)
	}

	n, err = Clean(dir)
	if err != nil {
		t.Fatalf("Clean() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Clean() = %d, want 2", n)
	}

	for _, name := range []string{"a.mid", "b.mid"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !errors.Is(err, os.ErrNotExist) {
			t.Errorf("%s still present after Clean()", name)
		}
	}
	for _, name := range []string{"notes.txt", "sub", filepath.Join("sub", "c.mid")} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Clean() removed %s: %v", name, err)
		}
	}
}
