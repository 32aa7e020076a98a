package evolve

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"reflect"
	"testing"

	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/genome"
	"github.com/james-see/melodyevolve/pkg/scale"
)

func quiet() Option {
	return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.PopulationSize = 20
	cfg.Generations = 15
	cfg.Workers = 4
	cfg.Seed = 42
	cfg.ReportInterval = 0
	return cfg
}

func cMajor(t *testing.T) scale.Scale {
	t.Helper()
	sc, err := scale.Lookup("C_major")
	if err != nil {
		t.Fatalf("Lookup() error = %v", err)
	}
	return sc
}

func defaultFuncs(t *testing.T) (fitness.Func, fitness.Func) {
	t.Helper()
	reg := fitness.DefaultRegistry()
	r, err := reg.Rhythm().Compose(fitness.DefaultRhythmWeights())
	if err != nil {
		t.Fatalf("Compose(rhythm) error = %v", err)
	}
	p, err := reg.Pitch().Compose(fitness.DefaultPitchWeights())
	if err != nil {
		t.Fatalf("Compose(pitch) error = %v", err)
	}
	return r, p
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short genome", func(c *Config) { c.GenomeLength = 1 }},
		{"empty population", func(c *Config) { c.PopulationSize = 0 }},
		{"no generations", func(c *Config) { c.Generations = 0 }},
		{"negative elites", func(c *Config) { c.EliteCount = -1 }},
		{"elites fill population", func(c *Config) { c.EliteCount = c.PopulationSize }},
		{"crossover above one", func(c *Config) { c.CrossoverRate = 1.5 }},
		{"negative mutation", func(c *Config) { c.MutationRate = -0.1 }},
		{"nan transform", func(c *Config) { c.TransformRate = math.NaN() }},
		{"negative workers", func(c *Config) { c.Workers = -2 }},
		{"negative report interval", func(c *Config) { c.ReportInterval = -1 }},
		{"zero rhythm distribution", func(c *Config) { c.Rhythm = genome.RhythmDistribution{} }},
		{"negative rhythm weight", func(c *Config) { c.Rhythm.Hold = -1 }},
	}

	if err := DefaultConfig().Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() error = %v", err)
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() error = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestNewRejectsBadInputs(t *testing.T) {
	r, p := defaultFuncs(t)
	sc := cMajor(t)

	tests := []struct {
		name    string
		sc      scale.Scale
		r, p    fitness.Func
		wantErr error
	}{
		{"empty scale", scale.Scale{}, r, p, scale.ErrInvalidScale},
		{"unsorted scale", scale.Scale{64, 60}, r, p, scale.ErrInvalidScale},
		{"nil rhythm", sc, nil, p, ErrInvalidConfig},
		{"nil pitch", sc, r, nil, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(testConfig(), tt.sc, tt.r, tt.p, quiet())
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRunPopulationSize(t *testing.T) {
	r, p := defaultFuncs(t)

	tests := []struct {
		name        string
		size, elite int
	}{
		{"odd remainder", 21, 2},
		{"even remainder", 20, 2},
		{"no elites", 7, 0},
		{"single child slot", 4, 3},
		{"single individual", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.PopulationSize = tt.size
			cfg.EliteCount = tt.elite

			var seen []int
			e, err := New(cfg, cMajor(t), r, p, quiet(), WithObserver(func(s GenerationStats) {
				seen = append(seen, s.Population)
			}))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			res, err := e.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if len(seen) != cfg.Generations {
				t.Fatalf("observer called %d times, want %d", len(seen), cfg.Generations)
			}
			for gen, n := range seen {
				if n != tt.size {
					t.Errorf("generation %d population = %d, want %d", gen, n, tt.size)
				}
			}
			if len(res.Population) != tt.size {
				t.Errorf("final population = %d, want %d", len(res.Population), tt.size)
			}
		})
	}
}

func TestRunRankedAndMonotonic(t *testing.T) {
	r, p := defaultFuncs(t)
	cfg := testConfig()
	cfg.Generations = 40

	e, err := New(cfg, cMajor(t), r, p, quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for i, ind := range res.Population {
		if ind.Fitness > res.Best.Fitness {
			t.Errorf("individual %d fitness %v exceeds best %v", i, ind.Fitness, res.Best.Fitness)
		}
		if i > 0 && ind.Fitness > res.Population[i-1].Fitness {
			t.Errorf("population not sorted at %d", i)
		}
		if got := ind.RhythmFitness + ind.PitchFitness; math.Abs(got-ind.Fitness) > 1e-9 {
			t.Errorf("individual %d fitness %v != rhythm+pitch %v", i, ind.Fitness, got)
		}
	}

	// elites carry the best genome forward and fitness is deterministic
	for i := 1; i < len(res.History); i++ {
		if res.History[i].Best < res.History[i-1].Best {
			t.Errorf("best fell from %v to %v at generation %d", res.History[i-1].Best, res.History[i].Best, i)
		}
	}

	if !reflect.DeepEqual(res.Notes, genome.Decode(res.Best.Genome, cMajor(t))) {
		t.Errorf("Result.Notes does not match the decoded best genome")
	}
}

func TestRunGenomeInvariants(t *testing.T) {
	r, p := defaultFuncs(t)
	cfg := testConfig()
	cfg.MutationRate = 0.5
	cfg.TransformRate = 0.5
	sc := cMajor(t)

	e, err := New(cfg, sc, r, p, quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for i, ind := range res.Population {
		if len(ind.Rhythm) != cfg.GenomeLength || len(ind.Pitch) != cfg.GenomeLength {
			t.Fatalf("individual %d has lengths %d/%d", i, len(ind.Rhythm), len(ind.Pitch))
		}
		if ind.Rhythm[0] != genome.Note {
			t.Errorf("individual %d slot 0 = %v, want NOTE", i, ind.Rhythm[0])
		}
		for j, idx := range ind.Pitch {
			if idx < 0 || idx >= sc.Size() {
				t.Errorf("individual %d pitch %d index %d out of range", i, j, idx)
			}
		}
	}
}

func TestRunFaultIsolation(t *testing.T) {
	failing := func(fitness.Melody) (float64, error) {
		return 0, errors.New("boom")
	}
	panicking := func(fitness.Melody) (float64, error) {
		panic("bad heuristic")
	}
	nan := func(fitness.Melody) (float64, error) {
		return math.NaN(), nil
	}
	ok := fitness.Heuristic(fitness.PitchStepwise).Func()

	tests := []struct {
		name string
		r, p fitness.Func
	}{
		{"error", failing, ok},
		{"panic", ok, panicking},
		{"nan", nan, nan},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.Generations = 5

			e, err := New(cfg, cMajor(t), tt.r, tt.p, quiet())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			res, err := e.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if len(res.History) != cfg.Generations {
				t.Errorf("history has %d generations, want %d", len(res.History), cfg.Generations)
			}
			if want := cfg.Generations * cfg.PopulationSize; res.Faults != want {
				t.Errorf("Faults = %d, want %d", res.Faults, want)
			}
			for i, ind := range res.Population {
				if ind.Fitness != 0 || ind.RhythmFitness != 0 || ind.PitchFitness != 0 {
					t.Errorf("individual %d fitness = %v/%v/%v, want zeros",
						i, ind.Fitness, ind.RhythmFitness, ind.PitchFitness)
				}
			}
		})
	}
}

func TestRunDeterministicAcrossWorkers(t *testing.T) {
	r, p := defaultFuncs(t)
	sc := cMajor(t)

	run := func(workers int) Result {
		cfg := testConfig()
		cfg.Workers = workers
		e, err := New(cfg, sc, r, p, quiet())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		res, err := e.Run(context.Background())
		if err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return res
	}

	single := run(1)
	for _, workers := range []int{2, 8} {
		got := run(workers)
		if !reflect.DeepEqual(got.Best.Genome, single.Best.Genome) {
			t.Errorf("workers=%d best genome differs from workers=1", workers)
		}
		if !reflect.DeepEqual(got.History, single.History) {
			t.Errorf("workers=%d history differs from workers=1", workers)
		}
	}
}

func TestRunSingleGeneration(t *testing.T) {
	r, p := defaultFuncs(t)
	cfg := testConfig()
	cfg.Generations = 1

	calls := 0
	e, err := New(cfg, cMajor(t), r, p, quiet(), WithObserver(func(GenerationStats) { calls++ }))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := e.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if calls != 1 || len(res.History) != 1 {
		t.Errorf("got %d observer calls and %d history entries, want 1", calls, len(res.History))
	}
}

func TestRunCanceled(t *testing.T) {
	r, p := defaultFuncs(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e, err := New(testConfig(), cMajor(t), r, p, quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestProduce(t *testing.T) {
	r, p := defaultFuncs(t)
	e, err := New(testConfig(), cMajor(t), r, p, quiet())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	notes, res, err := e.Produce(context.Background())
	if err != nil {
		t.Fatalf("Produce() error = %v", err)
	}
	if len(notes) == 0 {
		t.Fatalf("Produce() returned no notes; slot 0 is always a NOTE")
	}
	if notes[0].Start != 0 {
		t.Errorf("first note starts at %v, want 0", notes[0].Start)
	}
	if res.Seed != 42 {
		t.Errorf("Seed = %d, want 42", res.Seed)
	}
}

func TestSummarize(t *testing.T) {
	ranked := []genome.Individual{
		{RhythmFitness: 3, PitchFitness: 1, Fitness: 4},
		{Fitness: 2},
		{Fitness: 0},
	}
	s := summarize(7, ranked, 1)

	if s.Generation != 7 || s.Faults != 1 || s.Population != 3 {
		t.Errorf("summarize() header = %+v", s)
	}
	if s.Best != 4 || s.Worst != 0 || s.Mean != 2 {
		t.Errorf("summarize() best/worst/mean = %v/%v/%v, want 4/0/2", s.Best, s.Worst, s.Mean)
	}
	if s.BestRhythm != 3 || s.BestPitch != 1 {
		t.Errorf("summarize() best sub-scores = %v/%v, want 3/1", s.BestRhythm, s.BestPitch)
	}
	if math.Abs(s.StdDev-2) > 1e-9 {
		t.Errorf("summarize() std dev = %v, want 2", s.StdDev)
	}
}
