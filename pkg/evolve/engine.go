package evolve

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"

	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/genome"
	"github.com/james-see/melodyevolve/pkg/scale"
)

// Observer receives the stats of every ranked generation
type Observer func(GenerationStats)

// Option configures an Engine
type Option func(*Engine)

// WithLogger sets the logger used for progress and fitness faults
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithObserver registers a per-generation callback
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// Result is the outcome of a run
type Result struct {
	Best       genome.Individual   `json:"best"`
	Notes      []genome.Note       `json:"notes"`
	Population []genome.Individual `json:"-"`
	History    []GenerationStats   `json:"history"`
	Faults     int                 `json:"faults"`
	Seed       uint64              `json:"seed"`
}

// Engine evolves a population against a rhythm and a pitch fitness function
type Engine struct {
	cfg      Config
	scale    scale.Scale
	rhythm   fitness.Func
	pitch    fitness.Func
	gen      genome.Generator
	rng      *rand.Rand
	logger   *slog.Logger
	observer Observer
}

// New validates the configuration and binds the scale and fitness functions.
// A zero Seed is replaced with one derived from the clock.
func New(cfg Config, sc scale.Scale, rhythmFn, pitchFn fitness.Func, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := sc.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if rhythmFn == nil || pitchFn == nil {
		return nil, fmt.Errorf("%w: rhythm and pitch fitness functions are required", ErrInvalidConfig)
	}

	if cfg.Seed == 0 {
		cfg.Seed = uint64(time.Now().UnixNano())
	}

	e := &Engine{
		cfg:    cfg,
		scale:  append(scale.Scale(nil), sc...),
		rhythm: rhythmFn,
		pitch:  pitchFn,
		gen: genome.Generator{
			Length:    cfg.GenomeLength,
			ScaleSize: sc.Size(),
			Rhythm:    cfg.Rhythm,
		},
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed>>1|1)),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Config returns the effective configuration, including the resolved seed
func (e *Engine) Config() Config {
	return e.cfg
}

// Scale returns the bound scale
func (e *Engine) Scale() scale.Scale {
	return e.scale
}

// Run evaluates, ranks and breeds for the configured number of generations
// and returns the final ranked population. Cancellation is checked between
// generations.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	started := time.Now()
	population := e.initialize()
	history := make([]GenerationStats, 0, e.cfg.Generations)
	faults := 0

	for gen := 0; gen < e.cfg.Generations; gen++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		n := e.evaluate(gen, population)
		faults += n
		rank(population)

		stats := summarize(gen, population, n)
		history = append(history, stats)
		if e.observer != nil {
			e.observer(stats)
		}
		e.report(stats)

		if gen < e.cfg.Generations-1 {
			population = e.breed(population)
		}
	}

	best := population[0].Clone()
	e.logger.Info("evolution finished",
		"generations", e.cfg.Generations,
		"best", best.Fitness,
		"rhythm", best.RhythmFitness,
		"pitch", best.PitchFitness,
		"faults", faults,
		"elapsed", time.Since(started).Round(time.Millisecond),
	)

	return Result{
		Best:       best,
		Notes:      best.Notes(e.scale),
		Population: population,
		History:    history,
		Faults:     faults,
		Seed:       e.cfg.Seed,
	}, nil
}

func (e *Engine) initialize() []genome.Individual {
	population := make([]genome.Individual, e.cfg.PopulationSize)
	for i := range population {
		population[i] = genome.NewIndividual(e.gen.New(e.rng))
	}
	return population
}

// evaluate scores every individual in place and returns the fault count.
// Each worker writes only its own element.
func (e *Engine) evaluate(generation int, population []genome.Individual) int {
	var faults atomic.Int64

	p := pool.New().WithMaxGoroutines(e.cfg.workers())
	for i := range population {
		p.Go(func() {
			if err := e.score(&population[i]); err != nil {
				faults.Add(1)
				e.logger.Warn("fitness evaluation failed",
					"generation", generation,
					"individual", i,
					"error", err,
				)
			}
		})
	}
	p.Wait()

	return int(faults.Load())
}

// score sets the individual's fitness; any failure zeroes all of it
func (e *Engine) score(ind *genome.Individual) error {
	m := fitness.NewMelody(ind.Notes(e.scale), ind.Genome)

	r := fitness.Evaluate(e.rhythm, m)
	p := fitness.Evaluate(e.pitch, m)
	if err := errors.Join(wrapKind("rhythm", r.Err), wrapKind("pitch", p.Err)); err != nil {
		ind.SetFitness(0, 0)
		return err
	}

	ind.SetFitness(r.Score, p.Score)
	return nil
}

func wrapKind(kind string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", kind, err)
}

func rank(population []genome.Individual) {
	sort.SliceStable(population, func(i, j int) bool {
		return population[i].Fitness > population[j].Fitness
	})
}

func (e *Engine) report(s GenerationStats) {
	interval := e.cfg.ReportInterval
	if interval <= 0 {
		return
	}
	if s.Generation%interval != 0 && s.Generation != e.cfg.Generations-1 {
		return
	}
	e.logger.Info("generation",
		"generation", s.Generation,
		"best", s.Best,
		"rhythm", s.BestRhythm,
		"pitch", s.BestPitch,
		"mean", s.Mean,
		"std_dev", s.StdDev,
	)
}

// Produce runs the engine and returns the decoded best melody
func (e *Engine) Produce(ctx context.Context) ([]genome.Note, Result, error) {
	res, err := e.Run(ctx)
	if err != nil {
		return nil, Result{}, err
	}
	return res.Notes, res, nil
}
