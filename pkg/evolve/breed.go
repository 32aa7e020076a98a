package evolve

import (
	"math/rand/v2"

	"github.com/sourcegraph/conc/pool"

	"github.com/james-see/melodyevolve/pkg/genetic"
	"github.com/james-see/melodyevolve/pkg/genome"
)

// breed builds the next generation from a ranked one: elites are deep
// copied, the rest come from roulette-selected pairs. Pair seeds are drawn
// from the engine RNG up front so the outcome does not depend on worker
// scheduling.
func (e *Engine) breed(ranked []genome.Individual) []genome.Individual {
	size := e.cfg.PopulationSize
	next := make([]genome.Individual, 0, size)
	for _, elite := range ranked[:e.cfg.EliteCount] {
		next = append(next, genome.NewIndividual(elite.Genome.Clone()))
	}

	scores := make([]float64, len(ranked))
	for i, ind := range ranked {
		scores[i] = ind.Fitness
	}

	pairs := (size - len(next) + 1) / 2
	seeds := make([]uint64, pairs)
	for i := range seeds {
		seeds[i] = e.rng.Uint64()
	}

	children := make([][2]genome.Individual, pairs)
	p := pool.New().WithMaxGoroutines(e.cfg.workers())
	for i := range children {
		p.Go(func() {
			rng := rand.New(rand.NewPCG(seeds[i], uint64(i)))
			children[i] = e.mate(rng, ranked, scores)
		})
	}
	p.Wait()

	for _, pair := range children {
		next = append(next, pair[0])
		if len(next) < size {
			next = append(next, pair[1])
		}
	}
	return next
}

// mate selects two parents and produces two children. Parents are only
// read; every child track is a fresh slice.
func (e *Engine) mate(rng *rand.Rand, ranked []genome.Individual, scores []float64) [2]genome.Individual {
	p1 := ranked[genetic.Roulette(rng, scores)]
	p2 := ranked[genetic.Roulette(rng, scores)]

	r1, r2 := p1.Rhythm, p2.Rhythm
	if rng.Float64() < e.cfg.CrossoverRate {
		r1, r2 = genetic.Crossover(rng, r1, r2)
	}
	q1, q2 := p1.Pitch, p2.Pitch
	if rng.Float64() < e.cfg.CrossoverRate {
		q1, q2 = genetic.Crossover(rng, q1, q2)
	}

	size := e.scale.Size()
	r1 = genetic.MutateRhythm(rng, r1, e.cfg.MutationRate, e.cfg.Rhythm)
	q1 = genetic.MutatePitch(rng, q1, e.cfg.MutationRate, size)
	r2 = genetic.MutateRhythm(rng, r2, e.cfg.MutationRate, e.cfg.Rhythm)
	q2 = genetic.MutatePitch(rng, q2, e.cfg.MutationRate, size)

	if rng.Float64() < e.cfg.TransformRate {
		q1, _ = genetic.TransformPitch(rng, q1, size)
	}
	if rng.Float64() < e.cfg.TransformRate {
		q2, _ = genetic.TransformPitch(rng, q2, size)
	}
	if rng.Float64() < e.cfg.TransformRate {
		r1, _ = genetic.TransformRhythm(rng, r1)
	}
	if rng.Float64() < e.cfg.TransformRate {
		r2, _ = genetic.TransformRhythm(rng, r2)
	}

	return [2]genome.Individual{
		genome.NewIndividual(genome.Genome{Rhythm: r1, Pitch: q1}),
		genome.NewIndividual(genome.Genome{Rhythm: r2, Pitch: q2}),
	}
}
