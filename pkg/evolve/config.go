// Package evolve runs the generational loop over a melody population
package evolve

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/james-see/melodyevolve/pkg/genome"
)

// ErrInvalidConfig wraps every configuration error
var ErrInvalidConfig = errors.New("invalid config")

// Config holds the run parameters; it carries values only
type Config struct {
	GenomeLength   int                       `json:"genome_length" msgpack:"genome_length"`
	PopulationSize int                       `json:"population_size" msgpack:"population_size"`
	Generations    int                       `json:"generations" msgpack:"generations"`
	EliteCount     int                       `json:"elite_count" msgpack:"elite_count"`
	CrossoverRate  float64                   `json:"crossover_rate" msgpack:"crossover_rate"`
	MutationRate   float64                   `json:"mutation_rate" msgpack:"mutation_rate"`
	TransformRate  float64                   `json:"transform_rate" msgpack:"transform_rate"`
	Rhythm         genome.RhythmDistribution `json:"rhythm_distribution" msgpack:"rhythm_distribution"`
	Workers        int                       `json:"workers" msgpack:"workers"`
	Seed           uint64                    `json:"seed" msgpack:"seed"`
	ReportInterval int                       `json:"report_interval" msgpack:"report_interval"`
}

// DefaultConfig returns the standard run parameters
func DefaultConfig() Config {
	return Config{
		GenomeLength:   16,
		PopulationSize: 200,
		Generations:    1024,
		EliteCount:     2,
		CrossoverRate:  0.7,
		MutationRate:   0.05,
		TransformRate:  0.05,
		Rhythm:         genome.DefaultRhythm(),
		Workers:        runtime.GOMAXPROCS(0),
		ReportInterval: 200,
	}
}

// Validate rejects malformed parameters before a run starts
func (c Config) Validate() error {
	switch {
	case c.GenomeLength < 2:
		return fmt.Errorf("%w: genome length %d must be at least 2", ErrInvalidConfig, c.GenomeLength)
	case c.PopulationSize < 1:
		return fmt.Errorf("%w: population size %d must be positive", ErrInvalidConfig, c.PopulationSize)
	case c.Generations < 1:
		return fmt.Errorf("%w: generations %d must be positive", ErrInvalidConfig, c.Generations)
	case c.EliteCount < 0 || c.EliteCount >= c.PopulationSize:
		return fmt.Errorf("%w: elite count %d must be in [0, %d)", ErrInvalidConfig, c.EliteCount, c.PopulationSize)
	case c.Workers < 0:
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalidConfig, c.Workers)
	case c.ReportInterval < 0:
		return fmt.Errorf("%w: report interval %d must not be negative", ErrInvalidConfig, c.ReportInterval)
	}

	rates := []struct {
		name  string
		value float64
	}{
		{"crossover rate", c.CrossoverRate},
		{"mutation rate", c.MutationRate},
		{"transform rate", c.TransformRate},
	}
	for _, r := range rates {
		if !(r.value >= 0 && r.value <= 1) {
			return fmt.Errorf("%w: %s %v outside [0, 1]", ErrInvalidConfig, r.name, r.value)
		}
	}

	if err := c.Rhythm.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

func (c Config) workers() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
