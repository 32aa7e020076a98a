// Package store keeps the records of finished evolution runs
package store

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/james-see/melodyevolve/pkg/evolve"
	"github.com/james-see/melodyevolve/pkg/genome"
)

// ErrNotFound is returned when no run has the requested id
var ErrNotFound = errors.New("run not found")

// Run is a stored evolution result
type Run struct {
	ID            string                   `json:"id" msgpack:"id"`
	CreatedAt     time.Time                `json:"created_at" msgpack:"created_at"`
	Label         string                   `json:"label,omitempty" msgpack:"label"`
	Scale         string                   `json:"scale" msgpack:"scale"`
	Config        evolve.Config            `json:"config" msgpack:"config"`
	RhythmWeights map[string]float64       `json:"rhythm_weights" msgpack:"rhythm_weights"`
	PitchWeights  map[string]float64       `json:"pitch_weights" msgpack:"pitch_weights"`
	BestFitness   float64                  `json:"best_fitness" msgpack:"best_fitness"`
	RhythmFitness float64                  `json:"rhythm_fitness" msgpack:"rhythm_fitness"`
	PitchFitness  float64                  `json:"pitch_fitness" msgpack:"pitch_fitness"`
	Rhythm        []genome.Slot            `json:"rhythm" msgpack:"rhythm"`
	Pitch         []int                    `json:"pitch" msgpack:"pitch"`
	Notes         []genome.Note            `json:"notes" msgpack:"notes"`
	Faults        int                      `json:"faults" msgpack:"faults"`
	History       []evolve.GenerationStats `json:"history,omitempty" msgpack:"history"`
	MIDIPath      string                   `json:"midi_path,omitempty" msgpack:"midi_path"`
}

// NewRun builds a record from a finished run with a fresh id
func NewRun(label, scaleName string, res evolve.Result, cfg evolve.Config, rhythm, pitch map[string]float64) Run {
	cfg.Seed = res.Seed
	return Run{
		ID:            uuid.NewString(),
		CreatedAt:     time.Now().UTC(),
		Label:         label,
		Scale:         scaleName,
		Config:        cfg,
		RhythmWeights: rhythm,
		PitchWeights:  pitch,
		BestFitness:   res.Best.Fitness,
		RhythmFitness: res.Best.RhythmFitness,
		PitchFitness:  res.Best.PitchFitness,
		Rhythm:        append([]genome.Slot(nil), res.Best.Rhythm...),
		Pitch:         append([]int(nil), res.Best.Pitch...),
		Notes:         append([]genome.Note(nil), res.Notes...),
		Faults:        res.Faults,
		History:       res.History,
	}
}

// Genome returns the stored best genome
func (r Run) Genome() genome.Genome {
	return genome.Genome{Rhythm: r.Rhythm, Pitch: r.Pitch}.Clone()
}

// Store persists runs
type Store interface {
	Put(ctx context.Context, run Run) error
	Get(ctx context.Context, id string) (Run, error)
	// List returns every run, newest first
	List(ctx context.Context) ([]Run, error)
	Delete(ctx context.Context, id string) error
	// Clear removes every run and returns how many were removed
	Clear(ctx context.Context) (int, error)
	Close() error
}

// Open returns a Badger store in dir, or a Memory store when dir is empty
func Open(dir string, opts ...Option) (Store, error) {
	if dir == "" {
		return NewMemory(), nil
	}
	return NewBadger(BadgerOptions{Dir: dir}, opts...)
}

const keyPrefix = "run:"

func key(id string) []byte {
	return []byte(keyPrefix + id)
}

func encode(run Run) ([]byte, error) {
	return msgpack.Marshal(run)
}

func decode(data []byte) (Run, error) {
	var run Run
	if err := msgpack.Unmarshal(data, &run); err != nil {
		return Run{}, err
	}
	return run, nil
}

func newestFirst(runs []Run) {
	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.After(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
