// Package config loads run settings from YAML and layers presets over defaults
package config

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/james-see/melodyevolve/pkg/evolve"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/genome"
	"github.com/james-see/melodyevolve/pkg/midi"
	"github.com/james-see/melodyevolve/pkg/scale"
)

// ErrUnknownPreset is returned for a preset name that is not defined
var ErrUnknownPreset = errors.New("unknown preset")

// Preset names
const (
	PresetDefault     = "default"
	PresetQuickTest   = "quick_test"
	PresetHighQuality = "high_quality"
)

// Preset overrides the run size of the defaults
type Preset struct {
	PopulationSize int
	Generations    int
	ReportInterval int
}

var presets = map[string]Preset{
	PresetDefault:     {PopulationSize: 200, Generations: 1024, ReportInterval: 200},
	PresetQuickTest:   {PopulationSize: 50, Generations: 256, ReportInterval: 50},
	PresetHighQuality: {PopulationSize: 500, Generations: 2048, ReportInterval: 200},
}

// Presets returns the preset names in a stable order
func Presets() []string {
	return []string{PresetDefault, PresetQuickTest, PresetHighQuality}
}

// LookupPreset finds a preset by name; the empty name is the default preset
func LookupPreset(name string) (Preset, error) {
	if name == "" {
		name = PresetDefault
	}
	p, ok := presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

// Output controls where and how melodies are written
type Output struct {
	Dir      string  `yaml:"dir" json:"dir"`
	Tempo    float64 `yaml:"tempo" json:"tempo"`
	Velocity int     `yaml:"velocity" json:"velocity"`
}

// Store selects the run store; an empty Dir keeps runs in memory
type Store struct {
	Dir string `yaml:"dir" json:"dir"`
}

// File is the YAML configuration document
type File struct {
	Preset         string                    `yaml:"preset" json:"preset"`
	Scale          string                    `yaml:"scale" json:"scale"`
	GenomeLength   int                       `yaml:"genome_length" json:"genome_length"`
	PopulationSize int                       `yaml:"population_size" json:"population_size"`
	Generations    int                       `yaml:"generations" json:"generations"`
	EliteCount     int                       `yaml:"elite_count" json:"elite_count"`
	CrossoverRate  float64                   `yaml:"crossover_rate" json:"crossover_rate"`
	MutationRate   float64                   `yaml:"mutation_rate" json:"mutation_rate"`
	TransformRate  float64                   `yaml:"transform_rate" json:"transform_rate"`
	Rhythm         genome.RhythmDistribution `yaml:"rhythm_distribution" json:"rhythm_distribution"`
	Workers        int                       `yaml:"workers" json:"workers"`
	Seed           uint64                    `yaml:"seed" json:"seed"`
	ReportInterval int                       `yaml:"report_interval" json:"report_interval"`
	RhythmWeights  map[string]float64        `yaml:"rhythm_weights" json:"rhythm_weights"`
	PitchWeights   map[string]float64        `yaml:"pitch_weights" json:"pitch_weights"`
	Output         Output                    `yaml:"output" json:"output"`
	Store          Store                     `yaml:"store" json:"store"`
}

// Default returns the built-in configuration
func Default() File {
	cfg := evolve.DefaultConfig()
	return File{
		Preset:         PresetDefault,
		Scale:          scale.Default,
		GenomeLength:   cfg.GenomeLength,
		PopulationSize: cfg.PopulationSize,
		Generations:    cfg.Generations,
		EliteCount:     cfg.EliteCount,
		CrossoverRate:  cfg.CrossoverRate,
		MutationRate:   cfg.MutationRate,
		TransformRate:  cfg.TransformRate,
		Rhythm:         cfg.Rhythm,
		ReportInterval: cfg.ReportInterval,
		RhythmWeights:  fitness.DefaultRhythmWeights().Map(),
		PitchWeights:   fitness.DefaultPitchWeights().Map(),
		Output: Output{
			Dir:      "results",
			Tempo:    midi.DefaultTempo,
			Velocity: midi.DefaultVelocity,
		},
	}
}

// ApplyPreset overwrites the run size with the named preset
func (f *File) ApplyPreset(name string) error {
	p, err := LookupPreset(name)
	if err != nil {
		return err
	}
	if name != "" {
		f.Preset = name
	}
	f.PopulationSize = p.PopulationSize
	f.Generations = p.Generations
	f.ReportInterval = p.ReportInterval
	return nil
}

// Load reads a YAML file; see Parse for the layering
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return f, nil
}

// Parse layers a YAML document over the defaults: the document's preset is
// applied first, then every field the document sets. Weight maps given in
// the document replace the defaults rather than merging with them.
func Parse(data []byte) (File, error) {
	var head struct {
		Preset string `yaml:"preset"`
	}
	if err := yaml.Unmarshal(data, &head); err != nil {
		return File{}, err
	}

	f := Default()
	if err := f.ApplyPreset(head.Preset); err != nil {
		return File{}, err
	}

	rhythm, pitch := f.RhythmWeights, f.PitchWeights
	f.RhythmWeights, f.PitchWeights = nil, nil
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, err
	}
	if f.RhythmWeights == nil {
		f.RhythmWeights = rhythm
	}
	if f.PitchWeights == nil {
		f.PitchWeights = pitch
	}
	return f, nil
}

// Marshal renders the configuration as YAML
func (f File) Marshal() ([]byte, error) {
	return yaml.Marshal(f)
}

// Save writes the configuration as YAML
func (f File) Save(path string) error {
	data, err := f.Marshal()
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// Evolve returns the engine configuration
func (f File) Evolve() evolve.Config {
	return evolve.Config{
		GenomeLength:   f.GenomeLength,
		PopulationSize: f.PopulationSize,
		Generations:    f.Generations,
		EliteCount:     f.EliteCount,
		CrossoverRate:  f.CrossoverRate,
		MutationRate:   f.MutationRate,
		TransformRate:  f.TransformRate,
		Rhythm:         f.Rhythm,
		Workers:        f.Workers,
		Seed:           f.Seed,
		ReportInterval: f.ReportInterval,
	}
}

// Weights returns the rhythm and pitch weight sets
func (f File) Weights() (rhythm, pitch fitness.Weights) {
	return fitness.NewWeights(f.RhythmWeights), fitness.NewWeights(f.PitchWeights)
}

// ResolveScale looks up the configured scale
func (f File) ResolveScale() (scale.Scale, error) {
	return scale.Lookup(f.Scale)
}

// Writer returns a MIDI writer for the output settings
func (f File) Writer() *midi.Writer {
	w := midi.NewWriter()
	if f.Output.Tempo > 0 {
		w.Tempo = f.Output.Tempo
	}
	if f.Output.Velocity > 0 && f.Output.Velocity <= math.MaxUint8 {
		w.Velocity = uint8(f.Output.Velocity)
	}
	return w
}

// Validate checks the engine parameters, the scale name, the weight names
// and the output settings against the registry.
func (f File) Validate(reg fitness.Registry) error {
	if _, err := LookupPreset(f.Preset); err != nil {
		return err
	}
	if err := f.Evolve().Validate(); err != nil {
		return err
	}
	if _, err := f.ResolveScale(); err != nil {
		return err
	}
	rhythm, pitch := f.Weights()
	if err := reg.Rhythm().Validate(rhythm); err != nil {
		return err
	}
	if err := reg.Pitch().Validate(pitch); err != nil {
		return err
	}
	if f.Output.Velocity < 0 || f.Output.Velocity > 127 {
		return fmt.Errorf("%w: output velocity %d outside [0, 127]", evolve.ErrInvalidConfig, f.Output.Velocity)
	}
	if f.Output.Tempo < 0 {
		return fmt.Errorf("%w: output tempo %v must not be negative", evolve.ErrInvalidConfig, f.Output.Tempo)
	}
	return nil
}

// Warnings reports settings that are legal but likely unintended
func (f File) Warnings() []string {
	var out []string
	if f.PopulationSize < 10 {
		out = append(out, fmt.Sprintf("population size %d is small and may lack diversity", f.PopulationSize))
	}
	rhythm, pitch := f.Weights()
	rz, pz := math.Abs(rhythm.Sum()) < 0.1, math.Abs(pitch.Sum()) < 0.1
	switch {
	case rz && pz:
		out = append(out, "all fitness weights are zero; selection is uniform")
	case rz:
		out = append(out, "rhythm weights sum to zero")
	case pz:
		out = append(out, "pitch weights sum to zero")
	}
	return out
}

// ParseWeight parses a name=value pair as given on the command line
func ParseWeight(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("%w: weight %q must be name=value", evolve.ErrInvalidConfig, s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("%w: weight %q: %w", evolve.ErrInvalidConfig, s, err)
	}
	return name, v, nil
}

// SetWeights overrides the named weights on top of the current sets
func (f *File) SetWeights(rhythm, pitch map[string]float64) {
	if len(rhythm) > 0 {
		f.RhythmWeights = merge(f.RhythmWeights, rhythm)
	}
	if len(pitch) > 0 {
		f.PitchWeights = merge(f.PitchWeights, pitch)
	}
}

func merge(base, over map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(over))
	maps.Copy(out, base)
	maps.Copy(out, over)
	return out
}
