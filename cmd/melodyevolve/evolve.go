package main

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/james-see/melodyevolve/pkg/config"
	"github.com/james-see/melodyevolve/pkg/evolve"
	"github.com/james-see/melodyevolve/pkg/experiment"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/genome"
	"github.com/james-see/melodyevolve/pkg/store"
)

// runFlags are the overrides shared by evolve, batch and ablation
type runFlags struct {
	scale        string
	preset       string
	generations  int
	population   int
	seed         uint64
	workers      int
	outputDir    string
	tempo        float64
	rhythmWeight []string
	pitchWeight  []string
}

var (
	evolveFlags   runFlags
	batchFlags    runFlags
	ablationFlags runFlags
	outputFile    string
	debugGenome   bool
)

var evolveCmd = &cobra.Command{
	Use:   "evolve",
	Short: "Evolve one melody and write it as MIDI",
	Args:  cobra.NoArgs,
	RunE:  runEvolve,
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run every rhythm by pitch heuristic pairing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(cmd, &batchFlags, func(config.File) experiment.Plan {
			return experiment.Batch(fitness.DefaultRegistry())
		})
	},
}

var ablationCmd = &cobra.Command{
	Use:   "ablation",
	Short: "Run the ablation study over the configured weights",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runPlan(cmd, &ablationFlags, func(f config.File) experiment.Plan {
			rhythm, pitch := f.Weights()
			return experiment.Ablation(fitness.DefaultRegistry(), rhythm, pitch)
		})
	},
}

func init() {
	addRunFlags(evolveCmd, &evolveFlags, false)
	addRunFlags(batchCmd, &batchFlags, true)
	addRunFlags(ablationCmd, &ablationFlags, true)

	evolveCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path (default: <output-dir>/output_<scale>.mid)")
	evolveCmd.Flags().BoolVar(&debugGenome, "debug", false, "Print the best genome's tracks, slot counts and sub-fitnesses")
}

func addRunFlags(cmd *cobra.Command, rf *runFlags, weights bool) {
	cmd.Flags().StringVar(&rf.scale, "scale", "", "Scale name (see 'scales')")
	cmd.Flags().StringVar(&rf.preset, "preset", "", "Preset (default, quick_test, high_quality)")
	cmd.Flags().IntVar(&rf.generations, "generations", 0, "Number of generations")
	cmd.Flags().IntVar(&rf.population, "population", 0, "Population size")
	cmd.Flags().Uint64Var(&rf.seed, "seed", 0, "Random seed (0: derive from time)")
	cmd.Flags().IntVar(&rf.workers, "workers", 0, "Evaluation workers (0: GOMAXPROCS)")
	cmd.Flags().StringVar(&rf.outputDir, "output-dir", "", "Directory for MIDI output")
	cmd.Flags().Float64Var(&rf.tempo, "tempo", 0, "MIDI tempo in BPM")
	if !weights {
		cmd.Flags().StringArrayVar(&rf.rhythmWeight, "rhythm-weight", nil, "Rhythm heuristic weight name=value (repeatable)")
		cmd.Flags().StringArrayVar(&rf.pitchWeight, "pitch-weight", nil, "Pitch heuristic weight name=value (repeatable)")
	} else {
		cmd.Flags().StringArrayVar(&rf.rhythmWeight, "rhythm-weight", nil, "Override a default rhythm weight name=value (repeatable)")
		cmd.Flags().StringArrayVar(&rf.pitchWeight, "pitch-weight", nil, "Override a default pitch weight name=value (repeatable)")
	}
}

// resolveConfig layers defaults, the config file, the preset flag and the
// remaining flags, then validates the result.
func resolveConfig(cmd *cobra.Command, rf *runFlags) (config.File, error) {
	f, err := baseConfig(cmd)
	if err != nil {
		return config.File{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("preset") {
		if err := f.ApplyPreset(rf.preset); err != nil {
			return config.File{}, err
		}
	}
	if flags.Changed("scale") {
		f.Scale = rf.scale
	}
	if flags.Changed("generations") {
		f.Generations = rf.generations
	}
	if flags.Changed("population") {
		f.PopulationSize = rf.population
	}
	if flags.Changed("seed") {
		f.Seed = rf.seed
	}
	if flags.Changed("workers") {
		f.Workers = rf.workers
	}
	if flags.Changed("output-dir") {
		f.Output.Dir = rf.outputDir
	}
	if flags.Changed("tempo") {
		f.Output.Tempo = rf.tempo
	}

	rhythm, err := parseWeights(rf.rhythmWeight)
	if err != nil {
		return config.File{}, err
	}
	pitch, err := parseWeights(rf.pitchWeight)
	if err != nil {
		return config.File{}, err
	}
	f.SetWeights(rhythm, pitch)

	if err := validate(f); err != nil {
		return config.File{}, err
	}
	return f, nil
}

func parseWeights(pairs []string) (map[string]float64, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]float64, len(pairs))
	for _, p := range pairs {
		name, v, err := config.ParseWeight(p)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

func runEvolve(cmd *cobra.Command, args []string) error {
	f, err := resolveConfig(cmd, &evolveFlags)
	if err != nil {
		return err
	}
	sc, err := f.ResolveScale()
	if err != nil {
		return err
	}

	reg := fitness.DefaultRegistry()
	rw, pw := f.Weights()
	rhythmFn, err := reg.Rhythm().Compose(rw)
	if err != nil {
		return err
	}
	pitchFn, err := reg.Pitch().Compose(pw)
	if err != nil {
		return err
	}

	engine, err := evolve.New(f.Evolve(), sc, rhythmFn, pitchFn, evolve.WithLogger(slog.Default()))
	if err != nil {
		return err
	}

	cfg := engine.Config()
	fmt.Printf("Evolving %s: population %d, %d generations, seed %d\n",
		f.Scale, cfg.PopulationSize, cfg.Generations, cfg.Seed)

	res, err := engine.Run(cmd.Context())
	if err != nil {
		return err
	}

	output := outputFile
	if output == "" {
		output = filepath.Join(f.Output.Dir, fmt.Sprintf("output_%s.mid", f.Scale))
	}
	if err := f.Writer().WriteFile(output, res.Notes); err != nil {
		return err
	}

	run := store.NewRun("", f.Scale, res, cfg, rw.Map(), pw.Map())
	run.MIDIPath = output
	if err := saveRun(cmd.Context(), f, run); err != nil {
		return err
	}

	fmt.Printf("Best fitness %.3f (rhythm %.3f, pitch %.3f), %d notes\n",
		res.Best.Fitness, res.Best.RhythmFitness, res.Best.PitchFitness, len(res.Notes))
	if res.Faults > 0 {
		fmt.Printf("Fitness faults: %d\n", res.Faults)
	}
	if debugGenome {
		printDebug(res.Best, res.Notes)
	}
	fmt.Printf("Wrote %s (run %s)\n", output, run.ID)
	return nil
}

// saveRun records the run when a store directory is configured
func saveRun(ctx context.Context, f config.File, run store.Run) error {
	if f.Store.Dir == "" {
		return nil
	}
	s, err := openStore(f)
	if err != nil {
		return err
	}
	defer s.Close()
	return s.Put(ctx, run)
}

func printDebug(best genome.Individual, notes []genome.Note) {
	n, h, r := genome.Counts(best.Rhythm)
	fmt.Println("--- best genome ---")
	fmt.Printf("rhythm: %v\n", best.Rhythm)
	fmt.Printf("pitch:  %v\n", best.Pitch)
	fmt.Printf("slots:  %d note, %d hold, %d rest\n", n, h, r)
	fmt.Printf("fitness: rhythm %.4f, pitch %.4f, total %.4f\n", best.RhythmFitness, best.PitchFitness, best.Fitness)
	for i, note := range notes {
		fmt.Printf("  %2d  pitch %3d  start %5.1f  duration %.1f\n", i+1, note.Pitch, note.Start, note.Duration)
	}
}

func runPlan(cmd *cobra.Command, rf *runFlags, build func(config.File) experiment.Plan) error {
	f, err := resolveConfig(cmd, rf)
	if err != nil {
		return err
	}
	sc, err := f.ResolveScale()
	if err != nil {
		return err
	}
	var s store.Store
	if f.Store.Dir != "" {
		if s, err = openStore(f); err != nil {
			return err
		}
		defer s.Close()
	}

	plan := build(f)
	fmt.Printf("Running %d %s trials on %s\n", len(plan.Trials), plan.Prefix, f.Scale)

	runner := &experiment.Runner{
		Config:    f.Evolve(),
		ScaleName: f.Scale,
		Scale:     sc,
		Registry:  fitness.DefaultRegistry(),
		Writer:    f.Writer(),
		Store:     s,
		OutDir:    f.Output.Dir,
		Logger:    slog.Default(),
		Progress: func(i, total int, out experiment.Outcome) {
			fmt.Printf("[%d/%d] %-32s best %.3f -> %s\n", i+1, total, out.Trial.Name, out.Run.BestFitness, out.Path)
		},
	}
	if _, err := runner.Run(cmd.Context(), plan); err != nil {
		return err
	}
	fmt.Printf("Done. Results in %s\n", f.Output.Dir)
	return nil
}
