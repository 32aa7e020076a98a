package main

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/james-see/melodyevolve/pkg/api"
	"github.com/james-see/melodyevolve/pkg/experiment"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/midi"
	"github.com/james-see/melodyevolve/pkg/scale"
	"github.com/james-see/melodyevolve/pkg/tui"
)

var (
	historyClear bool
	cleanYes     bool
	cleanDir     string
	configWrite  string
	serverPort   int
)

var scalesCmd = &cobra.Command{
	Use:   "scales",
	Short: "List the named scales and their MIDI pitches",
	Args:  cobra.NoArgs,
	RunE:  runScales,
}

var heuristicsCmd = &cobra.Command{
	Use:   "heuristics",
	Short: "List fitness heuristics and default weights",
	Args:  cobra.NoArgs,
	RunE:  runHeuristics,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Show pitch range, duration and notes of a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List, show or clear stored runs",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove MIDI files from the results directory",
	Args:  cobra.NoArgs,
	RunE:  runClean,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	Args:  cobra.NoArgs,
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "Remove every stored run")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip the confirmation prompt")
	cleanCmd.Flags().StringVar(&cleanDir, "dir", "", "Results directory (default: from config)")
	configCmd.Flags().StringVar(&configWrite, "write", "", "Write the configuration to this file instead of stdout")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")
}

func runScales(cmd *cobra.Command, args []string) error {
	t := newTable("NAME", "ROOT", "SIZE", "PITCHES")
	for _, d := range scale.Definitions() {
		sc := d.Scale()
		t.Row(d.Name, fmt.Sprint(d.Root), fmt.Sprint(sc.Size()), fmt.Sprint([]int(sc)))
	}
	fmt.Println(t)
	return nil
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#39FF14"))).
		Headers(headers...)
}

func runHeuristics(cmd *cobra.Command, args []string) error {
	reg := fitness.DefaultRegistry()
	f, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	rhythm, pitch := f.Weights()

	t := newTable("KIND", "NAME", "WEIGHT", "DESCRIPTION")
	for _, set := range []struct {
		cat fitness.Catalogue
		w   fitness.Weights
	}{{reg.Rhythm(), rhythm}, {reg.Pitch(), pitch}} {
		for _, e := range set.cat.Entries {
			t.Row(string(set.cat.Kind), e.Name, fmt.Sprintf("%g", set.w.Get(e.Name)), e.Description)
		}
	}
	fmt.Println(t)
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	sum, err := midi.ReadFile(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("File:     %s\n", args[0])
	if sum.TrackName != "" {
		fmt.Printf("Track:    %s\n", sum.TrackName)
	}
	fmt.Printf("Tempo:    %.1f BPM\n", sum.Tempo)
	fmt.Printf("Notes:    %d\n", len(sum.Notes))
	if len(sum.Notes) > 0 {
		fmt.Printf("Range:    %d-%d (%d semitones)\n", sum.MinPitch, sum.MaxPitch, sum.Range())
	}
	fmt.Printf("Duration: %.1f beats, %.2f s\n", sum.Beats, sum.Seconds)
	for i, n := range sum.Notes {
		fmt.Printf("  %2d  pitch %3d  start %5.1f  duration %.1f\n", i+1, n.Pitch, n.Start, n.Duration)
	}
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	f, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	if f.Store.Dir == "" {
		return errors.New("no run store configured; pass --store or set store.dir")
	}
	s, err := openStore(f)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	switch {
	case historyClear:
		n, err := s.Clear(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d runs\n", n)
		return nil

	case len(args) == 1:
		run, err := s.Get(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Run:      %s\n", run.ID)
		fmt.Printf("Created:  %s\n", run.CreatedAt.Format("2006-01-02 15:04:05"))
		if run.Label != "" {
			fmt.Printf("Label:    %s\n", run.Label)
		}
		fmt.Printf("Scale:    %s\n", run.Scale)
		fmt.Printf("Config:   population %d, %d generations, seed %d\n",
			run.Config.PopulationSize, run.Config.Generations, run.Config.Seed)
		fmt.Printf("Weights:  rhythm %v, pitch %v\n", run.RhythmWeights, run.PitchWeights)
		fmt.Printf("Fitness:  %.3f (rhythm %.3f, pitch %.3f)\n", run.BestFitness, run.RhythmFitness, run.PitchFitness)
		fmt.Printf("Rhythm:   %v\n", run.Rhythm)
		fmt.Printf("Pitch:    %v\n", run.Pitch)
		if run.MIDIPath != "" {
			fmt.Printf("MIDI:     %s\n", run.MIDIPath)
		}
		return nil
	}

	runs, err := s.List(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No stored runs")
		return nil
	}
	t := newTable("ID", "CREATED", "SCALE", "LABEL", "BEST")
	for _, r := range runs {
		t.Row(r.ID, r.CreatedAt.Format("2006-01-02 15:04"), r.Scale, r.Label, fmt.Sprintf("%.3f", r.BestFitness))
	}
	fmt.Println(t)
	return nil
}

func runClean(cmd *cobra.Command, args []string) error {
	dir := cleanDir
	if dir == "" {
		f, err := baseConfig(cmd)
		if err != nil {
			return err
		}
		dir = f.Output.Dir
	}

	n, err := experiment.CountMIDI(dir)
	if err != nil {
		return err
	}
	if n == 0 {
		fmt.Printf("%s/ has no MIDI files\n", dir)
		return nil
	}

	if !cleanYes {
		fmt.Printf("Delete %d MIDI files in %s/? (y/N): ", n, dir)
		answer, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		answer = strings.ToLower(strings.TrimSpace(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("Cancelled")
			return nil
		}
	}

	removed, err := experiment.Clean(dir)
	if err != nil {
		return err
	}
	fmt.Printf("Removed %d MIDI files from %s/\n", removed, dir)
	return nil
}

func runConfig(cmd *cobra.Command, args []string) error {
	f, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}
	if configWrite != "" {
		if err := f.Save(configWrite); err != nil {
			return err
		}
		fmt.Printf("Wrote %s\n", configWrite)
		return nil
	}
	data, err := f.Marshal()
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(data)
	return err
}

func runTUI(cmd *cobra.Command, args []string) error {
	f, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	opts := tui.Options{Base: f, Logger: quietLogger()}
	if f.Store.Dir != "" {
		s, err := openStore(f)
		if err != nil {
			return err
		}
		defer s.Close()
		opts.Store = s
	}
	return tui.Run(opts)
}

// quietLogger keeps engine output from drawing over the alt screen
func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func runServe(cmd *cobra.Command, args []string) error {
	f, err := baseConfig(cmd)
	if err != nil {
		return err
	}
	if err := validate(f); err != nil {
		return err
	}
	s, err := openStore(f)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("Starting API server on port %d...\n", serverPort)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", serverPort)
	return api.StartServer(serverPort, api.Options{Store: s, Base: f, Logger: slog.Default()})
}
