// Package main is the entry point for the melodyevolve CLI
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/james-see/melodyevolve/pkg/config"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/store"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	cfgFile  string
	logLevel string
	storeDir string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "melodyevolve",
	Short: "Evolve short melodies with a genetic algorithm",
	Long: `melodyevolve evolves 16-slot melodies over a musical scale with a dual-track
genetic algorithm and writes the best result as a MIDI file.

Examples:
  melodyevolve evolve --scale A_minor --preset quick_test
  melodyevolve evolve --rhythm-weight legato=2 --pitch-weight arch=1 -o arch.mid
  melodyevolve ablation --scale D_major
  melodyevolve inspect results/output_C_major.mid
  melodyevolve tui
  melodyevolve serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&storeDir, "store", "", "Badger directory for run history (default: from config, or in memory)")

	rootCmd.AddCommand(evolveCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(ablationCmd)
	rootCmd.AddCommand(scalesCmd)
	rootCmd.AddCommand(heuristicsCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func setupLogging(cmd *cobra.Command, args []string) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToLower(logLevel))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	return nil
}

// baseConfig loads the config file when given and applies the global --store flag
func baseConfig(cmd *cobra.Command) (config.File, error) {
	f := config.Default()
	if cfgFile != "" {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return config.File{}, err
		}
		f = loaded
	}
	if cmd.Flags().Changed("store") {
		f.Store.Dir = storeDir
	}
	return f, nil
}

func openStore(f config.File) (store.Store, error) {
	return store.Open(f.Store.Dir, store.WithLogger(slog.Default()))
}

func validate(f config.File) error {
	if err := f.Validate(fitness.DefaultRegistry()); err != nil {
		return err
	}
	for _, w := range f.Warnings() {
		slog.Warn("config", "warning", w)
	}
	return nil
}
