// Package main is the entry point for the melodyevolve API server
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/james-see/melodyevolve/pkg/api"
	"github.com/james-see/melodyevolve/pkg/config"
	"github.com/james-see/melodyevolve/pkg/store"
)

func main() {
	port := flag.Int("port", 8080, "Server port")
	cfgFile := flag.String("config", "", "YAML config file")
	storeDir := flag.String("store", "", "Badger directory for run history (default: in memory)")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	f := config.Default()
	if *cfgFile != "" {
		loaded, err := config.Load(*cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
			os.Exit(1)
		}
		f = loaded
	}
	if *storeDir != "" {
		f.Store.Dir = *storeDir
	}

	s, err := store.Open(f.Store.Dir, store.WithLogger(slog.Default()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Store error: %v\n", err)
		os.Exit(1)
	}
	defer s.Close()

	fmt.Printf("Starting melodyevolve API server on port %d...\n", *port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", *port)

	if err := api.StartServer(*port, api.Options{Store: s, Base: f, Logger: slog.Default()}); err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		s.Close()
		os.Exit(1)
	}
}
