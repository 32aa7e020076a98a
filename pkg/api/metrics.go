package api

import (
	"github.com/prometheus/client_golang/prometheus"
)

type metrics struct {
	registry    *prometheus.Registry
	runs        *prometheus.CounterVec
	generations prometheus.Counter
	faults      prometheus.Counter
	bestFitness *prometheus.GaugeVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "melodyevolve_runs_total",
			Help: "Evolution runs by outcome.",
		}, []string{"status"}),
		generations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "melodyevolve_generations_total",
			Help: "Generations evaluated across all runs.",
		}),
		faults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "melodyevolve_fitness_faults_total",
			Help: "Fitness evaluations that failed and were scored 0.",
		}),
		bestFitness: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "melodyevolve_best_fitness",
			Help: "Best fitness of the latest run per scale.",
		}, []string{"scale"}),
	}
	m.registry.MustRegister(m.runs, m.generations, m.faults, m.bestFitness)
	return m
}
