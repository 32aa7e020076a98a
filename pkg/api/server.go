// Package api provides the REST API server for melodyevolve
package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/james-see/melodyevolve/pkg/config"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/store"
)

// @title melodyevolve API
// @version 1.0
// @description API for evolving melodies with a genetic algorithm
// @host localhost:8080
// @BasePath /api/v1

// Limits applied to request overrides when Options leaves them zero
const (
	DefaultMaxGenerations = 5000
	DefaultMaxPopulation  = 2000
)

// Options configures the server
type Options struct {
	// Store defaults to an in-memory store
	Store store.Store
	// Base is the configuration requests are layered on
	Base     config.File
	Registry fitness.Registry
	Logger   *slog.Logger

	MaxGenerations int
	MaxPopulation  int
}

// Server serves the evolution API
type Server struct {
	opts    Options
	metrics *metrics
	router  *gin.Engine
}

// New builds a server and its routes
func New(opts Options) *Server {
	if opts.Store == nil {
		opts.Store = store.NewMemory()
	}
	if opts.Base.Scale == "" {
		opts.Base = config.Default()
	}
	if len(opts.Registry.Rhythm().Entries) == 0 {
		opts.Registry = fitness.DefaultRegistry()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MaxGenerations <= 0 {
		opts.MaxGenerations = DefaultMaxGenerations
	}
	if opts.MaxPopulation <= 0 {
		opts.MaxPopulation = DefaultMaxPopulation
	}

	s := &Server{opts: opts, metrics: newMetrics()}
	s.router = s.routes()
	return s
}

// Router returns the HTTP handler
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Gatherer exposes the server's metrics registry
func (s *Server) Gatherer() prometheus.Gatherer {
	return s.metrics.registry
}

// StartServer starts the API server on the specified port
func StartServer(port int, opts Options) error {
	return New(opts).Router().Run(fmt.Sprintf(":%d", port))
}

func (s *Server) routes() *gin.Engine {
	r := gin.Default()

	// CORS middleware
	r.Use(corsMiddleware())

	// Health check
	r.GET("/health", healthCheck)

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/scales", listScales)
		v1.GET("/heuristics", s.listHeuristics)
		v1.POST("/evolve", s.handleEvolve)
		v1.GET("/runs", s.listRuns)
		v1.GET("/runs/:id", s.getRun)
		v1.DELETE("/runs/:id", s.deleteRun)
		v1.GET("/runs/:id/midi", s.getRunMIDI)
	}

	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})))

	// Swagger docs
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// healthCheck godoc
// @Summary Health check endpoint
// @Description Returns the health status of the API
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "melodyevolve",
	})
}
