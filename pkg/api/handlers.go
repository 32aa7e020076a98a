package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/james-see/melodyevolve/pkg/config"
	"github.com/james-see/melodyevolve/pkg/evolve"
	"github.com/james-see/melodyevolve/pkg/fitness"
	"github.com/james-see/melodyevolve/pkg/scale"
	"github.com/james-see/melodyevolve/pkg/store"
)

// EvolveRequest overrides the server's base configuration for one run.
// Zero values keep the base setting; a weight map replaces the base map.
type EvolveRequest struct {
	Scale          string             `json:"scale"`
	Preset         string             `json:"preset"`
	Generations    int                `json:"generations"`
	PopulationSize int                `json:"population_size"`
	Seed           uint64             `json:"seed"`
	RhythmWeights  map[string]float64 `json:"rhythm_weights"`
	PitchWeights   map[string]float64 `json:"pitch_weights"`
	Label          string             `json:"label"`
}

type scaleInfo struct {
	Name    string `json:"name"`
	Root    int    `json:"root"`
	Size    int    `json:"size"`
	Pitches []int  `json:"pitches"`
}

type heuristicInfo struct {
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	DefaultWeight float64 `json:"default_weight"`
}

// listScales godoc
// @Summary List scales
// @Description Returns every named scale with its MIDI pitches
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]scaleInfo
// @Router /api/v1/scales [get]
func listScales(c *gin.Context) {
	defs := scale.Definitions()
	out := make([]scaleInfo, 0, len(defs))
	for _, d := range defs {
		sc := d.Scale()
		out = append(out, scaleInfo{Name: d.Name, Root: d.Root, Size: sc.Size(), Pitches: sc})
	}
	c.JSON(http.StatusOK, gin.H{"scales": out, "default": scale.Default})
}

// listHeuristics godoc
// @Summary List fitness heuristics
// @Description Returns the rhythm and pitch heuristics with their default weights
// @Tags info
// @Produce json
// @Success 200 {object} map[string][]heuristicInfo
// @Router /api/v1/heuristics [get]
func (s *Server) listHeuristics(c *gin.Context) {
	rhythm, pitch := s.opts.Base.Weights()
	c.JSON(http.StatusOK, gin.H{
		"rhythm": heuristics(s.opts.Registry.Rhythm(), rhythm),
		"pitch":  heuristics(s.opts.Registry.Pitch(), pitch),
	})
}

func heuristics(cat fitness.Catalogue, w fitness.Weights) []heuristicInfo {
	out := make([]heuristicInfo, 0, len(cat.Entries))
	for _, e := range cat.Entries {
		out = append(out, heuristicInfo{Name: e.Name, Description: e.Description, DefaultWeight: w.Get(e.Name)})
	}
	return out
}

// handleEvolve godoc
// @Summary Evolve a melody
// @Description Runs the genetic algorithm synchronously and stores the result
// @Tags evolve
// @Accept json
// @Produce json
// @Param request body EvolveRequest true "Run overrides"
// @Success 201 {object} store.Run
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/v1/evolve [post]
func (s *Server) handleEvolve(c *gin.Context) {
	var req EvolveRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
	}

	file, err := s.resolve(req)
	if err != nil {
		s.metrics.runs.With(prometheus.Labels{"status": "invalid"}).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	run, err := s.evolve(c.Request.Context(), file, req.Label)
	if err != nil {
		s.metrics.runs.With(prometheus.Labels{"status": "failed"}).Inc()
		s.opts.Logger.Error("evolve request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.metrics.runs.With(prometheus.Labels{"status": "ok"}).Inc()
	s.metrics.bestFitness.With(prometheus.Labels{"scale": run.Scale}).Set(run.BestFitness)
	c.JSON(http.StatusCreated, run)
}

// resolve layers a request over the base configuration and validates it
func (s *Server) resolve(req EvolveRequest) (config.File, error) {
	f := s.opts.Base
	if req.Preset != "" {
		if err := f.ApplyPreset(req.Preset); err != nil {
			return config.File{}, err
		}
	}
	if req.Scale != "" {
		f.Scale = req.Scale
	}
	if req.Generations > 0 {
		f.Generations = req.Generations
	}
	if req.PopulationSize > 0 {
		f.PopulationSize = req.PopulationSize
	}
	if req.Seed != 0 {
		f.Seed = req.Seed
	}
	if req.RhythmWeights != nil {
		f.RhythmWeights = req.RhythmWeights
	}
	if req.PitchWeights != nil {
		f.PitchWeights = req.PitchWeights
	}

	if f.Generations > s.opts.MaxGenerations {
		return config.File{}, fmt.Errorf("%w: generations %d above limit %d", evolve.ErrInvalidConfig, f.Generations, s.opts.MaxGenerations)
	}
	if f.PopulationSize > s.opts.MaxPopulation {
		return config.File{}, fmt.Errorf("%w: population size %d above limit %d", evolve.ErrInvalidConfig, f.PopulationSize, s.opts.MaxPopulation)
	}
	if err := f.Validate(s.opts.Registry); err != nil {
		return config.File{}, err
	}
	return f, nil
}

func (s *Server) evolve(ctx context.Context, f config.File, label string) (store.Run, error) {
	sc, err := f.ResolveScale()
	if err != nil {
		return store.Run{}, err
	}
	rw, pw := f.Weights()
	rhythmFn, err := s.opts.Registry.Rhythm().Compose(rw)
	if err != nil {
		return store.Run{}, err
	}
	pitchFn, err := s.opts.Registry.Pitch().Compose(pw)
	if err != nil {
		return store.Run{}, err
	}

	engine, err := evolve.New(f.Evolve(), sc, rhythmFn, pitchFn,
		evolve.WithLogger(s.opts.Logger),
		evolve.WithObserver(func(st evolve.GenerationStats) {
			s.metrics.generations.Inc()
			s.metrics.faults.Add(float64(st.Faults))
		}),
	)
	if err != nil {
		return store.Run{}, err
	}
	res, err := engine.Run(ctx)
	if err != nil {
		return store.Run{}, err
	}

	run := store.NewRun(label, f.Scale, res, engine.Config(), rw.Map(), pw.Map())
	if err := s.opts.Store.Put(ctx, run); err != nil {
		return store.Run{}, fmt.Errorf("store run: %w", err)
	}
	return run, nil
}

// listRuns godoc
// @Summary List stored runs
// @Description Returns stored runs, newest first, without their history
// @Tags runs
// @Produce json
// @Success 200 {object} map[string][]store.Run
// @Router /api/v1/runs [get]
func (s *Server) listRuns(c *gin.Context) {
	runs, err := s.opts.Store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range runs {
		runs[i].History = nil
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

// getRun godoc
// @Summary Get a stored run
// @Tags runs
// @Produce json
// @Param id path string true "Run id"
// @Success 200 {object} store.Run
// @Failure 404 {object} map[string]string
// @Router /api/v1/runs/{id} [get]
func (s *Server) getRun(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, run)
}

// deleteRun godoc
// @Summary Delete a stored run
// @Tags runs
// @Param id path string true "Run id"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /api/v1/runs/{id} [delete]
func (s *Server) deleteRun(c *gin.Context) {
	err := s.opts.Store.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

// getRunMIDI godoc
// @Summary Download a run as MIDI
// @Tags runs
// @Produce audio/midi
// @Param id path string true "Run id"
// @Success 200 {file} binary
// @Failure 404 {object} map[string]string
// @Router /api/v1/runs/{id}/midi [get]
func (s *Server) getRunMIDI(c *gin.Context) {
	run, ok := s.lookup(c)
	if !ok {
		return
	}
	data, err := s.opts.Base.Writer().Encode(run.Notes)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.mid", run.ID))
	c.Data(http.StatusOK, "audio/midi", data)
}

func (s *Server) lookup(c *gin.Context) (store.Run, bool) {
	run, err := s.opts.Store.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Run not found"})
		return store.Run{}, false
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return store.Run{}, false
	}
	return run, true
}
