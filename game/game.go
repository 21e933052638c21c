// Package game wires a headless simulation run: the agent registry, the
// simulation step, telemetry and the run log.
package game

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/states"
	"github.com/pthm-cable/herd/storage"
	"github.com/pthm-cable/herd/systems"
	"github.com/pthm-cable/herd/telemetry"
	"github.com/pthm-cable/herd/terrain"
)

var _ systems.Recorder = (*telemetry.Collector)(nil)

// Result summarizes a finished run.
type Result struct {
	Seed           int64
	Ticks          int32
	FinalPrey      int
	FinalPredators int
	Catches        int
	Transitions    int
	MeanNearest    float64 // mean of the per-window median spacing
	Duration       time.Duration
}

// Game holds the complete state of one simulation run.
type Game struct {
	cfg  *config.Config
	opts Options

	registry *systems.Registry
	system   *systems.DynamicSystem

	collector        *telemetry.Collector
	stepTimer        *telemetry.StepTimer
	bookmarkDetector *telemetry.BookmarkDetector
	output           *telemetry.RunOutput

	runID   int64
	started time.Time

	// Run totals accumulated over flushed windows
	catches     int
	transitions int
	nearestSum  float64
	windows     int
}

// NewGameWithOptions builds and populates a run.
func NewGameWithOptions(cfg *config.Config, forces *config.ForceController, opts Options) (*Game, error) {
	terr := terrain.New(cfg.Terrain, opts.Seed)
	reg := systems.NewRegistry(cfg, forces, terr, opts.Seed)
	reg.Populate(cfg)

	solver := systems.EulerSolver{Drag: cfg.Solver.Drag, Terrain: terr}
	sys := systems.NewDynamicSystem(reg, solver, states.NewPolicy(cfg.Transitions), cfg.World.Timestep)

	windowTicks := opts.WindowTicks
	if windowTicks <= 0 {
		windowTicks = cfg.Telemetry.WindowTicks
	}

	g := &Game{
		cfg:              cfg,
		opts:             opts,
		registry:         reg,
		system:           sys,
		collector:        telemetry.NewCollector(windowTicks, cfg.World.Timestep),
		stepTimer:        telemetry.NewStepTimer(cfg.Telemetry.PerfWindow),
		bookmarkDetector: telemetry.NewBookmarkDetector(10),
		started:          time.Now(),
	}
	sys.SetRecorder(g.collector)
	sys.SetPerf(g.stepTimer)

	out, err := telemetry.NewRunOutput(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.output = out
	if err := out.WriteSetup(cfg, forces); err != nil {
		out.Close()
		return nil, fmt.Errorf("writing run setup: %w", err)
	}

	if opts.Store != nil {
		id, err := opts.Store.BeginRun(opts.Seed, cfg.Population.Prey, cfg.Population.Predators)
		if err != nil {
			om.Close()
			return nil, err
		}
		g.runID = id
	}

	return g, nil
}

// Registry returns the agent registry.
func (g *Game) Registry() *systems.Registry { return g.registry }

// System returns the simulation step.
func (g *Game) System() *systems.DynamicSystem { return g.system }

// Tick returns the number of completed steps.
func (g *Game) Tick() int32 { return g.system.Tick() }

// RunID returns the run log ID, or 0 without a store.
func (g *Game) RunID() int64 { return g.runID }

// Update runs one simulation step and flushes telemetry when a window ends.
func (g *Game) Update() {
	g.system.ComputeSimulationStep()
	g.flushTelemetry()
}

// Run steps the simulation until maxTicks steps have completed (0 = until
// ctx is cancelled).
func (g *Game) Run(ctx context.Context, maxTicks int) error {
	for maxTicks <= 0 || int(g.Tick()) < maxTicks {
		if err := ctx.Err(); err != nil {
			return err
		}
		g.Update()
	}
	return nil
}

// RunRealtime paces the simulation against the wall clock with a
// fixed-step animator, polling every frame.
func (g *Game) RunRealtime(ctx context.Context, maxTicks int, frame time.Duration) error {
	animator := systems.NewAnimator(g.system)
	ticker := time.NewTicker(frame)
	defer ticker.Stop()

	last := time.Now()
	for maxTicks <= 0 || int(g.Tick()) < maxTicks {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			g.stepTimer.RecordFrame()
			elapsed := now.Sub(last)
			last = now
			if animator.Animate(elapsed) {
				g.flushTelemetry()
			}
		}
	}
	return nil
}

// Result summarizes the run so far.
func (g *Game) Result() Result {
	r := Result{
		Seed:        g.opts.Seed,
		Ticks:       g.Tick(),
		Catches:     g.catches,
		Transitions: g.transitions,
		Duration:    time.Since(g.started),
	}
	for _, b := range g.registry.Movables() {
		if !b.Alive {
			continue
		}
		switch b.Kind {
		case components.KindPrey:
			r.FinalPrey++
		case components.KindPredator:
			r.FinalPredators++
		}
	}
	if g.windows > 0 {
		r.MeanNearest = g.nearestSum / float64(g.windows)
	}
	return r
}

// Unload finishes the run record, saves a final snapshot and closes output files.
func (g *Game) Unload() error {
	res := g.Result()

	if g.output != nil {
		g.saveSnapshot(nil)
	}

	var firstErr error
	if g.opts.Store != nil {
		err := g.opts.Store.FinishRun(storage.Run{
			ID:             g.runID,
			Ticks:          res.Ticks,
			FinalPrey:      res.FinalPrey,
			FinalPredators: res.FinalPredators,
			Catches:        res.Catches,
			Duration:       res.Duration,
		})
		if err != nil {
			firstErr = err
		}
	}
	if err := g.output.Close(); err != nil && firstErr == nil {
		firstErr = err
	}

	slog.Info("run_complete",
		"seed", res.Seed,
		"ticks", res.Ticks,
		"prey", res.FinalPrey,
		"predators", res.FinalPredators,
		"catches", res.Catches,
		"duration_ms", res.Duration.Milliseconds(),
	)
	return firstErr
}
