package main

import (
	"context"
	"log/slog"
	"math"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/game"
	"github.com/pthm-cable/herd/telemetry"
)

// FitnessEvaluator runs headless simulations and scores coefficient tables.
type FitnessEvaluator struct {
	params     *ParamVector
	maxTicks   int
	seeds      []int64
	baseConfig *config.Config

	mu          sync.Mutex
	lastQuality float64 // quality from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:     params,
		maxTicks:   maxTicks,
		seeds:      seeds,
		baseConfig: baseCfg,
	}
}

// LastQuality returns the quality score from the most recent evaluation.
func (fe *FitnessEvaluator) LastQuality() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastQuality
}

// runResult holds the results from a single simulation run.
type runResult struct {
	initialPrey int
	result      game.Result
	waterFrac   float64                 // living prey over water at the end
	windowStats []telemetry.WindowStats // collected via StatsCallback each window
	spacing     float64                 // target nearest-neighbor distance
}

// Evaluate computes fitness for a raw parameter vector (lower = better).
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	fc := fe.params.Coefficients(x)

	results := make([]*runResult, len(fe.seeds))
	var eg errgroup.Group
	for i, seed := range fe.seeds {
		eg.Go(func() error {
			r, err := fe.runSimulation(fc, seed)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		slog.Error("evaluation failed", "error", err)
		return math.Inf(1)
	}

	var totalFitness, totalQuality float64
	for _, r := range results {
		q := computeQuality(r.windowStats, r.spacing)
		totalFitness += computeFitness(r, q)
		totalQuality += q
	}

	n := float64(len(fe.seeds))
	fe.mu.Lock()
	fe.lastQuality = totalQuality / n
	fe.mu.Unlock()

	return totalFitness / n
}

// runSimulation executes a single headless run with predation enabled.
func (fe *FitnessEvaluator) runSimulation(fc *config.ForceController, seed int64) (*runResult, error) {
	cfg := fe.copyConfig()
	cfg.Transitions.Enabled = true

	r := &runResult{
		initialPrey: cfg.Population.Prey,
		spacing:     cfg.Species.Prey.SeparationDistance,
	}

	g, err := game.NewGameWithOptions(cfg, fc, game.Options{
		Seed: seed,
		StatsCallback: func(stats telemetry.WindowStats) {
			r.windowStats = append(r.windowStats, stats)
		},
	})
	if err != nil {
		return nil, err
	}
	if err := g.Run(context.Background(), fe.maxTicks); err != nil {
		return nil, err
	}

	reg := g.Registry()
	var living, wet int
	for _, b := range reg.Movables() {
		if !b.Alive || b.Kind != components.KindPrey {
			continue
		}
		living++
		if reg.Biome(b).IsWater() {
			wet++
		}
	}
	if living > 0 {
		r.waterFrac = float64(wet) / float64(living)
	}
	r.result = g.Result()

	return r, g.Unload()
}

// copyConfig returns an independent copy of the base config. Every
// section is a value, so a struct copy is deep.
func (fe *FitnessEvaluator) copyConfig() *config.Config {
	cfg := *fe.baseConfig
	return &cfg
}

// computeFitness calculates the scalar fitness (lower = better).
// Formula: preyLost + waterFrac - quality
func computeFitness(r *runResult, quality float64) float64 {
	var lost float64
	if r.initialPrey > 0 {
		lost = 1 - float64(r.result.FinalPrey)/float64(r.initialPrey)
	}
	return lost + r.waterFrac - quality
}

// Quality component weights.
const (
	qualityWeightSpacing   = 0.6
	qualityWeightStability = 0.4

	qualityWarmupWindows = 2 // skip first N windows (warmup)
)

// computeQuality scores flock structure in [0, 1]: median spacing near
// target and steady over time.
func computeQuality(windows []telemetry.WindowStats, target float64) float64 {
	if len(windows) <= qualityWarmupWindows || target <= 0 {
		return 0
	}

	valid := windows[qualityWarmupWindows:]
	spacings := make([]float64, 0, len(valid))
	var spacingSum float64
	for _, w := range valid {
		if w.PreyCount < 2 {
			continue
		}
		rel := (w.NearestP50 - target) / target
		spacingSum += math.Exp(-rel * rel)
		spacings = append(spacings, w.NearestP50)
	}
	if len(spacings) == 0 {
		return 0
	}

	spacingScore := spacingSum / float64(len(spacings))

	stabilityScore := 0.0
	if len(spacings) >= 2 {
		c := cv(spacings)
		stabilityScore = math.Exp(-c * c)
	}

	return clamp01(qualityWeightSpacing*spacingScore + qualityWeightStability*stabilityScore)
}

// cv computes the coefficient of variation (std/mean) for a slice of values.
func cv(values []float64) float64 {
	s := telemetry.Summarize(values)
	if s.Mean == 0 {
		return 0
	}
	return s.Std / s.Mean
}

// clamp01 clamps x to [0, 1].
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
