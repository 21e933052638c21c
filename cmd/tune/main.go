// Package main provides CMA-ES tuning of the steering force coefficients
// for cohesive herds that stay on the island and survive predation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/optimize"

	"github.com/pthm-cable/herd/config"
)

// formatDuration formats a duration as HH:MM:SS or MM:SS for shorter durations.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	return fmt.Sprintf("%dm%02ds", m, s)
}

// evalRow is one line of tune_log.csv.
type evalRow struct {
	Eval               int     `csv:"eval"`
	Fitness            float64 `csv:"fitness"`
	Quality            float64 `csv:"quality"`
	Separate           float64 `csv:"separate"`
	Evade              float64 `csv:"evade"`
	Cohesion           float64 `csv:"cohesion"`
	Align              float64 `csv:"align"`
	StayWithinWalls    float64 `csv:"stay_within_walls"`
	StayInIsland       float64 `csv:"stay_in_island"`
	CollisionAvoidance float64 `csv:"collision_avoidance"`
	FollowLeader       float64 `csv:"follow_leader"`
}

func newEvalRow(eval int, fitness, quality float64, fc *config.ForceController) evalRow {
	return evalRow{
		Eval:               eval,
		Fitness:            fitness,
		Quality:            quality,
		Separate:           fc.Separate,
		Evade:              fc.Evade,
		Cohesion:           fc.Cohesion,
		Align:              fc.Align,
		StayWithinWalls:    fc.StayWithinWalls,
		StayInIsland:       fc.StayInIsland,
		CollisionAvoidance: fc.CollisionAvoidance,
		FollowLeader:       fc.FollowLeader,
	}
}

func main() {
	if err := run(); err != nil {
		slog.Error("tune failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "Base config YAML file (empty = use defaults)")
	coeffPath := flag.String("coefficients", "", "Starting coefficient table (empty = config or embedded)")
	maxTicks := flag.Int("ticks", 1200, "Simulation length per run in ticks")
	seeds := flag.Int("seeds", 3, "Number of seeds per evaluation")
	maxEvals := flag.Int("max-evals", 200, "Maximum number of evaluations")
	population := flag.Int("population", 0, "CMA-ES population size (0 = auto)")
	outputDir := flag.String("output", "", "Output directory for results")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if *outputDir == "" {
		return fmt.Errorf("--output is required")
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	baseCfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	startPath := baseCfg.Coefficients
	if *coeffPath != "" {
		startPath = *coeffPath
	}
	start, err := config.LoadCoefficients(startPath)
	if err != nil {
		return err
	}

	params := NewParamVector(start)

	evalSeeds := make([]int64, *seeds)
	for i := range evalSeeds {
		evalSeeds[i] = int64(i*1000 + 42)
	}

	evaluator := NewFitnessEvaluator(params, *maxTicks, evalSeeds, baseCfg)

	dim := params.Dim()
	initX := params.Normalize(params.DefaultVector())

	popSize := *population
	if popSize == 0 {
		popSize = 4 + int(3.0*float64(dim)/2.0)
	}

	method := &optimize.CmaEsChol{
		InitStepSize: 0.3,
		Population:   popSize,
	}
	settings := &optimize.Settings{
		FuncEvaluations: *maxEvals,
		Concurrent:      0, // seeds already run in parallel
	}

	logPath := filepath.Join(*outputDir, "tune_log.csv")
	logFile, err := os.Create(logPath)
	if err != nil {
		return fmt.Errorf("creating log file: %w", err)
	}
	defer logFile.Close()
	headerWritten := false

	evalCount := 0
	bestFitness := 1e9
	var bestParams []float64
	startTime := time.Now()

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			raw := params.Clamp(params.Denormalize(x))
			fitness := evaluator.Evaluate(raw)
			quality := evaluator.LastQuality()
			evalCount++

			if fitness < bestFitness {
				bestFitness = fitness
				bestParams = raw
			}

			rows := []evalRow{newEvalRow(evalCount, fitness, quality, params.Coefficients(raw))}
			if !headerWritten {
				err = gocsv.Marshal(rows, logFile)
				headerWritten = true
			} else {
				err = gocsv.MarshalWithoutHeaders(rows, logFile)
			}
			if err != nil {
				slog.Error("failed to write tune log", "error", err)
			}

			elapsed := time.Since(startTime)
			avgPerEval := elapsed / time.Duration(evalCount)
			remaining := time.Duration(*maxEvals-evalCount) * avgPerEval
			fmt.Printf("Eval %d/%d: fitness=%.4f quality=%.2f (best=%.4f) | elapsed: %s, ETA: %s\n",
				evalCount, *maxEvals, fitness, quality, bestFitness,
				formatDuration(elapsed), formatDuration(remaining))

			return fitness
		},
	}

	fmt.Printf("Starting CMA-ES tuning with %d coefficients, population=%d, max_evals=%d\n",
		dim, popSize, *maxEvals)
	fmt.Printf("Seeds per evaluation: %d, ticks per run: %d\n", *seeds, *maxTicks)

	result, err := optimize.Minimize(problem, initX, settings, method)
	if err != nil {
		slog.Warn("optimization ended", "error", err)
	}

	if bestParams == nil && result != nil {
		bestParams = params.Clamp(params.Denormalize(result.X))
	}
	if bestParams == nil {
		return fmt.Errorf("no evaluations completed")
	}

	fmt.Printf("\nTuning complete after %d evaluations in %s\n", evalCount, formatDuration(time.Since(startTime)))
	fmt.Printf("Best fitness: %.4f\n", bestFitness)

	best := params.Coefficients(bestParams)
	fmt.Println("\nBest coefficients:")
	m := best.Map()
	for _, key := range best.Keys() {
		fmt.Printf("  %s: %.6f\n", key, m[key])
	}

	outPath := filepath.Join(*outputDir, "best_coefficients.yaml")
	if err := best.WriteYAML(outPath); err != nil {
		return err
	}
	fmt.Printf("\nBest coefficients saved to: %s\n", outPath)
	return nil
}
