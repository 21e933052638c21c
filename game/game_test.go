package game

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/storage"
	"github.com/pthm-cable/herd/telemetry"
)

func newTestGame(t *testing.T, opts Options) *Game {
	t.Helper()
	cfg := config.MustLoad("")
	cfg.Telemetry.WindowTicks = 50
	g, err := NewGameWithOptions(cfg, config.MustLoadCoefficients(""), opts)
	if err != nil {
		t.Fatalf("NewGameWithOptions failed: %v", err)
	}
	return g
}

func TestRunWritesOutputsAndRunLog(t *testing.T) {
	dir := t.TempDir()
	store, err := storage.Open(filepath.Join(dir, "runs.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	var windows int
	g := newTestGame(t, Options{
		Seed:          3,
		OutputDir:     filepath.Join(dir, "out"),
		Store:         store,
		StatsCallback: func(telemetry.WindowStats) { windows++ },
	})

	if err := g.Run(context.Background(), 100); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if g.Tick() != 100 {
		t.Errorf("tick = %d, want 100", g.Tick())
	}
	if windows != 2 {
		t.Errorf("flushed %d windows, want 2", windows)
	}
	if err := g.Unload(); err != nil {
		t.Fatalf("Unload failed: %v", err)
	}

	for _, name := range []string{"telemetry.csv", "perf.csv", "config.yaml", "coefficients.yaml", "snapshots/snapshot_100.json"} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
			t.Errorf("missing output %s: %v", name, err)
		}
	}

	run, err := store.RunByID(g.RunID())
	if err != nil {
		t.Fatalf("RunByID failed: %v", err)
	}
	if !run.Finished || run.Ticks != 100 || run.Seed != 3 {
		t.Errorf("unexpected run record: %+v", run)
	}
	rows, err := store.Windows(g.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1].WindowEndTick != 100 {
		t.Errorf("unexpected windows: %+v", rows)
	}
}

func TestRunHonorsContext(t *testing.T) {
	g := newTestGame(t, Options{Seed: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := g.Run(ctx, 0); !errors.Is(err, context.Canceled) {
		t.Errorf("Run error = %v, want context.Canceled", err)
	}
	if g.Tick() != 0 {
		t.Errorf("cancelled run stepped %d times", g.Tick())
	}
}

func TestSameSeedSameTrajectory(t *testing.T) {
	a := newTestGame(t, Options{Seed: 11})
	b := newTestGame(t, Options{Seed: 11})

	for i := 0; i < 60; i++ {
		a.Update()
		b.Update()
	}

	ma, mb := a.Registry().Movables(), b.Registry().Movables()
	if len(ma) != len(mb) {
		t.Fatalf("population differs: %d vs %d", len(ma), len(mb))
	}
	for i := range ma {
		if ma[i].Pos != mb[i].Pos || ma[i].State != mb[i].State {
			t.Fatalf("agent %d diverged: %+v vs %+v", i, ma[i].Pos, mb[i].Pos)
		}
	}
}

func TestResultCountsLiving(t *testing.T) {
	g := newTestGame(t, Options{Seed: 5})
	cfg := config.MustLoad("")

	res := g.Result()
	if res.FinalPrey != cfg.Population.Prey || res.FinalPredators != cfg.Population.Predators {
		t.Errorf("result = %d prey %d predators, want %d %d",
			res.FinalPrey, res.FinalPredators, cfg.Population.Prey, cfg.Population.Predators)
	}

	g.Registry().Movables()[0].Die()
	if got := g.Result().FinalPrey; got != cfg.Population.Prey-1 {
		t.Errorf("after a death FinalPrey = %d, want %d", got, cfg.Population.Prey-1)
	}
}
