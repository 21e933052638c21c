package main

import (
	"context"
	"testing"

	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/game"
)

func TestSetupLogging(t *testing.T) {
	tests := []struct {
		format, level string
		wantErr       bool
	}{
		{"json", "info", false},
		{"text", "debug", false},
		{"TEXT", "warn", false},
		{"xml", "info", true},
		{"json", "loud", true},
	}
	for _, tt := range tests {
		err := setupLogging(tt.format, tt.level)
		if (err != nil) != tt.wantErr {
			t.Errorf("setupLogging(%q, %q) error = %v, wantErr %v", tt.format, tt.level, err, tt.wantErr)
		}
	}
}

func TestSweepReturnsSeedOrder(t *testing.T) {
	cfg := config.MustLoad("")
	cfg.Population.Prey = 6
	cfg.Population.Predators = 1
	fc := config.MustLoadCoefficients("")

	seeds := []int64{4, 2, 9}
	results, err := sweep(context.Background(), cfg, fc, seeds, 2, 20, func(seed int64) game.Options {
		return game.Options{Seed: seed}
	})
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []int64{2, 4, 9} {
		if results[i].Seed != want {
			t.Errorf("result %d seed = %d, want %d", i, results[i].Seed, want)
		}
		if results[i].Ticks != 20 {
			t.Errorf("seed %d ran %d ticks, want 20", results[i].Seed, results[i].Ticks)
		}
	}
}

func TestSweepCancelled(t *testing.T) {
	cfg := config.MustLoad("")
	fc := config.MustLoadCoefficients("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := sweep(ctx, cfg, fc, []int64{1}, 1, 10, func(seed int64) game.Options {
		return game.Options{Seed: seed}
	}); err == nil {
		t.Error("expected error from a cancelled sweep")
	}
}
