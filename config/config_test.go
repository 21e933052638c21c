package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.World.Timestep <= 0 {
		t.Errorf("expected positive default timestep, got %v", cfg.World.Timestep)
	}
	if cfg.Terrain.Kind != "island" {
		t.Errorf("expected island terrain by default, got %q", cfg.Terrain.Kind)
	}
	if cfg.Derived.MaxVisionRange != cfg.Species.Predator.VisionRange {
		t.Errorf("MaxVisionRange = %v, want predator range %v",
			cfg.Derived.MaxVisionRange, cfg.Species.Predator.VisionRange)
	}
	if cfg.Transitions.Enabled {
		t.Error("transition policy should be opt-in")
	}
}

func TestLoadMergesUserFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := []byte("world:\n  wall_distance: 42\npopulation:\n  prey: 3\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.World.WallDistance != 42 {
		t.Errorf("wall_distance = %v, want 42", cfg.World.WallDistance)
	}
	if cfg.Population.Prey != 3 {
		t.Errorf("population.prey = %d, want 3", cfg.Population.Prey)
	}
	// Untouched fields keep their defaults
	if cfg.World.Timestep != 0.05 {
		t.Errorf("timestep = %v, want default 0.05", cfg.World.Timestep)
	}
}

func TestLoadRejectsBadTerrain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("terrain:\n  kind: lava\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for unknown terrain kind")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestVisionAngleRad(t *testing.T) {
	s := SpeciesConfig{VisionAngle: 180}
	if math.Abs(s.VisionAngleRad()-math.Pi) > 1e-12 {
		t.Errorf("VisionAngleRad = %v, want pi", s.VisionAngleRad())
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg := MustLoad("")
	cfg.Population.Obstacles = 17

	path := filepath.Join(t.TempDir(), "snapshot.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}
	back, err := Load(path)
	if err != nil {
		t.Fatalf("Load snapshot failed: %v", err)
	}
	if back.Population.Obstacles != 17 {
		t.Errorf("obstacles = %d, want 17", back.Population.Obstacles)
	}
}

func TestLoadCoefficientsEmbedded(t *testing.T) {
	fc, err := LoadCoefficients("")
	if err != nil {
		t.Fatalf("LoadCoefficients failed: %v", err)
	}
	if fc.Separate != 1.5 || fc.FollowLeader != 1.0 {
		t.Errorf("unexpected embedded table: %+v", *fc)
	}
	if len(fc.Map()) != len(CoefficientKeys) {
		t.Errorf("Map has %d keys, want %d", len(fc.Map()), len(CoefficientKeys))
	}
}

func TestParseCoefficientsFormats(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"json", `{"separate": 1, "evade": 2, "cohesion": 3, "align": 4,
			"stayWithinWalls": 5, "stayInIsland": 6, "collisionAvoidance": 7, "followLeader": 8}`},
		{"yaml", "separate: 1\nevade: 2\ncohesion: 3\nalign: 4\nstayWithinWalls: 5\n" +
			"stayInIsland: 6\ncollisionAvoidance: 7\nfollowLeader: 8\nunused: 99\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := ParseCoefficients([]byte(tt.data))
			if err != nil {
				t.Fatalf("ParseCoefficients failed: %v", err)
			}
			want := ForceController{1, 2, 3, 4, 5, 6, 7, 8}
			if *fc != want {
				t.Errorf("got %+v, want %+v", *fc, want)
			}
		})
	}
}

func TestParseCoefficientsMissingKey(t *testing.T) {
	_, err := ParseCoefficients([]byte("separate: 1\nevade: 2\n"))
	if err == nil {
		t.Fatal("expected error for missing keys")
	}

	var missing *MissingCoefficientError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingCoefficientError, got %T: %v", err, err)
	}
	if missing.Key != KeyCohesion {
		t.Errorf("missing key = %q, want %q", missing.Key, KeyCohesion)
	}
}

func TestLoadCoefficientsWrapsPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "coeffs.yaml")
	if err := os.WriteFile(path, []byte("separate: 1\n"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadCoefficients(path)
	var missing *MissingCoefficientError
	if !errors.As(err, &missing) {
		t.Fatalf("expected wrapped MissingCoefficientError, got %v", err)
	}
}
