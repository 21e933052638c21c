package terrain

import (
	"testing"

	"github.com/pthm-cable/herd/config"
)

func testTerrainConfig() config.TerrainConfig {
	return config.TerrainConfig{
		Kind:         "island",
		Scale:        0.035,
		Octaves:      3,
		SeaLevel:     0.32,
		HeightScale:  6,
		IslandRadius: 120,
	}
}

func TestFlat(t *testing.T) {
	f := Flat{Level: 2, Ground: BiomeBeach}
	if f.Height(10, -3) != 2 {
		t.Errorf("Height = %v, want 2", f.Height(10, -3))
	}
	if f.Biome(10, -3) != BiomeBeach {
		t.Errorf("Biome = %v, want beach", f.Biome(10, -3))
	}
}

func TestNewSelectsKind(t *testing.T) {
	cfg := testTerrainConfig()
	if _, ok := New(cfg, 1).(*Island); !ok {
		t.Error("expected island terrain")
	}
	cfg.Kind = "flat"
	if _, ok := New(cfg, 1).(Flat); !ok {
		t.Error("expected flat terrain")
	}
}

func TestIslandBeyondRadiusIsDeepWater(t *testing.T) {
	island := NewIsland(testTerrainConfig(), 7)

	points := [][2]float64{{130, 0}, {0, -200}, {500, 500}}
	for _, p := range points {
		if b := island.Biome(p[0], p[1]); b != BiomeDeepWater {
			t.Errorf("Biome(%v, %v) = %v, want deep_water", p[0], p[1], b)
		}
		if h := island.Height(p[0], p[1]); h != 0 {
			t.Errorf("Height(%v, %v) = %v, want 0 over water", p[0], p[1], h)
		}
	}
}

func TestIslandDeterministic(t *testing.T) {
	a := NewIsland(testTerrainConfig(), 42)
	b := NewIsland(testTerrainConfig(), 42)

	for x := -60.0; x <= 60; x += 15 {
		for y := -60.0; y <= 60; y += 15 {
			if a.Elevation(x, y) != b.Elevation(x, y) {
				t.Fatalf("elevation differs at (%v, %v)", x, y)
			}
		}
	}
}

func TestIslandElevationBounded(t *testing.T) {
	island := NewIsland(testTerrainConfig(), 3)
	for x := -150.0; x <= 150; x += 10 {
		for y := -150.0; y <= 150; y += 10 {
			e := island.Elevation(x, y)
			if e < 0 || e > 1 {
				t.Fatalf("elevation %v out of [0, 1] at (%v, %v)", e, x, y)
			}
			if island.Height(x, y) < 0 {
				t.Fatalf("negative height at (%v, %v)", x, y)
			}
		}
	}
}

func TestBiomeIsWater(t *testing.T) {
	tests := []struct {
		b    Biome
		want bool
	}{
		{BiomeDeepWater, true},
		{BiomeShallowWater, true},
		{BiomeBeach, false},
		{BiomeGrass, false},
		{BiomeMountain, false},
	}
	for _, tt := range tests {
		if got := tt.b.IsWater(); got != tt.want {
			t.Errorf("%v.IsWater() = %v, want %v", tt.b, got, tt.want)
		}
	}
}
