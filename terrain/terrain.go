// Package terrain provides the height and biome queries the simulation
// consumes. Elevation is never steered; it is read by the solver and by
// island containment.
package terrain

import (
	"math"

	"github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/herd/config"
)

// Biome classifies the ground at a point.
type Biome uint8

const (
	BiomeDeepWater Biome = iota
	BiomeShallowWater
	BiomeBeach
	BiomeGrass
	BiomeForest
	BiomeMountain
)

// String returns the display name for a Biome.
func (b Biome) String() string {
	switch b {
	case BiomeDeepWater:
		return "deep_water"
	case BiomeShallowWater:
		return "shallow_water"
	case BiomeBeach:
		return "beach"
	case BiomeGrass:
		return "grass"
	case BiomeForest:
		return "forest"
	case BiomeMountain:
		return "mountain"
	}
	return "unknown"
}

// IsWater reports whether agents should be pushed back out of b.
func (b Biome) IsWater() bool {
	return b == BiomeDeepWater || b == BiomeShallowWater
}

// Terrain answers height and biome queries at planar coordinates.
type Terrain interface {
	Height(x, y float64) float64
	Biome(x, y float64) Biome
}

// New builds the terrain named by cfg.Kind.
func New(cfg config.TerrainConfig, seed int64) Terrain {
	if cfg.Kind == "flat" {
		return Flat{Ground: BiomeGrass}
	}
	return NewIsland(cfg, seed)
}

// Flat is a level terrain with a single biome everywhere.
type Flat struct {
	Level  float64
	Ground Biome
}

// Height returns the constant level.
func (f Flat) Height(x, y float64) float64 { return f.Level }

// Biome returns the constant ground biome.
func (f Flat) Biome(x, y float64) Biome { return f.Ground }

// Island is a noise height field shaped into an island by a radial falloff.
type Island struct {
	noise        opensimplex.Noise
	scale        float64
	octaves      int
	seaLevel     float64
	heightScale  float64
	islandRadius float64
}

// NewIsland creates an island terrain from cfg.
func NewIsland(cfg config.TerrainConfig, seed int64) *Island {
	octaves := cfg.Octaves
	if octaves < 1 {
		octaves = 1
	}
	radius := cfg.IslandRadius
	if radius <= 0 {
		radius = 1
	}
	return &Island{
		noise:        opensimplex.NewNormalized(seed),
		scale:        cfg.Scale,
		octaves:      octaves,
		seaLevel:     cfg.SeaLevel,
		heightScale:  cfg.HeightScale,
		islandRadius: radius,
	}
}

// Elevation returns the normalized elevation in [0, 1].
func (t *Island) Elevation(x, y float64) float64 {
	// Fractal sum, normalized by the total amplitude
	var sum, amp, norm float64 = 0, 1, 0
	freq := t.scale
	for i := 0; i < t.octaves; i++ {
		sum += t.noise.Eval2(x*freq, y*freq) * amp
		norm += amp
		amp *= 0.5
		freq *= 2
	}
	e := sum / norm

	d := math.Hypot(x, y) / t.islandRadius
	falloff := 1 - d*d
	if falloff < 0 {
		falloff = 0
	}
	return e * falloff
}

// Height returns the land height above sea level; water reads as 0.
func (t *Island) Height(x, y float64) float64 {
	h := t.Elevation(x, y) - t.seaLevel
	if h < 0 {
		return 0
	}
	return h * t.heightScale
}

// Biome classifies the ground by elevation relative to sea level.
func (t *Island) Biome(x, y float64) Biome {
	e := t.Elevation(x, y)
	switch {
	case e < t.seaLevel*0.6:
		return BiomeDeepWater
	case e < t.seaLevel:
		return BiomeShallowWater
	case e < t.seaLevel+0.05:
		return BiomeBeach
	case e < t.seaLevel+0.25:
		return BiomeGrass
	case e < t.seaLevel+0.4:
		return BiomeForest
	}
	return BiomeMountain
}
