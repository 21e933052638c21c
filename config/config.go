// Package config provides configuration loading for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	World        WorldConfig       `yaml:"world"`
	Terrain      TerrainConfig     `yaml:"terrain"`
	Solver       SolverConfig      `yaml:"solver"`
	Species      SpeciesSet        `yaml:"species"`
	Population   PopulationConfig  `yaml:"population"`
	Gauges       GaugesConfig      `yaml:"gauges"`
	Transitions  TransitionsConfig `yaml:"transitions"`
	Telemetry    TelemetryConfig   `yaml:"telemetry"`
	Coefficients string            `yaml:"coefficients"` // path to the coefficient table (empty = embedded)

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// WorldConfig holds the simulation bounds and timestep.
// The world is centered on the origin; walls sit at ±WallDistance on x and y.
type WorldConfig struct {
	Timestep     float64 `yaml:"timestep"`       // fixed seconds per tick
	WallDistance float64 `yaml:"wall_distance"`  // soft boundary margin from origin
	GridCellSize float64 `yaml:"grid_cell_size"` // spatial grid cell size
}

// TerrainConfig holds the island height field parameters.
type TerrainConfig struct {
	Kind         string  `yaml:"kind"`          // "island" or "flat"
	Scale        float64 `yaml:"scale"`         // base noise frequency
	Octaves      int     `yaml:"octaves"`       // fbm octaves
	SeaLevel     float64 `yaml:"sea_level"`     // normalized height below which terrain is water
	HeightScale  float64 `yaml:"height_scale"`  // world units per normalized height
	IslandRadius float64 `yaml:"island_radius"` // radial falloff distance
}

// SolverConfig holds integrator parameters.
type SolverConfig struct {
	Drag float64 `yaml:"drag"` // linear velocity damping per second
}

// SpeciesSet holds the perception defaults for each movable species.
type SpeciesSet struct {
	Prey     SpeciesConfig `yaml:"prey"`
	Predator SpeciesConfig `yaml:"predator"`
}

// SpeciesConfig holds per-species kinematic and perception parameters.
type SpeciesConfig struct {
	MaxSpeed           float64 `yaml:"max_speed"`
	MaxForce           float64 `yaml:"max_force"`
	VisionAngle        float64 `yaml:"vision_angle"` // full cone, degrees
	VisionRange        float64 `yaml:"vision_range"`
	SeparationDistance float64 `yaml:"separation_distance"`
	CohesionDistance   float64 `yaml:"cohesion_distance"`
	LeaderDistance     float64 `yaml:"leader_distance"`
	WanderRadius       float64 `yaml:"wander_radius"`
	SlowDownRadius     float64 `yaml:"slow_down_radius"`
	Scale              float64 `yaml:"scale"`
}

// VisionAngleRad returns the full vision cone in radians.
func (s SpeciesConfig) VisionAngleRad() float64 {
	return s.VisionAngle * math.Pi / 180
}

// PopulationConfig describes the scene set up at startup.
type PopulationConfig struct {
	Prey           int     `yaml:"prey"`
	Predators      int     `yaml:"predators"`
	PreyLeaders    int     `yaml:"prey_leaders"` // prey that lead; the rest follow round-robin
	Resources      int     `yaml:"resources"`
	Obstacles      int     `yaml:"obstacles"`
	SpawnRadius    float64 `yaml:"spawn_radius"`
	ResourceRadius float64 `yaml:"resource_radius"`
	ObstacleRadius float64 `yaml:"obstacle_radius"`
	InitialState   string  `yaml:"initial_state"`
}

// GaugesConfig holds physiology rates in gauge units per second.
type GaugesConfig struct {
	Initial       float64 `yaml:"initial"`
	Tire          float64 `yaml:"tire"`
	Recover       float64 `yaml:"recover"`
	Hunger        float64 `yaml:"hunger"`
	Satiate       float64 `yaml:"satiate"`
	Thirst        float64 `yaml:"thirst"`
	Quench        float64 `yaml:"quench"`
	DangerRise    float64 `yaml:"danger_rise"`
	DangerDecay   float64 `yaml:"danger_decay"`
	AffinityRise  float64 `yaml:"affinity_rise"`
	AffinityDecay float64 `yaml:"affinity_decay"`
	Exertion      float64 `yaml:"exertion"` // stamina drain multiplier for Flee/Attack
}

// TransitionsConfig holds the gauge thresholds of the opt-in transition policy.
type TransitionsConfig struct {
	Enabled    bool    `yaml:"enabled"`
	FleeDanger float64 `yaml:"flee_danger"`
	CalmDanger float64 `yaml:"calm_danger"`
	Hungry     float64 `yaml:"hungry"`
	Sated      float64 `yaml:"sated"`
	Tired      float64 `yaml:"tired"`
	Rested     float64 `yaml:"rested"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	WindowTicks int `yaml:"window_ticks"`
	PerfWindow  int `yaml:"perf_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	MaxVisionRange float64 // largest vision range across species
	GridExtent     float64 // half-width covered by the spatial grid
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

// MustLoad is like Load but panics on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load: %v", err))
	}
	return cfg
}

func (c *Config) validate() error {
	if c.World.Timestep < 0 {
		return fmt.Errorf("world.timestep must be >= 0, got %v", c.World.Timestep)
	}
	if c.World.WallDistance <= 0 {
		return fmt.Errorf("world.wall_distance must be > 0, got %v", c.World.WallDistance)
	}
	if c.World.GridCellSize <= 0 {
		return fmt.Errorf("world.grid_cell_size must be > 0, got %v", c.World.GridCellSize)
	}
	for name, s := range map[string]SpeciesConfig{"prey": c.Species.Prey, "predator": c.Species.Predator} {
		if s.MaxSpeed <= 0 || s.MaxForce <= 0 {
			return fmt.Errorf("species.%s: max_speed and max_force must be > 0", name)
		}
	}
	switch c.Terrain.Kind {
	case "island", "flat":
	default:
		return fmt.Errorf("terrain.kind: unknown terrain %q", c.Terrain.Kind)
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.MaxVisionRange = math.Max(c.Species.Prey.VisionRange, c.Species.Predator.VisionRange)

	// Agents can overshoot the soft walls, so the grid covers a margin beyond them
	c.Derived.GridExtent = c.World.WallDistance + c.Derived.MaxVisionRange
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
