package systems

import (
	"cmp"
	"log/slog"
	"math"
	"math/rand"
	"slices"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/terrain"
)

// spawnAttempts bounds the search for dry land when placing an agent.
const spawnAttempts = 32

// SpawnSpec describes a movable agent to create.
type SpawnSpec struct {
	Kind       components.Kind
	State      components.StateID
	Pos        r3.Vec
	Vel        r3.Vec
	Scale      float64
	IsLeader   bool
	Leader     ecs.Entity
	Gauges     components.Gauges
	Perception components.Perception
}

// Registry owns every agent. Movables and rooted agents live in an ark
// world and are kept in insertion order. Pointers returned by Movables,
// Rooted, Resolve and Neighbors stay valid until the next spawn or removal.
type Registry struct {
	world         *ecs.World
	movableMapper *ecs.Map2[components.Boid, components.Movable]
	rootedMapper  *ecs.Map2[components.Boid, components.Rooted]
	movableFilter *ecs.Filter2[components.Boid, components.Movable]
	boidMap       *ecs.Map1[components.Boid]

	movableOrder []ecs.Entity
	rootedOrder  []ecs.Entity

	// Per-tick snapshot, rebuilt when stale
	movables []*components.Boid
	rooted   []*components.Boid
	handles  map[*components.Boid]ecs.Entity
	stale    bool

	grid        *SpatialGrid
	neighborBuf []*components.Boid

	terrain terrain.Terrain
	forces  *config.ForceController
	rates   config.GaugesConfig
	rng     *rand.Rand
	walls   float64
	nextID  uint32
}

// NewRegistry creates an empty registry.
func NewRegistry(cfg *config.Config, forces *config.ForceController, terr terrain.Terrain, seed int64) *Registry {
	world := ecs.NewWorld()
	return &Registry{
		world:         world,
		movableMapper: ecs.NewMap2[components.Boid, components.Movable](world),
		rootedMapper:  ecs.NewMap2[components.Boid, components.Rooted](world),
		movableFilter: ecs.NewFilter2[components.Boid, components.Movable](world),
		boidMap:       ecs.NewMap1[components.Boid](world),
		handles:       make(map[*components.Boid]ecs.Entity),
		grid:          NewSpatialGrid(cfg.Derived.GridExtent, cfg.World.GridCellSize),
		terrain:       terr,
		forces:        forces,
		rates:         cfg.Gauges,
		rng:           rand.New(rand.NewSource(seed)),
		walls:         cfg.World.WallDistance,
		nextID:        1,
	}
}

// SpawnMovable creates a movable agent and returns its handle.
func (r *Registry) SpawnMovable(spec SpawnSpec) ecs.Entity {
	b := components.Boid{
		ID:         r.nextID,
		Kind:       spec.Kind,
		State:      spec.State,
		Pos:        spec.Pos,
		Vel:        spec.Vel,
		Scale:      spec.Scale,
		Alive:      true,
		IsLeader:   spec.IsLeader,
		Leader:     spec.Leader,
		Gauges:     spec.Gauges,
		Perception: spec.Perception,
	}
	b.SyncHeading()
	r.nextID++

	e := r.movableMapper.NewEntity(&b, &components.Movable{})
	r.movableOrder = append(r.movableOrder, e)
	r.stale = true
	return e
}

// SpawnRooted creates an immobile agent such as food or an obstacle.
func (r *Registry) SpawnRooted(kind components.Kind, pos r3.Vec, radius float64) ecs.Entity {
	b := components.Boid{
		ID:     r.nextID,
		Kind:   kind,
		State:  components.StateStay,
		Pos:    pos,
		Scale:  1,
		Radius: radius,
		Alive:  true,
	}
	r.nextID++

	e := r.rootedMapper.NewEntity(&b, &components.Rooted{})
	r.rootedOrder = append(r.rootedOrder, e)
	r.stale = true
	return e
}

// Remove deletes an agent and clears every reference to it.
func (r *Registry) Remove(e ecs.Entity) {
	if components.IsNone(e) || !r.world.Alive(e) {
		return
	}
	r.movableOrder = slices.DeleteFunc(r.movableOrder, func(o ecs.Entity) bool { return o == e })
	r.rootedOrder = slices.DeleteFunc(r.rootedOrder, func(o ecs.Entity) bool { return o == e })

	for _, o := range r.movableOrder {
		r.boidMap.Get(o).ClearRef(e)
	}
	r.world.RemoveEntity(e)
	r.stale = true
}

// Kill marks an agent dead. It stays in the registry until removed.
func (r *Registry) Kill(e ecs.Entity) {
	if b := r.Resolve(e); b != nil {
		b.Die()
	}
}

// RemoveDead removes every dead movable and returns how many were removed.
func (r *Registry) RemoveDead() int {
	var dead []ecs.Entity
	query := r.movableFilter.Query()
	for query.Next() {
		b, _ := query.Get()
		if !b.Alive {
			dead = append(dead, query.Entity())
		}
	}
	for _, e := range dead {
		r.Remove(e)
	}
	return len(dead)
}

// Reindex rebuilds the agent snapshot and the spatial grid.
func (r *Registry) Reindex() {
	r.refresh()
	r.grid.Clear()
	for _, b := range r.movables {
		r.grid.Insert(r.handles[b], b.Pos.X, b.Pos.Y)
	}
}

func (r *Registry) refresh() {
	if !r.stale {
		return
	}
	clear(r.handles)
	r.movables = r.snapshot(r.movables[:0], r.movableOrder)
	r.rooted = r.snapshot(r.rooted[:0], r.rootedOrder)
	r.stale = false
}

func (r *Registry) snapshot(dst []*components.Boid, order []ecs.Entity) []*components.Boid {
	for _, e := range order {
		b := r.boidMap.Get(e)
		r.handles[b] = e
		dst = append(dst, b)
	}
	return dst
}

// Movables returns the movable agents in insertion order, dead ones included.
func (r *Registry) Movables() []*components.Boid {
	r.refresh()
	return r.movables
}

// Rooted returns the immobile agents in insertion order.
func (r *Registry) Rooted() []*components.Boid {
	r.refresh()
	return r.rooted
}

// Resolve returns the agent behind e, or nil for an unset or removed handle.
func (r *Registry) Resolve(e ecs.Entity) *components.Boid {
	if components.IsNone(e) || !r.world.Alive(e) {
		return nil
	}
	return r.boidMap.Get(e)
}

// Entity returns the handle of an agent obtained from this registry.
func (r *Registry) Entity(a *components.Boid) ecs.Entity {
	r.refresh()
	return r.handles[a]
}

// Neighbors returns every movable within the agent's query radius, the
// agent included, in insertion order. The slice is reused by the next call.
func (r *Registry) Neighbors(a *components.Boid) []*components.Boid {
	if r.stale {
		r.Reindex()
	}
	r.neighborBuf = r.grid.QueryRadiusInto(r.neighborBuf[:0], a.Pos.X, a.Pos.Y, a.Perception.QueryRadius(), r.boidMap)
	// IDs grow with insertion, so first-seen ties follow spawn order
	slices.SortFunc(r.neighborBuf, func(x, y *components.Boid) int {
		return cmp.Compare(x.ID, y.ID)
	})
	return r.neighborBuf
}

// Biome returns the terrain biome under the agent.
func (r *Registry) Biome(a *components.Boid) terrain.Biome {
	return r.terrain.Biome(a.Pos.X, a.Pos.Y)
}

// Terrain returns the terrain the agents live on.
func (r *Registry) Terrain() terrain.Terrain { return r.terrain }

// Forces returns the coefficient table.
func (r *Registry) Forces() *config.ForceController { return r.forces }

// Rates returns the gauge rates.
func (r *Registry) Rates() config.GaugesConfig { return r.rates }

// Rand returns the registry's random source.
func (r *Registry) Rand() *rand.Rand { return r.rng }

// Walls returns the soft boundary distance from the origin.
func (r *Registry) Walls() float64 { return r.walls }

// Populate sets up the scene described by cfg.Population: rooted agents
// first, then prey (leaders before followers), then predators.
func (r *Registry) Populate(cfg *config.Config) {
	pop := cfg.Population
	state, ok := components.ParseState(pop.InitialState)
	if !ok {
		slog.Warn("unknown_initial_state", "state", pop.InitialState, "fallback", components.StateWalk.String())
		state = components.StateWalk
	}

	for i := 0; i < pop.Resources; i++ {
		r.SpawnRooted(components.KindResource, r.landPoint(pop.SpawnRadius), pop.ResourceRadius)
	}
	for i := 0; i < pop.Obstacles; i++ {
		r.SpawnRooted(components.KindObstacle, r.landPoint(pop.SpawnRadius), pop.ObstacleRadius)
	}

	preyPerception := components.PerceptionFromSpecies(cfg.Species.Prey)
	leaders := make([]ecs.Entity, 0, pop.PreyLeaders)
	for i := 0; i < pop.Prey; i++ {
		spec := r.movableSpec(components.KindPrey, state, preyPerception, cfg.Species.Prey.Scale, cfg.Gauges.Initial, pop.SpawnRadius)
		if i < pop.PreyLeaders {
			spec.IsLeader = true
			leaders = append(leaders, r.SpawnMovable(spec))
			continue
		}
		if len(leaders) > 0 {
			spec.Leader = leaders[i%len(leaders)]
		}
		r.SpawnMovable(spec)
	}

	predPerception := components.PerceptionFromSpecies(cfg.Species.Predator)
	for i := 0; i < pop.Predators; i++ {
		spec := r.movableSpec(components.KindPredator, state, predPerception, cfg.Species.Predator.Scale, cfg.Gauges.Initial, pop.SpawnRadius)
		r.SpawnMovable(spec)
	}

	slog.Info("populated",
		"prey", pop.Prey,
		"predators", pop.Predators,
		"resources", pop.Resources,
		"obstacles", pop.Obstacles,
		"state", state.String(),
	)
}

func (r *Registry) movableSpec(kind components.Kind, state components.StateID, p components.Perception, scale, gauge, radius float64) SpawnSpec {
	heading := r.rng.Float64() * 2 * math.Pi
	speed := p.MaxSpeed * (0.25 + 0.5*r.rng.Float64())
	return SpawnSpec{
		Kind:       kind,
		State:      state,
		Pos:        r.landPoint(radius),
		Vel:        r3.Vec{X: math.Cos(heading) * speed, Y: math.Sin(heading) * speed},
		Scale:      scale,
		Gauges:     components.NewGauges(gauge),
		Perception: p,
	}
}

// landPoint picks a random point within radius of the origin, preferring
// dry land. After spawnAttempts misses the last candidate is used.
func (r *Registry) landPoint(radius float64) r3.Vec {
	var p r3.Vec
	for i := 0; i < spawnAttempts; i++ {
		angle := r.rng.Float64() * 2 * math.Pi
		dist := radius * math.Sqrt(r.rng.Float64())
		p = r3.Vec{X: math.Cos(angle) * dist, Y: math.Sin(angle) * dist}
		if !r.terrain.Biome(p.X, p.Y).IsWater() {
			break
		}
	}
	p.Z = r.terrain.Height(p.X, p.Y)
	return p
}
