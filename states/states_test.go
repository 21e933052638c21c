package states

import (
	"math"
	"math/rand"
	"testing"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/steering"
	"github.com/pthm-cable/herd/terrain"
)

const eps = 1e-9

// fakeWorld is a minimal World over plain slices. Entity handles come from
// a real ark world so relation fields behave as in the simulation.
type fakeWorld struct {
	minter   *ecs.Map1[components.Movable]
	boids    map[ecs.Entity]*components.Boid
	handles  map[*components.Boid]ecs.Entity
	movables []*components.Boid
	rooted   []*components.Boid
	forces   *config.ForceController
	rates    config.GaugesConfig
	rng      *rand.Rand
	walls    float64
	biome    terrain.Biome
}

func newFakeWorld(seed int64) *fakeWorld {
	return &fakeWorld{
		minter:  ecs.NewMap1[components.Movable](ecs.NewWorld()),
		boids:   make(map[ecs.Entity]*components.Boid),
		handles: make(map[*components.Boid]ecs.Entity),
		forces:  config.MustLoadCoefficients(""),
		rates: config.GaugesConfig{
			Tire: 1, Recover: 2, Hunger: 1, Satiate: 5, Thirst: 1, Quench: 5,
			DangerRise: 10, DangerDecay: 5, AffinityRise: 4, AffinityDecay: 2, Exertion: 2,
		},
		rng:   rand.New(rand.NewSource(seed)),
		walls: 90,
		biome: terrain.BiomeGrass,
	}
}

func (f *fakeWorld) register(b *components.Boid) ecs.Entity {
	e := f.minter.NewEntity(&components.Movable{})
	f.boids[e] = b
	f.handles[b] = e
	return e
}

func (f *fakeWorld) addMovable(b *components.Boid) ecs.Entity {
	f.movables = append(f.movables, b)
	return f.register(b)
}

func (f *fakeWorld) addRooted(b *components.Boid) ecs.Entity {
	f.rooted = append(f.rooted, b)
	return f.register(b)
}

func (f *fakeWorld) Neighbors(*components.Boid) []*components.Boid { return f.movables }
func (f *fakeWorld) Rooted() []*components.Boid                    { return f.rooted }
func (f *fakeWorld) Entity(a *components.Boid) ecs.Entity          { return f.handles[a] }
func (f *fakeWorld) Biome(*components.Boid) terrain.Biome          { return f.biome }
func (f *fakeWorld) Forces() *config.ForceController               { return f.forces }
func (f *fakeWorld) Rates() config.GaugesConfig                    { return f.rates }
func (f *fakeWorld) Rand() *rand.Rand                              { return f.rng }
func (f *fakeWorld) Walls() float64                                { return f.walls }

func (f *fakeWorld) Resolve(e ecs.Entity) *components.Boid {
	if components.IsNone(e) {
		return nil
	}
	return f.boids[e]
}

func testPerception() components.Perception {
	return components.Perception{
		MaxSpeed:           2,
		MaxForce:           0.5,
		VisionAngle:        3 * math.Pi / 2,
		VisionRange:        10,
		SeparationDistance: 1,
		CohesionDistance:   5,
		LeaderDistance:     2,
		WanderRadius:       1,
		SlowDownRadius:     3,
	}
}

func newAgent(kind components.Kind, state components.StateID, x, y, vx, vy float64) *components.Boid {
	b := &components.Boid{
		Kind:       kind,
		State:      state,
		Pos:        r3.Vec{X: x, Y: y},
		Vel:        r3.Vec{X: vx, Y: vy},
		Alive:      true,
		Gauges:     components.NewGauges(50),
		Perception: testPerception(),
	}
	b.SyncHeading()
	return b
}

func vecNear(a, b r3.Vec) bool {
	return r3.Norm(r3.Sub(a, b)) < eps
}

func TestForCoversEveryState(t *testing.T) {
	for i := 0; i < components.NumStates; i++ {
		id := components.StateID(i)
		if got := For(id).ID(); got != id {
			t.Errorf("For(%v).ID() = %v", id, got)
		}
	}
}

func TestWalkLoneLeaderlessPrey(t *testing.T) {
	w := newFakeWorld(5)
	a := newAgent(components.KindPrey, components.StateWalk, 95, 0, 1, 0)
	w.addMovable(a)

	// Same seed and same kinematics give the same wander draw
	ref := *a
	wantWander := steering.Wander(&ref, rand.New(rand.NewSource(5)))
	wantWalls := r3.Scale(w.forces.StayWithinWalls, steering.StayWithinWalls(&ref, w.walls))
	want := steering.Flatten(r3.Add(wantWander, wantWalls))

	got := Compute(a, w, 0.05)
	if !vecNear(got, want) {
		t.Errorf("walk force = %v, want wander + walls = %v", got, want)
	}
	if wantWalls == (r3.Vec{}) {
		t.Error("test setup: agent should be outside the walls")
	}
}

func TestWalkFollowsVisibleLeader(t *testing.T) {
	w := newFakeWorld(1)
	leader := newAgent(components.KindPrey, components.StateWalk, 6, 0, 1, 0)
	leader.IsLeader = true
	a := newAgent(components.KindPrey, components.StateWalk, 0, 0, 1, 0)
	a.Leader = w.addMovable(leader)
	w.addMovable(a)

	ref := *a
	follow := steering.FollowLeader(&ref, leader, w.movables, 0.05, w.forces.Separate, w.forces.Evade)
	want := r3.Scale(w.forces.FollowLeader, follow)

	got := Compute(a, w, 0.05)
	if !vecNear(got, want) {
		t.Errorf("follow force = %v, want %v", got, want)
	}
}

func TestFindFoodPredatorPursues(t *testing.T) {
	w := newFakeWorld(1)
	pred := newAgent(components.KindPredator, components.StateFindFood, 0, 0, 1, 0)
	prey := newAgent(components.KindPrey, components.StateWalk, 5, 0, 0, 1)
	w.addMovable(pred)
	preyEntity := w.addMovable(prey)

	dt := 0.5
	ref := *pred
	want := steering.Pursuit(&ref, prey, dt)

	got := Compute(pred, w, dt)
	if !vecNear(got, want) {
		t.Errorf("find food force = %v, want pursuit %v", got, want)
	}
	if vecNear(got, steering.Seek(&ref, prey.Pos)) {
		t.Error("predator should lead the prey, not aim at its current position")
	}
	if pred.Prey != preyEntity {
		t.Error("predator should record its prey")
	}
}

func TestFindFoodPreyGrazes(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPrey, components.StateFindFood, 0, 0, 1, 0)
	w.addMovable(a)
	food := &components.Boid{Kind: components.KindResource, Pos: r3.Vec{X: 4, Y: 1}, Radius: 1.5, Alive: true}
	foodEntity := w.addRooted(food)

	ref := *a
	want := steering.Arrive(&ref, food.Pos)
	if got := Compute(a, w, 0.05); !vecNear(got, want) {
		t.Errorf("graze force = %v, want arrive %v", got, want)
	}
	if a.Prey != foodEntity {
		t.Error("prey should record the resource it targets")
	}
}

func TestFindFoodWandersWithoutCandidates(t *testing.T) {
	w := newFakeWorld(3)
	a := newAgent(components.KindPredator, components.StateFindFood, 0, 0, 1, 0)
	w.addMovable(a)

	ref := *a
	want := steering.Wander(&ref, rand.New(rand.NewSource(3)))
	if got := Compute(a, w, 0.05); !vecNear(got, want) {
		t.Errorf("fallback = %v, want wander %v", got, want)
	}
	if !components.IsNone(a.Prey) {
		t.Error("prey reference should be cleared")
	}
}

func TestAttackWithoutCandidatesIsZero(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPredator, components.StateAttack, 0, 0, 1, 0)
	w.addMovable(a)
	if got := Compute(a, w, 0.05); got != (r3.Vec{}) {
		t.Errorf("attack with no prey = %v, want zero", got)
	}
}

func TestAttackRetargetsNearestVisiblePrey(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPredator, components.StateAttack, 0, 0, 1, 0)
	w.addMovable(a)
	lost := newAgent(components.KindPrey, components.StateWalk, -500, 0, 0, 0)
	near := newAgent(components.KindPrey, components.StateWalk, 3, 0, 0, 0)
	a.Prey = w.addMovable(lost)
	nearEntity := w.addMovable(near)

	ref := *a
	want := steering.Pursuit(&ref, near, 0.05)
	if got := Compute(a, w, 0.05); !vecNear(got, want) {
		t.Errorf("attack = %v, want pursuit of the visible prey %v", got, want)
	}
	if a.Prey != nearEntity {
		t.Error("prey reference should move to the visible prey")
	}
}

func TestAttackKeepsRecordedPreyOnTie(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPredator, components.StateAttack, 0, 0, 1, 0)
	w.addMovable(a)
	left := newAgent(components.KindPrey, components.StateWalk, 0, 3, 0, 0)
	right := newAgent(components.KindPrey, components.StateWalk, 0, -3, 0, 0)
	w.addMovable(left)
	a.Prey = w.addMovable(right)
	recorded := a.Prey

	Compute(a, w, 0.05)
	if a.Prey != recorded {
		t.Error("equidistant candidates should keep the recorded prey")
	}
}

func TestFindFoodUnknownSpeciesWanders(t *testing.T) {
	w := newFakeWorld(4)
	a := newAgent(components.KindObstacle, components.StateFindFood, 0, 0, 1, 0)
	w.addMovable(a)

	ref := *a
	want := steering.Wander(&ref, rand.New(rand.NewSource(4)))
	if got := Compute(a, w, 0.05); !vecNear(got, want) {
		t.Errorf("unknown species = %v, want wander %v", got, want)
	}
}

func TestFleeEvadesNearestPredator(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPrey, components.StateFlee, 0, 0, 1, 0)
	w.addMovable(a)
	far := newAgent(components.KindPredator, components.StateWalk, 8, 0, -1, 0)
	near := newAgent(components.KindPredator, components.StateWalk, 4, 0, -1, 0)
	w.addMovable(far)
	nearEntity := w.addMovable(near)

	got := Compute(a, w, 0.05)
	if a.Predator != nearEntity {
		t.Error("expected the nearest predator to be recorded")
	}
	if got.X >= 0 {
		t.Errorf("flee force = %v, want -X", got)
	}
}

func TestFleeWithoutPredatorWanders(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPrey, components.StateFlee, 0, 0, 1, 0)
	w.addMovable(a)
	Compute(a, w, 0.05)
	if !components.IsNone(a.Predator) {
		t.Error("no predator in sight: reference should be cleared")
	}
}

func TestFleeUnknownSpecies(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindObstacle, components.StateFlee, 0, 0, 1, 0)
	w.addMovable(a)

	ref := *a
	want := flockAvoidance(&ref, w, w.movables)
	if got := Compute(a, w, 0.05); !vecNear(got, want) {
		t.Errorf("unknown species = %v, want flock avoidance only %v", got, want)
	}
}

func TestDeadHoldsStillAndFreezesGauges(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPrey, components.StateDead, 0, 0, 1, 1)
	a.Die()
	before := a.Gauges
	w.addMovable(a)
	w.addMovable(newAgent(components.KindPredator, components.StateWalk, 0.5, 0, 0, 0))
	w.addMovable(newAgent(components.KindPrey, components.StateWalk, -0.5, 0, 0, 0))

	if got := Compute(a, w, 1); got != (r3.Vec{}) {
		t.Errorf("dead force = %v, want zero", got)
	}
	if a.Gauges != before {
		t.Errorf("dead gauges changed: %+v -> %+v", before, a.Gauges)
	}
}

func TestRestingStatesHoldStill(t *testing.T) {
	for _, id := range []components.StateID{
		components.StateStay, components.StateSleep, components.StateEat, components.StateDrink,
		components.StateFindWater, components.StateMate,
	} {
		t.Run(id.String(), func(t *testing.T) {
			w := newFakeWorld(1)
			a := newAgent(components.KindPrey, id, 0, 0, 1, 0)
			w.addMovable(a)
			if got := Compute(a, w, 0.05); got != (r3.Vec{}) {
				t.Errorf("%v force = %v, want zero", id, got)
			}
		})
	}
}

func TestMetabolism(t *testing.T) {
	tests := []struct {
		state                components.StateID
		stamina, hunger, thr float64 // expected sign of change
	}{
		{components.StateWalk, -1, 1, 1},
		{components.StateSleep, 1, 1, 1},
		{components.StateEat, 1, -1, 1},
		{components.StateDrink, 1, 1, -1},
		{components.StateFlee, -1, 1, 1},
	}
	sign := func(v float64) float64 {
		switch {
		case v > 0:
			return 1
		case v < 0:
			return -1
		}
		return 0
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			w := newFakeWorld(1)
			a := newAgent(components.KindPrey, tt.state, 0, 0, 1, 0)
			w.addMovable(a)
			before := a.Gauges
			Compute(a, w, 1)

			if s := sign(a.Gauges.Stamina - before.Stamina); s != tt.stamina {
				t.Errorf("stamina moved %v, want %v", s, tt.stamina)
			}
			if s := sign(a.Gauges.Hunger - before.Hunger); s != tt.hunger {
				t.Errorf("hunger moved %v, want %v", s, tt.hunger)
			}
			if s := sign(a.Gauges.Thirst - before.Thirst); s != tt.thr {
				t.Errorf("thirst moved %v, want %v", s, tt.thr)
			}
		})
	}
}

func TestDangerAndAffinity(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPrey, components.StateStay, 0, 0, 0, 0)
	w.addMovable(a)

	Compute(a, w, 1)
	if a.Gauges.Danger != 0 || a.Gauges.Affinity != 0 {
		t.Fatalf("alone: danger=%v affinity=%v, want 0", a.Gauges.Danger, a.Gauges.Affinity)
	}

	w.addMovable(newAgent(components.KindPredator, components.StateWalk, 6, 0, 0, 0))
	w.addMovable(newAgent(components.KindPrey, components.StateWalk, -3, 0, 0, 0))
	Compute(a, w, 1)
	if a.Gauges.Danger != 10 {
		t.Errorf("danger = %v, want 10", a.Gauges.Danger)
	}
	if a.Gauges.Affinity != 4 {
		t.Errorf("affinity = %v, want 4", a.Gauges.Affinity)
	}
}

func TestPredatorFeelsNoDanger(t *testing.T) {
	w := newFakeWorld(1)
	a := newAgent(components.KindPredator, components.StateStay, 0, 0, 0, 0)
	w.addMovable(a)
	w.addMovable(newAgent(components.KindPredator, components.StateWalk, 2, 0, 0, 0))
	Compute(a, w, 1)
	if a.Gauges.Danger != 0 {
		t.Errorf("danger = %v, want 0", a.Gauges.Danger)
	}
}

func TestNearest(t *testing.T) {
	a := newAgent(components.KindPredator, components.StateWalk, 0, 0, 1, 0)
	at := func(x float64) *components.Boid {
		return newAgent(components.KindPrey, components.StateWalk, x, 0, 0, 0)
	}
	all := func(*components.Boid) bool { return true }

	near, mid, far := at(2), at(4), at(6)
	orders := [][]*components.Boid{
		{near, far, mid},
		{far, near, mid},
		{mid, far, near},
		{a, far, mid, near},
	}
	for i, cands := range orders {
		if got := nearest(a, cands, all); got != near {
			t.Errorf("order %d: got x=%v, want x=2", i, got.Pos.X)
		}
	}

	first, second := at(3), at(3)
	if got := nearest(a, []*components.Boid{first, second}, all); got != first {
		t.Error("ties should keep the first candidate")
	}

	behind := at(-2)
	behind.Pos.Y = 0.1
	a.Perception.VisionAngle = math.Pi / 2
	if got := nearest(a, []*components.Boid{behind}, all); got != nil {
		t.Error("candidates outside the vision cone should be skipped")
	}
	if got := nearest(a, nil, all); got != nil {
		t.Error("no candidates should give nil")
	}
}
