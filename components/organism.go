package components

import (
	"math"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"
)

// headingEpsilon is the squared planar speed below which an agent counts as stationary.
const headingEpsilon = 1e-12

// None is the zero entity. Relational fields holding None are unset.
var None ecs.Entity

// IsNone reports whether e is an unset reference.
func IsNone(e ecs.Entity) bool {
	return e == None
}

// Boid is the per-agent record: kinematics, physiology, perception and
// the non-owning references to related agents.
type Boid struct {
	ID    uint32
	Kind  Kind
	State StateID

	Pos     r3.Vec
	Vel     r3.Vec
	Force   r3.Vec  // net steering force computed this tick
	Heading float64 // radians, derived from Vel while moving
	Scale   float64
	Radius  float64 // footprint of rooted agents

	Alive    bool
	IsLeader bool

	// Relations hold entity handles, never pointers
	Leader   ecs.Entity
	Prey     ecs.Entity
	Predator ecs.Entity

	// Debug target set by the simulation; overrides the active state
	Target    r3.Vec
	HasTarget bool

	Gauges     Gauges
	Perception Perception
}

// Movable tags agents integrated by the solver.
type Movable struct{}

// Rooted tags immobile agents such as food and obstacles.
type Rooted struct{}

// HasLeader reports whether a leader reference is set.
func (b *Boid) HasLeader() bool {
	return !IsNone(b.Leader)
}

// Speed returns the magnitude of the velocity.
func (b *Boid) Speed() float64 {
	return r3.Norm(b.Vel)
}

// Direction returns the unit vector along the current heading.
func (b *Boid) Direction() r3.Vec {
	return r3.Vec{X: math.Cos(b.Heading), Y: math.Sin(b.Heading)}
}

// SyncHeading derives the heading from the planar velocity.
// A stationary agent keeps facing its last non-zero heading.
func (b *Boid) SyncHeading() {
	if b.Vel.X*b.Vel.X+b.Vel.Y*b.Vel.Y > headingEpsilon {
		b.Heading = math.Atan2(b.Vel.Y, b.Vel.X)
	}
}

// Die marks the agent dead. It stays in the registry.
func (b *Boid) Die() {
	b.Alive = false
	b.State = StateDead
	b.Force = r3.Vec{}
	b.HasTarget = false
}

// ClearRef unsets every relation pointing at e.
func (b *Boid) ClearRef(e ecs.Entity) {
	if b.Leader == e {
		b.Leader = None
	}
	if b.Prey == e {
		b.Prey = None
	}
	if b.Predator == e {
		b.Predator = None
	}
}
