// Package states implements the behavior states. Each state updates the
// agent's gauges and returns the steering force for the tick; choosing
// which state is active is the job of a Policy.
package states

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/terrain"
)

// World is the read view of the simulation a state computes against.
// States write only to the agent they are given.
type World interface {
	// Neighbors returns the movables within the agent's query radius,
	// the agent itself included.
	Neighbors(a *components.Boid) []*components.Boid
	Rooted() []*components.Boid
	Resolve(e ecs.Entity) *components.Boid
	Entity(a *components.Boid) ecs.Entity
	Biome(a *components.Boid) terrain.Biome
	Forces() *config.ForceController
	Rates() config.GaugesConfig
	Rand() *rand.Rand
	Walls() float64
}

// State computes the steering force for an agent in one behavior mode.
type State interface {
	ID() components.StateID
	ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec
}

var table = [components.NumStates]State{
	components.StateTest:      test{},
	components.StateWalk:      walk{},
	components.StateStay:      rest{id: components.StateStay, metabolism: idle},
	components.StateSleep:     rest{id: components.StateSleep, metabolism: sleeping},
	components.StateFlee:      flee{},
	components.StateFindFood:  findFood{},
	components.StateEat:       rest{id: components.StateEat, metabolism: eating},
	components.StateFindWater: stub{id: components.StateFindWater},
	components.StateDrink:     rest{id: components.StateDrink, metabolism: drinking},
	components.StateMate:      stub{id: components.StateMate},
	components.StateAttack:    attack{},
	components.StateLost:      lost{},
	components.StateDead:      dead{},
}

// For returns the state implementation for id.
func For(id components.StateID) State {
	if int(id) >= len(table) {
		return table[components.StateLost]
	}
	return table[id]
}

// Compute runs the agent's active state and returns its planar force.
func Compute(a *components.Boid, w World, dt float64) r3.Vec {
	f := For(a.State).ComputeNewForces(a, w, dt)
	f.Z = 0
	return f
}
