package states

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/steering"
)

// rest holds the agent in place while its metabolism runs. It backs the
// stay, sleep, eat and drink states.
type rest struct {
	id         components.StateID
	metabolism metabolism
}

func (s rest) ID() components.StateID { return s.id }

func (s rest) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	perceive(a, w, dt, s.metabolism)
	return steering.Arrive(a, a.Pos)
}

// dead holds still and touches no gauges.
type dead struct{}

func (dead) ID() components.StateID { return components.StateDead }

func (dead) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	return steering.Arrive(a, a.Pos)
}

// stub states keep the bookkeeping but exert no force.
type stub struct {
	id components.StateID
}

func (s stub) ID() components.StateID { return s.id }

func (s stub) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	perceive(a, w, dt, active)
	return r3.Vec{}
}
