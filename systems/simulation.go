package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/states"
	"github.com/pthm-cable/herd/steering"
	"github.com/pthm-cable/herd/telemetry"
)

// Recorder receives the events a step produces.
type Recorder interface {
	RecordTransition(from, to components.StateID)
	RecordAcquisition(kind components.Kind)
	RecordCatch()
}

// DynamicSystem runs one fixed-size tick over every movable agent: apply
// the transition policy, compute each agent's force and hand the agents to
// the solver.
type DynamicSystem struct {
	registry *Registry
	solver   Solver
	policy   states.Policy
	dt       float64
	tick     int32

	recorder Recorder
	perf     *telemetry.StepTimer
}

// NewDynamicSystem creates a simulation step over registry.
func NewDynamicSystem(registry *Registry, solver Solver, policy states.Policy, dt float64) *DynamicSystem {
	if policy == nil {
		policy = states.Keep{}
	}
	return &DynamicSystem{
		registry: registry,
		solver:   solver,
		policy:   policy,
		dt:       dt,
	}
}

// SetRecorder attaches an event recorder. Nil detaches it.
func (s *DynamicSystem) SetRecorder(r Recorder) { s.recorder = r }

// SetPerf attaches a phase timer. Nil detaches it.
func (s *DynamicSystem) SetPerf(p *telemetry.StepTimer) { s.perf = p }

// Registry returns the agent registry.
func (s *DynamicSystem) Registry() *Registry { return s.registry }

// Tick returns the number of completed steps.
func (s *DynamicSystem) Tick() int32 { return s.tick }

// Timestep returns the fixed step size.
func (s *DynamicSystem) Timestep() float64 { return s.dt }

// ComputeSimulationStep advances the simulation by one timestep. Steering
// precondition failures propagate as panics and abort the tick.
func (s *DynamicSystem) ComputeSimulationStep() {
	s.startTick()

	s.phase(telemetry.PhaseReindex)
	s.registry.Reindex()
	movables := s.registry.Movables()

	s.phase(telemetry.PhaseTransitions)
	for _, a := range movables {
		if a.HasTarget {
			continue
		}
		s.transition(a)
	}

	s.phase(telemetry.PhaseForces)
	for _, a := range movables {
		a.Force = r3.Vec{}
		prev := a.Prey
		if a.HasTarget {
			a.Force = steering.Flatten(steering.Arrive(a, a.Target))
		} else {
			a.Force = states.Compute(a, s.registry, s.dt)
		}
		if a.Prey != prev && !components.IsNone(a.Prey) && s.recorder != nil {
			s.recorder.RecordAcquisition(a.Kind)
		}
	}

	s.phase(telemetry.PhaseIntegrate)
	s.solver.Solve(s.dt, movables)

	s.tick++
	s.endTick()
}

// transition applies the policy to a. A predator that moves from attack to
// eat has caught its prey, which dies.
func (s *DynamicSystem) transition(a *components.Boid) {
	next := s.policy.Next(a, s.registry)
	if next == a.State {
		return
	}

	if a.State == components.StateAttack && next == components.StateEat {
		if prey := s.registry.Resolve(a.Prey); prey != nil && prey.Kind != components.KindResource {
			prey.Die()
			if s.recorder != nil {
				s.recorder.RecordCatch()
			}
		}
	}
	if s.recorder != nil {
		s.recorder.RecordTransition(a.State, next)
	}

	if next == components.StateDead {
		a.Die()
		return
	}
	a.State = next
}

// SetTargetBoid sends every movable agent toward (x, y), bypassing their
// states until ClearTarget.
func (s *DynamicSystem) SetTargetBoid(x, y float64) {
	for _, a := range s.registry.Movables() {
		a.Target = r3.Vec{X: x, Y: y}
		a.HasTarget = true
	}
}

// ClearTarget hands control back to the behavior states.
func (s *DynamicSystem) ClearTarget() {
	for _, a := range s.registry.Movables() {
		a.HasTarget = false
	}
}

func (s *DynamicSystem) startTick() { s.perf.StartTick() }

func (s *DynamicSystem) phase(p telemetry.Phase) { s.perf.StartPhase(p) }

func (s *DynamicSystem) endTick() { s.perf.EndTick() }
