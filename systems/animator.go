package systems

import "time"

// Animator throttles the simulation to its fixed timestep. Elapsed time
// accumulates between calls and each call takes at most one step, so
// under load the simulation falls behind real time instead of sub-stepping.
type Animator struct {
	system      *DynamicSystem
	step        time.Duration
	accumulator time.Duration
}

// NewAnimator creates an animator stepping system every timestep.
func NewAnimator(system *DynamicSystem) *Animator {
	return &Animator{
		system: system,
		step:   time.Duration(system.Timestep() * float64(time.Second)),
	}
}

// Animate adds elapsed to the accumulator and advances the simulation by
// one step once a full timestep has built up. It reports whether a step ran.
func (a *Animator) Animate(elapsed time.Duration) bool {
	a.accumulator += elapsed
	if a.accumulator < a.step {
		return false
	}
	a.accumulator -= a.step
	a.system.ComputeSimulationStep()
	return true
}

// Backlog returns the accumulated time not yet simulated.
func (a *Animator) Backlog() time.Duration {
	return a.accumulator
}
