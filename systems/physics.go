package systems

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/terrain"
)

// Solver integrates agent motion from the forces computed this tick.
type Solver interface {
	Solve(dt float64, agents []*components.Boid)
}

// EulerSolver is an explicit Euler integrator with linear drag and a speed
// clamp. Elevation is read from the terrain after the planar update.
type EulerSolver struct {
	Drag    float64
	Terrain terrain.Terrain
}

// Solve advances every agent by dt. A non-positive dt leaves them untouched.
func (s EulerSolver) Solve(dt float64, agents []*components.Boid) {
	if dt <= 0 {
		return
	}
	damping := 1 - s.Drag*dt
	if damping < 0 {
		damping = 0
	}

	for _, a := range agents {
		vel := r3.Add(a.Vel, r3.Scale(dt, a.Force))
		vel.Z = 0
		vel = r3.Scale(damping, vel)

		// Limit velocity
		if speed := r3.Norm(vel); speed > a.Perception.MaxSpeed && speed > 0 {
			vel = r3.Scale(a.Perception.MaxSpeed/speed, vel)
		}
		a.Vel = vel

		a.Pos.X += vel.X * dt
		a.Pos.Y += vel.Y * dt
		if s.Terrain != nil {
			a.Pos.Z = s.Terrain.Height(a.Pos.X, a.Pos.Y)
		}

		a.SyncHeading()
	}
}
