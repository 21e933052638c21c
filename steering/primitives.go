package steering

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
)

// Seek returns the force that turns a's velocity toward target at full speed.
// The result is not clamped.
func Seek(a *components.Boid, target r3.Vec) r3.Vec {
	desired := r3.Scale(a.Perception.MaxSpeed, unit(r3.Sub(target, a.Pos)))
	return r3.Sub(desired, a.Vel)
}

// Flee is the exact negation of Seek.
func Flee(a *components.Boid, point r3.Vec) r3.Vec {
	return r3.Scale(-1, Seek(a, point))
}

// Arrive seeks target, slowing linearly inside the slow-down radius.
// Arriving at the agent's own position yields the zero vector, which the
// resting states use to hold still.
func Arrive(a *components.Boid, target r3.Vec) r3.Vec {
	offset := r3.Sub(target, a.Pos)
	d := r3.Norm(offset)
	if d == 0 {
		return r3.Vec{}
	}

	speed := a.Perception.MaxSpeed
	if r := a.Perception.SlowDownRadius; r > 0 && d < r {
		speed *= d / r
	}
	desired := r3.Scale(speed/d, offset)
	return truncate(r3.Sub(desired, a.Vel), a.Perception.MaxForce)
}

// Wander arrives at a random point on a circle projected ahead of the agent.
// A stationary agent projects along its heading.
func Wander(a *components.Boid, rng *rand.Rand) r3.Vec {
	r := a.Perception.WanderRadius
	theta := rng.Float64() * 2 * math.Pi
	displacement := r3.Vec{X: math.Cos(theta) * r, Y: math.Sin(theta) * r}

	dir := unit(a.Vel)
	if dir == (r3.Vec{}) {
		dir = a.Direction()
	}
	ahead := r3.Add(a.Pos, r3.Scale(r, dir))
	return Arrive(a, r3.Add(ahead, displacement))
}

// Pursuit seeks the predicted position of target.
func Pursuit(hunter, target *components.Boid, dt float64) r3.Vec {
	if hunter == nil || target == nil {
		precondition("pursuit", "hunter and target are required")
	}
	gap := Distance(hunter.Pos, target.Pos)
	return Seek(hunter, project(target, gap, hunter.Perception.MaxSpeed, dt))
}

// Evade flees the predicted position of hunter.
func Evade(prey, hunter *components.Boid, dt float64) r3.Vec {
	if prey == nil || hunter == nil {
		precondition("evade", "prey and hunter are required")
	}
	gap := Distance(prey.Pos, hunter.Pos)
	return Flee(prey, project(hunter, gap, hunter.Perception.MaxSpeed, dt))
}

// project extrapolates mover along its velocity by the time a hunter at
// maxSpeed needs to close gap.
func project(mover *components.Boid, gap, maxSpeed, dt float64) r3.Vec {
	if maxSpeed <= 0 {
		return mover.Pos
	}
	return r3.Add(mover.Pos, r3.Scale(dt*gap/maxSpeed, mover.Vel))
}
