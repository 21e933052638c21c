package steering

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/terrain"
)

// nearProbeFraction places the near probe relative to the far one.
const nearProbeFraction = 0.5

// BiomeSource looks up the biome under an agent.
type BiomeSource interface {
	Biome(a *components.Boid) terrain.Biome
}

// CollisionAvoid casts a far and a near probe along the heading, both
// scaled by the fraction of max speed the agent is moving at. An obstacle
// containing the near probe takes priority over one containing the far probe.
func CollisionAvoid(a *components.Boid, obstacles []*components.Boid) r3.Vec {
	frac := 0.0
	if a.Perception.MaxSpeed > 0 {
		frac = a.Speed() / a.Perception.MaxSpeed
	}
	reach := a.Perception.VisionRange * frac
	dir := a.Direction()
	far := r3.Add(a.Pos, r3.Scale(reach, dir))
	near := r3.Add(a.Pos, r3.Scale(reach*nearProbeFraction, dir))

	for _, probe := range [2]r3.Vec{near, far} {
		if o := closestContaining(a, probe, obstacles); o != nil {
			return r3.Scale(a.Perception.MaxForce, unit(r3.Sub(probe, o.Pos)))
		}
	}
	return r3.Vec{}
}

// closestContaining returns the obstacle nearest to a whose footprint
// contains probe.
func closestContaining(a *components.Boid, probe r3.Vec, obstacles []*components.Boid) *components.Boid {
	var hit *components.Boid
	best := 0.0
	for _, o := range obstacles {
		if o == a || Distance(probe, o.Pos) > o.Radius {
			continue
		}
		d := Distance(a.Pos, o.Pos)
		if hit == nil || d < best {
			hit, best = o, d
		}
	}
	return hit
}

// StayWithinWalls pushes back an agent that has crossed the square boundary
// at ±walls. Each axis is corrected independently.
func StayWithinWalls(a *components.Boid, walls float64) r3.Vec {
	var force r3.Vec
	maxForce := a.Perception.MaxForce

	switch {
	case a.Pos.X > walls:
		force.X = -maxForce - a.Vel.X
	case a.Pos.X < -walls:
		force.X = maxForce - a.Vel.X
	}
	switch {
	case a.Pos.Y > walls:
		force.Y = -maxForce - a.Vel.Y
	case a.Pos.Y < -walls:
		force.Y = maxForce - a.Vel.Y
	}
	return truncate(force, maxForce)
}

// StayInIsland steers straight back against the velocity while the agent
// is over water.
func StayInIsland(a *components.Boid, biomes BiomeSource) r3.Vec {
	if !biomes.Biome(a).IsWater() {
		return r3.Vec{}
	}
	return r3.Scale(a.Perception.MaxForce, unit(r3.Scale(-1, a.Vel)))
}
