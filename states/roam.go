package states

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/steering"
)

type walk struct{}

func (walk) ID() components.StateID { return components.StateWalk }

func (walk) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	neighbors := perceive(a, w, dt, active)
	return roam(a, w, neighbors, dt)
}

// test is the demo state. It moves like walk.
type test struct{}

func (test) ID() components.StateID { return components.StateTest }

func (test) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	neighbors := perceive(a, w, dt, active)
	return roam(a, w, neighbors, dt)
}

// lost is the fallback state: wander and keep out of trouble.
type lost struct{}

func (lost) ID() components.StateID { return components.StateLost }

func (lost) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	neighbors := perceive(a, w, dt, active)
	return r3.Add(steering.Wander(a, w.Rand()), flockAvoidance(a, w, neighbors))
}

// roam follows a visible leader, wanders as a leader, or wanders with the
// flock otherwise.
func roam(a *components.Boid, w World, neighbors []*components.Boid, dt float64) r3.Vec {
	fc := w.Forces()
	walls := r3.Scale(fc.StayWithinWalls, steering.StayWithinWalls(a, w.Walls()))

	if leader := w.Resolve(a.Leader); leader != nil && leader != a {
		if steering.Distance(a.Pos, leader.Pos) > 0 && steering.CanSee(a, leader, a.Perception.VisionRange) {
			follow := steering.FollowLeader(a, leader, neighbors, dt, fc.Separate, fc.Evade)
			return r3.Add(r3.Scale(fc.FollowLeader, follow), walls)
		}
	}
	if a.IsLeader {
		return r3.Add(steering.Wander(a, w.Rand()), walls)
	}
	return r3.Add(steering.Wander(a, w.Rand()), flockAvoidance(a, w, neighbors))
}

// flockAvoidance sums the weighted separation, cohesion, alignment,
// containment and obstacle avoidance terms.
func flockAvoidance(a *components.Boid, w World, neighbors []*components.Boid) r3.Vec {
	fc := w.Forces()
	terms := [...]r3.Vec{
		r3.Scale(fc.Separate, steering.Separate(a, neighbors)),
		r3.Scale(fc.Cohesion, steering.Cohesion(a, neighbors)),
		r3.Scale(fc.Align, steering.Align(a, neighbors)),
		r3.Scale(fc.StayWithinWalls, steering.StayWithinWalls(a, w.Walls())),
		r3.Scale(fc.StayInIsland, steering.StayInIsland(a, w)),
		r3.Scale(fc.CollisionAvoidance, steering.CollisionAvoid(a, w.Rooted())),
	}
	var sum r3.Vec
	for _, t := range terms {
		sum = r3.Add(sum, t)
	}
	return sum
}
