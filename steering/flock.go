package steering

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
)

// leaderCrowdFactor scales the leader's separation distance for the
// "leader can see me" test in FollowLeader.
const leaderCrowdFactor = 1.4

// Separate steers away from neighbors inside the separation distance.
func Separate(a *components.Boid, neighbors []*components.Boid) r3.Vec {
	var sum r3.Vec
	count := 0
	for _, n := range neighbors {
		d := Distance(a.Pos, n.Pos)
		if d <= 0 || !DistVision(a, n, a.Perception.SeparationDistance) {
			continue
		}
		sum = r3.Add(sum, unit(r3.Sub(a.Pos, n.Pos)))
		count++
	}
	if count == 0 {
		return r3.Vec{}
	}

	away := unit(r3.Scale(1/float64(count), sum))
	if away == (r3.Vec{}) {
		return r3.Vec{}
	}
	desired := r3.Scale(a.Perception.MaxSpeed, away)
	return truncate(r3.Sub(desired, a.Vel), a.Perception.MaxForce)
}

// Align steers toward the average velocity of visible flockmates.
func Align(a *components.Boid, neighbors []*components.Boid) r3.Vec {
	var sum r3.Vec
	count := 0
	for _, n := range neighbors {
		if !flockmate(a, n) {
			continue
		}
		sum = r3.Add(sum, n.Vel)
		count++
	}
	if count == 0 {
		return r3.Vec{}
	}
	return truncate(r3.Scale(1/float64(count), sum), a.Perception.MaxForce)
}

// Cohesion seeks the center of visible flockmates.
func Cohesion(a *components.Boid, neighbors []*components.Boid) r3.Vec {
	var sum r3.Vec
	count := 0
	for _, n := range neighbors {
		if !flockmate(a, n) {
			continue
		}
		sum = r3.Add(sum, n.Pos)
		count++
	}
	if count == 0 {
		return r3.Vec{}
	}
	center := r3.Scale(1/float64(count), sum)
	return truncate(Seek(a, center), a.Perception.MaxForce)
}

// flockmate reports whether n is a visible same-kind neighbor within the
// cohesion distance.
func flockmate(a, n *components.Boid) bool {
	if n.Kind != a.Kind {
		return false
	}
	d := Distance(a.Pos, n.Pos)
	if d <= 0 || d > a.Perception.CohesionDistance {
		return false
	}
	return CanSee(a, n, a.Perception.CohesionDistance)
}

// FollowLeader arrives at a point behind the leader while keeping apart
// from neighbors, and evades the leader when it can see the follower up
// close. A stationary leader gives no heading to trail, so the force is zero.
func FollowLeader(a, leader *components.Boid, neighbors []*components.Boid, dt, separateWeight, evadeWeight float64) r3.Vec {
	if leader == nil {
		precondition("followLeader", "agent has no leader")
	}
	if leader.Vel == (r3.Vec{}) {
		return r3.Vec{}
	}

	behind := r3.Sub(leader.Pos, r3.Scale(a.Perception.LeaderDistance, unit(leader.Vel)))
	force := Arrive(a, behind)
	force = r3.Add(force, r3.Scale(separateWeight, Separate(a, neighbors)))

	if Distance(leader.Pos, a.Pos) > 0 && CanSee(leader, a, leader.Perception.SeparationDistance*leaderCrowdFactor) {
		force = r3.Add(force, r3.Scale(evadeWeight, Evade(a, leader, dt)))
	}
	return truncate(force, a.Perception.MaxForce)
}
