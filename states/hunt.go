package states

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/steering"
)

type flee struct{}

func (flee) ID() components.StateID { return components.StateFlee }

func (flee) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	neighbors := perceive(a, w, dt, exerting)

	var escape r3.Vec
	switch a.Kind {
	case components.KindPrey:
		threat, _ := a.Kind.Predator()
		hunter := nearest(a, neighbors, func(n *components.Boid) bool {
			return n.Kind == threat && n.Alive
		})
		if hunter != nil {
			a.Predator = w.Entity(hunter)
			escape = r3.Scale(w.Forces().Evade, steering.Evade(a, hunter, dt))
		} else {
			a.Predator = components.None
			escape = steering.Wander(a, w.Rand())
		}
	case components.KindPredator:
		// Nothing hunts predators
	default:
		unknownSpecies("flee", a)
	}
	return r3.Add(escape, flockAvoidance(a, w, neighbors))
}

type findFood struct{}

func (findFood) ID() components.StateID { return components.StateFindFood }

func (findFood) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	neighbors := perceive(a, w, dt, active)
	target := acquire(a, w, neighbors)
	if target == nil {
		return steering.Wander(a, w.Rand())
	}
	return chase(a, target, dt)
}

type attack struct{}

func (attack) ID() components.StateID { return components.StateAttack }

func (attack) ComputeNewForces(a *components.Boid, w World, dt float64) r3.Vec {
	neighbors := perceive(a, w, dt, exerting)
	target := acquire(a, w, neighbors)
	if target == nil {
		return r3.Vec{}
	}
	return chase(a, target, dt)
}

// acquire finds the nearest visible food for a and records it as a's prey.
// Predators hunt prey among the movables; prey graze rooted resources.
// The recorded prey wins a tie on distance.
func acquire(a *components.Boid, w World, neighbors []*components.Boid) *components.Boid {
	var pool []*components.Boid
	var ok func(*components.Boid) bool
	switch a.Kind {
	case components.KindPredator:
		pool = neighbors
		ok = func(n *components.Boid) bool { return n.Kind == components.KindPrey && n.Alive }
	case components.KindPrey:
		pool = w.Rooted()
		ok = func(n *components.Boid) bool { return n.Kind == components.KindResource }
	default:
		unknownSpecies("find_food", a)
		return nil
	}

	target := nearest(a, pool, ok)
	if target == nil {
		a.Prey = components.None
		return nil
	}
	if cur := w.Resolve(a.Prey); cur != nil && cur != target && ok(cur) &&
		nearest(a, []*components.Boid{cur}, ok) != nil &&
		steering.Distance(a.Pos, cur.Pos) == steering.Distance(a.Pos, target.Pos) {
		target = cur
	}
	a.Prey = w.Entity(target)
	return target
}

// chase pursues moving prey and arrives at rooted food.
func chase(a, target *components.Boid, dt float64) r3.Vec {
	if target.Kind == components.KindResource {
		return steering.Arrive(a, target.Pos)
	}
	return steering.Pursuit(a, target, dt)
}

// nearest returns the closest visible candidate accepted by ok.
// Ties keep the first candidate seen.
func nearest(a *components.Boid, candidates []*components.Boid, ok func(*components.Boid) bool) *components.Boid {
	var best *components.Boid
	bestDist := math.Inf(1)
	for _, c := range candidates {
		if c == a || !ok(c) {
			continue
		}
		d := steering.Distance(a.Pos, c.Pos)
		if d <= 0 || !steering.CanSee(a, c, a.Perception.VisionRange) {
			continue
		}
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func unknownSpecies(state string, a *components.Boid) {
	slog.Error("unknown_species", "state", state, "kind", a.Kind.String(), "id", a.ID)
}
