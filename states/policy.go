package states

import (
	"math"

	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/steering"
)

// Policy chooses the state an agent runs this tick. It is consulted
// before forces are computed.
type Policy interface {
	Next(a *components.Boid, w World) components.StateID
}

// Keep never changes state. States are assigned at spawn or by callers.
type Keep struct{}

// Next returns the current state.
func (Keep) Next(a *components.Boid, w World) components.StateID {
	return a.State
}

// Thresholds switches states when gauges cross configured levels.
type Thresholds struct {
	cfg config.TransitionsConfig
}

// NewThresholds returns a threshold policy.
func NewThresholds(cfg config.TransitionsConfig) *Thresholds {
	return &Thresholds{cfg: cfg}
}

// NewPolicy returns the threshold policy when enabled and Keep otherwise.
func NewPolicy(cfg config.TransitionsConfig) Policy {
	if cfg.Enabled {
		return NewThresholds(cfg)
	}
	return Keep{}
}

// Next applies, in order: death, the exit condition of a resting or
// fleeing state, danger, fatigue, then hunger.
func (p *Thresholds) Next(a *components.Boid, w World) components.StateID {
	if !a.Alive || a.State == components.StateDead {
		return components.StateDead
	}
	g := a.Gauges

	switch a.State {
	case components.StateFlee:
		if g.Danger <= p.cfg.CalmDanger {
			return components.StateWalk
		}
		return components.StateFlee
	case components.StateSleep:
		if g.Stamina >= p.cfg.Rested {
			return components.StateWalk
		}
		return components.StateSleep
	case components.StateEat:
		if g.Hunger <= p.cfg.Sated {
			return components.StateWalk
		}
		return components.StateEat
	}

	if _, hunted := a.Kind.Predator(); hunted && g.Danger >= p.cfg.FleeDanger {
		return components.StateFlee
	}
	if g.Stamina <= p.cfg.Tired {
		return components.StateSleep
	}
	if g.Hunger >= p.cfg.Hungry {
		return p.forage(a, w)
	}

	switch a.State {
	case components.StateWalk, components.StateLost, components.StateTest, components.StateStay:
		return a.State
	}
	return components.StateWalk
}

// forage moves a hungry agent through find food, attack and eat.
func (p *Thresholds) forage(a *components.Boid, w World) components.StateID {
	target := w.Resolve(a.Prey)
	switch a.State {
	case components.StateFindFood:
		if target != nil && target.Alive {
			return components.StateAttack
		}
		return components.StateFindFood
	case components.StateAttack:
		if target == nil || !target.Alive {
			return components.StateFindFood
		}
		if steering.Distance(a.Pos, target.Pos) <= Reach(a, target) {
			return components.StateEat
		}
		return components.StateAttack
	}
	return components.StateFindFood
}

// Reach is the distance at which a can start eating target.
func Reach(a, target *components.Boid) float64 {
	return math.Max(a.Perception.SeparationDistance, target.Radius)
}
