package states

import (
	"github.com/pthm-cable/herd/components"
	"github.com/pthm-cable/herd/config"
	"github.com/pthm-cable/herd/steering"
)

// metabolism returns the signed per-second change of stamina, hunger and
// thirst for a state. Positive values raise the gauge.
type metabolism func(r config.GaugesConfig) (stamina, hunger, thirst float64)

func active(r config.GaugesConfig) (float64, float64, float64) {
	return -r.Tire, r.Hunger, r.Thirst
}

func exerting(r config.GaugesConfig) (float64, float64, float64) {
	return -r.Tire * r.Exertion, r.Hunger, r.Thirst
}

func idle(r config.GaugesConfig) (float64, float64, float64) {
	return r.Recover * 0.5, r.Hunger, r.Thirst
}

func sleeping(r config.GaugesConfig) (float64, float64, float64) {
	return r.Recover, r.Hunger * 0.5, r.Thirst * 0.5
}

func eating(r config.GaugesConfig) (float64, float64, float64) {
	return r.Recover * 0.5, -r.Satiate, r.Thirst
}

func drinking(r config.GaugesConfig) (float64, float64, float64) {
	return r.Recover * 0.5, r.Hunger, -r.Quench
}

func step(g *float64, rate, dt float64) {
	if rate >= 0 {
		components.Increase(g, rate*dt)
	} else {
		components.Decrease(g, -rate*dt)
	}
}

// perceive runs the per-tick bookkeeping shared by every living state:
// metabolism, then the danger and affinity scans. It returns the
// neighbor list for the force computation.
func perceive(a *components.Boid, w World, dt float64, m metabolism) []*components.Boid {
	r := w.Rates()
	ds, dh, dth := m(r)
	step(&a.Gauges.Stamina, ds, dt)
	step(&a.Gauges.Hunger, dh, dt)
	step(&a.Gauges.Thirst, dth, dt)

	neighbors := w.Neighbors(a)
	threat, ok := a.Kind.Predator()
	var danger, company bool
	for _, n := range neighbors {
		if n == a || !n.Alive {
			continue
		}
		d := steering.Distance(a.Pos, n.Pos)
		if d <= 0 || !steering.DistVision(a, n, a.Perception.VisionRange) {
			continue
		}
		if ok && n.Kind == threat {
			danger = true
		}
		if n.Kind == a.Kind {
			company = true
		}
	}

	if danger {
		components.Increase(&a.Gauges.Danger, r.DangerRise*dt)
	} else {
		components.Decrease(&a.Gauges.Danger, r.DangerDecay*dt)
	}
	if company {
		components.Increase(&a.Gauges.Affinity, r.AffinityRise*dt)
	} else {
		components.Decrease(&a.Gauges.Affinity, r.AffinityDecay*dt)
	}
	return neighbors
}
