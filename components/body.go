package components

import "github.com/pthm-cable/herd/config"

// Perception holds the kinematic limits and perception distances of an agent.
type Perception struct {
	MaxSpeed           float64
	MaxForce           float64
	VisionAngle        float64 // full cone, radians
	VisionRange        float64
	SeparationDistance float64
	CohesionDistance   float64
	LeaderDistance     float64 // how far behind the leader a follower keeps
	WanderRadius       float64
	SlowDownRadius     float64
}

// PerceptionFromSpecies returns perception parameters for a species config.
func PerceptionFromSpecies(s config.SpeciesConfig) Perception {
	return Perception{
		MaxSpeed:           s.MaxSpeed,
		MaxForce:           s.MaxForce,
		VisionAngle:        s.VisionAngleRad(),
		VisionRange:        s.VisionRange,
		SeparationDistance: s.SeparationDistance,
		CohesionDistance:   s.CohesionDistance,
		LeaderDistance:     s.LeaderDistance,
		WanderRadius:       s.WanderRadius,
		SlowDownRadius:     s.SlowDownRadius,
	}
}

// QueryRadius is the largest distance at which any behavior inspects neighbors.
func (p Perception) QueryRadius() float64 {
	r := p.VisionRange
	for _, d := range []float64{p.SeparationDistance, p.CohesionDistance} {
		if d > r {
			r = d
		}
	}
	return r
}
