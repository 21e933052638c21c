package components

// GaugeMax is the upper bound of every physiology gauge.
const GaugeMax = 100.0

// Gauges tracks an agent's internal condition. Each value stays in [0, GaugeMax].
type Gauges struct {
	Stamina  float64
	Hunger   float64
	Thirst   float64
	Danger   float64
	Affinity float64
}

// NewGauges returns gauges with every value set to v (clamped).
func NewGauges(v float64) Gauges {
	v = clampGauge(v)
	return Gauges{Stamina: v, Hunger: v, Thirst: v, Danger: 0, Affinity: 0}
}

// Increase moves *g up by step, saturating at GaugeMax. Negative steps are ignored.
func Increase(g *float64, step float64) {
	if step <= 0 {
		return
	}
	*g = clampGauge(*g + step)
}

// Decrease moves *g down by step, saturating at 0. Negative steps are ignored.
func Decrease(g *float64, step float64) {
	if step <= 0 {
		return
	}
	*g = clampGauge(*g - step)
}

func clampGauge(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > GaugeMax {
		return GaugeMax
	}
	return v
}

// GaugeNames returns the gauge identifiers in field order.
func GaugeNames() []string {
	return []string{"stamina", "hunger", "thirst", "danger", "affinity"}
}

// Value extracts a gauge by name. Unknown names return 0.
func (g *Gauges) Value(name string) float64 {
	switch name {
	case "stamina":
		return g.Stamina
	case "hunger":
		return g.Hunger
	case "thirst":
		return g.Thirst
	case "danger":
		return g.Danger
	case "affinity":
		return g.Affinity
	default:
		return 0
	}
}
