package telemetry

import (
	"math"

	"github.com/pthm-cable/herd/components"
)

// Collector accumulates events within tick windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int32
	dt                  float64

	// Current window tracking
	windowStartTick int32

	// Event counters for current window
	transitions  int
	acquisitions int
	catches      int
}

// NewCollector creates a stats collector flushing every windowTicks ticks.
// dt is the seconds per tick used for tick-to-time conversion.
func NewCollector(windowTicks int, dt float64) *Collector {
	if windowTicks < 1 {
		windowTicks = 1
	}
	return &Collector{
		windowDurationTicks: int32(windowTicks),
		dt:                  dt,
	}
}

// RecordTransition records a state change.
func (c *Collector) RecordTransition(from, to components.StateID) {
	c.transitions++
}

// RecordAcquisition records an agent locking onto a new target.
func (c *Collector) RecordAcquisition(kind components.Kind) {
	c.acquisitions++
}

// RecordCatch records a predator catching its prey.
func (c *Collector) RecordCatch() {
	c.catches++
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats from the movable agents and resets the
// counters for the next window.
func (c *Collector) Flush(currentTick int32, movables []*components.Boid) WindowStats {
	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,
		Transitions:     c.transitions,
		Acquisitions:    c.acquisitions,
		Catches:         c.catches,
	}

	living := make([]*components.Boid, 0, len(movables))
	for _, b := range movables {
		if !b.Alive {
			stats.DeadCount++
			continue
		}
		living = append(living, b)
		switch b.Kind {
		case components.KindPrey:
			stats.PreyCount++
		case components.KindPredator:
			stats.PredCount++
		}
		countState(&stats, b.State)
	}

	if n := float64(len(living)); n > 0 {
		speeds := make([]float64, len(living))
		for i, b := range living {
			stats.StaminaMean += b.Gauges.Stamina / n
			stats.HungerMean += b.Gauges.Hunger / n
			stats.ThirstMean += b.Gauges.Thirst / n
			stats.DangerMean += b.Gauges.Danger / n
			stats.AffinityMean += b.Gauges.Affinity / n
			speeds[i] = b.Speed()
		}
		speed := Summarize(speeds)
		stats.SpeedMean, stats.SpeedStd = speed.Mean, speed.Std

		nearest := Summarize(NearestDistances(living))
		stats.NearestP10, stats.NearestP50, stats.NearestP90 = nearest.P10, nearest.P50, nearest.P90
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.transitions = 0
	c.acquisitions = 0
	c.catches = 0

	return stats
}

func countState(s *WindowStats, id components.StateID) {
	switch id {
	case components.StateWalk:
		s.Walking++
	case components.StateStay, components.StateSleep, components.StateEat, components.StateDrink:
		s.Resting++
	case components.StateFlee:
		s.Fleeing++
	case components.StateFindFood, components.StateAttack:
		s.Foraging++
	case components.StateLost:
		s.Lost++
	default:
		s.Other++
	}
}

// NearestDistances returns, for each agent, the planar distance to its
// closest other agent. Agents alone in the slice are skipped.
func NearestDistances(agents []*components.Boid) []float64 {
	if len(agents) < 2 {
		return nil
	}
	out := make([]float64, 0, len(agents))
	for i, a := range agents {
		best := math.Inf(1)
		for j, b := range agents {
			if i == j {
				continue
			}
			if d := math.Hypot(b.Pos.X-a.Pos.X, b.Pos.Y-a.Pos.Y); d < best {
				best = d
			}
		}
		out = append(out, best)
	}
	return out
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
