package telemetry

import (
	"log/slog"
	"time"
)

// Phase identifies one stage of the simulation step.
type Phase int

const (
	PhaseReindex Phase = iota
	PhaseTransitions
	PhaseForces
	PhaseIntegrate
	numPhases
)

var phaseNames = [numPhases]string{"reindex", "transitions", "forces", "integrate"}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return "unknown"
	}
	return phaseNames[p]
}

// stepSample is the timing of one step, split by phase.
type stepSample struct {
	total  time.Duration
	phases [numPhases]time.Duration
}

// StepTimer keeps the phase timings of the last N steps in a ring.
// A nil *StepTimer ignores every call.
type StepTimer struct {
	ring   []stepSample
	next   int
	filled int

	cur        stepSample
	stepStart  time.Time
	phaseStart time.Time
	phase      Phase
	inPhase    bool

	lastFrame time.Time
	frame     time.Duration
}

// NewStepTimer creates a timer averaging over window steps (default 60).
func NewStepTimer(window int) *StepTimer {
	if window < 1 {
		window = 60
	}
	return &StepTimer{ring: make([]stepSample, window)}
}

// StartTick begins timing a step.
func (t *StepTimer) StartTick() {
	if t == nil {
		return
	}
	t.cur = stepSample{}
	t.stepStart = time.Now()
	t.inPhase = false
}

// StartPhase closes the running phase, if any, and opens p.
func (t *StepTimer) StartPhase(p Phase) {
	if t == nil {
		return
	}
	now := time.Now()
	t.closePhase(now)
	t.phase, t.phaseStart, t.inPhase = p, now, true
}

// EndTick closes the step and stores it in the ring.
func (t *StepTimer) EndTick() {
	if t == nil {
		return
	}
	now := time.Now()
	t.closePhase(now)
	t.cur.total = now.Sub(t.stepStart)

	t.ring[t.next] = t.cur
	t.next = (t.next + 1) % len(t.ring)
	t.filled = min(t.filled+1, len(t.ring))
}

func (t *StepTimer) closePhase(now time.Time) {
	if t.inPhase && t.phase >= 0 && t.phase < numPhases {
		t.cur.phases[t.phase] += now.Sub(t.phaseStart)
	}
	t.inPhase = false
}

// RecordFrame measures the wall-clock gap between realtime frames.
func (t *StepTimer) RecordFrame() {
	if t == nil {
		return
	}
	now := time.Now()
	if !t.lastFrame.IsZero() {
		t.frame = now.Sub(t.lastFrame)
	}
	t.lastFrame = now
}

// StepTiming aggregates the steps held by a StepTimer.
type StepTiming struct {
	Avg, Min, Max  time.Duration
	PhaseAvg       [numPhases]time.Duration
	PhasePct       [numPhases]float64
	TicksPerSecond float64
	Frame          time.Duration
	FPS            float64
}

// Pct returns the share of step time spent in p, in percent.
func (s StepTiming) Pct(p Phase) float64 {
	if p < 0 || p >= numPhases {
		return 0
	}
	return s.PhasePct[p]
}

// Timing summarizes the ring. A nil timer reports zeros.
func (t *StepTimer) Timing() StepTiming {
	var out StepTiming
	if t == nil {
		return out
	}
	out.Frame = t.frame
	if t.frame > 0 {
		out.FPS = float64(time.Second) / float64(t.frame)
	}
	if t.filled == 0 {
		return out
	}

	var total time.Duration
	var phaseTotal [numPhases]time.Duration
	for i, s := range t.ring[:t.filled] {
		total += s.total
		if i == 0 || s.total < out.Min {
			out.Min = s.total
		}
		out.Max = max(out.Max, s.total)
		for p, d := range s.phases {
			phaseTotal[p] += d
		}
	}

	n := time.Duration(t.filled)
	out.Avg = total / n
	for p := range phaseTotal {
		out.PhaseAvg[p] = phaseTotal[p] / n
		if out.Avg > 0 {
			out.PhasePct[p] = 100 * float64(out.PhaseAvg[p]) / float64(out.Avg)
		}
	}
	if out.Avg > 0 {
		out.TicksPerSecond = float64(time.Second) / float64(out.Avg)
	}
	return out
}

// LogValue implements slog.LogValuer.
func (s StepTiming) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Int64("avg_tick_us", s.Avg.Microseconds()),
		slog.Int64("max_tick_us", s.Max.Microseconds()),
		slog.Int("ticks_per_sec", int(s.TicksPerSecond)),
	}
	if s.FPS > 0 {
		attrs = append(attrs, slog.Int("fps", int(s.FPS)))
	}
	for p := Phase(0); p < numPhases; p++ {
		if s.PhasePct[p] > 0.1 {
			attrs = append(attrs, slog.Float64(p.String()+"_pct", float64(int(s.PhasePct[p]*10))/10))
		}
	}
	return slog.GroupValue(attrs...)
}

// LogStats logs the timing summary.
func (s StepTiming) LogStats() {
	slog.Info("perf", "step", s)
}

// StepRow is one line of perf.csv.
type StepRow struct {
	WindowEnd      int32   `csv:"window_end"`
	AvgTickUS      int64   `csv:"avg_tick_us"`
	MinTickUS      int64   `csv:"min_tick_us"`
	MaxTickUS      int64   `csv:"max_tick_us"`
	TicksPerSec    float64 `csv:"ticks_per_sec"`
	FPS            float64 `csv:"fps"`
	ReindexPct     float64 `csv:"reindex_pct"`
	TransitionsPct float64 `csv:"transitions_pct"`
	ForcesPct      float64 `csv:"forces_pct"`
	IntegratePct   float64 `csv:"integrate_pct"`
}

// Row flattens the summary for the window ending at windowEnd.
func (s StepTiming) Row(windowEnd int32) StepRow {
	return StepRow{
		WindowEnd:      windowEnd,
		AvgTickUS:      s.Avg.Microseconds(),
		MinTickUS:      s.Min.Microseconds(),
		MaxTickUS:      s.Max.Microseconds(),
		TicksPerSec:    s.TicksPerSecond,
		FPS:            s.FPS,
		ReindexPct:     s.PhasePct[PhaseReindex],
		TransitionsPct: s.PhasePct[PhaseTransitions],
		ForcesPct:      s.PhasePct[PhaseForces],
		IntegratePct:   s.PhasePct[PhaseIntegrate],
	}
}
