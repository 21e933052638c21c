package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Population counts at window end (living agents)
	PreyCount int `csv:"prey"`
	PredCount int `csv:"pred"`
	DeadCount int `csv:"dead"`

	// State occupancy at window end
	Walking  int `csv:"walking"`
	Resting  int `csv:"resting"` // stay, sleep, eat, drink
	Fleeing  int `csv:"fleeing"`
	Foraging int `csv:"foraging"` // find_food, attack
	Lost     int `csv:"lost"`
	Other    int `csv:"other"`

	// Events during window
	Transitions  int `csv:"transitions"`
	Acquisitions int `csv:"acquisitions"`
	Catches      int `csv:"catches"`

	// Gauge means over living movables
	StaminaMean  float64 `csv:"stamina_mean"`
	HungerMean   float64 `csv:"hunger_mean"`
	ThirstMean   float64 `csv:"thirst_mean"`
	DangerMean   float64 `csv:"danger_mean"`
	AffinityMean float64 `csv:"affinity_mean"`

	// Kinematics
	SpeedMean  float64 `csv:"speed_mean"`
	SpeedStd   float64 `csv:"speed_std"`
	NearestP10 float64 `csv:"nearest_p10"`
	NearestP50 float64 `csv:"nearest_p50"`
	NearestP90 float64 `csv:"nearest_p90"`
}

// Summary describes a sample.
type Summary struct {
	Mean, Std     float64
	P10, P50, P90 float64
}

// Summarize computes the mean, sample standard deviation and interpolated
// percentiles of values. An empty sample gives the zero Summary.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var s Summary
	if n == 1 {
		s.Mean = sorted[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
	}
	s.P10 = Percentile(sorted, 0.10)
	s.P50 = Percentile(sorted, 0.50)
	s.P90 = Percentile(sorted, 0.90)
	return s
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("prey", s.PreyCount),
		slog.Int("pred", s.PredCount),
		slog.Int("dead", s.DeadCount),
		slog.Int("fleeing", s.Fleeing),
		slog.Int("foraging", s.Foraging),
		slog.Int("transitions", s.Transitions),
		slog.Int("catches", s.Catches),
		slog.Float64("danger_mean", s.DangerMean),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("nearest_p50", s.NearestP50),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"prey", s.PreyCount,
		"pred", s.PredCount,
		"dead", s.DeadCount,
		"walking", s.Walking,
		"resting", s.Resting,
		"fleeing", s.Fleeing,
		"foraging", s.Foraging,
		"lost", s.Lost,
		"transitions", s.Transitions,
		"acquisitions", s.Acquisitions,
		"catches", s.Catches,
		"stamina_mean", s.StaminaMean,
		"hunger_mean", s.HungerMean,
		"danger_mean", s.DangerMean,
		"affinity_mean", s.AffinityMean,
		"speed_mean", s.SpeedMean,
		"speed_std", s.SpeedStd,
		"nearest_p50", s.NearestP50,
	)
}

// Percentile returns the p-th percentile (0-1) of sorted values using
// linear interpolation between closest ranks.
func Percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	idx := p * float64(len(sorted)-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
