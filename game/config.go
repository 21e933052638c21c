package game

import (
	"github.com/pthm-cable/herd/storage"
	"github.com/pthm-cable/herd/telemetry"
)

// Options holds per-run settings that are not part of the simulation config.
type Options struct {
	Seed        int64
	LogStats    bool   // log window and perf stats via slog
	OutputDir   string // CSV logs, config snapshot, bookmark snapshots (empty = off)
	WindowTicks int    // stats window in ticks (0 = use config)

	// Store receives the run record and every window (nil = off)
	Store RunStore

	// StatsCallback is called with every flushed window
	StatsCallback func(telemetry.WindowStats)
}

// RunStore is the run log a game reports to. *storage.Store implements it.
type RunStore interface {
	BeginRun(seed int64, prey, predators int) (int64, error)
	RecordWindow(runID int64, w telemetry.WindowStats) error
	FinishRun(run storage.Run) error
}

var _ RunStore = (*storage.Store)(nil)
