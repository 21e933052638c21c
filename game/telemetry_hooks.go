package game

import (
	"log/slog"

	"github.com/pthm-cable/herd/telemetry"
)

// flushTelemetry checks if the stats window should be flushed and handles bookmarks.
func (g *Game) flushTelemetry() {
	tick := g.Tick()
	if !g.collector.ShouldFlush(tick) {
		return
	}

	stats := g.collector.Flush(tick, g.registry.Movables())
	timing := g.stepTimer.Timing()

	g.catches += stats.Catches
	g.transitions += stats.Transitions
	g.nearestSum += stats.NearestP50
	g.windows++

	if g.opts.StatsCallback != nil {
		g.opts.StatsCallback(stats)
	}

	if g.opts.LogStats {
		stats.LogStats()
		timing.LogStats()
	}

	if err := g.output.WriteWindow(stats, timing); err != nil {
		slog.Error("failed to write window", "error", err)
	}

	if g.opts.Store != nil {
		if err := g.opts.Store.RecordWindow(g.runID, stats); err != nil {
			slog.Error("failed to record window", "run", g.runID, "error", err)
		}
	}

	for _, bm := range g.bookmarkDetector.Check(stats) {
		if g.opts.LogStats {
			bm.LogBookmark()
		}
		if g.output != nil {
			if err := g.output.WriteBookmark(bm); err != nil {
				slog.Error("failed to write bookmark", "error", err)
			}
			g.saveSnapshot(&bm)
		}
	}
}

// saveSnapshot captures every agent and writes it to the output directory.
func (g *Game) saveSnapshot(bookmark *telemetry.Bookmark) {
	snapshot := telemetry.NewSnapshot(g.opts.Seed, g.Tick(), g.cfg.World.WallDistance,
		g.registry.Movables(), g.registry.Rooted())
	snapshot.Bookmark = bookmark

	path, err := g.output.WriteSnapshot(snapshot)
	if err != nil {
		slog.Error("failed to save snapshot", "error", err)
		return
	}

	slog.Info("snapshot saved", "path", path, "tick", snapshot.Tick)
}
