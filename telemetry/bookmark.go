package telemetry

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType names a notable pattern in the herd.
type BookmarkType string

const (
	BookmarkHuntSurge    BookmarkType = "hunt_surge"
	BookmarkStampede     BookmarkType = "stampede"
	BookmarkPreyCrash    BookmarkType = "prey_crash"
	BookmarkFlockSettled BookmarkType = "flock_settled"
)

// Thresholds for the detectors.
const (
	surgeFactor     = 2.0
	surgeMinCatches = 3
	stampedeOn      = 0.5
	stampedeOff     = 0.25
	crashFraction   = 0.30
	crashMinDrop    = 5
	settledSpan     = 4
	settledCV2      = 0.04 // CV < 0.2
	settledAfter    = 5
)

// Bookmark marks the window in which a pattern was spotted.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int32        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs b at info level.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark", "type", string(b.Type), "tick", b.Tick, "description", b.Description)
}

// BookmarkDetector watches flushed windows for herd-level events. Each
// detector sees the new window and the history before it.
type BookmarkDetector struct {
	past  []WindowStats // oldest first
	limit int

	preyPeak   int
	stampeding bool
	settled    int
}

// NewBookmarkDetector keeps up to limit past windows (at least 5).
func NewBookmarkDetector(limit int) *BookmarkDetector {
	return &BookmarkDetector{limit: max(limit, settledAfter)}
}

// Check runs every detector against s, then appends s to the history.
func (bd *BookmarkDetector) Check(s WindowStats) []Bookmark {
	var found []Bookmark
	for _, detect := range []func(WindowStats) *Bookmark{
		bd.huntSurge,
		bd.preyCrash,
		bd.flockSettled,
		bd.stampede,
	} {
		if b := detect(s); b != nil {
			found = append(found, *b)
		}
	}

	bd.past = append(bd.past, s)
	if len(bd.past) > bd.limit {
		bd.past = bd.past[1:]
	}
	bd.preyPeak = max(bd.preyPeak, s.PreyCount)
	return found
}

// huntSurge fires when catches exceed twice the recent mean.
func (bd *BookmarkDetector) huntSurge(s WindowStats) *Bookmark {
	if len(bd.past) < 3 {
		return nil
	}
	total := 0
	for _, w := range bd.past {
		total += w.Catches
	}
	mean := float64(total) / float64(len(bd.past))
	if mean == 0 || s.Catches < surgeMinCatches || float64(s.Catches) <= surgeFactor*mean {
		return nil
	}
	return &Bookmark{
		Type: BookmarkHuntSurge,
		Tick: s.WindowEndTick,
		Description: fmt.Sprintf("%d catches against a recent mean of %.2f (%.1fx)",
			s.Catches, mean, float64(s.Catches)/mean),
	}
}

// stampede fires once when most prey flee and re-arms when the herd calms.
func (bd *BookmarkDetector) stampede(s WindowStats) *Bookmark {
	frac := 0.0
	if s.PreyCount > 0 {
		frac = float64(s.Fleeing) / float64(s.PreyCount)
	}
	switch {
	case frac < stampedeOff:
		bd.stampeding = false
		return nil
	case bd.stampeding || frac <= stampedeOn:
		return nil
	}
	bd.stampeding = true
	return &Bookmark{
		Type:        BookmarkStampede,
		Tick:        s.WindowEndTick,
		Description: fmt.Sprintf("%d of %d prey fleeing", s.Fleeing, s.PreyCount),
	}
}

// preyCrash fires on a steep drop from the peak, which then restarts at
// the crashed count.
func (bd *BookmarkDetector) preyCrash(s WindowStats) *Bookmark {
	peak := bd.preyPeak
	if peak == 0 {
		return nil
	}
	drop := 1 - float64(s.PreyCount)/float64(peak)
	if drop <= crashFraction || peak-s.PreyCount < crashMinDrop {
		return nil
	}
	bd.preyPeak = s.PreyCount
	return &Bookmark{
		Type:        BookmarkPreyCrash,
		Tick:        s.WindowEndTick,
		Description: fmt.Sprintf("prey fell %.0f%% from %d to %d", drop*100, peak, s.PreyCount),
	}
}

// flockSettled fires once the median spacing has held steady for
// settledAfter consecutive windows.
func (bd *BookmarkDetector) flockSettled(s WindowStats) *Bookmark {
	if s.PreyCount < 2 || s.NearestP50 <= 0 {
		bd.settled = 0
		return nil
	}
	if len(bd.past) < settledSpan {
		return nil
	}

	spacing := make([]float64, settledSpan)
	for i, w := range bd.past[len(bd.past)-settledSpan:] {
		spacing[i] = w.NearestP50
	}
	mean, variance := stat.PopMeanVariance(spacing, nil)
	if mean > 0 && variance/(mean*mean) < settledCV2 {
		bd.settled++
	} else {
		bd.settled = 0
	}

	if bd.settled != settledAfter {
		return nil
	}
	return &Bookmark{
		Type:        BookmarkFlockSettled,
		Tick:        s.WindowEndTick,
		Description: fmt.Sprintf("median spacing steady at %.2f", s.NearestP50),
	}
}
