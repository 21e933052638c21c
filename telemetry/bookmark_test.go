package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_HuntSurge(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 200), Catches: 1})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1000, Catches: 4})
	if !hasBookmark(bookmarks, BookmarkHuntSurge) {
		t.Error("expected hunt_surge bookmark")
	}
}

func TestBookmarkDetector_HuntSurgeNeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(WindowStats{Catches: 1})

	if hasBookmark(bd.Check(WindowStats{Catches: 9}), BookmarkHuntSurge) {
		t.Error("hunt_surge should need at least three windows of history")
	}
}

func TestBookmarkDetector_PreyCrash(t *testing.T) {
	bd := NewBookmarkDetector(10)

	for i := 0; i < 5; i++ {
		bd.Check(WindowStats{WindowEndTick: int32(i * 200), PreyCount: 40, PredCount: 4})
	}

	bookmarks := bd.Check(WindowStats{WindowEndTick: 1000, PreyCount: 20, PredCount: 4})
	if !hasBookmark(bookmarks, BookmarkPreyCrash) {
		t.Error("expected prey_crash bookmark")
	}

	// Peak was reset to the crashed value
	if hasBookmark(bd.Check(WindowStats{WindowEndTick: 1200, PreyCount: 19}), BookmarkPreyCrash) {
		t.Error("prey_crash should not retrigger on a small further drop")
	}
}

func TestBookmarkDetector_StampedeLatch(t *testing.T) {
	bd := NewBookmarkDetector(10)

	steps := []struct {
		fleeing int
		want    bool
	}{
		{6, true},  // majority fleeing
		{7, false}, // still latched
		{1, false}, // calm resets the latch
		{7, true},
	}

	for i, s := range steps {
		got := hasBookmark(bd.Check(WindowStats{PreyCount: 10, Fleeing: s.fleeing}), BookmarkStampede)
		if got != s.want {
			t.Errorf("step %d (fleeing %d): stampede = %v, want %v", i, s.fleeing, got, s.want)
		}
	}
}

func TestBookmarkDetector_FlockSettledOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)

	triggers := 0
	firstAt := -1
	for i := 0; i < 12; i++ {
		bookmarks := bd.Check(WindowStats{
			WindowEndTick: int32(i * 200),
			PreyCount:     20,
			NearestP50:    3.0,
		})
		if hasBookmark(bookmarks, BookmarkFlockSettled) {
			triggers++
			if firstAt < 0 {
				firstAt = i
			}
		}
	}

	if triggers != 1 {
		t.Errorf("flock_settled triggered %d times, want 1", triggers)
	}
	if firstAt != 8 {
		t.Errorf("flock_settled triggered at window %d, want 8", firstAt)
	}
}

func TestBookmarkDetector_FlockSettledUsesLatestWindows(t *testing.T) {
	bd := NewBookmarkDetector(5)

	// Jittery spacing long enough to cycle the history
	for i := 0; i < 12; i++ {
		spacing := 1.0
		if i%2 == 1 {
			spacing = 5.0
		}
		bd.Check(WindowStats{PreyCount: 20, NearestP50: spacing})
	}

	firstAt := -1
	for i := 12; i < 24 && firstAt < 0; i++ {
		if hasBookmark(bd.Check(WindowStats{PreyCount: 20, NearestP50: 3.0}), BookmarkFlockSettled) {
			firstAt = i
		}
	}
	if firstAt != 20 {
		t.Errorf("flock_settled triggered at window %d, want 20", firstAt)
	}
}
