package telemetry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"

	"github.com/pthm-cable/herd/config"
)

// csvStream appends rows to one CSV file. The header goes out with the
// first row.
type csvStream[T any] struct {
	name   string
	f      *os.File
	header bool
}

func openStream[T any](dir, name string) (*csvStream[T], error) {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("creating %s: %w", name, err)
	}
	return &csvStream[T]{name: name, f: f}, nil
}

func (s *csvStream[T]) write(row T) error {
	rows := []T{row}
	var err error
	if s.header {
		err = gocsv.MarshalWithoutHeaders(rows, s.f)
	} else {
		err = gocsv.Marshal(rows, s.f)
		s.header = err == nil
	}
	if err != nil {
		return fmt.Errorf("writing %s: %w", s.name, err)
	}
	return nil
}

func (s *csvStream[T]) close() error {
	if s == nil {
		return nil
	}
	return s.f.Close()
}

// RunOutput is the on-disk record of one run:
//
//	telemetry.csv   one WindowStats row per window
//	perf.csv        one StepRow per window
//	bookmarks.csv   notable windows
//	config.yaml, coefficients.yaml, snapshots/
//
// A nil *RunOutput discards everything.
type RunOutput struct {
	dir       string
	windows   *csvStream[WindowStats]
	steps     *csvStream[StepRow]
	bookmarks *csvStream[Bookmark]
}

// NewRunOutput creates dir and opens the CSV streams. An empty dir
// disables output and returns nil.
func NewRunOutput(dir string) (*RunOutput, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	out := &RunOutput{dir: dir}
	var err error
	if out.windows, err = openStream[WindowStats](dir, "telemetry.csv"); err != nil {
		return nil, err
	}
	if out.steps, err = openStream[StepRow](dir, "perf.csv"); err != nil {
		out.Close()
		return nil, err
	}
	if out.bookmarks, err = openStream[Bookmark](dir, "bookmarks.csv"); err != nil {
		out.Close()
		return nil, err
	}
	return out, nil
}

// WriteSetup records the config and coefficient table the run started with.
func (o *RunOutput) WriteSetup(cfg *config.Config, fc *config.ForceController) error {
	if o == nil {
		return nil
	}
	if err := cfg.WriteYAML(filepath.Join(o.dir, "config.yaml")); err != nil {
		return err
	}
	if fc == nil {
		return nil
	}
	return fc.WriteYAML(filepath.Join(o.dir, "coefficients.yaml"))
}

// WriteWindow appends a flushed window and the step timing measured over it.
func (o *RunOutput) WriteWindow(stats WindowStats, timing StepTiming) error {
	if o == nil {
		return nil
	}
	return errors.Join(
		o.windows.write(stats),
		o.steps.write(timing.Row(stats.WindowEndTick)),
	)
}

// WriteBookmark appends a bookmark.
func (o *RunOutput) WriteBookmark(b Bookmark) error {
	if o == nil {
		return nil
	}
	return o.bookmarks.write(b)
}

// WriteSnapshot saves s under snapshots/ and returns its path.
func (o *RunOutput) WriteSnapshot(s *Snapshot) (string, error) {
	if o == nil {
		return "", nil
	}
	return SaveSnapshot(s, filepath.Join(o.dir, "snapshots"))
}

// Dir returns the output directory, empty when disabled.
func (o *RunOutput) Dir() string {
	if o == nil {
		return ""
	}
	return o.dir
}

// Close closes every stream and joins any failures.
func (o *RunOutput) Close() error {
	if o == nil {
		return nil
	}
	return errors.Join(o.windows.close(), o.steps.close(), o.bookmarks.close())
}
