// Package storage provides SQLite-based persistence for simulation runs.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/pthm-cable/herd/telemetry"
)

// ErrRunNotFound is returned when a run ID has no record.
var ErrRunNotFound = errors.New("storage: run not found")

// Store manages the SQLite database connection for the run log.
type Store struct {
	db *sql.DB
}

// Run is one recorded simulation.
type Run struct {
	ID             int64
	Seed           int64
	Prey           int // initial population
	Predators      int
	Ticks          int32
	FinalPrey      int
	FinalPredators int
	Catches        int
	Duration       time.Duration
	Finished       bool
	CreatedAt      time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// Sweeps write from several goroutines; SQLite takes one writer at a time
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			seed INTEGER NOT NULL,
			prey INTEGER NOT NULL,
			predators INTEGER NOT NULL,
			ticks INTEGER NOT NULL DEFAULT 0,
			final_prey INTEGER NOT NULL DEFAULT 0,
			final_predators INTEGER NOT NULL DEFAULT 0,
			catches INTEGER NOT NULL DEFAULT 0,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			finished INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);

		CREATE TABLE IF NOT EXISTS windows (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			window_end INTEGER NOT NULL,
			sim_time REAL NOT NULL,
			prey INTEGER NOT NULL,
			predators INTEGER NOT NULL,
			dead INTEGER NOT NULL,
			fleeing INTEGER NOT NULL,
			foraging INTEGER NOT NULL,
			transitions INTEGER NOT NULL,
			catches INTEGER NOT NULL,
			danger_mean REAL NOT NULL,
			speed_mean REAL NOT NULL,
			nearest_p50 REAL NOT NULL,
			PRIMARY KEY (run_id, window_end)
		);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// BeginRun records the start of a run and returns its ID.
func (s *Store) BeginRun(seed int64, prey, predators int) (int64, error) {
	result, err := s.db.Exec(
		"INSERT INTO runs (seed, prey, predators) VALUES (?, ?, ?)",
		seed, prey, predators,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin run: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// FinishRun stores the outcome of a run.
func (s *Store) FinishRun(run Run) error {
	result, err := s.db.Exec(
		`UPDATE runs
		 SET ticks = ?, final_prey = ?, final_predators = ?, catches = ?, duration_ms = ?, finished = 1
		 WHERE id = ?`,
		run.Ticks, run.FinalPrey, run.FinalPredators, run.Catches, run.Duration.Milliseconds(), run.ID,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot finish run: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %d", ErrRunNotFound, run.ID)
	}
	return nil
}

// RecordWindow stores one telemetry window of a run.
func (s *Store) RecordWindow(runID int64, w telemetry.WindowStats) error {
	_, err := s.db.Exec(
		`INSERT INTO windows
		 (run_id, window_end, sim_time, prey, predators, dead, fleeing, foraging,
		  transitions, catches, danger_mean, speed_mean, nearest_p50)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, w.WindowEndTick, w.SimTimeSec, w.PreyCount, w.PredCount, w.DeadCount,
		w.Fleeing, w.Foraging, w.Transitions, w.Catches, w.DangerMean, w.SpeedMean, w.NearestP50,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot record window: %w", err)
	}
	return nil
}

// Windows returns the recorded windows of a run in tick order. Only the
// columns the run log keeps are populated.
func (s *Store) Windows(runID int64) ([]telemetry.WindowStats, error) {
	rows, err := s.db.Query(
		`SELECT window_end, sim_time, prey, predators, dead, fleeing, foraging,
		        transitions, catches, danger_mean, speed_mean, nearest_p50
		 FROM windows
		 WHERE run_id = ?
		 ORDER BY window_end`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query windows: %w", err)
	}
	defer rows.Close()

	var out []telemetry.WindowStats
	for rows.Next() {
		var w telemetry.WindowStats
		if err := rows.Scan(
			&w.WindowEndTick, &w.SimTimeSec, &w.PreyCount, &w.PredCount, &w.DeadCount,
			&w.Fleeing, &w.Foraging, &w.Transitions, &w.Catches,
			&w.DangerMean, &w.SpeedMean, &w.NearestP50,
		); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		out = append(out, w)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return out, nil
}

const runColumns = `id, seed, prey, predators, ticks, final_prey, final_predators,
	catches, duration_ms, finished, created_at`

// ListRuns retrieves the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+`
		 FROM runs
		 ORDER BY id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return runs, nil
}

// RunByID retrieves a single run.
func (s *Store) RunByID(id int64) (Run, error) {
	r, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return r, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var r Run
	var durationMS int64
	var createdAt any
	if err := row.Scan(
		&r.ID, &r.Seed, &r.Prey, &r.Predators, &r.Ticks, &r.FinalPrey, &r.FinalPredators,
		&r.Catches, &durationMS, &r.Finished, &createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return r, err
		}
		return r, fmt.Errorf("storage: cannot scan run: %w", err)
	}
	r.Duration = time.Duration(durationMS) * time.Millisecond

	// Parse the datetime - handle both time.Time and string
	switch v := createdAt.(type) {
	case time.Time:
		r.CreatedAt = v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			r.CreatedAt = parsed
		}
	}
	return r, nil
}
