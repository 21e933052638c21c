package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pthm-cable/herd/components"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the agent population at one tick for offline inspection.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	WallDistance float64 `json:"wall_distance"`

	Tick int32 `json:"tick"`

	Entities []EntityState `json:"entities"`

	Bookmark *Bookmark `json:"bookmark,omitempty"`
}

// EntityState holds one agent's observable state.
type EntityState struct {
	ID    uint32             `json:"id"`
	Kind  components.Kind    `json:"kind"`
	State components.StateID `json:"state"`

	// Position and movement
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Z       float64 `json:"z"`
	VelX    float64 `json:"vel_x"`
	VelY    float64 `json:"vel_y"`
	Heading float64 `json:"heading"`
	Radius  float64 `json:"radius,omitempty"`

	Alive    bool `json:"alive"`
	IsLeader bool `json:"is_leader,omitempty"`

	Gauges components.Gauges `json:"gauges"`
}

// NewEntityState captures an agent record.
func NewEntityState(b *components.Boid) EntityState {
	return EntityState{
		ID:       b.ID,
		Kind:     b.Kind,
		State:    b.State,
		X:        b.Pos.X,
		Y:        b.Pos.Y,
		Z:        b.Pos.Z,
		VelX:     b.Vel.X,
		VelY:     b.Vel.Y,
		Heading:  b.Heading,
		Radius:   b.Radius,
		Alive:    b.Alive,
		IsLeader: b.IsLeader,
		Gauges:   b.Gauges,
	}
}

// NewSnapshot captures every agent in the given collections, in order.
func NewSnapshot(seed int64, tick int32, wallDistance float64, groups ...[]*components.Boid) *Snapshot {
	s := &Snapshot{
		Version:      SnapshotVersion,
		RNGSeed:      seed,
		WallDistance: wallDistance,
		Tick:         tick,
	}
	for _, g := range groups {
		for _, b := range g {
			s.Entities = append(s.Entities, NewEntityState(b))
		}
	}
	return s
}

// SaveSnapshot writes a snapshot to disk.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	// Build filename
	name := fmt.Sprintf("snapshot_%d", snapshot.Tick)
	if snapshot.Bookmark != nil {
		// Sanitize bookmark type for filename
		sanitized := strings.ReplaceAll(string(snapshot.Bookmark.Type), " ", "_")
		name = fmt.Sprintf("snapshot_%d_%s", snapshot.Tick, sanitized)
	}
	name += ".json"

	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d, want %d", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
