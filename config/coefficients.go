package config

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed coefficients.json
var defaultCoefficients []byte

// Coefficient keys, in the order they are reported.
const (
	KeySeparate           = "separate"
	KeyEvade              = "evade"
	KeyCohesion           = "cohesion"
	KeyAlign              = "align"
	KeyStayWithinWalls    = "stayWithinWalls"
	KeyStayInIsland       = "stayInIsland"
	KeyCollisionAvoidance = "collisionAvoidance"
	KeyFollowLeader       = "followLeader"
)

// CoefficientKeys lists every key a coefficient table must define.
var CoefficientKeys = []string{
	KeySeparate,
	KeyEvade,
	KeyCohesion,
	KeyAlign,
	KeyStayWithinWalls,
	KeyStayInIsland,
	KeyCollisionAvoidance,
	KeyFollowLeader,
}

// ForceController is the weighting table applied to each steering
// contribution before summation. It is loaded once and never reloaded.
type ForceController struct {
	Separate           float64
	Evade              float64
	Cohesion           float64
	Align              float64
	StayWithinWalls    float64
	StayInIsland       float64
	CollisionAvoidance float64
	FollowLeader       float64
}

// MissingCoefficientError reports a required key absent from a coefficient table.
type MissingCoefficientError struct {
	Key string
}

func (e *MissingCoefficientError) Error() string {
	return fmt.Sprintf("coefficient %q is missing", e.Key)
}

// LoadCoefficients reads a flat key→float table from path.
// An empty path loads the embedded defaults.
func LoadCoefficients(path string) (*ForceController, error) {
	if path == "" {
		return ParseCoefficients(defaultCoefficients)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading coefficients: %w", err)
	}
	fc, err := ParseCoefficients(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fc, nil
}

// ParseCoefficients decodes a flat map of named floats. Both YAML
// ("key: 1.5") and JSON ({"key": 1.5}) tables are accepted.
// Unknown keys are ignored; every key in CoefficientKeys is required.
func ParseCoefficients(data []byte) (*ForceController, error) {
	raw := make(map[string]float64)
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing coefficients: %w", err)
	}
	return FromMap(raw)
}

// FromMap builds a ForceController from a flat map.
func FromMap(raw map[string]float64) (*ForceController, error) {
	fc := &ForceController{}
	for _, key := range CoefficientKeys {
		v, ok := raw[key]
		if !ok {
			return nil, &MissingCoefficientError{Key: key}
		}
		*fc.field(key) = v
	}
	return fc, nil
}

// MustLoadCoefficients is like LoadCoefficients but panics on error.
func MustLoadCoefficients(path string) *ForceController {
	fc, err := LoadCoefficients(path)
	if err != nil {
		panic(fmt.Sprintf("config: failed to load coefficients: %v", err))
	}
	return fc
}

// Map returns the table as a flat map.
func (f *ForceController) Map() map[string]float64 {
	m := make(map[string]float64, len(CoefficientKeys))
	for _, key := range CoefficientKeys {
		m[key] = *f.field(key)
	}
	return m
}

// Keys returns the table keys sorted alphabetically.
func (f *ForceController) Keys() []string {
	keys := make([]string, len(CoefficientKeys))
	copy(keys, CoefficientKeys)
	sort.Strings(keys)
	return keys
}

// WriteYAML writes the table as a flat YAML map.
func (f *ForceController) WriteYAML(path string) error {
	data, err := yaml.Marshal(f.Map())
	if err != nil {
		return fmt.Errorf("marshaling coefficients: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing coefficients: %w", err)
	}
	return nil
}

func (f *ForceController) field(key string) *float64 {
	switch key {
	case KeySeparate:
		return &f.Separate
	case KeyEvade:
		return &f.Evade
	case KeyCohesion:
		return &f.Cohesion
	case KeyAlign:
		return &f.Align
	case KeyStayWithinWalls:
		return &f.StayWithinWalls
	case KeyStayInIsland:
		return &f.StayInIsland
	case KeyCollisionAvoidance:
		return &f.CollisionAvoidance
	case KeyFollowLeader:
		return &f.FollowLeader
	}
	panic("config: unknown coefficient key " + key)
}
