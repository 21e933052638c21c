// Package components defines the ECS components for the simulation.
package components

import "strings"

// Kind is the species tag of an agent.
type Kind uint8

const (
	KindPrey     Kind = iota // movable, hunted by predators
	KindPredator             // movable, hunts prey
	KindResource             // rooted food source
	KindObstacle             // rooted, only avoided
)

// String returns the display name for a Kind.
func (k Kind) String() string {
	switch k {
	case KindPrey:
		return "prey"
	case KindPredator:
		return "predator"
	case KindResource:
		return "resource"
	case KindObstacle:
		return "obstacle"
	}
	return "unknown"
}

// Predator returns the kind that hunts k, if any.
func (k Kind) Predator() (Kind, bool) {
	if k == KindPrey {
		return KindPredator, true
	}
	return 0, false
}

// StateID names a behavior state. The set is closed.
type StateID uint8

const (
	StateTest StateID = iota
	StateWalk
	StateStay
	StateSleep
	StateFlee
	StateFindFood
	StateEat
	StateFindWater
	StateDrink
	StateMate
	StateAttack
	StateLost
	StateDead

	NumStates = int(StateDead) + 1
)

var stateNames = [NumStates]string{
	"test", "walk", "stay", "sleep", "flee", "find_food", "eat",
	"find_water", "drink", "mate", "attack", "lost", "dead",
}

// String returns the display name for a StateID.
func (s StateID) String() string {
	if int(s) < NumStates {
		return stateNames[s]
	}
	return "unknown"
}

// ParseState looks a state up by its display name (case-insensitive).
func ParseState(name string) (StateID, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range stateNames {
		if n == name {
			return StateID(i), true
		}
	}
	return 0, false
}

// StateNames returns the display names for all states.
// The order matches the StateID constants.
func StateNames() []string {
	names := make([]string, NumStates)
	copy(names, stateNames[:])
	return names
}
