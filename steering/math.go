// Package steering implements the perception predicates and the steering
// behaviors that states blend into an agent's net force.
package steering

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// unit returns v normalized, or the zero vector when v has no length.
func unit(v r3.Vec) r3.Vec {
	n := r3.Norm(v)
	if n == 0 {
		return r3.Vec{}
	}
	return r3.Scale(1/n, v)
}

// truncate clamps the magnitude of v to max.
func truncate(v r3.Vec, max float64) r3.Vec {
	n := r3.Norm(v)
	if n <= max || n == 0 {
		return v
	}
	return r3.Scale(max/n, v)
}

// Flatten zeroes the vertical component. Elevation is never steered.
func Flatten(v r3.Vec) r3.Vec {
	v.Z = 0
	return v
}

// Distance returns the planar distance between two points.
func Distance(a, b r3.Vec) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// normalizeAngle wraps an angle to [-Pi, Pi].
func normalizeAngle(angle float64) float64 {
	for angle > math.Pi {
		angle -= 2 * math.Pi
	}
	for angle < -math.Pi {
		angle += 2 * math.Pi
	}
	return angle
}
