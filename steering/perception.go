package steering

import (
	"math"

	"github.com/pthm-cable/herd/components"
)

// CanSee reports whether candidate lies within maxDistance of observer and
// inside its vision cone. The cone is centered on the observer's heading,
// which a stationary observer keeps from its last movement.
//
// Callers exclude the observer itself with a distance > 0 check first.
func CanSee(observer, candidate *components.Boid, maxDistance float64) bool {
	dx := candidate.Pos.X - observer.Pos.X
	dy := candidate.Pos.Y - observer.Pos.Y
	if dx*dx+dy*dy > maxDistance*maxDistance {
		return false
	}

	angleToTarget := math.Atan2(dy, dx)
	angleDiff := normalizeAngle(angleToTarget - observer.Heading)
	return math.Abs(angleDiff) <= observer.Perception.VisionAngle/2
}

// DistVision reports whether candidate lies within radius of observer.
func DistVision(observer, candidate *components.Boid, radius float64) bool {
	return Distance(observer.Pos, candidate.Pos) <= radius
}
