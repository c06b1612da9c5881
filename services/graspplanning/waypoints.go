package graspplanning

import (
	"github.com/golang/geo/r3"

	"go.viam.com/graspplanner/spatialmath"
)

// BuildApproachWaypoints returns a vertical approach onto anchor: the current pose, then points
// above anchor descending evenly from approachDist/steps·(steps-2) to anchor itself. The result
// has max(steps, 2) poses.
func BuildApproachWaypoints(current, anchor spatialmath.Pose, approachDist float64, steps int) []spatialmath.Pose {
	if steps < 2 {
		steps = 2
	}
	waypoints := make([]spatialmath.Pose, steps)
	waypoints[0] = current
	for i := 1; i < steps; i++ {
		waypoints[i] = anchor.Translate(r3.Vector{Z: approachDist / float64(steps) * float64(steps-1-i)})
	}
	return waypoints
}

// BuildRetreatWaypoints retraces an approach from current: the current pose followed by every
// approach waypoint but the last, in reverse.
func BuildRetreatWaypoints(current spatialmath.Pose, approach []spatialmath.Pose) []spatialmath.Pose {
	waypoints := make([]spatialmath.Pose, 0, len(approach))
	waypoints = append(waypoints, current)
	for i := len(approach) - 2; i >= 0; i-- {
		waypoints = append(waypoints, approach[i])
	}
	return waypoints
}

// BuildTiltWaypoints pours from current and comes back: the end effector rolls by tiltAngle
// while dropping by drop. The roll direction tips the held bag away from the arm.
func BuildTiltWaypoints(current spatialmath.Pose, tiltAngle, drop float64) []spatialmath.Pose {
	angle := tiltAngle
	if FacesPositiveY(current.Orientation) {
		angle = -tiltAngle
	}
	tilted := spatialmath.NewPose(
		current.Point.Sub(r3.Vector{Z: drop}),
		roll(angle).Compose(current.Orientation).Normalize(),
	)
	return []spatialmath.Pose{current, tilted, current}
}
