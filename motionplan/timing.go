package motionplan

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// TrapezoidalParameterizer stamps every segment of a path with a rest-to-rest trapezoidal velocity
// profile. Segments are timed by their slowest joint when both ends carry joint positions, and by
// the straight-line end-effector distance otherwise.
type TrapezoidalParameterizer struct {
	maxVel float64
	maxAcc float64
}

// NewTrapezoidalParameterizer returns a parameterizer with the given unscaled limits.
func NewTrapezoidalParameterizer(maxVelocity, maxAcceleration float64) (*TrapezoidalParameterizer, error) {
	if maxVelocity <= 0 || maxAcceleration <= 0 {
		return nil, errors.Errorf("velocity and acceleration limits must be positive, got %f and %f", maxVelocity, maxAcceleration)
	}
	return &TrapezoidalParameterizer{maxVel: maxVelocity, maxAcc: maxAcceleration}, nil
}

// ComputeTimeStamps returns a copy of traj with TimeFromStart filled in.
func (tp *TrapezoidalParameterizer) ComputeTimeStamps(traj Trajectory, velocityScale, accelerationScale float64) (Trajectory, error) {
	if velocityScale <= 0 || velocityScale > 1 {
		return nil, errors.Errorf("velocity scale must be in (0, 1], got %f", velocityScale)
	}
	if accelerationScale <= 0 || accelerationScale > 1 {
		return nil, errors.Errorf("acceleration scale must be in (0, 1], got %f", accelerationScale)
	}
	maxVel := tp.maxVel * velocityScale
	maxAcc := tp.maxAcc * accelerationScale

	timed := make(Trajectory, len(traj))
	copy(timed, traj)
	var elapsed float64
	for i := range timed {
		if i > 0 {
			elapsed += segmentTime(segmentDistance(timed[i-1], timed[i]), maxVel, maxAcc)
		}
		timed[i].TimeFromStart = time.Duration(elapsed * float64(time.Second))
	}
	return timed, nil
}

func segmentDistance(from, to TrajectoryPoint) float64 {
	if len(from.Joints) > 0 && len(from.Joints) == len(to.Joints) {
		var worst float64
		for i, j := range from.Joints {
			worst = math.Max(worst, math.Abs(to.Joints[i]-j))
		}
		return worst
	}
	return to.Pose.Point.Distance(from.Pose.Point)
}

// segmentTime is the duration of a rest-to-rest move of the given distance. The profile is
// triangular when the distance is too short to reach maxVel.
func segmentTime(dist, maxVel, maxAcc float64) float64 {
	if dist == 0 {
		return 0
	}
	vPeak := math.Min(math.Sqrt(dist*maxAcc), maxVel)
	return dist/vPeak + vPeak/maxAcc
}
