// Package motionplan defines the planning and execution collaborators of the grasp planner and the
// bounded retry loop that drives them.
package motionplan

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"

	"go.viam.com/graspplanner/referenceframe"
	"go.viam.com/graspplanner/spatialmath"
)

// TrajectoryPoint is one step of a trajectory.
type TrajectoryPoint struct {
	Pose          spatialmath.Pose       `json:"pose"`
	Joints        []referenceframe.Input `json:"joints,omitempty"`
	TimeFromStart time.Duration          `json:"time_from_start"`
}

// Trajectory is a series of end-effector poses, and optionally joint positions, for the manipulator
// to travel through.
type Trajectory []TrajectoryPoint

// Duration returns the time stamp of the last point.
func (traj Trajectory) Duration() time.Duration {
	if len(traj) == 0 {
		return 0
	}
	return traj[len(traj)-1].TimeFromStart
}

// Poses returns the pose of every point.
func (traj Trajectory) Poses() []spatialmath.Pose {
	poses := make([]spatialmath.Pose, 0, len(traj))
	for _, pt := range traj {
		poses = append(poses, pt.Pose)
	}
	return poses
}

// String returns a human-readable version of the trajectory, suitable for debugging.
func (traj Trajectory) String() string {
	var sb strings.Builder
	for _, pt := range traj {
		fmt.Fprintf(&sb, "\n%v\t%v\t%v", pt.TimeFromStart, pt.Pose, pt.Joints)
	}
	return sb.String()
}

// PlanRequest asks for a plan from the current state to exactly one of a pose goal or a joint goal.
type PlanRequest struct {
	Goal         *spatialmath.Pose
	JointGoal    []referenceframe.Input
	PlanningTime time.Duration
}

// Validate ensures exactly one goal is set.
func (req *PlanRequest) Validate() error {
	if req.Goal == nil && len(req.JointGoal) == 0 {
		return errors.New("plan request needs a pose goal or a joint goal")
	}
	if req.Goal != nil && len(req.JointGoal) > 0 {
		return errors.New("plan request cannot have both a pose goal and a joint goal")
	}
	return nil
}

func (req *PlanRequest) String() string {
	if req.Goal != nil {
		return req.Goal.String()
	}
	return fmt.Sprintf("joints%v", req.JointGoal)
}

// Plan is a feasible motion for a PlanRequest.
type Plan struct {
	Request    PlanRequest
	Trajectory Trajectory
}

// Planner finds motions for the manipulator. Plan returns an error wrapping ErrPlanningFailed when
// the goal is infeasible from the current state.
type Planner interface {
	CurrentPose(ctx context.Context) (spatialmath.Pose, error)
	Plan(ctx context.Context, req *PlanRequest) (*Plan, error)
	// ComputeCartesianPath follows the waypoints in straight lines, interpolated every eefStep
	// meters, and returns the fraction of the path that could be followed.
	ComputeCartesianPath(ctx context.Context, waypoints []spatialmath.Pose, eefStep, jumpThreshold float64) (float64, Trajectory, error)
}

// Executor moves the manipulator along a trajectory, blocking until it is done.
type Executor interface {
	Execute(ctx context.Context, traj Trajectory) error
}

// TimeParameterizer stamps a geometric path with times.
type TimeParameterizer interface {
	ComputeTimeStamps(traj Trajectory, velocityScale, accelerationScale float64) (Trajectory, error)
}
