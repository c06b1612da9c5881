package inject

import (
	"context"

	"go.viam.com/graspplanner/motionplan"
	"go.viam.com/graspplanner/spatialmath"
)

// Planner is an injected motion planner.
type Planner struct {
	motionplan.Planner
	CurrentPoseFunc          func(ctx context.Context) (spatialmath.Pose, error)
	PlanFunc                 func(ctx context.Context, req *motionplan.PlanRequest) (*motionplan.Plan, error)
	ComputeCartesianPathFunc func(
		ctx context.Context, waypoints []spatialmath.Pose, eefStep, jumpThreshold float64,
	) (float64, motionplan.Trajectory, error)
}

// CurrentPose calls the injected CurrentPose or the real version.
func (p *Planner) CurrentPose(ctx context.Context) (spatialmath.Pose, error) {
	if p.CurrentPoseFunc == nil {
		return p.Planner.CurrentPose(ctx)
	}
	return p.CurrentPoseFunc(ctx)
}

// Plan calls the injected Plan or the real version.
func (p *Planner) Plan(ctx context.Context, req *motionplan.PlanRequest) (*motionplan.Plan, error) {
	if p.PlanFunc == nil {
		return p.Planner.Plan(ctx, req)
	}
	return p.PlanFunc(ctx, req)
}

// ComputeCartesianPath calls the injected ComputeCartesianPath or the real version.
func (p *Planner) ComputeCartesianPath(
	ctx context.Context, waypoints []spatialmath.Pose, eefStep, jumpThreshold float64,
) (float64, motionplan.Trajectory, error) {
	if p.ComputeCartesianPathFunc == nil {
		return p.Planner.ComputeCartesianPath(ctx, waypoints, eefStep, jumpThreshold)
	}
	return p.ComputeCartesianPathFunc(ctx, waypoints, eefStep, jumpThreshold)
}

// Executor is an injected trajectory executor.
type Executor struct {
	motionplan.Executor
	ExecuteFunc func(ctx context.Context, traj motionplan.Trajectory) error
}

// Execute calls the injected Execute or the real version.
func (e *Executor) Execute(ctx context.Context, traj motionplan.Trajectory) error {
	if e.ExecuteFunc == nil {
		return e.Executor.Execute(ctx, traj)
	}
	return e.ExecuteFunc(ctx, traj)
}

// TimeParameterizer is an injected time parameterizer.
type TimeParameterizer struct {
	motionplan.TimeParameterizer
	ComputeTimeStampsFunc func(traj motionplan.Trajectory, velocityScale, accelerationScale float64) (motionplan.Trajectory, error)
}

// ComputeTimeStamps calls the injected ComputeTimeStamps or the real version.
func (tp *TimeParameterizer) ComputeTimeStamps(
	traj motionplan.Trajectory, velocityScale, accelerationScale float64,
) (motionplan.Trajectory, error) {
	if tp.ComputeTimeStampsFunc == nil {
		return tp.TimeParameterizer.ComputeTimeStamps(traj, velocityScale, accelerationScale)
	}
	return tp.ComputeTimeStampsFunc(traj, velocityScale, accelerationScale)
}
