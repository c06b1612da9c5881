package builtin

import (
	"context"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.opencensus.io/trace"

	"go.viam.com/graspplanner/components/gripper"
	"go.viam.com/graspplanner/motionplan"
	"go.viam.com/graspplanner/referenceframe"
	"go.viam.com/graspplanner/services/graspplanning"
	"go.viam.com/graspplanner/spatialmath"
	"go.viam.com/graspplanner/workspace"
)

// setupEnvironment registers the bags of the request and activates the planning domain.
func (gp *builtIn) setupEnvironment(ctx context.Context, req *graspplanning.Request) error {
	ctx, span := trace.StartSpan(ctx, "graspplanning::builtIn::setupEnvironment")
	defer span.End()

	for i, pose := range req.BagPoses {
		box, err := spatialmath.NewBox(pose, gp.conf.Geometry.Dims(), req.BagLabels[i])
		if err != nil {
			return err
		}
		gp.registry.Append(workspace.CollisionObject{ID: req.BagLabels[i], Geometry: box}, req.BagDomainLabels[i])
		gp.logger.CDebugw(ctx, "adding object", "id", req.BagLabels[i], "domain", req.BagDomainLabels[i])
	}
	return gp.activate(ctx, req.PlanningDomain)
}

// activate makes the scene hold exactly the objects of domain.
func (gp *builtIn) activate(ctx context.Context, domain string) error {
	changes := gp.registry.Activate(domain)
	gp.logger.CDebugw(ctx, "activating domain", "domain", domain, "active", gp.registry.ActiveIn(domain))
	return gp.scene.ApplyCollisionObjects(ctx, changes)
}

// pick descends onto the previous goal, closes the gripper around the object and retreats. The
// response succeeds no matter how the motions went; their failures are reported as warnings.
func (gp *builtIn) pick(
	ctx context.Context,
	state graspplanning.SessionState,
	req *graspplanning.Request,
	resp *graspplanning.Response,
) graspplanning.SessionState {
	ctx, span := trace.StartSpan(ctx, "graspplanning::builtIn::pick")
	defer span.End()
	resp.Branch = graspplanning.BranchPick
	gp.logger.CDebugw(ctx, "working on grasp", "object", req.PickupObject)

	approach := gp.approach(ctx, state.PrevPose, resp)

	if err := gp.scene.AttachObject(ctx, req.PickupObject, gp.conf.AttachLink); err != nil {
		resp.Warn(err)
	}
	if err := gp.registry.Attach(req.PickupObject); err != nil {
		gp.logger.Warnw("cannot update domain label", "error", err)
		resp.Warn(err)
	}
	state.AttachedObject = req.PickupObject
	gp.actuate(ctx, *gp.conf.GripperClosed, resp)

	gp.retreat(ctx, approach, resp)
	resp.Success = true
	return state
}

// drop descends onto the previous goal, releases the held object into the planning domain and
// retreats. Like pick, it always succeeds.
func (gp *builtIn) drop(
	ctx context.Context,
	state graspplanning.SessionState,
	req *graspplanning.Request,
	resp *graspplanning.Response,
) graspplanning.SessionState {
	ctx, span := trace.StartSpan(ctx, "graspplanning::builtIn::drop")
	defer span.End()
	resp.Branch = graspplanning.BranchDrop
	gp.logger.CDebugw(ctx, "working on release", "object", req.DropObject)

	approach := gp.approach(ctx, state.PrevPose, resp)

	if err := gp.scene.DetachObject(ctx, req.DropObject); err != nil {
		resp.Warn(err)
	}
	if lo.Contains(req.BagLabels, req.DropObject) {
		if err := gp.registry.SetAnchor(req.DropObject, req.ManipulatorPose); err != nil {
			resp.Warn(err)
		}
	} else {
		gp.logger.CDebugw(ctx, "dropped object is not a bag of this request; keeping its pose", "object", req.DropObject)
	}
	if err := gp.registry.Detach(req.DropObject, req.PlanningDomain); err != nil {
		gp.logger.Warnw("cannot update domain label", "error", err)
		resp.Warn(err)
	}
	state.AttachedObject = workspace.NoDomain
	gp.actuate(ctx, *gp.conf.GripperOpen, resp)

	gp.retreat(ctx, approach, resp)
	if err := gp.activate(ctx, req.PlanningDomain); err != nil {
		resp.Warn(err)
	}
	resp.Success = true
	return state
}

// transfer carries a side grasped bag to a named location. At a goal the bag is then poured by
// tilting the wrist and coming back.
func (gp *builtIn) transfer(
	ctx context.Context,
	state graspplanning.SessionState,
	req *graspplanning.Request,
	resp *graspplanning.Response,
) graspplanning.SessionState {
	ctx, span := trace.StartSpan(ctx, "graspplanning::builtIn::transfer")
	defer span.End()
	resp.Branch = graspplanning.BranchSideGraspTilt

	loc, err := gp.conf.Locations.Lookup(req.ToLoc)
	if err != nil {
		resp.Fail(err)
		return state
	}
	if err := gp.activate(ctx, req.PlanningDomain); err != nil {
		resp.Warn(err)
	}
	current, err := gp.planner.CurrentPose(ctx)
	if err != nil {
		resp.Fail(err)
		return state
	}

	candidates := graspplanning.ComputeTransferPoses(loc.Point(), current.Orientation, *gp.conf.Geometry)
	opts := gp.retryOptions(req)
	opts.Lift = gp.conf.ApproachDistance
	if loc.Kind == graspplanning.LocationDepot {
		opts.Jitter = gp.jitter
	}
	attempt, err := gp.retry.Attempt(ctx, motionplan.PoseCandidates(candidates), opts)
	if attempt != nil {
		// the bag is released where the request says it is, not at the location center
		state.PrevPose = attempt.Candidate.Pose.Translate(req.ManipulatorPose.Point.Sub(loc.Point()))
	}
	if err != nil {
		resp.Fail(err)
		return state
	}

	if loc.Kind == graspplanning.LocationGoal {
		current, err := gp.planner.CurrentPose(ctx)
		if err != nil {
			resp.Warn(err)
		} else if err := gp.followWaypoints(ctx, graspplanning.BuildTiltWaypoints(current, gp.conf.TiltAngle(), gp.conf.TiltDrop), resp); err != nil {
			resp.Warn(errors.Wrap(err, "cannot tilt"))
		} else if loc.Pour {
			state.PourCount++
			if gp.metrics != nil {
				gp.metrics.Pours.Inc()
			}
		}
	}
	gp.clock.Sleep(gp.conf.Dwell())
	resp.Success = true
	return state
}

// transit moves to grasp candidates around the manipulator pose of the request, or to the safe
// joint configuration.
func (gp *builtIn) transit(
	ctx context.Context,
	state graspplanning.SessionState,
	req *graspplanning.Request,
	resp *graspplanning.Response,
) graspplanning.SessionState {
	ctx, span := trace.StartSpan(ctx, "graspplanning::builtIn::transit")
	defer span.End()
	resp.Branch = graspplanning.BranchTransit

	if err := gp.activate(ctx, req.PlanningDomain); err != nil {
		resp.Warn(err)
	}

	var candidates []motionplan.Candidate
	if req.SafeConfig {
		candidates = []motionplan.Candidate{{Joints: referenceframe.FloatsToInputs(gp.conf.SafeJoints)}}
	} else {
		grasp := req.GraspType
		if grasp == graspplanning.GraspMode {
			gp.logger.CDebugw(ctx, "using current grasp mode", "mode", state.GraspMode)
			grasp = state.GraspMode
		} else {
			state.GraspMode = grasp
		}
		poses, err := graspplanning.ComputeGraspPoses(req.ManipulatorPose, grasp, *gp.conf.Geometry)
		if err != nil {
			gp.logger.Errorw("cannot generate grasp poses", "grasp_type", grasp, "error", err)
			resp.Fail(err)
			return state
		}
		candidates = motionplan.PoseCandidates(poses)
	}

	attempt, err := gp.retry.Attempt(ctx, candidates, gp.retryOptions(req))
	if attempt != nil && attempt.Candidate.Pose != nil {
		state.PrevPose = *attempt.Candidate.Pose
	}
	if err != nil {
		resp.Fail(err)
		return state
	}
	resp.Success = true
	return state
}

func (gp *builtIn) retryOptions(req *graspplanning.Request) motionplan.RetryOptions {
	opts := motionplan.RetryOptions{
		Trials:       gp.conf.Trials,
		Backoff:      gp.conf.Backoff(),
		SettleDelay:  gp.conf.Settle(),
		PlanningTime: gp.conf.PlanningTime(),
		OnPlan: func(trial, index int, err error) {
			if gp.metrics != nil {
				gp.metrics.ObservePlan(err)
			}
		},
	}
	if req.GoToRaised {
		opts.Raise = gp.conf.ApproachDistance
	}
	return opts
}

// approach follows a vertical approach onto anchor and returns its waypoints, or nil when it
// could not be built.
func (gp *builtIn) approach(ctx context.Context, anchor spatialmath.Pose, resp *graspplanning.Response) []spatialmath.Pose {
	current, err := gp.planner.CurrentPose(ctx)
	if err != nil {
		resp.Warn(err)
		return nil
	}
	waypoints := graspplanning.BuildApproachWaypoints(current, anchor, gp.conf.ApproachDistance, gp.conf.Waypoints)
	if err := gp.followWaypoints(ctx, waypoints, resp); err != nil {
		gp.logger.Warnw("approach failed", "error", err)
		resp.Warn(err)
	}
	return waypoints
}

// retreat retraces approach from wherever the end effector is now.
func (gp *builtIn) retreat(ctx context.Context, approach []spatialmath.Pose, resp *graspplanning.Response) {
	if len(approach) == 0 {
		return
	}
	current, err := gp.planner.CurrentPose(ctx)
	if err != nil {
		resp.Warn(err)
		return
	}
	if err := gp.followWaypoints(ctx, graspplanning.BuildRetreatWaypoints(current, approach), resp); err != nil {
		gp.logger.Warnw("retreat failed", "error", err)
		resp.Warn(err)
	}
}

// followWaypoints moves through waypoints in straight lines. A path that can only be partly
// followed is still executed, with a warning.
func (gp *builtIn) followWaypoints(ctx context.Context, waypoints []spatialmath.Pose, resp *graspplanning.Response) error {
	ctx, span := trace.StartSpan(ctx, "graspplanning::builtIn::followWaypoints")
	defer span.End()

	fraction, traj, err := gp.planner.ComputeCartesianPath(ctx, waypoints, gp.conf.EEFStep, gp.conf.JumpThreshold)
	if err != nil {
		return errors.Wrapf(motionplan.ErrPlanningFailed, "cannot compute cartesian path: %v", err)
	}
	if fraction < 1 {
		resp.Warn(errors.Wrapf(graspplanning.ErrPartialPath, "followed %.0f%% of %d waypoints", fraction*100, len(waypoints)))
	}
	timed, err := gp.parameterizer.ComputeTimeStamps(traj, gp.conf.VelocityScale, gp.conf.AccelerationScale)
	if err != nil {
		return err
	}
	if err := gp.executor.Execute(ctx, timed); err != nil {
		return motionplan.NewExecutionFailedError(err)
	}
	return nil
}

func (gp *builtIn) actuate(ctx context.Context, goal gripper.Goal, resp *graspplanning.Response) {
	if gp.gripper == nil {
		return
	}
	if err := gripper.Actuate(ctx, gp.gripper, goal, gp.conf.GripperWait()); err != nil {
		gp.logger.Warnw("gripper did not finish", "width", goal.Width, "error", err)
		resp.Warn(err)
	}
}
