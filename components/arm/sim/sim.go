// Package sim implements a simulated manipulator that plans and executes motions in a completely
// deterministic manner for testing and for running without hardware.
package sim

import (
	"context"
	"math"
	"sync"

	"github.com/benbjohnson/clock"
	"github.com/go-viper/mapstructure/v2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/motionplan"
	"go.viam.com/graspplanner/operation"
	"go.viam.com/graspplanner/referenceframe"
	"go.viam.com/graspplanner/spatialmath"
)

// Panda link8 limits.
const (
	defaultReach     = 0.855
	defaultMinHeight = 0.0
)

// DefaultHomeJoints is the joint configuration of the ready pose.
var DefaultHomeJoints = []float64{0, -0.785398, 0, -2.35619, 1.5708, 0.785398}

// Config is used for converting config attributes.
type Config struct {
	// Reach is the largest distance from the base any pose goal may be.
	Reach float64 `json:"reach,omitempty"`
	// MinHeight is the lowest height any pose goal may be.
	MinHeight float64 `json:"min_height,omitempty"`
	// Home is the end effector pose the arm starts at, and returns to when it is sent to HomeJoints.
	Home *spatialmath.PoseConfig `json:"home,omitempty"`
	// HomeJoints is the only joint configuration the simulation knows the end effector pose of.
	HomeJoints []float64 `json:"home_joints,omitempty"`
	// SimulateTime makes Execute block for the duration of the trajectory.
	SimulateTime bool `json:"simulate_time,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (conf *Config) Validate(path string) error {
	if conf.Reach < 0 {
		return errors.Errorf("%s: reach must be non-negative", path)
	}
	if conf.Home != nil && len(conf.HomeJoints) == 0 {
		return errors.Errorf("%s: home pose requires home_joints", path)
	}
	return nil
}

func defaultHome() spatialmath.Pose {
	// ready pose, facing down
	return spatialmath.NewPose(r3.Vector{X: 0.307, Y: 0, Z: 0.59}, (&spatialmath.EulerAngles{Roll: math.Pi, Yaw: -math.Pi / 4}).Quaternion())
}

// Arm is a simulated manipulator. It is a motionplan.Planner and a motionplan.Executor.
type Arm struct {
	mu     sync.Mutex
	conf   Config
	home   spatialmath.Pose
	clock  clock.Clock
	logger logging.Logger
	opMgr  operation.SingleOperationManager

	pose       spatialmath.Pose
	joints     []referenceframe.Input
	executions int
}

// NewArm decodes the attribute map and returns a simulated arm resting at its home pose.
func NewArm(attributes map[string]interface{}, clk clock.Clock, logger logging.Logger) (*Arm, error) {
	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{TagName: "json", Result: &conf})
	if err != nil {
		return nil, errors.Wrap(err, "error creating decoder")
	}
	if err := decoder.Decode(attributes); err != nil {
		return nil, errors.Wrap(err, "error decoding simulated arm attributes")
	}
	if err := conf.Validate("planner.attributes"); err != nil {
		return nil, err
	}
	if conf.Reach == 0 {
		conf.Reach = defaultReach
	}
	if conf.MinHeight == 0 {
		conf.MinHeight = defaultMinHeight
	}
	if len(conf.HomeJoints) == 0 {
		conf.HomeJoints = DefaultHomeJoints
	}
	home := defaultHome()
	if conf.Home != nil {
		home = conf.Home.Pose()
	}
	return &Arm{
		conf:   conf,
		home:   home,
		clock:  clk,
		logger: logger,
		pose:   home,
		joints: referenceframe.FloatsToInputs(conf.HomeJoints),
	}, nil
}

func (a *Arm) reachable(p spatialmath.Pose) bool {
	return p.Point.Norm() <= a.conf.Reach && p.Point.Z >= a.conf.MinHeight
}

// CurrentPose returns where the end effector is.
func (a *Arm) CurrentPose(ctx context.Context) (spatialmath.Pose, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pose, nil
}

// Plan returns a straight move to a reachable pose goal, or a move to the home joint configuration.
func (a *Arm) Plan(ctx context.Context, req *motionplan.PlanRequest) (*motionplan.Plan, error) {
	_, span := trace.StartSpan(ctx, "sim::Arm::Plan")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	start := motionplan.TrajectoryPoint{Pose: a.pose, Joints: a.joints}
	if req.Goal != nil {
		if !a.reachable(*req.Goal) {
			return nil, motionplan.NewPlannerFailedError(req)
		}
		return &motionplan.Plan{
			Request:    *req,
			Trajectory: motionplan.Trajectory{start, {Pose: *req.Goal}},
		}, nil
	}

	if len(req.JointGoal) != len(a.conf.HomeJoints) {
		return nil, referenceframe.NewIncorrectDoFError(len(req.JointGoal), len(a.conf.HomeJoints))
	}
	if !referenceframe.InputsAlmostEqual(req.JointGoal, a.conf.HomeJoints, 1e-6) {
		return nil, errors.Wrap(motionplan.NewPlannerFailedError(req), "simulated arm only knows its home joint configuration")
	}
	return &motionplan.Plan{
		Request:    *req,
		Trajectory: motionplan.Trajectory{start, {Pose: a.home, Joints: req.JointGoal}},
	}, nil
}

// ComputeCartesianPath interpolates between consecutive waypoints every eefStep meters and stops at
// the first unreachable point. The first waypoint is taken as the start and is not checked.
func (a *Arm) ComputeCartesianPath(
	ctx context.Context, waypoints []spatialmath.Pose, eefStep, jumpThreshold float64,
) (float64, motionplan.Trajectory, error) {
	_, span := trace.StartSpan(ctx, "sim::Arm::ComputeCartesianPath")
	defer span.End()

	if eefStep <= 0 {
		return 0, nil, errors.Errorf("eef step must be positive, got %f", eefStep)
	}
	if len(waypoints) == 0 {
		return 0, nil, errors.New("no waypoints given")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	traj := motionplan.Trajectory{{Pose: waypoints[0]}}
	segments := len(waypoints) - 1
	if segments == 0 {
		return 1, traj, nil
	}
	for i := 1; i < len(waypoints); i++ {
		from, to := waypoints[i-1], waypoints[i]
		steps := int(math.Ceil(to.Point.Distance(from.Point) / eefStep))
		if steps < 1 {
			steps = 1
		}
		for s := 1; s <= steps; s++ {
			p := spatialmath.Interpolate(from, to, float64(s)/float64(steps))
			if !a.reachable(p) {
				a.logger.CDebugw(ctx, "cartesian path left the workspace", "segment", i, "pose", p)
				return float64(i-1) / float64(segments), traj, nil
			}
			traj = append(traj, motionplan.TrajectoryPoint{Pose: p})
		}
	}
	return 1, traj, nil
}

// Execute moves the end effector to the last point of the trajectory. Starting an execution
// cancels the one in progress.
func (a *Arm) Execute(ctx context.Context, traj motionplan.Trajectory) error {
	ctx, span := trace.StartSpan(ctx, "sim::Arm::Execute")
	defer span.End()
	ctx, done := a.opMgr.New(ctx)
	defer done()

	if len(traj) == 0 {
		return errors.New("cannot execute an empty trajectory")
	}
	for i, pt := range traj[1:] {
		if !a.reachable(pt.Pose) {
			return errors.Errorf("trajectory point %d %v is out of reach", i+1, pt.Pose)
		}
	}
	if a.conf.SimulateTime && !a.opMgr.TimedWait(ctx, a.clock, traj.Duration()) {
		return errors.Wrap(ctx.Err(), "execution stopped")
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	last := traj[len(traj)-1]
	a.pose = last.Pose
	a.joints = last.Joints
	a.executions++
	return nil
}

// Stop cancels the execution in progress, leaving the end effector where it was.
func (a *Arm) Stop(ctx context.Context) error {
	a.opMgr.CancelRunning(ctx)
	return nil
}

// IsMoving returns whether a trajectory is executing.
func (a *Arm) IsMoving() bool {
	return a.opMgr.OpRunning()
}

// Executions returns how many trajectories were executed.
func (a *Arm) Executions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.executions
}

// JointPositions returns the last commanded joint positions, or nil if the arm was last moved by pose.
func (a *Arm) JointPositions() []referenceframe.Input {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.joints == nil {
		return nil
	}
	return referenceframe.InputsToFloats(a.joints)
}
