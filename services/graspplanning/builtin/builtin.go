// Package builtin implements the grasp planning service on top of a motion planner, a collision
// scene and an optional gripper.
package builtin

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/graspplanner/components/gripper"
	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/motionplan"
	"go.viam.com/graspplanner/services/graspplanning"
	"go.viam.com/graspplanner/workspace"
)

// Collaborators are the components the service drives.
type Collaborators struct {
	Planner       motionplan.Planner
	Executor      motionplan.Executor
	Parameterizer motionplan.TimeParameterizer
	Scene         workspace.Scene
	// Gripper is nil when no gripper is in use.
	Gripper gripper.Gripper
}

// Validate ensures every required collaborator is present.
func (c Collaborators) Validate() error {
	switch {
	case c.Planner == nil:
		return errors.New("a planner is required")
	case c.Executor == nil:
		return errors.New("an executor is required")
	case c.Parameterizer == nil:
		return errors.New("a time parameterizer is required")
	case c.Scene == nil:
		return errors.New("a scene is required")
	default:
		return nil
	}
}

// Options configure a new service.
type Options struct {
	Config graspplanning.Config
	// Workspace is loaded into the domain registry and added to the scene at startup.
	Workspace []workspace.Entry
	// MockObserver means no perception system is reporting bag poses.
	MockObserver bool
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Rand draws the jitter applied at depots. It defaults to a time seeded source.
	Rand    *rand.Rand
	Metrics *graspplanning.Metrics
}

type builtIn struct {
	mu            sync.Mutex
	conf          graspplanning.Config
	planner       motionplan.Planner
	executor      motionplan.Executor
	parameterizer motionplan.TimeParameterizer
	scene         workspace.Scene
	gripper       gripper.Gripper
	retry         *motionplan.RetryPlanner
	jitter        motionplan.Jitter
	clock         clock.Clock
	metrics       *graspplanning.Metrics
	logger        logging.Logger

	registry *workspace.Registry
	state    graspplanning.SessionState
	closed   bool
}

// NewBuiltIn returns a new grasp planning service. It waits for the gripper to be ready, loads
// the workspace into the scene and starts the session at the current end effector pose.
func NewBuiltIn(ctx context.Context, collab Collaborators, opts Options, logger logging.Logger) (graspplanning.Service, error) {
	if err := collab.Validate(); err != nil {
		return nil, err
	}
	conf := opts.Config.WithDefaults()
	if err := conf.Validate("planning"); err != nil {
		return nil, err
	}
	clk := opts.Clock
	if clk == nil {
		clk = clock.New()
	}
	rng := opts.Rand
	if rng == nil {
		//nolint:gosec
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	gp := &builtIn{
		conf:          conf,
		planner:       collab.Planner,
		executor:      collab.Executor,
		parameterizer: collab.Parameterizer,
		scene:         collab.Scene,
		gripper:       collab.Gripper,
		retry:         motionplan.NewRetryPlanner(collab.Planner, collab.Executor, clk, logger.Sublogger("retry")),
		jitter:        motionplan.UniformJitter(rng, conf.Jitter),
		clock:         clk,
		metrics:       opts.Metrics,
		logger:        logger,
		registry:      workspace.NewRegistry(logger.Sublogger("registry")),
	}
	if opts.MockObserver {
		logger.Info("using a mock observer; bag poses are taken from requests as given")
	}

	if gp.gripper != nil {
		logger.Info("waiting for gripper")
		if err := gp.gripper.WaitReady(ctx); err != nil {
			return nil, errors.Wrap(err, "gripper never became ready")
		}
		logger.Info("found gripper")
	}

	objects := make([]workspace.CollisionObject, 0, len(opts.Workspace))
	labels := make([]string, 0, len(opts.Workspace))
	initial := make([]workspace.SceneObject, 0, len(opts.Workspace))
	for _, e := range opts.Workspace {
		objects = append(objects, e.Object)
		labels = append(labels, e.Label)
		initial = append(initial, workspace.SceneObject{Object: e.Object, Operation: workspace.OperationAdd})
	}
	if err := gp.registry.Load(objects, labels); err != nil {
		return nil, err
	}
	if err := gp.scene.ApplyCollisionObjects(ctx, initial); err != nil {
		return nil, errors.Wrap(err, "cannot add workspace to scene")
	}

	current, err := gp.planner.CurrentPose(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read end effector pose")
	}
	gp.state = graspplanning.NewSessionState(current)
	return gp, nil
}

func (gp *builtIn) PlanningQuery(ctx context.Context, req *graspplanning.Request) (*graspplanning.Response, error) {
	ctx, span := trace.StartSpan(ctx, "graspplanning::builtIn::PlanningQuery")
	defer span.End()

	if err := req.Validate(); err != nil {
		return nil, err
	}
	requestID := graspplanning.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	gp.mu.Lock()
	defer gp.mu.Unlock()
	if gp.closed {
		return nil, graspplanning.ErrClosed
	}

	gp.logger.CInfow(ctx, "received planning query", "request_id", requestID, "planning_domain", req.PlanningDomain)
	resp := &graspplanning.Response{RequestID: requestID}
	// an accepted request runs to completion
	gp.state = gp.dispatch(context.WithoutCancel(ctx), gp.state, req, resp)
	if resp.Success {
		gp.logger.Infow("planning query succeeded", "request_id", requestID, "branch", resp.Branch, "warnings", len(resp.Warnings))
	} else {
		gp.logger.Warnw("planning query failed", "request_id", requestID, "branch", resp.Branch, "kind", resp.ErrorKind, "error", resp.Error)
	}
	return resp, nil
}

func (gp *builtIn) Session(ctx context.Context) (graspplanning.SessionSnapshot, error) {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	return graspplanning.SessionSnapshot{State: gp.state, Objects: gp.registry.Objects()}, nil
}

func (gp *builtIn) Close(ctx context.Context) error {
	gp.mu.Lock()
	defer gp.mu.Unlock()
	gp.closed = true
	return nil
}

// dispatch runs exactly one branch, after setting up the environment if asked to.
func (gp *builtIn) dispatch(
	ctx context.Context,
	state graspplanning.SessionState,
	req *graspplanning.Request,
	resp *graspplanning.Response,
) graspplanning.SessionState {
	if req.SetupEnvironment {
		resp.Branch = graspplanning.BranchSetupEnvironment
		if err := gp.setupEnvironment(ctx, req); err != nil {
			resp.Fail(err)
			return state
		}
		if req.PickupObject == workspace.NoDomain && req.DropObject == workspace.NoDomain {
			resp.Success = true
			return state
		}
	}

	switch {
	case req.PickupObject != workspace.NoDomain:
		return gp.pick(ctx, state, req, resp)
	case req.DropObject != workspace.NoDomain:
		return gp.drop(ctx, state, req, resp)
	case req.GraspType == graspplanning.GraspMode && state.GraspMode == graspplanning.GraspSide:
		return gp.transfer(ctx, state, req, resp)
	default:
		return gp.transit(ctx, state, req, resp)
	}
}
