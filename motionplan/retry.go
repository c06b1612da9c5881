package motionplan

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.opencensus.io/trace"

	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/referenceframe"
	"go.viam.com/graspplanner/spatialmath"
)

// Candidate is one goal the retry loop may commit to. Exactly one of Pose or Joints is set.
type Candidate struct {
	Pose   *spatialmath.Pose
	Joints []referenceframe.Input
}

// PoseCandidates wraps poses as candidates, preserving their order.
func PoseCandidates(poses []spatialmath.Pose) []Candidate {
	candidates := make([]Candidate, 0, len(poses))
	for i := range poses {
		p := poses[i]
		candidates = append(candidates, Candidate{Pose: &p})
	}
	return candidates
}

// Jitter perturbs a pose goal before it is planned.
type Jitter func(spatialmath.Pose) spatialmath.Pose

// UniformJitter returns a Jitter that moves a pose by an offset drawn uniformly from
// [-radius, radius) along X and along Y.
func UniformJitter(rng *rand.Rand, radius float64) Jitter {
	var mu sync.Mutex
	return func(p spatialmath.Pose) spatialmath.Pose {
		mu.Lock()
		dx := (rng.Float64()*2 - 1) * radius
		dy := (rng.Float64()*2 - 1) * radius
		mu.Unlock()
		return p.Translate(r3.Vector{X: dx, Y: dy})
	}
}

// RetryOptions configure one run of the retry loop.
type RetryOptions struct {
	// Trials is the number of passes over the candidates.
	Trials int
	// Backoff is slept after a pass in which every candidate failed.
	Backoff time.Duration
	// SettleDelay is slept before every candidate is planned.
	SettleDelay time.Duration
	// PlanningTime bounds each planner call.
	PlanningTime time.Duration
	// Lift is added to the height of a pose candidate before it is planned.
	Lift float64
	// Jitter, when set, perturbs every pose goal. It is re-drawn for every attempt.
	Jitter Jitter
	// Raise, when positive, probes a follow-up goal this far above the committed pose candidate.
	Raise float64
	// OnPlan, when set, is called after every planner call.
	OnPlan func(trial, index int, err error)
}

// Attempt describes what the retry loop committed to.
type Attempt struct {
	Trial int
	Index int
	// Candidate is the committed candidate as given.
	Candidate Candidate
	// Goal is the pose that was planned, after lift and jitter. Nil for joint candidates.
	Goal *spatialmath.Pose
	// Raised reports whether the raised follow-up was planned, and therefore executed.
	Raised    bool
	PlanCalls int
}

// RetryPlanner runs a bounded, greedy search over goal candidates: the first candidate that can be
// planned is executed and nothing else is tried.
type RetryPlanner struct {
	planner  Planner
	executor Executor
	clock    clock.Clock
	logger   logging.Logger
}

// NewRetryPlanner returns a RetryPlanner. Sleeps go through clk.
func NewRetryPlanner(planner Planner, executor Executor, clk clock.Clock, logger logging.Logger) *RetryPlanner {
	return &RetryPlanner{planner: planner, executor: executor, clock: clk, logger: logger}
}

// Attempt tries every candidate in order, once per trial, until one can be planned. That plan is
// executed and the loop stops. When every trial is exhausted an error wrapping ErrPlanningFailed
// is returned; when the committed plan cannot be executed the Attempt is returned together with an
// error wrapping ErrExecutionFailed.
func (rp *RetryPlanner) Attempt(ctx context.Context, candidates []Candidate, opts RetryOptions) (*Attempt, error) {
	ctx, span := trace.StartSpan(ctx, "motionplan::RetryPlanner::Attempt")
	defer span.End()

	if len(candidates) == 0 {
		return nil, errors.Wrap(ErrPlanningFailed, "no goal candidates")
	}

	planCalls := 0
	plan := func(trial, index int, req *PlanRequest) (*Plan, error) {
		planCalls++
		p, err := rp.planner.Plan(ctx, req)
		if opts.OnPlan != nil {
			opts.OnPlan(trial, index, err)
		}
		return p, err
	}

	for trial := 0; trial < opts.Trials; trial++ {
		for index, candidate := range candidates {
			req := &PlanRequest{PlanningTime: opts.PlanningTime}
			if candidate.Pose != nil {
				goal := candidate.Pose.Translate(r3.Vector{Z: opts.Lift})
				if opts.Jitter != nil {
					goal = opts.Jitter(goal)
				}
				req.Goal = &goal
			} else {
				req.JointGoal = candidate.Joints
			}

			rp.logger.CDebugw(ctx, "working on candidate", "trial", trial, "index", index, "goal", req.String())
			if err := rp.sleep(ctx, opts.SettleDelay); err != nil {
				return nil, err
			}
			committed, err := plan(trial, index, req)
			if err != nil {
				rp.logger.CDebugw(ctx, "candidate failed", "trial", trial, "index", index, "error", err)
				continue
			}

			attempt := &Attempt{Trial: trial, Index: index, Candidate: candidate, Goal: req.Goal}
			if opts.Raise > 0 && candidate.Pose != nil {
				raised := candidate.Pose.Translate(r3.Vector{Z: opts.Raise})
				raisedPlan, err := plan(trial, index, &PlanRequest{Goal: &raised, PlanningTime: opts.PlanningTime})
				if err == nil {
					committed = raisedPlan
					attempt.Raised = true
				} else {
					rp.logger.CDebugw(ctx, "raised follow-up failed", "goal", raised, "error", err)
				}
			}
			attempt.PlanCalls = planCalls
			rp.logger.Infow("completed planning", "trial", trial, "index", index, "raised", attempt.Raised)

			if err := rp.executor.Execute(ctx, committed.Trajectory); err != nil {
				return attempt, NewExecutionFailedError(err)
			}
			return attempt, nil
		}
		if trial < opts.Trials-1 {
			if err := rp.sleep(ctx, opts.Backoff); err != nil {
				return nil, err
			}
		}
	}
	return nil, errors.Wrapf(ErrPlanningFailed, "exhausted %d trials over %d candidates", opts.Trials, len(candidates))
}

func (rp *RetryPlanner) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := rp.clock.Timer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
