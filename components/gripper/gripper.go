// Package gripper defines the parallel gripper the grasp planner closes around and releases objects.
package gripper

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.opencensus.io/trace"
)

// ErrActuatorTimeout is returned when the gripper did not report a result within the allowed time.
var ErrActuatorTimeout = errors.New("gripper did not finish before timeout")

// Goal is a grasp command: close or open to Width at Speed, squeezing with Force. The grasp
// succeeds when the final width is within EpsilonInner below and EpsilonOuter above Width.
type Goal struct {
	Width        float64 `json:"width"`
	Speed        float64 `json:"speed"`
	Force        float64 `json:"force"`
	EpsilonInner float64 `json:"epsilon_inner"`
	EpsilonOuter float64 `json:"epsilon_outer"`
}

// Validate ensures all parts of the goal are valid.
func (g Goal) Validate() error {
	if g.Width < 0 {
		return errors.Errorf("gripper width must be non-negative, got %f", g.Width)
	}
	if g.Speed <= 0 {
		return errors.Errorf("gripper speed must be positive, got %f", g.Speed)
	}
	if g.Force < 0 || g.EpsilonInner < 0 || g.EpsilonOuter < 0 {
		return errors.New("gripper force and tolerances must be non-negative")
	}
	return nil
}

// A Gripper is an action server style end effector: a goal is sent and its result awaited.
type Gripper interface {
	// WaitReady blocks until the gripper accepts goals.
	WaitReady(ctx context.Context) error
	// SendGoal starts moving the fingers. It does not wait for them to stop.
	SendGoal(ctx context.Context, goal Goal) error
	// WaitForResult blocks until the last goal finished or timeout elapsed, and reports whether it finished.
	WaitForResult(ctx context.Context, timeout time.Duration) (bool, error)
}

// Actuate sends goal and waits up to timeout for it to finish. ErrActuatorTimeout is returned
// when it does not.
func Actuate(ctx context.Context, g Gripper, goal Goal, timeout time.Duration) error {
	ctx, span := trace.StartSpan(ctx, "gripper::Actuate")
	defer span.End()

	if err := goal.Validate(); err != nil {
		return err
	}
	if err := g.SendGoal(ctx, goal); err != nil {
		return err
	}
	done, err := g.WaitForResult(ctx, timeout)
	if err != nil {
		return err
	}
	if !done {
		return errors.Wrapf(ErrActuatorTimeout, "waited %v for width %.3f", timeout, goal.Width)
	}
	return nil
}
