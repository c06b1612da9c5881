package inject

import (
	"context"
	"time"

	"go.viam.com/graspplanner/components/gripper"
)

// Gripper is an injected gripper.
type Gripper struct {
	gripper.Gripper
	WaitReadyFunc     func(ctx context.Context) error
	SendGoalFunc      func(ctx context.Context, goal gripper.Goal) error
	WaitForResultFunc func(ctx context.Context, timeout time.Duration) (bool, error)
}

// WaitReady calls the injected WaitReady or the real version.
func (g *Gripper) WaitReady(ctx context.Context) error {
	if g.WaitReadyFunc == nil {
		if g.Gripper == nil {
			return nil
		}
		return g.Gripper.WaitReady(ctx)
	}
	return g.WaitReadyFunc(ctx)
}

// SendGoal calls the injected SendGoal or the real version.
func (g *Gripper) SendGoal(ctx context.Context, goal gripper.Goal) error {
	if g.SendGoalFunc == nil {
		return g.Gripper.SendGoal(ctx, goal)
	}
	return g.SendGoalFunc(ctx, goal)
}

// WaitForResult calls the injected WaitForResult or the real version.
func (g *Gripper) WaitForResult(ctx context.Context, timeout time.Duration) (bool, error) {
	if g.WaitForResultFunc == nil {
		return g.Gripper.WaitForResult(ctx, timeout)
	}
	return g.WaitForResultFunc(ctx, timeout)
}
