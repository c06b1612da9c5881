// Package fake implements a fake gripper.
package fake

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"

	"go.viam.com/graspplanner/components/gripper"
	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/operation"
)

// Gripper is a fake gripper whose fingers take a fixed time to reach any goal.
type Gripper struct {
	mu      sync.Mutex
	clock   clock.Clock
	logger  logging.Logger
	latency time.Duration
	opMgr   operation.SingleOperationManager

	width   float64
	goals   []gripper.Goal
	pending bool
}

// NewGripper returns a fake gripper that takes latency to finish every goal.
func NewGripper(clk clock.Clock, latency time.Duration, logger logging.Logger) *Gripper {
	return &Gripper{clock: clk, latency: latency, logger: logger}
}

// WaitReady returns immediately.
func (g *Gripper) WaitReady(ctx context.Context) error {
	return ctx.Err()
}

// SendGoal records the goal.
func (g *Gripper) SendGoal(ctx context.Context, goal gripper.Goal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.goals = append(g.goals, goal)
	g.pending = true
	g.logger.CDebugw(ctx, "gripper goal", "width", goal.Width, "force", goal.Force)
	return nil
}

// WaitForResult waits for the smaller of the latency and timeout. A newer wait preempts it.
func (g *Gripper) WaitForResult(ctx context.Context, timeout time.Duration) (bool, error) {
	g.mu.Lock()
	if !g.pending {
		g.mu.Unlock()
		return false, errors.New("no gripper goal was sent")
	}
	goal := g.goals[len(g.goals)-1]
	g.mu.Unlock()

	wait, finished := g.latency, true
	if timeout < g.latency {
		wait, finished = timeout, false
	}
	if !g.opMgr.TimedWait(ctx, g.clock, wait) {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		return false, errors.New("gripper wait was preempted")
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if finished {
		g.width = goal.Width
		g.pending = false
	}
	return finished, nil
}

// Width returns the width the fingers last settled at.
func (g *Gripper) Width() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.width
}

// Goals returns every goal sent so far.
func (g *Gripper) Goals() []gripper.Goal {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]gripper.Goal(nil), g.goals...)
}
