// Package operation keeps track of the motion a device is running so a newer one can preempt it.
package operation

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// SingleOperationManager ensures only one operation runs at a time. Starting a new operation
// cancels the running one, unless the new one is nested inside it.
type SingleOperationManager struct {
	mu        sync.Mutex
	currentOp *anOp
}

type somCtxKey byte

const somCtxKeySingleOp = somCtxKey(iota)

type anOp struct {
	cancel context.CancelFunc
}

// New starts an operation, cancelling any other. The returned function must be called when the
// operation is done.
func (sm *SingleOperationManager) New(ctx context.Context) (context.Context, func()) {
	if ctx.Value(somCtxKeySingleOp) != nil {
		return ctx, func() {}
	}

	sm.mu.Lock()
	sm.cancelInLock(ctx)
	op := &anOp{}
	ctx, op.cancel = context.WithCancel(context.WithValue(ctx, somCtxKeySingleOp, op))
	sm.currentOp = op
	sm.mu.Unlock()

	return ctx, func() {
		op.cancel()
		sm.mu.Lock()
		if sm.currentOp == op {
			sm.currentOp = nil
		}
		sm.mu.Unlock()
	}
}

// CancelRunning cancels the running operation unless ctx belongs to it.
func (sm *SingleOperationManager) CancelRunning(ctx context.Context) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	sm.cancelInLock(ctx)
}

// OpRunning returns whether an operation is running.
func (sm *SingleOperationManager) OpRunning() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.currentOp != nil
}

// TimedWait runs an operation that waits dur on clk. It returns true if the wait finished and
// false if it was cancelled.
func (sm *SingleOperationManager) TimedWait(ctx context.Context, clk clock.Clock, dur time.Duration) bool {
	ctx, done := sm.New(ctx)
	defer done()

	if dur <= 0 {
		return ctx.Err() == nil
	}
	timer := clk.Timer(dur)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

func (sm *SingleOperationManager) cancelInLock(ctx context.Context) {
	op := sm.currentOp
	if op == nil || ctx.Value(somCtxKeySingleOp) == op {
		return
	}
	op.cancel()
	sm.currentOp = nil
}
