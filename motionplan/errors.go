package motionplan

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrPlanningFailed is returned when no feasible plan was found.
	ErrPlanningFailed = errors.New("motion planner failed to find path")
	// ErrExecutionFailed is returned when a plan was found but could not be executed.
	ErrExecutionFailed = errors.New("trajectory execution failed")
)

// NewPlannerFailedError returns an error indicating the planner could not reach the given goal.
func NewPlannerFailedError(goal fmt.Stringer) error {
	return errors.Wrapf(ErrPlanningFailed, "goal %v", goal)
}

// NewExecutionFailedError wraps the error an executor returned.
func NewExecutionFailedError(err error) error {
	return errors.Wrap(ErrExecutionFailed, err.Error())
}
