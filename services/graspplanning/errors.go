package graspplanning

import (
	"context"
	"errors"

	pkgerrors "github.com/pkg/errors"

	"go.viam.com/graspplanner/components/gripper"
	"go.viam.com/graspplanner/motionplan"
	"go.viam.com/graspplanner/workspace"
)

var (
	// ErrGraspTypeUnresolved is returned when no candidate poses can be generated for a grasp type.
	ErrGraspTypeUnresolved = pkgerrors.New("cannot resolve grasp type")
	// ErrModeNotEstablished is returned when the current grasp mode is requested before any
	// transit established one.
	ErrModeNotEstablished = pkgerrors.Wrap(ErrGraspTypeUnresolved, "sent transfer action before sending transit action")
	// ErrUnknownLocation is returned for a to_loc missing from the location table.
	ErrUnknownLocation = pkgerrors.New("unknown location")
	// ErrInvalidRequest is returned for a malformed request.
	ErrInvalidRequest = pkgerrors.New("invalid request")
	// ErrClosed is returned by a service that has been closed.
	ErrClosed = pkgerrors.New("grasp planning service is closed")
	// ErrRateLimited is returned by a server receiving queries faster than it admits them.
	ErrRateLimited = pkgerrors.New("too many planning queries")
)

// ErrorKind is the stable name of a class of failure, used on the wire and as a metric label.
type ErrorKind string

// The error kinds.
const (
	KindObjectNotFound      ErrorKind = "object_not_found"
	KindModeNotEstablished  ErrorKind = "mode_not_established"
	KindGraspTypeUnresolved ErrorKind = "grasp_type_unresolved"
	KindUnknownLocation     ErrorKind = "unknown_location"
	KindPlanningFailed      ErrorKind = "planning_failed"
	KindExecutionFailed     ErrorKind = "execution_failed"
	KindActuatorTimeout     ErrorKind = "actuator_timeout"
	KindPartialPath         ErrorKind = "partial_path"
	KindInvalidRequest      ErrorKind = "invalid_request"
	KindCanceled            ErrorKind = "canceled"
	KindRateLimited         ErrorKind = "rate_limited"
	KindInternal            ErrorKind = "internal"
)

// ErrPartialPath is returned when a Cartesian path could only be partly followed.
var ErrPartialPath = pkgerrors.New("cartesian path incomplete")

var kinds = []struct {
	target error
	kind   ErrorKind
}{
	{workspace.ErrObjectNotFound, KindObjectNotFound},
	// before ErrGraspTypeUnresolved, which it wraps
	{ErrModeNotEstablished, KindModeNotEstablished},
	{ErrGraspTypeUnresolved, KindGraspTypeUnresolved},
	{ErrUnknownLocation, KindUnknownLocation},
	{motionplan.ErrPlanningFailed, KindPlanningFailed},
	{motionplan.ErrExecutionFailed, KindExecutionFailed},
	{gripper.ErrActuatorTimeout, KindActuatorTimeout},
	{ErrPartialPath, KindPartialPath},
	{ErrInvalidRequest, KindInvalidRequest},
	{ErrRateLimited, KindRateLimited},
	{context.Canceled, KindCanceled},
	{context.DeadlineExceeded, KindCanceled},
}

// Kind classifies err. Errors of no known class are KindInternal; a nil error has no kind.
func Kind(err error) ErrorKind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.kind
		}
	}
	return KindInternal
}
