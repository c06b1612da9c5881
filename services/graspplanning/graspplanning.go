// Package graspplanning defines the grasp planning service: the planning query it answers, the
// session it keeps between queries, and the geometry it uses to turn symbolic requests into end
// effector goals.
package graspplanning

import (
	"context"
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/graspplanner/spatialmath"
	"go.viam.com/graspplanner/workspace"
)

// Service resolves planning queries into motions of the manipulator.
type Service interface {
	// PlanningQuery handles one request. An error is returned only when the request could not be
	// accepted; the outcome of an accepted request is reported in the Response.
	PlanningQuery(ctx context.Context, req *Request) (*Response, error)
	// Session returns a copy of the state kept between queries.
	Session(ctx context.Context) (SessionSnapshot, error)
	Close(ctx context.Context) error
}

// GraspType selects how candidate grasp poses are generated.
type GraspType string

// The known grasp types. GraspMode is not a grasp type of its own; it stands for whatever grasp
// mode the session currently holds.
const (
	GraspNone GraspType = "none"
	GraspUp   GraspType = "up"
	GraspSide GraspType = "side"
	GraspMode GraspType = "mode"
)

// ParseGraspType converts a wire string to a GraspType. The empty string is read as GraspNone.
func ParseGraspType(s string) (GraspType, error) {
	switch GraspType(s) {
	case "", GraspNone:
		return GraspNone, nil
	case GraspUp, GraspSide, GraspMode:
		return GraspType(s), nil
	default:
		return "", errors.Wrapf(ErrGraspTypeUnresolved, "unrecognized grasp type %q", s)
	}
}

// Branch names the part of the dispatcher that handled a request.
type Branch string

// The dispatcher branches, in priority order.
const (
	BranchSetupEnvironment Branch = "setup_environment"
	BranchPick             Branch = "pick"
	BranchDrop             Branch = "drop"
	BranchSideGraspTilt    Branch = "side_grasp_tilt"
	BranchTransit          Branch = "transit"
)

// Request is a planning query. It carries a single intent; see the dispatcher for how competing
// fields are prioritized.
type Request struct {
	SetupEnvironment bool               `json:"setup_environment"`
	BagPoses         []spatialmath.Pose `json:"bag_poses,omitempty"`
	BagLabels        []string           `json:"bag_labels,omitempty"`
	BagDomainLabels  []string           `json:"bag_domain_labels,omitempty"`
	PlanningDomain   string             `json:"planning_domain"`
	PickupObject     string             `json:"pickup_object"`
	DropObject       string             `json:"drop_object"`
	GraspType        GraspType          `json:"grasp_type"`
	ToLoc            string             `json:"to_loc"`
	ManipulatorPose  spatialmath.Pose   `json:"manipulator_pose"`
	GoToRaised       bool               `json:"go_to_raised"`
	SafeConfig       bool               `json:"safe_config"`
}

// Validate ensures all parts of the request are valid. Empty object names and an empty grasp
// type are filled in as none, and an unset manipulator orientation as no rotation.
func (req *Request) Validate() error {
	var errs error
	gt, err := ParseGraspType(string(req.GraspType))
	if err != nil {
		errs = multierr.Append(errs, err)
	} else {
		req.GraspType = gt
	}
	if req.PickupObject == "" {
		req.PickupObject = workspace.NoDomain
	}
	if req.DropObject == "" {
		req.DropObject = workspace.NoDomain
	}
	if req.ManipulatorPose.Orientation == (spatialmath.Quaternion{}) {
		req.ManipulatorPose.Orientation = spatialmath.NewZeroOrientation()
	}
	if req.SetupEnvironment {
		if len(req.BagLabels) != len(req.BagPoses) || len(req.BagDomainLabels) != len(req.BagPoses) {
			errs = multierr.Append(errs, errors.Wrapf(ErrInvalidRequest,
				"got %d bag poses, %d bag labels and %d bag domain labels",
				len(req.BagPoses), len(req.BagLabels), len(req.BagDomainLabels)))
		}
		for i, label := range req.BagLabels {
			if label == "" {
				errs = multierr.Append(errs, errors.Wrapf(ErrInvalidRequest, "bag_labels.%d is empty", i))
			}
		}
	}
	return errs
}

// Warning is a failure that did not change the outcome of a request.
type Warning struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

// Response is the outcome of a planning query. Success keeps its historical meaning; the other
// fields describe what happened in more detail.
type Response struct {
	Success   bool      `json:"success"`
	Branch    Branch    `json:"branch,omitempty"`
	ErrorKind ErrorKind `json:"error_kind,omitempty"`
	Error     string    `json:"error,omitempty"`
	Warnings  []Warning `json:"warnings,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
}

// Fail records err as the reason the request did not succeed.
func (resp *Response) Fail(err error) {
	resp.Success = false
	resp.ErrorKind = Kind(err)
	resp.Error = err.Error()
}

// Warn records err without failing the request.
func (resp *Response) Warn(err error) {
	resp.Warnings = append(resp.Warnings, Warning{Kind: Kind(err), Message: err.Error()})
}

// SessionState is everything the service remembers between requests.
type SessionState struct {
	// AttachedObject is the id of the object held by the end effector, or none.
	AttachedObject string `json:"attached_object"`
	// GraspMode is the grasp type last requested explicitly.
	GraspMode GraspType `json:"grasp_mode"`
	// PrevPose is the last committed end effector goal. Pick and drop approach it.
	PrevPose  spatialmath.Pose `json:"prev_pose"`
	PourCount int              `json:"pour_count"`
}

// NewSessionState returns the state of a service that has not handled any request yet.
func NewSessionState(prevPose spatialmath.Pose) SessionState {
	return SessionState{
		AttachedObject: workspace.NoDomain,
		GraspMode:      GraspNone,
		PrevPose:       prevPose,
	}
}

// SessionSnapshot is a copy of the session state and of the domain registry.
type SessionSnapshot struct {
	State   SessionState      `json:"state"`
	Objects []workspace.Entry `json:"objects"`
}

// String prints the session state, then a table of every collision object with columns of id,
// domain, dimensions and position.
func (s SessionSnapshot) String() string {
	state := table.NewWriter()
	state.AppendRows([]table.Row{
		{"Attached object", s.State.AttachedObject},
		{"Grasp mode", s.State.GraspMode},
		{"Previous pose", s.State.PrevPose.String()},
		{"Pours", s.State.PourCount},
	})

	objects := table.NewWriter()
	objects.AppendHeader(table.Row{"#", "ID", "Domain", "Dimensions", "Position"})
	for i, entry := range s.Objects {
		dims, position := "", ""
		if box := entry.Object.Geometry; box != nil {
			d, p := box.Dims(), box.Pose().Point
			dims = fmt.Sprintf("%.3f x %.3f x %.3f", d.X, d.Y, d.Z)
			position = fmt.Sprintf("X:%.3f, Y:%.3f, Z:%.3f", p.X, p.Y, p.Z)
		}
		objects.AppendRow(table.Row{i + 1, entry.Object.ID, entry.Label, dims, position})
	}
	return state.Render() + "\n" + objects.Render()
}
