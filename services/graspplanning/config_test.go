package graspplanning

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.viam.com/test"

	"go.viam.com/graspplanner/components/gripper"
	"go.viam.com/graspplanner/motionplan"
	"go.viam.com/graspplanner/spatialmath"
	"go.viam.com/graspplanner/workspace"
)

func TestConfigDefaults(t *testing.T) {
	conf := Config{Trials: 4, Jitter: 0.01}.WithDefaults()
	test.That(t, conf.Validate("planning"), test.ShouldBeNil)
	test.That(t, conf.Trials, test.ShouldEqual, 4)
	test.That(t, conf.Jitter, test.ShouldEqual, 0.01)
	test.That(t, conf.Backoff(), test.ShouldEqual, time.Second)
	test.That(t, conf.PlanningTime(), test.ShouldEqual, 5*time.Second)
	test.That(t, conf.TiltAngle(), test.ShouldAlmostEqual, 1.0471975511965976)
	test.That(t, *conf.Geometry, test.ShouldResemble, DefaultGeometry())
	test.That(t, conf.GripperClosed.Width, test.ShouldEqual, 0.044)
	test.That(t, conf.GripperOpen.Width, test.ShouldEqual, 0.1)
	test.That(t, conf.SafeJoints, test.ShouldResemble, DefaultSafeJoints)
	test.That(t, conf.Locations, test.ShouldHaveLength, 6)
	test.That(t, conf.AttachLink, test.ShouldEqual, "panda_link8")

	// defaults are copied
	conf.SafeJoints[0] = 1
	test.That(t, DefaultSafeJoints[0], test.ShouldEqual, 0)
}

func TestConfigValidate(t *testing.T) {
	conf := Config{
		Trials:        -1,
		Waypoints:     1,
		VelocityScale: 2,
		Geometry:      &Geometry{BagWidth: 0.07, BagHeight: 0.1},
		GripperOpen:   &gripper.Goal{Width: -1},
	}.WithDefaults()
	err := conf.Validate("planning")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "planning.trials")
	test.That(t, err.Error(), test.ShouldContainSubstring, "planning.waypoints")
	test.That(t, err.Error(), test.ShouldContainSubstring, "velocity_scale")
	test.That(t, err.Error(), test.ShouldContainSubstring, "planning.geometry")
	test.That(t, err.Error(), test.ShouldContainSubstring, "planning.gripper_open")
}

func TestConfigJSON(t *testing.T) {
	var conf Config
	err := json.Unmarshal([]byte(`{
		"trials": 3,
		"tilt_degs": 90,
		"locations": [{"name": "bin", "kind": "depot", "center": {"x": 0.1, "y": 0.2, "z": 0.3}}]
	}`), &conf)
	test.That(t, err, test.ShouldBeNil)
	conf = conf.WithDefaults()
	test.That(t, conf.Validate("planning"), test.ShouldBeNil)
	test.That(t, conf.Trials, test.ShouldEqual, 3)
	test.That(t, conf.TiltAngle(), test.ShouldAlmostEqual, 1.5707963267948966)
	loc, err := conf.Locations.Lookup("bin")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loc.Point(), test.ShouldResemble, r3.Vector{X: 0.1, Y: 0.2, Z: 0.3})
}

func TestLocations(t *testing.T) {
	locs := DefaultLocations()
	test.That(t, locs.Validate("locations"), test.ShouldBeNil)

	g0, err := locs.Lookup("G0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, g0.Kind, test.ShouldEqual, LocationGoal)
	test.That(t, g0.Pour, test.ShouldBeTrue)
	test.That(t, g0.Point(), test.ShouldResemble, r3.Vector{X: 0.3, Z: 0.1})

	l2, err := locs.Lookup("L2")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, l2.Kind, test.ShouldEqual, LocationDepot)
	test.That(t, l2.Point(), test.ShouldResemble, r3.Vector{X: 0.01, Y: 0.3, Z: 0.1})

	_, err = locs.Lookup("G9")
	test.That(t, errors.Is(err, ErrUnknownLocation), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "G9")

	bad := Locations{
		{Name: "A", Kind: LocationGoal, Center: &spatialmath.PointConfig{}, Pour: true},
		{Name: "A", Kind: "shelf"},
		{Kind: LocationDepot, Center: &spatialmath.PointConfig{}, Pour: true},
	}
	err = bad.Validate("locations")
	test.That(t, err, test.ShouldNotBeNil)
	for _, msg := range []string{
		"locations.1: duplicate location",
		"locations.1: kind must be",
		"locations.1: center is required",
		"locations.2: name is required",
		"locations.2: only a goal",
		"2 locations are marked pour",
	} {
		test.That(t, err.Error(), test.ShouldContainSubstring, msg)
	}
}

func TestKind(t *testing.T) {
	test.That(t, Kind(nil), test.ShouldEqual, ErrorKind(""))
	test.That(t, Kind(errors.New("boom")), test.ShouldEqual, KindInternal)
	test.That(t, Kind(ErrModeNotEstablished), test.ShouldEqual, KindModeNotEstablished)
	test.That(t, errors.Is(ErrModeNotEstablished, ErrGraspTypeUnresolved), test.ShouldBeTrue)
	test.That(t, Kind(errors.Wrap(ErrGraspTypeUnresolved, "x")), test.ShouldEqual, KindGraspTypeUnresolved)
	test.That(t, Kind(errors.Wrap(workspace.ErrObjectNotFound, "bagA")), test.ShouldEqual, KindObjectNotFound)
	test.That(t, Kind(errors.Wrap(motionplan.ErrPlanningFailed, "no plan")), test.ShouldEqual, KindPlanningFailed)
	test.That(t, Kind(motionplan.NewExecutionFailedError(errors.New("stopped"))), test.ShouldEqual, KindExecutionFailed)
	test.That(t, Kind(errors.Wrap(gripper.ErrActuatorTimeout, "grasp")), test.ShouldEqual, KindActuatorTimeout)
	test.That(t, Kind(errors.Wrap(ErrPartialPath, "half")), test.ShouldEqual, KindPartialPath)
	test.That(t, Kind(errors.Wrap(context.DeadlineExceeded, "slow")), test.ShouldEqual, KindCanceled)
	test.That(t, Kind(context.Canceled), test.ShouldEqual, KindCanceled)
	test.That(t, Kind(ErrRateLimited), test.ShouldEqual, KindRateLimited)
}

func TestSessionSnapshotString(t *testing.T) {
	box, err := spatialmath.NewBox(spatialmath.NewPoseFromPoint(r3.Vector{X: 0.4, Y: 0.1, Z: 0.08}), r3.Vector{X: 0.045, Y: 0.07, Z: 0.157}, "bagA")
	test.That(t, err, test.ShouldBeNil)
	snapshot := SessionSnapshot{
		State: SessionState{AttachedObject: "bagA", GraspMode: GraspSide, PourCount: 3},
		Objects: []workspace.Entry{
			{Object: workspace.CollisionObject{ID: "bagA", Geometry: box}, Label: workspace.NoDomain},
			{Object: workspace.CollisionObject{ID: "marker"}, Label: "table"},
		},
	}
	out := snapshot.String()
	for _, s := range []string{"bagA", "side", "marker", "table", "0.045 x 0.070 x 0.157", "X:0.400, Y:0.100, Z:0.080"} {
		test.That(t, out, test.ShouldContainSubstring, s)
	}
}

func TestRequestValidate(t *testing.T) {
	req := &Request{}
	test.That(t, req.Validate(), test.ShouldBeNil)
	test.That(t, req.GraspType, test.ShouldEqual, GraspNone)
	test.That(t, req.PickupObject, test.ShouldEqual, workspace.NoDomain)
	test.That(t, req.DropObject, test.ShouldEqual, workspace.NoDomain)
	test.That(t, req.ManipulatorPose.Orientation, test.ShouldResemble, spatialmath.NewZeroOrientation())

	req = &Request{GraspType: "sideways"}
	test.That(t, Kind(req.Validate()), test.ShouldEqual, KindGraspTypeUnresolved)

	req = &Request{
		SetupEnvironment: true,
		BagPoses:         []spatialmath.Pose{spatialmath.NewZeroPose(), spatialmath.NewZeroPose()},
		BagLabels:        []string{"bagA", ""},
		BagDomainLabels:  []string{"table"},
	}
	err := req.Validate()
	test.That(t, errors.Is(err, ErrInvalidRequest), test.ShouldBeTrue)
	test.That(t, err.Error(), test.ShouldContainSubstring, "bag_labels.1 is empty")
	test.That(t, err.Error(), test.ShouldContainSubstring, "1 bag domain labels")

	// bag arrays are only read when setting up the environment
	req = &Request{BagLabels: []string{"bagA"}}
	test.That(t, req.Validate(), test.ShouldBeNil)
}

func TestRequestJSON(t *testing.T) {
	var req Request
	err := json.Unmarshal([]byte(`{
		"setup_environment": false,
		"planning_domain": "table",
		"grasp_type": "side",
		"manipulator_pose": {"position": {"x": 0.4, "y": 0, "z": 0.05}, "orientation": {"x": 0, "y": 0, "z": 0, "w": 1}},
		"go_to_raised": true
	}`), &req)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, req.Validate(), test.ShouldBeNil)
	test.That(t, req.GraspType, test.ShouldEqual, GraspSide)
	test.That(t, req.GoToRaised, test.ShouldBeTrue)
	test.That(t, req.ManipulatorPose.Point, test.ShouldResemble, r3.Vector{X: 0.4, Z: 0.05})
}

func TestResponse(t *testing.T) {
	resp := &Response{Success: true}
	resp.Warn(errors.Wrap(gripper.ErrActuatorTimeout, "grasp"))
	test.That(t, resp.Success, test.ShouldBeTrue)
	test.That(t, resp.Warnings, test.ShouldHaveLength, 1)
	test.That(t, resp.Warnings[0].Kind, test.ShouldEqual, KindActuatorTimeout)

	resp.Fail(errors.Wrap(ErrUnknownLocation, `"G7"`))
	test.That(t, resp.Success, test.ShouldBeFalse)
	test.That(t, resp.ErrorKind, test.ShouldEqual, KindUnknownLocation)
	test.That(t, resp.Error, test.ShouldContainSubstring, "G7")

	state := NewSessionState(spatialmath.NewZeroPose())
	test.That(t, state.AttachedObject, test.ShouldEqual, workspace.NoDomain)
	test.That(t, state.GraspMode, test.ShouldEqual, GraspNone)
	test.That(t, state.PourCount, test.ShouldEqual, 0)
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	m.ObserveResponse(&Response{
		Branch:    BranchTransit,
		ErrorKind: KindPlanningFailed,
		Warnings:  []Warning{{Kind: KindPartialPath}, {Kind: KindPartialPath}},
	}, time.Second)
	m.ObserveResponse(&Response{Success: true, Branch: BranchPick}, time.Second)
	m.ObservePlan(nil)
	m.ObservePlan(errors.New("no"))
	m.ObservePlan(errors.New("no"))

	test.That(t, testutil.ToFloat64(m.Queries.WithLabelValues(string(BranchTransit))), test.ShouldEqual, 1)
	test.That(t, testutil.ToFloat64(m.Queries.WithLabelValues(string(BranchPick))), test.ShouldEqual, 1)
	test.That(t, testutil.ToFloat64(m.Failures.WithLabelValues(string(KindPlanningFailed))), test.ShouldEqual, 1)
	test.That(t, testutil.ToFloat64(m.Warnings.WithLabelValues(string(KindPartialPath))), test.ShouldEqual, 2)
	test.That(t, testutil.ToFloat64(m.PlanAttempts.WithLabelValues("failure")), test.ShouldEqual, 2)
	test.That(t, testutil.ToFloat64(m.PlanAttempts.WithLabelValues("success")), test.ShouldEqual, 1)

	families, err := reg.Gather()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(families), test.ShouldBeGreaterThan, 0)
}
