package graspplanning

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"go.viam.com/test"

	"go.viam.com/graspplanner/spatialmath"
)

func TestParseGraspType(t *testing.T) {
	for in, expected := range map[string]GraspType{"": GraspNone, "none": GraspNone, "up": GraspUp, "side": GraspSide, "mode": GraspMode} {
		gt, err := ParseGraspType(in)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, gt, test.ShouldEqual, expected)
	}
	_, err := ParseGraspType("UP")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, Kind(err), test.ShouldEqual, KindGraspTypeUnresolved)
}

func testTargets() []spatialmath.Pose {
	return []spatialmath.Pose{
		spatialmath.NewPoseFromPoint(r3.Vector{X: 0.4, Y: 0.1, Z: 0.05}),
		spatialmath.NewPose(r3.Vector{X: 0.3, Y: -0.2}, (&spatialmath.EulerAngles{Yaw: math.Pi / 3}).Quaternion()),
		spatialmath.NewPose(r3.Vector{X: 0.5, Z: 0.1}, (&spatialmath.EulerAngles{Roll: 0.2, Pitch: -0.4, Yaw: 2}).Quaternion()),
	}
}

func TestUpGrasp(t *testing.T) {
	geom := DefaultGeometry()
	for _, target := range testTargets() {
		poses, err := ComputeGraspPoses(target, GraspUp, geom)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, poses, test.ShouldHaveLength, 1)

		// purely along the local Z axis of the bag
		local := target.Orientation.Inverse().Rotate(poses[0].Point.Sub(target.Point))
		test.That(t, spatialmath.R3VectorAlmostEqual(local, r3.Vector{Z: geom.BagHeight/2 + geom.EEFOffset}, 1e-9), test.ShouldBeTrue)

		// the fingers point back down at the bag
		approach := poses[0].Orientation.Rotate(r3.Vector{Z: 1})
		test.That(t, spatialmath.R3VectorAlmostEqual(approach, target.Orientation.Rotate(r3.Vector{Z: -1}), 1e-9), test.ShouldBeTrue)
	}

	poses, err := ComputeGraspPoses(spatialmath.NewZeroPose(), GraspUp, geom)
	test.That(t, err, test.ShouldBeNil)
	expected := (&spatialmath.EulerAngles{Pitch: math.Pi, Yaw: math.Pi / 4}).Quaternion()
	test.That(t, poses[0].Orientation.AlmostEqual(expected), test.ShouldBeTrue)
}

func TestSideGrasp(t *testing.T) {
	geom := DefaultGeometry()
	reach := geom.BagWidth/2 + geom.EEFOffset
	for _, target := range testTargets() {
		poses, err := ComputeGraspPoses(target, GraspSide, geom)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, poses, test.ShouldHaveLength, 2)

		neg := target.Orientation.Inverse().Rotate(poses[0].Point.Sub(target.Point))
		pos := target.Orientation.Inverse().Rotate(poses[1].Point.Sub(target.Point))
		test.That(t, spatialmath.R3VectorAlmostEqual(neg, r3.Vector{Y: -reach}, 1e-9), test.ShouldBeTrue)
		test.That(t, spatialmath.R3VectorAlmostEqual(pos, neg.Mul(-1), 1e-9), test.ShouldBeTrue)

		// both approach the bag center
		for _, p := range poses {
			toCenter := target.Point.Sub(p.Point).Normalize()
			test.That(t, spatialmath.R3VectorAlmostEqual(p.Orientation.Rotate(r3.Vector{Z: 1}), toCenter, 1e-9), test.ShouldBeTrue)
		}

		// mirrored by a half turn about the local X axis of the bag
		halfTurn := target.Orientation.Compose((&spatialmath.EulerAngles{Roll: math.Pi}).Quaternion()).Compose(target.Orientation.Inverse())
		test.That(t, halfTurn.Compose(poses[0].Orientation).AlmostEqual(poses[1].Orientation), test.ShouldBeTrue)

		// the Z half turn only carries the offset across; the gripper is rolled about X instead
		zTurn := (&spatialmath.EulerAngles{Yaw: math.Pi}).Quaternion()
		test.That(t, spatialmath.R3VectorAlmostEqual(zTurn.Rotate(neg), pos, 1e-9), test.ShouldBeTrue)
		zTurnWorld := target.Orientation.Compose(zTurn).Compose(target.Orientation.Inverse())
		test.That(t, zTurnWorld.Compose(poses[0].Orientation).AlmostEqual(poses[1].Orientation), test.ShouldBeFalse)
	}
}

func TestUnresolvedGrasp(t *testing.T) {
	_, err := ComputeGraspPoses(spatialmath.NewZeroPose(), GraspNone, DefaultGeometry())
	test.That(t, Kind(err), test.ShouldEqual, KindModeNotEstablished)

	_, err = ComputeGraspPoses(spatialmath.NewZeroPose(), GraspMode, DefaultGeometry())
	test.That(t, Kind(err), test.ShouldEqual, KindGraspTypeUnresolved)

	poses, err := ComputeGraspPoses(spatialmath.NewZeroPose(), GraspType("diagonal"), DefaultGeometry())
	test.That(t, Kind(err), test.ShouldEqual, KindGraspTypeUnresolved)
	test.That(t, poses, test.ShouldBeEmpty)
}

func TestTransferPoses(t *testing.T) {
	geom := DefaultGeometry()
	reach := geom.BagWidth/2 + geom.EEFOffset
	center := r3.Vector{X: 0.3, Z: 0.1}
	flip := (&spatialmath.EulerAngles{Yaw: math.Pi}).Quaternion()

	// approach axis along +Y
	facingPos := (&spatialmath.EulerAngles{Roll: -math.Pi / 2}).Quaternion()
	test.That(t, FacesPositiveY(facingPos), test.ShouldBeTrue)
	poses := ComputeTransferPoses(center, facingPos, geom)
	test.That(t, poses, test.ShouldHaveLength, 2)
	test.That(t, spatialmath.R3VectorAlmostEqual(poses[0].Point, center.Add(r3.Vector{Y: -reach}), 1e-9), test.ShouldBeTrue)
	test.That(t, poses[0].Orientation.AlmostEqual(facingPos), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(poses[1].Point, center.Add(r3.Vector{Y: reach}), 1e-9), test.ShouldBeTrue)
	test.That(t, poses[1].Orientation.AlmostEqual(flip.Compose(facingPos)), test.ShouldBeTrue)
	test.That(t, FacesPositiveY(poses[1].Orientation), test.ShouldBeFalse)

	facingNeg := (&spatialmath.EulerAngles{Roll: math.Pi / 2}).Quaternion()
	test.That(t, FacesPositiveY(facingNeg), test.ShouldBeFalse)
	poses = ComputeTransferPoses(center, facingNeg, geom)
	test.That(t, spatialmath.R3VectorAlmostEqual(poses[0].Point, center.Add(r3.Vector{Y: reach}), 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(poses[1].Point, center.Add(r3.Vector{Y: -reach}), 1e-9), test.ShouldBeTrue)

	test.That(t, FacesPositiveY(spatialmath.NewZeroOrientation()), test.ShouldBeTrue)
}

func TestApproachAndRetreatWaypoints(t *testing.T) {
	current := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.3, Z: 0.5})
	anchor := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.4, Y: 0.1, Z: 0.1})

	approach := BuildApproachWaypoints(current, anchor, 0.3, 3)
	test.That(t, approach, test.ShouldHaveLength, 3)
	test.That(t, spatialmath.PoseAlmostEqual(approach[0], current), test.ShouldBeTrue)
	test.That(t, spatialmath.R3VectorAlmostEqual(approach[1].Point, r3.Vector{X: 0.4, Y: 0.1, Z: 0.2}, 1e-9), test.ShouldBeTrue)
	test.That(t, spatialmath.PoseAlmostEqual(approach[2], anchor), test.ShouldBeTrue)

	approach = BuildApproachWaypoints(current, anchor, 0.4, 4)
	test.That(t, approach, test.ShouldHaveLength, 4)
	test.That(t, approach[1].Point.Z, test.ShouldAlmostEqual, 0.3)
	test.That(t, approach[2].Point.Z, test.ShouldAlmostEqual, 0.2)
	test.That(t, approach[3].Point.Z, test.ShouldAlmostEqual, 0.1)
	for _, p := range approach[1:] {
		test.That(t, p.Point.X, test.ShouldAlmostEqual, anchor.Point.X)
		test.That(t, p.Point.Y, test.ShouldAlmostEqual, anchor.Point.Y)
	}

	after := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.41, Y: 0.1, Z: 0.1})
	retreat := BuildRetreatWaypoints(after, approach)
	test.That(t, retreat, test.ShouldHaveLength, 4)
	test.That(t, retreat[0], test.ShouldResemble, after)
	test.That(t, retreat[1:3], test.ShouldResemble, []spatialmath.Pose{approach[2], approach[1]})
	test.That(t, retreat[3], test.ShouldResemble, approach[0])
	test.That(t, cmp.Diff([]spatialmath.Pose{after, approach[2], approach[1], approach[0]}, retreat,
		cmpopts.EquateApprox(0, 1e-9)), test.ShouldBeEmpty)

	test.That(t, BuildApproachWaypoints(current, anchor, 0.3, 0), test.ShouldHaveLength, 2)
}

func TestTiltWaypoints(t *testing.T) {
	facingPos := spatialmath.NewPose(r3.Vector{X: 0.3, Y: -0.1, Z: 0.4}, (&spatialmath.EulerAngles{Roll: -math.Pi / 2}).Quaternion())
	waypoints := BuildTiltWaypoints(facingPos, math.Pi/3, 0.1)
	test.That(t, waypoints, test.ShouldHaveLength, 3)
	test.That(t, waypoints[0], test.ShouldResemble, facingPos)
	test.That(t, waypoints[2], test.ShouldResemble, facingPos)
	test.That(t, waypoints[1].Point.Z, test.ShouldAlmostEqual, 0.3)
	expected := (&spatialmath.EulerAngles{Roll: -math.Pi / 3}).Quaternion().Compose(facingPos.Orientation)
	test.That(t, waypoints[1].Orientation.AlmostEqual(expected), test.ShouldBeTrue)

	facingNeg := facingPos.WithOrientation((&spatialmath.EulerAngles{Roll: math.Pi / 2}).Quaternion())
	waypoints = BuildTiltWaypoints(facingNeg, math.Pi/3, 0.1)
	expected = (&spatialmath.EulerAngles{Roll: math.Pi / 3}).Quaternion().Compose(facingNeg.Orientation)
	test.That(t, waypoints[1].Orientation.AlmostEqual(expected), test.ShouldBeTrue)
}
