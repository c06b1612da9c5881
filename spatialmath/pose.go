package spatialmath

import (
	"fmt"

	"github.com/golang/geo/r3"
)

const defaultPointEpsilon = 1e-8

// Pose is a position and orientation of a rigid body, expressed in the planning frame.
type Pose struct {
	Point       r3.Vector
	Orientation Quaternion
}

// NewPose returns a pose at the given point with the given orientation.
func NewPose(pt r3.Vector, o Quaternion) Pose {
	return Pose{Point: pt, Orientation: o}
}

// NewZeroPose returns a pose at (0,0,0) with no rotation.
func NewZeroPose() Pose {
	return Pose{Orientation: NewZeroOrientation()}
}

// NewPoseFromPoint returns a pose at the given point with no rotation.
func NewPoseFromPoint(pt r3.Vector) Pose {
	return Pose{Point: pt, Orientation: NewZeroOrientation()}
}

// Translate returns a copy of p moved by delta in the planning frame.
func (p Pose) Translate(delta r3.Vector) Pose {
	p.Point = p.Point.Add(delta)
	return p
}

// WithOrientation returns a copy of p with its orientation replaced.
func (p Pose) WithOrientation(o Quaternion) Pose {
	p.Orientation = o
	return p
}

// LocalAxis returns the direction of one of p's local axes expressed in the planning frame.
func (p Pose) LocalAxis(axis r3.Vector) r3.Vector {
	return p.Orientation.Rotate(axis)
}

func (p Pose) String() string {
	x, y, z, w := p.Orientation.XYZW()
	return fmt.Sprintf("{X:%.4f Y:%.4f Z:%.4f QX:%.4f QY:%.4f QZ:%.4f QW:%.4f}",
		p.Point.X, p.Point.Y, p.Point.Z, x, y, z, w)
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, defaultPointEpsilon)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same,
// with positions compared to within epsilon.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point, b.Point, epsilon) && a.Orientation.AlmostEqual(b.Orientation)
}

// PoseAlmostCoincident will return a bool describing whether 2 poses approximately are at the same 3D coordinate location.
func PoseAlmostCoincident(a, b Pose) bool {
	return R3VectorAlmostEqual(a.Point, b.Point, defaultPointEpsilon)
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	diff := a.Sub(b)
	return diff.X*diff.X < epsilon*epsilon && diff.Y*diff.Y < epsilon*epsilon && diff.Z*diff.Z < epsilon*epsilon
}

// Interpolate will return a new Pose that has been interpolated the set amount between two poses.
// Note that position and orientation are interpolated separately, then the two are combined.
// Note that slerp(q1, q2) != slerp(q2, q1).
// p1 and p2 are the two poses to interpolate between, by is a float representing the amount to interpolate between them.
// by == 0 will return p1, by == 1 will return p2, and by == 0.5 will return the pose halfway between them.
func Interpolate(p1, p2 Pose, by float64) Pose {
	return Pose{
		Point:       p1.Point.Add(p2.Point.Sub(p1.Point).Mul(by)),
		Orientation: p1.Orientation.Slerp(p2.Orientation, by),
	}
}
