// Package spatialmath defines the poses and rotations used to describe end-effector goals.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

const defaultAngleEpsilon = 1e-6

// Quaternion is a rotation in 3D space. The zero value is not a valid rotation; use
// NewZeroOrientation for the identity.
type Quaternion quat.Number

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Quaternion {
	return Quaternion{Real: 1}
}

// NewQuaternion builds a quaternion from components given in x, y, z, w order.
func NewQuaternion(x, y, z, w float64) Quaternion {
	return Quaternion{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// Quaternion returns the underlying gonum quaternion.
func (q Quaternion) Quaternion() quat.Number {
	return quat.Number(q)
}

// XYZW returns the components in x, y, z, w order.
func (q Quaternion) XYZW() (x, y, z, w float64) {
	return q.Imag, q.Jmag, q.Kmag, q.Real
}

// Compose returns q·other, i.e. other is applied first and q second.
func (q Quaternion) Compose(other Quaternion) Quaternion {
	return Quaternion(quat.Mul(quat.Number(q), quat.Number(other)))
}

// Inverse returns the inverse rotation.
func (q Quaternion) Inverse() Quaternion {
	return Quaternion(quat.Inv(quat.Number(q)))
}

// Normalize returns the unit quaternion pointing the same way as q. A zero quaternion normalizes
// to the identity.
func (q Quaternion) Normalize() Quaternion {
	norm := quat.Abs(quat.Number(q))
	if norm == 0 {
		return NewZeroOrientation()
	}
	return Quaternion(quat.Scale(1/norm, quat.Number(q)))
}

// Rotate rotates v by q, i.e. q·v·q⁻¹ with v embedded as a pure quaternion.
func (q Quaternion) Rotate(v r3.Vector) r3.Vector {
	qn := quat.Number(q)
	rotated := quat.Mul(quat.Mul(qn, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Inv(qn))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}
}

// AlmostEqual reports whether q and other describe the same rotation. q and -q are considered equal.
func (q Quaternion) AlmostEqual(other Quaternion) bool {
	return QuaternionAlmostEqual(q.Normalize().Quaternion(), other.Normalize().Quaternion(), defaultAngleEpsilon) ||
		QuaternionAlmostEqual(q.Normalize().Quaternion(), Flip(other.Normalize().Quaternion()), defaultAngleEpsilon)
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage, q == -q, and
// this function will *not* account for this. Use OrientationAlmostEqual unless you're certain this is what you want.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	return math.Abs(a.Imag-b.Imag) < tol &&
		math.Abs(a.Jmag-b.Jmag) < tol &&
		math.Abs(a.Kmag-b.Kmag) < tol &&
		math.Abs(a.Real-b.Real) < tol
}

// OrientationAlmostEqual will return a bool describing whether 2 orientations are approximately the same rotation.
func OrientationAlmostEqual(o1, o2 Quaternion) bool {
	return o1.AlmostEqual(o2)
}

// OrientationBetween returns the rotation r such that r·o1 == o2.
func OrientationBetween(o1, o2 Quaternion) Quaternion {
	return o2.Compose(o1.Inverse())
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// Slerp returns the rotation the given fraction of the way from q to other along the shortest arc.
func (q Quaternion) Slerp(other Quaternion, by float64) Quaternion {
	return Quaternion(slerp(q.Normalize().Quaternion(), other.Normalize().Quaternion(), by))
}

func slerp(qN1, qN2 quat.Number, by float64) quat.Number {
	dot := qN1.Real*qN2.Real + qN1.Imag*qN2.Imag + qN1.Jmag*qN2.Jmag + qN1.Kmag*qN2.Kmag
	if dot < 0 {
		qN2 = Flip(qN2)
		dot = -dot
	}
	if dot > 0.9995 {
		// nearly parallel, a normalized lerp is accurate
		lerp := quat.Add(qN1, quat.Scale(by, quat.Sub(qN2, qN1)))
		return quat.Scale(1/quat.Abs(lerp), lerp)
	}
	theta0 := math.Acos(dot)
	theta := theta0 * by
	s2 := math.Sin(theta) / math.Sin(theta0)
	s1 := math.Cos(theta) - dot*s2
	return quat.Add(quat.Scale(s1, qN1), quat.Scale(s2, qN2))
}
