package spatialmath

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"
)

// represent a 45 degree rotation around the x axis in all the representations
var (
	th    = math.Pi / 4.
	q45x  = quat.Number{Real: math.Cos(th / 2.), Imag: math.Sin(th / 2.)}
	aa45x = &R4AA{th, 1., 0., 0.}
	ea45x = &EulerAngles{Roll: th, Pitch: 0, Yaw: 0}
)

func TestZeroOrientation(t *testing.T) {
	zero := NewZeroOrientation()
	test.That(t, zero.Quaternion(), test.ShouldResemble, quat.Number{Real: 1})
	test.That(t, (&EulerAngles{}).Quaternion(), test.ShouldResemble, zero)
	test.That(t, (&R4AA{Theta: 1}).Quaternion(), test.ShouldResemble, zero)
	test.That(t, Quaternion{}.Normalize(), test.ShouldResemble, zero)
}

func TestRepresentationsAgree(t *testing.T) {
	test.That(t, QuaternionAlmostEqual(ea45x.Quaternion().Quaternion(), q45x, 1e-9), test.ShouldBeTrue)
	test.That(t, QuaternionAlmostEqual(aa45x.Quaternion().Quaternion(), q45x, 1e-9), test.ShouldBeTrue)

	yawFlip := (&EulerAngles{Yaw: math.Pi}).Quaternion()
	test.That(t, yawFlip.AlmostEqual((&R4AA{Theta: math.Pi, RZ: 1}).Quaternion()), test.ShouldBeTrue)
	x, y, z, w := yawFlip.XYZW()
	test.That(t, x, test.ShouldAlmostEqual, 0)
	test.That(t, y, test.ShouldAlmostEqual, 0)
	test.That(t, z, test.ShouldAlmostEqual, 1)
	test.That(t, w, test.ShouldAlmostEqual, 0)
}

func TestEulerAnglesFixedAxisOrder(t *testing.T) {
	ea := &EulerAngles{Roll: 0.3, Pitch: -1.1, Yaw: 2.2}
	composed := (&EulerAngles{Yaw: ea.Yaw}).Quaternion().
		Compose((&EulerAngles{Pitch: ea.Pitch}).Quaternion()).
		Compose((&EulerAngles{Roll: ea.Roll}).Quaternion())
	test.That(t, QuaternionAlmostEqual(ea.Quaternion().Quaternion(), composed.Quaternion(), 1e-9), test.ShouldBeTrue)
}

func TestRotate(t *testing.T) {
	t.Run("yaw quarter turn", func(t *testing.T) {
		q := (&EulerAngles{Yaw: math.Pi / 2}).Quaternion()
		test.That(t, R3VectorAlmostEqual(q.Rotate(r3.Vector{X: 1}), r3.Vector{Y: 1}, 1e-9), test.ShouldBeTrue)
	})
	t.Run("down facing offset points z down", func(t *testing.T) {
		q := (&EulerAngles{Roll: 0, Pitch: math.Pi, Yaw: math.Pi / 4}).Quaternion()
		test.That(t, R3VectorAlmostEqual(q.Rotate(r3.Vector{Z: 1}), r3.Vector{Z: -1}, 1e-9), test.ShouldBeTrue)
	})
	t.Run("identity", func(t *testing.T) {
		v := r3.Vector{X: 1, Y: -2, Z: 3}
		test.That(t, NewZeroOrientation().Rotate(v), test.ShouldResemble, v)
	})
}

func TestComposeInverse(t *testing.T) {
	q := (&EulerAngles{Roll: 0.4, Pitch: 0.2, Yaw: -0.7}).Quaternion()
	test.That(t, q.Compose(q.Inverse()).AlmostEqual(NewZeroOrientation()), test.ShouldBeTrue)
	test.That(t, q.Inverse().Compose(q).AlmostEqual(NewZeroOrientation()), test.ShouldBeTrue)

	other := ea45x.Quaternion()
	between := OrientationBetween(q, other)
	test.That(t, between.Compose(q).AlmostEqual(other), test.ShouldBeTrue)
}

func TestAlmostEqualDoubleCover(t *testing.T) {
	q := ea45x.Quaternion()
	flipped := Quaternion(Flip(q.Quaternion()))
	test.That(t, QuaternionAlmostEqual(q.Quaternion(), flipped.Quaternion(), 1e-6), test.ShouldBeFalse)
	test.That(t, OrientationAlmostEqual(q, flipped), test.ShouldBeTrue)
	test.That(t, OrientationAlmostEqual(q, NewZeroOrientation()), test.ShouldBeFalse)
}

func TestNormalize(t *testing.T) {
	q := NewQuaternion(0, 0, 2, 0).Normalize()
	test.That(t, q, test.ShouldResemble, NewQuaternion(0, 0, 1, 0))
}

func TestSlerp(t *testing.T) {
	q1 := Quaternion(q45x)
	q2 := Quaternion(quat.Conj(q45x))
	s1 := q1.Slerp(q2, 0.25)
	s2 := q1.Slerp(q2, 0.5)

	test.That(t, s1.Real, test.ShouldAlmostEqual, 0.9808, 0.001)
	test.That(t, s1.Imag, test.ShouldAlmostEqual, 0.1951, 0.001)
	test.That(t, s1.Jmag, test.ShouldAlmostEqual, 0)
	test.That(t, s1.Kmag, test.ShouldAlmostEqual, 0)
	test.That(t, s2.AlmostEqual(NewZeroOrientation()), test.ShouldBeTrue)
	test.That(t, q1.Slerp(q1, 0.3).AlmostEqual(q1), test.ShouldBeTrue)
}
