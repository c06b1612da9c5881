package spatialmath

import (
	"encoding/json"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestNewBox(t *testing.T) {
	dims := r3.Vector{X: 0.045, Y: 0.07, Z: 0.157}
	pose := NewPoseFromPoint(r3.Vector{X: 0.3, Z: 0.1})

	b, err := NewBox(pose, dims, "bagA")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Label(), test.ShouldEqual, "bagA")
	test.That(t, b.Dims(), test.ShouldResemble, dims)
	test.That(t, b.Pose(), test.ShouldResemble, pose)

	for _, tc := range []struct {
		name string
		dims r3.Vector
	}{
		{"zero", r3.Vector{}},
		{"flat", r3.Vector{X: 1, Y: 1}},
		{"negative", r3.Vector{X: 1, Y: -1, Z: 1}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewBox(pose, tc.dims, "")
			test.That(t, err, test.ShouldNotBeNil)
			test.That(t, err.Error(), test.ShouldContainSubstring, "must be positive")
		})
	}
}

func TestBoxTransform(t *testing.T) {
	b, err := NewBox(NewZeroPose(), r3.Vector{X: 1, Y: 1, Z: 1}, "box")
	test.That(t, err, test.ShouldBeNil)

	moved := b.Transform(NewPoseFromPoint(r3.Vector{X: 2}))
	test.That(t, moved.Pose().Point, test.ShouldResemble, r3.Vector{X: 2})
	test.That(t, b.Pose().Point, test.ShouldResemble, r3.Vector{})
	test.That(t, moved.Label(), test.ShouldEqual, "box")
	test.That(t, moved.AlmostEqual(b), test.ShouldBeFalse)
	test.That(t, b.AlmostEqual(b.Transform(NewZeroPose())), test.ShouldBeTrue)
}

func TestBoxJSON(t *testing.T) {
	b, err := NewBox(NewPoseFromPoint(r3.Vector{X: 0.1, Y: 0.2, Z: 0.3}), r3.Vector{X: 1, Y: 2, Z: 3}, "bagB")
	test.That(t, err, test.ShouldBeNil)

	data, err := json.Marshal(b)
	test.That(t, err, test.ShouldBeNil)

	var config BoxConfig
	test.That(t, json.Unmarshal(data, &config), test.ShouldBeNil)
	decoded, err := config.ParseConfig()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, decoded.AlmostEqual(b), test.ShouldBeTrue)
	test.That(t, decoded.Label(), test.ShouldEqual, "bagB")
}

func TestBoxUnmarshalJSON(t *testing.T) {
	var b Box
	err := json.Unmarshal([]byte(`{"dims":{"x":1,"y":-1,"z":1},"pose":{"position":{"x":0,"y":0,"z":0}}}`), &b)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "must be positive")

	err = json.Unmarshal([]byte(`{"label":"ground","dims":{"x":2,"y":2.4,"z":0.1},"pose":{"position":{"x":0,"y":0,"z":-0.05}}}`), &b)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, b.Label(), test.ShouldEqual, "ground")
	test.That(t, b.Pose().Point.Z, test.ShouldAlmostEqual, -0.05)
	test.That(t, b.Pose().Orientation.AlmostEqual(NewZeroOrientation()), test.ShouldBeTrue)
}
