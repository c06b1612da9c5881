package graspplanning

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/graspplanner/spatialmath"
)

// Geometry holds the dimensions of the bags being handled and of the end effector.
type Geometry struct {
	BagLength float64 `json:"bag_length"`
	BagWidth  float64 `json:"bag_width"`
	BagHeight float64 `json:"bag_height"`
	// EEFOffset is the distance from the flange to the center of the fingers.
	EEFOffset float64 `json:"eef_offset"`
}

// DefaultGeometry returns the dimensions of the standard bag and the Panda hand.
func DefaultGeometry() Geometry {
	return Geometry{BagLength: 0.045, BagWidth: 0.07, BagHeight: 0.157, EEFOffset: 0.075}
}

// Validate ensures all parts of the geometry are valid.
func (g Geometry) Validate(path string) error {
	if g.BagLength <= 0 || g.BagWidth <= 0 || g.BagHeight <= 0 {
		return errors.Errorf("%s: bag dimensions must be positive", path)
	}
	if g.EEFOffset < 0 {
		return errors.Errorf("%s: eef_offset must be non-negative", path)
	}
	return nil
}

// Dims returns the bag dimensions as box side lengths.
func (g Geometry) Dims() r3.Vector {
	return r3.Vector{X: g.BagLength, Y: g.BagWidth, Z: g.BagHeight}
}

// downFacing points the gripper straight down with its open axis along the long side of a bag.
func downFacing() spatialmath.Quaternion {
	return (&spatialmath.EulerAngles{Pitch: math.Pi, Yaw: -math.Pi/4 + math.Pi/2}).Quaternion()
}

func roll(angle float64) spatialmath.Quaternion {
	return (&spatialmath.EulerAngles{Roll: angle}).Quaternion()
}

// ComputeGraspPoses returns the end effector poses that grasp a bag at target, in the order they
// should be tried. An up grasp has one candidate above the bag. A side grasp has two, on the
// negative then the positive side of the bag's Y axis, with orientations related by a half turn
// about the bag's X axis: o1 = (q·Rx(π)·q⁻¹)·o0 for bag orientation q. GraspNone yields
// ErrModeNotEstablished and any other grasp type ErrGraspTypeUnresolved; GraspMode must be
// resolved by the caller first.
func ComputeGraspPoses(target spatialmath.Pose, grasp GraspType, geom Geometry) ([]spatialmath.Pose, error) {
	q := target.Orientation
	switch grasp {
	case GraspUp:
		offset := q.Rotate(r3.Vector{Z: geom.BagHeight/2 + geom.EEFOffset})
		return []spatialmath.Pose{
			spatialmath.NewPose(target.Point.Add(offset), q.Compose(downFacing()).Normalize()),
		}, nil
	case GraspSide:
		reach := geom.BagWidth/2 + geom.EEFOffset
		neg := q.Rotate(r3.Vector{Y: -reach})
		pos := q.Rotate(r3.Vector{Y: reach})
		return []spatialmath.Pose{
			spatialmath.NewPose(target.Point.Add(neg), q.Compose(roll(math.Pi/2).Compose(downFacing())).Normalize()),
			spatialmath.NewPose(target.Point.Add(pos), q.Compose(roll(-math.Pi/2).Compose(downFacing())).Normalize()),
		}, nil
	case GraspNone:
		return nil, ErrModeNotEstablished
	case GraspMode:
		return nil, errors.Wrap(ErrGraspTypeUnresolved, "grasp mode must be resolved before generating poses")
	default:
		return nil, errors.Wrapf(ErrGraspTypeUnresolved, "unrecognized grasp type %q", grasp)
	}
}

// FacesPositiveY reports whether the approach axis of an end effector with orientation o points
// toward positive Y.
func FacesPositiveY(o spatialmath.Quaternion) bool {
	return o.Rotate(r3.Vector{Z: 1}).Y >= 0
}

// ComputeTransferPoses returns side grasp poses around a location center for a bag that is
// already held with orientation current. The side the end effector already faces away from is
// tried first, keeping the held orientation; the other side is tried with the orientation turned
// half way around Z, so the arm does not cross over itself.
func ComputeTransferPoses(center r3.Vector, current spatialmath.Quaternion, geom Geometry) []spatialmath.Pose {
	reach := geom.BagWidth/2 + geom.EEFOffset
	first, second := r3.Vector{Y: reach}, r3.Vector{Y: -reach}
	if FacesPositiveY(current) {
		first, second = second, first
	}
	flipped := (&spatialmath.R4AA{Theta: math.Pi, RZ: 1}).Quaternion().Compose(current)
	return []spatialmath.Pose{
		spatialmath.NewPose(center.Add(first), current.Normalize()),
		spatialmath.NewPose(center.Add(second), flipped.Normalize()),
	}
}
