package spatialmath

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Box is a 3D rectangular prism anchored at its center pose. It is the footprint of a
// collision object; the planner owns any further interpretation of it.
type Box struct {
	center Pose
	dims   r3.Vector
	label  string
}

// BoxConfig is the wire form of a Box.
type BoxConfig struct {
	Label string      `json:"label,omitempty"`
	Dims  PointConfig `json:"dims"`
	Pose  PoseConfig  `json:"pose"`
}

func newBadGeometryDimensionsError(dims r3.Vector) error {
	return errors.Errorf("invalid box dimensions %v: dimensions must be positive", dims)
}

// NewBox instantiates a new box centered at pose. Every dimension must be positive.
func NewBox(pose Pose, dims r3.Vector, label string) (*Box, error) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return nil, newBadGeometryDimensionsError(dims)
	}
	return &Box{center: pose, dims: dims, label: label}, nil
}

// Pose returns the anchor pose of the box.
func (b *Box) Pose() Pose {
	return b.center
}

// Dims returns the full side lengths of the box.
func (b *Box) Dims() r3.Vector {
	return b.dims
}

// Label returns the label of the box.
func (b *Box) Label() string {
	return b.label
}

// SetLabel changes the label of the box.
func (b *Box) SetLabel(label string) {
	b.label = label
}

// Transform returns a copy of the box re-anchored at pose.
func (b *Box) Transform(pose Pose) *Box {
	return &Box{center: pose, dims: b.dims, label: b.label}
}

// AlmostEqual compares the box with another box.
func (b *Box) AlmostEqual(other *Box) bool {
	return PoseAlmostEqual(b.center, other.center) && R3VectorAlmostEqual(b.dims, other.dims, defaultPointEpsilon)
}

func (b *Box) String() string {
	return fmt.Sprintf("Type: Box | Label: %s | Dims: X:%.3f, Y:%.3f, Z:%.3f | Pose: %v", b.label, b.dims.X, b.dims.Y, b.dims.Z, b.center)
}

// MarshalJSON converts a box to its wire form.
func (b *Box) MarshalJSON() ([]byte, error) {
	return json.Marshal(BoxConfig{
		Label: b.label,
		Dims:  PointConfig{X: b.dims.X, Y: b.dims.Y, Z: b.dims.Z},
		Pose:  NewPoseConfig(b.center),
	})
}

// ParseConfig converts the wire form to a Box.
func (config BoxConfig) ParseConfig() (*Box, error) {
	return NewBox(config.Pose.Pose(), r3.Vector{X: config.Dims.X, Y: config.Dims.Y, Z: config.Dims.Z}, config.Label)
}

// UnmarshalJSON reads a box from its wire form.
func (b *Box) UnmarshalJSON(data []byte) error {
	var config BoxConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return err
	}
	parsed, err := config.ParseConfig()
	if err != nil {
		return err
	}
	*b = *parsed
	return nil
}
