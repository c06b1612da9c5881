package spatialmath

import (
	"encoding/json"

	"github.com/golang/geo/r3"
)

// PointConfig is the wire form of a position.
type PointConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// QuaternionConfig is the wire form of an orientation, in x, y, z, w order.
type QuaternionConfig struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// PoseConfig is the wire form of a Pose, matching the layout of a geometry_msgs/Pose.
type PoseConfig struct {
	Position    PointConfig      `json:"position"`
	Orientation QuaternionConfig `json:"orientation"`
}

// NewPoseConfig converts a pose to its wire form.
func NewPoseConfig(p Pose) PoseConfig {
	x, y, z, w := p.Orientation.XYZW()
	return PoseConfig{
		Position:    PointConfig{X: p.Point.X, Y: p.Point.Y, Z: p.Point.Z},
		Orientation: QuaternionConfig{X: x, Y: y, Z: z, W: w},
	}
}

// Pose converts the wire form to a Pose. An all-zero orientation is read as no rotation.
func (config PoseConfig) Pose() Pose {
	o := NewQuaternion(config.Orientation.X, config.Orientation.Y, config.Orientation.Z, config.Orientation.W)
	if config.Orientation == (QuaternionConfig{}) {
		o = NewZeroOrientation()
	}
	return NewPose(r3.Vector{X: config.Position.X, Y: config.Position.Y, Z: config.Position.Z}, o)
}

// MarshalJSON encodes the pose as {"position":{...},"orientation":{...}}.
func (p Pose) MarshalJSON() ([]byte, error) {
	return json.Marshal(NewPoseConfig(p))
}

// UnmarshalJSON decodes the pose from {"position":{...},"orientation":{...}}.
func (p *Pose) UnmarshalJSON(data []byte) error {
	var config PoseConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return err
	}
	*p = config.Pose()
	return nil
}
