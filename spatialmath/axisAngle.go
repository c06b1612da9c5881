package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// R4AA is a rotation of Theta radians about the axis (RX, RY, RZ), which need not be unit length.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// Quaternion returns the rotation as a unit quaternion. A zero axis means no rotation.
func (r4 *R4AA) Quaternion() Quaternion {
	axis := r3.Vector{X: r4.RX, Y: r4.RY, Z: r4.RZ}
	if axis.Norm() == 0 {
		return NewZeroOrientation()
	}
	axis = axis.Normalize().Mul(math.Sin(r4.Theta / 2))
	return Quaternion{Real: math.Cos(r4.Theta / 2), Imag: axis.X, Jmag: axis.Y, Kmag: axis.Z}
}
