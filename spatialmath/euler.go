package spatialmath

import "math"

// EulerAngles are three angles (in radians) used to represent the rotation of an object in 3D Euclidean space.
// They are applied about the fixed axes in the order roll (X), pitch (Y), yaw (Z), so the resulting
// rotation is Rz(yaw)·Ry(pitch)·Rx(roll).
type EulerAngles struct {
	Roll  float64 `json:"roll"`  // phi
	Pitch float64 `json:"pitch"` // theta
	Yaw   float64 `json:"yaw"`   // psi
}

// Quaternion returns orientation in quaternion representation.
func (ea *EulerAngles) Quaternion() Quaternion {
	cy := math.Cos(ea.Yaw * 0.5)
	sy := math.Sin(ea.Yaw * 0.5)
	cp := math.Cos(ea.Pitch * 0.5)
	sp := math.Sin(ea.Pitch * 0.5)
	cr := math.Cos(ea.Roll * 0.5)
	sr := math.Sin(ea.Roll * 0.5)

	return Quaternion{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}
}
