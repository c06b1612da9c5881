// Package referenceframe defines the joint-space values a manipulator is commanded with.
package referenceframe

import "gonum.org/v1/gonum/floats"

// Input is the position of one joint, in radians for a revolute joint.
type Input = float64

// FloatsToInputs copies a joint configuration given as floats.
func FloatsToInputs(values []float64) []Input {
	return append(make([]Input, 0, len(values)), values...)
}

// InputsToFloats copies a joint configuration out as floats.
func InputsToFloats(inputs []Input) []float64 {
	return append(make([]float64, 0, len(inputs)), inputs...)
}

// InputsAlmostEqual reports whether every input of a is within epsilon of the matching input of b.
func InputsAlmostEqual(a, b []Input, epsilon float64) bool {
	if len(a) != len(b) {
		return false
	}
	return floats.EqualApprox(a, b, epsilon)
}
