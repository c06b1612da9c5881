package referenceframe

import "github.com/pkg/errors"

// NewIncorrectDoFError returns an error indicating that the number of inputs given does not match
// the number of degrees of freedom of the manipulator.
func NewIncorrectDoFError(actual, expected int) error {
	return errors.Errorf("number of inputs does not match frame DoF, expected %d but got %d", expected, actual)
}
