// Package workspace tracks the collision objects around a manipulator and the domain each of
// them belongs to.
package workspace

import (
	"context"
	"encoding/json"

	"github.com/pkg/errors"

	"go.viam.com/graspplanner/spatialmath"
)

// NoDomain is the label of an object that is never active in any domain, either because it is
// carried by the end effector or because it is intentionally inert.
const NoDomain = "none"

// ErrObjectNotFound is returned when an object id is not present in the registry.
var ErrObjectNotFound = errors.New("object not found")

// Operation is what the scene should do with a collision object.
type Operation int

// The scene operations.
const (
	OperationAdd Operation = iota
	OperationRemove
)

func (o Operation) String() string {
	switch o {
	case OperationAdd:
		return "ADD"
	case OperationRemove:
		return "REMOVE"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the operation by name.
func (o Operation) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// CollisionObject is a named obstacle. Its geometry is passed through to the scene untouched.
type CollisionObject struct {
	ID       string           `json:"id"`
	Geometry *spatialmath.Box `json:"geometry,omitempty"`
}

// SceneObject is a collision object tagged with the operation the scene should apply to it.
type SceneObject struct {
	Object    CollisionObject `json:"object"`
	Operation Operation       `json:"operation"`
}

// Scene installs and removes collision objects around the manipulator.
type Scene interface {
	// ApplyCollisionObjects adds or removes every given object according to its operation.
	ApplyCollisionObjects(ctx context.Context, objects []SceneObject) error
	// AttachObject makes the object move with the given link.
	AttachObject(ctx context.Context, id, link string) error
	// DetachObject releases an attached object back into the world.
	DetachObject(ctx context.Context, id string) error
}
