package workspace

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/spatialmath"
)

// Entry is a collision object together with its domain label.
type Entry struct {
	Object CollisionObject `json:"object"`
	Label  string          `json:"domain"`
}

// Registry is an ordered collection of collision objects, each with exactly one domain label.
// A Registry is not safe for concurrent use.
type Registry struct {
	logger  logging.Logger
	entries []Entry
	// positions of every entry with a given id; ids are expected but not required to be unique.
	index map[string][]int
}

// NewRegistry returns an empty registry.
func NewRegistry(logger logging.Logger) *Registry {
	return &Registry{logger: logger, index: map[string][]int{}}
}

// Load replaces the entire registry. objects and labels are paired by position.
func (r *Registry) Load(objects []CollisionObject, labels []string) error {
	if len(objects) != len(labels) {
		return errors.Errorf("got %d collision objects but %d domain labels", len(objects), len(labels))
	}
	r.entries = make([]Entry, 0, len(objects))
	r.index = make(map[string][]int, len(objects))
	for i, obj := range objects {
		r.Append(obj, labels[i])
	}
	return nil
}

// Append adds one object with its label to the end of the registry.
func (r *Registry) Append(object CollisionObject, label string) {
	if existing := r.index[object.ID]; len(existing) > 0 {
		r.logger.Warnw("collision object id is already registered", "id", object.ID, "count", len(existing)+1)
	}
	r.index[object.ID] = append(r.index[object.ID], len(r.entries))
	r.entries = append(r.entries, Entry{Object: object, Label: label})
}

// Activate returns the scene changes that make exactly the objects labeled domain present: ADD for
// objects in domain, REMOVE for every other object. Objects labeled NoDomain are left out so the
// scene never touches them. Labels are not modified.
func (r *Registry) Activate(domain string) []SceneObject {
	changes := make([]SceneObject, 0, len(r.entries))
	for _, e := range r.entries {
		switch e.Label {
		case NoDomain:
			r.logger.Debugw("ignoring object with no domain", "id", e.Object.ID)
		case domain:
			changes = append(changes, SceneObject{Object: e.Object, Operation: OperationAdd})
		default:
			changes = append(changes, SceneObject{Object: e.Object, Operation: OperationRemove})
		}
	}
	return changes
}

// Relabel moves every object with the given id to domain. When no object matches, the registry
// is left unchanged and ErrObjectNotFound is returned.
func (r *Registry) Relabel(id, domain string) error {
	positions := r.index[id]
	if len(positions) == 0 {
		return errors.Wrapf(ErrObjectNotFound, "cannot update domain of %q", id)
	}
	if len(positions) > 1 {
		r.logger.Warnw("updating domain of duplicated collision object", "id", id, "count", len(positions))
	}
	for _, i := range positions {
		r.entries[i].Label = domain
	}
	r.logger.Debugw("updated domain", "id", id, "domain", domain)
	return nil
}

// Attach marks the object as carried by the end effector.
func (r *Registry) Attach(id string) error {
	return r.Relabel(id, NoDomain)
}

// Detach puts the object into domain.
func (r *Registry) Detach(id, domain string) error {
	return r.Relabel(id, domain)
}

// SetAnchor moves every object with the given id to pose.
func (r *Registry) SetAnchor(id string, pose spatialmath.Pose) error {
	positions := r.index[id]
	if len(positions) == 0 {
		return errors.Wrapf(ErrObjectNotFound, "cannot move %q", id)
	}
	for _, i := range positions {
		if geom := r.entries[i].Object.Geometry; geom != nil {
			r.entries[i].Object.Geometry = geom.Transform(pose)
		}
	}
	return nil
}

// Label returns the domain of the first object with the given id.
func (r *Registry) Label(id string) (string, bool) {
	positions := r.index[id]
	if len(positions) == 0 {
		return "", false
	}
	return r.entries[positions[0]].Label, true
}

// Object returns the first object with the given id.
func (r *Registry) Object(id string) (CollisionObject, bool) {
	positions := r.index[id]
	if len(positions) == 0 {
		return CollisionObject{}, false
	}
	return r.entries[positions[0]].Object, true
}

// ActiveIn returns the ids of the objects labeled domain, in registry order.
func (r *Registry) ActiveIn(domain string) []string {
	return lo.FilterMap(r.entries, func(e Entry, _ int) (string, bool) {
		return e.Object.ID, e.Label == domain
	})
}

// Len returns the number of registered objects.
func (r *Registry) Len() int {
	return len(r.entries)
}

// Objects returns a copy of every entry in registry order.
func (r *Registry) Objects() []Entry {
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}
