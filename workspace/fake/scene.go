// Package fake implements an in-memory collision scene.
package fake

import (
	"context"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/graspplanner/logging"
	"go.viam.com/graspplanner/workspace"
)

// Scene is a fake scene that simply remembers which objects are present and which are attached.
type Scene struct {
	mu       sync.Mutex
	logger   logging.Logger
	present  map[string]workspace.CollisionObject
	attached map[string]string
	applied  int
}

// NewScene returns an empty scene.
func NewScene(logger logging.Logger) *Scene {
	return &Scene{
		logger:   logger,
		present:  map[string]workspace.CollisionObject{},
		attached: map[string]string{},
	}
}

// ApplyCollisionObjects adds or removes every object.
func (s *Scene) ApplyCollisionObjects(ctx context.Context, objects []workspace.SceneObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applied++
	for _, obj := range objects {
		switch obj.Operation {
		case workspace.OperationAdd:
			s.present[obj.Object.ID] = obj.Object
		case workspace.OperationRemove:
			delete(s.present, obj.Object.ID)
		default:
			return errors.Errorf("unknown scene operation %v for %q", obj.Operation, obj.Object.ID)
		}
	}
	s.logger.CDebugw(ctx, "applied collision objects", "count", len(objects), "present", len(s.present))
	return nil
}

// AttachObject records that id moves with link.
func (s *Scene) AttachObject(ctx context.Context, id, link string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attached[id] = link
	return nil
}

// DetachObject forgets the attachment of id. Detaching an object that is not attached is an error.
func (s *Scene) DetachObject(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attached[id]; !ok {
		return errors.Errorf("object %q is not attached", id)
	}
	delete(s.attached, id)
	return nil
}

// Present returns the sorted ids of the objects currently in the scene.
func (s *Scene) Present() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.present))
	for id := range s.present {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// AttachedTo returns the link id is attached to.
func (s *Scene) AttachedTo(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.attached[id]
	return link, ok
}

// Applied returns how many times ApplyCollisionObjects was called.
func (s *Scene) Applied() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applied
}
