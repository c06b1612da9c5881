package inject

import (
	"context"

	"go.viam.com/graspplanner/workspace"
)

// Scene is an injected collision scene.
type Scene struct {
	workspace.Scene
	ApplyCollisionObjectsFunc func(ctx context.Context, objects []workspace.SceneObject) error
	AttachObjectFunc          func(ctx context.Context, id, link string) error
	DetachObjectFunc          func(ctx context.Context, id string) error
}

// ApplyCollisionObjects calls the injected ApplyCollisionObjects or the real version.
func (s *Scene) ApplyCollisionObjects(ctx context.Context, objects []workspace.SceneObject) error {
	if s.ApplyCollisionObjectsFunc == nil {
		return s.Scene.ApplyCollisionObjects(ctx, objects)
	}
	return s.ApplyCollisionObjectsFunc(ctx, objects)
}

// AttachObject calls the injected AttachObject or the real version.
func (s *Scene) AttachObject(ctx context.Context, id, link string) error {
	if s.AttachObjectFunc == nil {
		return s.Scene.AttachObject(ctx, id, link)
	}
	return s.AttachObjectFunc(ctx, id, link)
}

// DetachObject calls the injected DetachObject or the real version.
func (s *Scene) DetachObject(ctx context.Context, id string) error {
	if s.DetachObjectFunc == nil {
		return s.Scene.DetachObject(ctx, id)
	}
	return s.DetachObjectFunc(ctx, id)
}
