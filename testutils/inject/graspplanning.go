package inject

import (
	"context"

	"go.viam.com/graspplanner/services/graspplanning"
)

// GraspPlanningService is an injected grasp planning service.
type GraspPlanningService struct {
	graspplanning.Service
	PlanningQueryFunc func(ctx context.Context, req *graspplanning.Request) (*graspplanning.Response, error)
	SessionFunc       func(ctx context.Context) (graspplanning.SessionSnapshot, error)
	CloseFunc         func(ctx context.Context) error
}

// PlanningQuery calls the injected PlanningQuery or the real version.
func (s *GraspPlanningService) PlanningQuery(ctx context.Context, req *graspplanning.Request) (*graspplanning.Response, error) {
	if s.PlanningQueryFunc == nil {
		return s.Service.PlanningQuery(ctx, req)
	}
	return s.PlanningQueryFunc(ctx, req)
}

// Session calls the injected Session or the real version.
func (s *GraspPlanningService) Session(ctx context.Context) (graspplanning.SessionSnapshot, error) {
	if s.SessionFunc == nil {
		return s.Service.Session(ctx)
	}
	return s.SessionFunc(ctx)
}

// Close calls the injected Close or the real version.
func (s *GraspPlanningService) Close(ctx context.Context) error {
	if s.CloseFunc == nil {
		if s.Service == nil {
			return nil
		}
		return s.Service.Close(ctx)
	}
	return s.CloseFunc(ctx)
}
