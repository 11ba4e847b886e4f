package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/bugtrack-service/internal/domain"
	"github.com/spec-kit/bugtrack-service/internal/repository"
)

// ActivityService appends audit records best-effort: a failed append is
// logged and swallowed, never surfaced to the mutation that triggered it.
type ActivityService struct {
	activities repository.ActivityRepository
	logger     *zap.Logger
}

// NewActivityService creates the service.
func NewActivityService(activities repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{activities: activities, logger: logger}
}

// Record appends an audit entry, swallowing any persistence error.
func (s *ActivityService) Record(ctx context.Context, activity *domain.Activity) {
	if s == nil || s.activities == nil {
		return
	}
	if err := s.activities.Create(ctx, activity); err != nil {
		s.logger.Warn("activity append failed",
			zap.String("action", string(activity.Action)),
			zap.String("actor_id", activity.ActorID),
			zap.Error(err))
	}
}

// ListByBug returns audit entries for a bug, newest first.
func (s *ActivityService) ListByBug(ctx context.Context, bugID string, limit, offset int) ([]domain.Activity, error) {
	return s.activities.ListByBug(ctx, bugID, limit, offset)
}
