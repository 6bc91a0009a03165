package services

import (
	"context"
	"fmt"

	"metrika/internal/models"
	"metrika/internal/repositories"
)

// ActivityService is the append-only activity log.
type ActivityService interface {
	Append(ctx context.Context, a *models.Activity) error
	ForTask(ctx context.Context, taskID int64) ([]models.Activity, error)
	ForUser(ctx context.Context, userID int64, limit int) ([]models.Activity, error)
	RecentXP(ctx context.Context, userID int64, limit int) ([]models.Activity, error)
}

type activityService struct {
	repo repositories.ActivityRepository
}

func NewActivityService(repo repositories.ActivityRepository) ActivityService {
	return &activityService{repo: repo}
}

// Append writes a; a replay with the same idempotency key is silently dropped.
func (s *activityService) Append(ctx context.Context, a *models.Activity) error {
	if a.UserID == 0 || a.Type == "" {
		return fmt.Errorf("%w: activity needs a user and a type", ErrValidation)
	}
	if a.Action == "" {
		a.Action = string(a.Type)
	}
	_, err := s.repo.Append(ctx, a)
	return err
}

func (s *activityService) ForTask(ctx context.Context, taskID int64) ([]models.Activity, error) {
	return s.repo.List(ctx, models.ActivityFilter{TaskID: &taskID})
}

func (s *activityService) ForUser(ctx context.Context, userID int64, limit int) ([]models.Activity, error) {
	return s.repo.List(ctx, models.ActivityFilter{UserID: &userID, Limit: limit})
}

func (s *activityService) RecentXP(ctx context.Context, userID int64, limit int) ([]models.Activity, error) {
	return s.repo.List(ctx, models.ActivityFilter{UserID: &userID, XPOnly: true, Limit: limit})
}
