package services

import (
	"context"
	"fmt"
	"strings"

	"metrika/internal/models"
	"metrika/internal/repositories"
)

type GoalService interface {
	List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, error)
	GetByID(ctx context.Context, id int64) (*models.Goal, error)
	Create(ctx context.Context, actorID int64, g *models.Goal) (*models.Goal, error)
	Update(ctx context.Context, id int64, patch models.GoalPatch) (*models.Goal, error)
	Delete(ctx context.Context, id int64) error
	Record(ctx context.Context, actorID, id int64, value float64, note string) (*models.Goal, error)
	History(ctx context.Context, id int64) ([]models.GoalRecord, error)
}

type goalService struct {
	repo repositories.GoalRepository
}

func NewGoalService(repo repositories.GoalRepository) GoalService {
	return &goalService{repo: repo}
}

func (s *goalService) List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, error) {
	return s.repo.List(ctx, filter)
}

func (s *goalService) GetByID(ctx context.Context, id int64) (*models.Goal, error) {
	g, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("goal %d: %w", id, ErrNotFound)
	}
	return g, nil
}

func validateGoal(g *models.Goal) error {
	if strings.TrimSpace(g.Name) == "" {
		return fmt.Errorf("%w: goal name is required", ErrValidation)
	}
	if !g.Category.Valid() || !g.Status.Valid() {
		return fmt.Errorf("%w: bad category %q or status %q", ErrValidation, g.Category, g.Status)
	}
	if g.Target < 0 || g.Current < 0 {
		return fmt.Errorf("%w: target and current must not be negative", ErrValidation)
	}
	return nil
}

// Create всегда создает пользовательскую цель (is_custom = true).
func (s *goalService) Create(ctx context.Context, actorID int64, g *models.Goal) (*models.Goal, error) {
	if g.Status == "" {
		g.Status = models.GoalOnTrack
	}
	g.IsCustom = true
	g.CreatedBy = actorID
	if err := validateGoal(g); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *goalService) Update(ctx context.Context, id int64, patch models.GoalPatch) (*models.Goal, error) {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		g.Name = *patch.Name
	}
	if patch.Description != nil {
		g.Description = *patch.Description
	}
	if patch.Target != nil {
		g.Target = *patch.Target
	}
	if patch.Current != nil {
		g.Current = *patch.Current
	}
	if patch.Unit != nil {
		g.Unit = *patch.Unit
	}
	if patch.Category != nil {
		g.Category = *patch.Category
	}
	if patch.Deadline != nil {
		g.Deadline = patch.Deadline
	}
	if patch.Status != nil {
		g.Status = *patch.Status
	}
	if err := validateGoal(g); err != nil {
		return nil, err
	}
	g.ComputeProgress()
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

// Delete: системные цели (is_custom = false) удалять нельзя.
func (s *goalService) Delete(ctx context.Context, id int64) error {
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !g.IsCustom {
		return fmt.Errorf("goal %d is a system goal: %w", id, ErrForbidden)
	}
	return s.repo.Delete(ctx, id)
}

// Record sets current to value and appends it to the history. Reaching 100%
// marks the goal completed.
func (s *goalService) Record(ctx context.Context, actorID, id int64, value float64, note string) (*models.Goal, error) {
	if value < 0 {
		return nil, fmt.Errorf("%w: value must not be negative", ErrValidation)
	}
	g, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	g.Current = value
	g.ComputeProgress()
	if g.Progress >= 100 {
		g.Status = models.GoalCompleted
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}
	if err := s.repo.AddRecord(ctx, &models.GoalRecord{GoalID: id, Value: value, Note: note, RecordedBy: actorID}); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *goalService) History(ctx context.Context, id int64) ([]models.GoalRecord, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.ListRecords(ctx, id)
}
