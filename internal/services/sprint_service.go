package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"metrika/internal/models"
	"metrika/internal/repositories"
)

type SprintService interface {
	ListByProject(ctx context.Context, projectID int64) ([]models.Sprint, error)
	Current(ctx context.Context, projectID int64) (*models.Sprint, error)
	Create(ctx context.Context, projectID int64, sp *models.Sprint) (*models.Sprint, error)
	Details(ctx context.Context, id int64) (*models.SprintDetails, error)
	Update(ctx context.Context, id int64, patch models.SprintPatch) (*models.Sprint, error)
	Start(ctx context.Context, id int64) (*models.Sprint, error)
	Complete(ctx context.Context, id int64) (*models.Sprint, error)
}

type sprintService struct {
	repo     repositories.SprintRepository
	projects repositories.ProjectRepository
	tasks    repositories.TaskRepository
	now      func() time.Time
}

func NewSprintService(repo repositories.SprintRepository, projects repositories.ProjectRepository, tasks repositories.TaskRepository) SprintService {
	return &sprintService{repo: repo, projects: projects, tasks: tasks, now: time.Now}
}

func (s *sprintService) project(ctx context.Context, id int64) error {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *sprintService) get(ctx context.Context, id int64) (*models.Sprint, error) {
	sp, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, fmt.Errorf("sprint %d: %w", id, ErrNotFound)
	}
	return sp, nil
}

func (s *sprintService) ListByProject(ctx context.Context, projectID int64) ([]models.Sprint, error) {
	if err := s.project(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.ListByProject(ctx, projectID)
}

// Current returns nil without error when the project has no active sprint.
func (s *sprintService) Current(ctx context.Context, projectID int64) (*models.Sprint, error) {
	if err := s.project(ctx, projectID); err != nil {
		return nil, err
	}
	return s.repo.Current(ctx, projectID)
}

func validateSprint(sp *models.Sprint) error {
	if strings.TrimSpace(sp.Name) == "" {
		return fmt.Errorf("%w: sprint name is required", ErrValidation)
	}
	if !sp.Status.Valid() {
		return fmt.Errorf("%w: unknown sprint status %q", ErrValidation, sp.Status)
	}
	if sp.StartDate.IsZero() || sp.EndDate.IsZero() || sp.EndDate.Before(sp.StartDate) {
		return fmt.Errorf("%w: sprint needs start and end dates in order", ErrValidation)
	}
	if sp.PlannedPoints < 0 || sp.Velocity < 0 {
		return fmt.Errorf("%w: points must not be negative", ErrValidation)
	}
	return nil
}

func (s *sprintService) Create(ctx context.Context, projectID int64, sp *models.Sprint) (*models.Sprint, error) {
	if err := s.project(ctx, projectID); err != nil {
		return nil, err
	}
	sp.ProjectID = projectID
	if sp.Status == "" {
		sp.Status = models.SprintPlanning
	}
	if err := validateSprint(sp); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *sprintService) Details(ctx context.Context, id int64) (*models.SprintDetails, error) {
	sp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	tasks, _, err := s.tasks.FindAll(ctx, models.TaskFilter{SprintID: &id})
	if err != nil {
		return nil, err
	}
	done := 0
	for _, t := range tasks {
		if t.Status == models.StatusDone {
			done++
		}
	}
	return &models.SprintDetails{
		Sprint:         *sp,
		Tasks:          orEmpty(tasks),
		TaskCount:      len(tasks),
		CompletedCount: done,
		Progress:       models.Percent(float64(done), float64(len(tasks))),
	}, nil
}

func (s *sprintService) Update(ctx context.Context, id int64, patch models.SprintPatch) (*models.Sprint, error) {
	sp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		sp.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.StartDate != nil {
		sp.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		sp.EndDate = *patch.EndDate
	}
	if patch.Goal != nil {
		sp.Goal = *patch.Goal
	}
	if patch.Status != nil {
		if *patch.Status == models.SprintCompleted && sp.Status != models.SprintCompleted {
			return nil, fmt.Errorf("%w: use the complete action to close a sprint", ErrValidation)
		}
		sp.Status = *patch.Status
	}
	if patch.Velocity != nil {
		sp.Velocity = *patch.Velocity
	}
	if patch.PlannedPoints != nil {
		sp.PlannedPoints = *patch.PlannedPoints
	}
	if err := validateSprint(sp); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *sprintService) Start(ctx context.Context, id int64) (*models.Sprint, error) {
	sp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sp.Status != models.SprintPlanning {
		return nil, fmt.Errorf("sprint %d is %s: %w", id, sp.Status, ErrConflict)
	}
	sp.Status = models.SprintActive
	sp.StartDate = s.now()
	if sp.EndDate.Before(sp.StartDate) {
		sp.EndDate = sp.StartDate
	}
	if err := s.repo.Update(ctx, sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// Complete замораживает completed_points по числу Done задач спринта.
func (s *sprintService) Complete(ctx context.Context, id int64) (*models.Sprint, error) {
	sp, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sp.Status == models.SprintCompleted || sp.Status == models.SprintCancelled {
		return nil, fmt.Errorf("sprint %d is %s: %w", id, sp.Status, ErrConflict)
	}
	done, err := s.repo.Complete(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	if done == nil {
		return nil, fmt.Errorf("sprint %d already closed: %w", id, ErrConflict)
	}
	return done, nil
}
