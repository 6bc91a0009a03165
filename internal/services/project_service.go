package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"metrika/internal/models"
	"metrika/internal/repositories"
	"metrika/internal/search"
)

type ProjectService interface {
	List(ctx context.Context, filter models.ProjectFilter, page, limit int) (models.Page[models.Project], error)
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	ForUser(ctx context.Context, userID int64) ([]models.Project, error)
	Create(ctx context.Context, actorID int64, p *models.Project) (*models.Project, error)
	Update(ctx context.Context, actorID, id int64, patch models.ProjectPatch) (*models.Project, error)
	Delete(ctx context.Context, id int64) error

	Stats(ctx context.Context) (models.ProjectStatusCounts, error)
	Timeline(ctx context.Context, id int64) (*models.ProjectTimeline, error)
	Tasks(ctx context.Context, id int64) ([]models.Task, error)

	Members(ctx context.Context, id int64) (*models.ProjectMembers, error)
	AddMember(ctx context.Context, id, userID int64) (*models.Project, error)
	RemoveMember(ctx context.Context, id, userID int64) (*models.Project, error)

	KPIs(ctx context.Context, id int64) (*models.ProjectKPIReport, error)
	AddKPI(ctx context.Context, id int64, kpi models.ProjectKPI) (*models.Project, error)
}

type projectService struct {
	repo       repositories.ProjectRepository
	tasks      repositories.TaskRepository
	sprints    repositories.SprintRepository
	users      repositories.UserRepository
	activities ActivityService
	notifier   NotificationService
	index      indexer
	now        func() time.Time
}

func NewProjectService(
	repo repositories.ProjectRepository,
	tasks repositories.TaskRepository,
	sprints repositories.SprintRepository,
	users repositories.UserRepository,
	activities ActivityService,
	notifier NotificationService,
	idx search.Index,
) ProjectService {
	return &projectService{
		repo:       repo,
		tasks:      tasks,
		sprints:    sprints,
		users:      users,
		activities: activities,
		notifier:   notifier,
		index:      indexer{index: idx},
		now:        time.Now,
	}
}

func (s *projectService) List(ctx context.Context, filter models.ProjectFilter, page, limit int) (models.Page[models.Project], error) {
	page, limit = normalizePage(page, limit)
	filter.Limit, filter.Offset = limit, (page-1)*limit
	items, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return models.Page[models.Project]{}, err
	}
	return models.NewPage(items, page, limit, total), nil
}

func (s *projectService) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("project %d: %w", id, ErrNotFound)
	}
	return p, nil
}

func (s *projectService) ForUser(ctx context.Context, userID int64) ([]models.Project, error) {
	items, _, err := s.repo.List(ctx, models.ProjectFilter{MemberID: &userID})
	return items, err
}

func validateProject(p *models.Project) error {
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !p.Status.Valid() || !p.Methodology.Valid() {
		return fmt.Errorf("%w: bad status %q or methodology %q", ErrValidation, p.Status, p.Methodology)
	}
	if !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	if p.Budget < 0 || p.BudgetUsed < 0 {
		return fmt.Errorf("%w: budget must not be negative", ErrValidation)
	}
	if p.Progress < 0 || p.Progress > 100 {
		return fmt.Errorf("%w: progress must be within 0..100", ErrValidation)
	}
	return nil
}

func (s *projectService) Create(ctx context.Context, actorID int64, p *models.Project) (*models.Project, error) {
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	if p.Methodology == "" {
		p.Methodology = models.MethodologyScrum
	}
	if p.StartDate.IsZero() {
		p.StartDate = startOfDay(s.now())
	}
	if p.Color == "" {
		p.Color = "#3B82F6"
	}
	p.Title = strings.TrimSpace(p.Title)
	if err := validateProject(p); err != nil {
		return nil, err
	}
	p.ManagerID = actorID
	p.MemberIDs = orEmpty(p.MemberIDs)
	p.KPIs = orEmpty(p.KPIs)
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.index.put(ctx, projectDoc(p))
	return p, nil
}

func (s *projectService) Update(ctx context.Context, actorID, id int64, patch models.ProjectPatch) (*models.Project, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldStatus := p.Status

	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Methodology != nil {
		p.Methodology = *patch.Methodology
	}
	if patch.Progress != nil {
		p.Progress = *patch.Progress
	}
	if patch.StartDate != nil {
		p.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		p.EndDate = *patch.EndDate
	}
	if patch.Budget != nil {
		p.Budget = *patch.Budget
	}
	if patch.BudgetUsed != nil {
		p.BudgetUsed = *patch.BudgetUsed
	}
	if patch.Color != nil {
		p.Color = *patch.Color
	}
	if err := validateProject(p); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, p, patch.Progress); err != nil {
		return nil, err
	}
	s.index.put(ctx, projectDoc(p))

	if !projectCompleted(oldStatus, p.Status) {
		return p, nil
	}

	var failed stepFailures
	key := fmt.Sprintf("project:%d:complete:%d", p.ID, p.UpdatedAt.Unix())
	failed.check(ctx, "activity", s.activities.Append(ctx, &models.Activity{
		UserID:         actorID,
		ProjectID:      &p.ID,
		Action:         "completed project",
		Type:           models.ActivityComplete,
		Content:        p.Title,
		IdempotencyKey: &key,
	}), "project_id", p.ID)

	recipients := append([]int64{p.ManagerID}, p.MemberIDs...)
	seen := make(map[int64]bool, len(recipients))
	for _, uid := range recipients {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		failed.check(ctx, "notification", s.notifier.Notify(ctx, &models.Notification{
			RecipientID: uid,
			Type:        models.NotifySuccess,
			Title:       "Project completed",
			Message:     fmt.Sprintf("Project %q is completed", p.Title),
			Context:     &models.NotificationContext{Kind: models.ContextTask, ProjectID: &p.ID},
			DedupeKey:   ptr(fmt.Sprintf("%s:%d", key, uid)),
		}), "project_id", p.ID, "recipient_id", uid)
	}
	if len(failed) > 0 {
		return p, fmt.Errorf("complete project %d: %w: %s", p.ID, ErrSideEffects, failed)
	}
	return p, nil
}

func (s *projectService) Delete(ctx context.Context, id int64) error {
	if _, err := s.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.index.remove(ctx, search.KindProject, id)
	return nil
}

func (s *projectService) Stats(ctx context.Context) (models.ProjectStatusCounts, error) {
	return s.repo.CountByStatus(ctx)
}

// Timeline строит фазы из спринтов проекта.
func (s *projectService) Timeline(ctx context.Context, id int64) (*models.ProjectTimeline, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sprints, err := s.sprints.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	phases := make([]models.TimelinePhase, 0, len(sprints))
	for _, sp := range sprints {
		status, progress := "planned", 0
		switch sp.Status {
		case models.SprintCompleted:
			status, progress = "completed", 100
		case models.SprintActive:
			status, progress = "in-progress", 50
		}
		phases = append(phases, models.TimelinePhase{
			ID: sp.ID, Name: sp.Name, StartDate: sp.StartDate, EndDate: sp.EndDate,
			Status: status, Progress: progress,
		})
	}
	return &models.ProjectTimeline{ProjectID: p.ID, StartDate: p.StartDate, EndDate: p.EndDate, Phases: phases}, nil
}

func (s *projectService) Tasks(ctx context.Context, id int64) ([]models.Task, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	tasks, _, err := s.tasks.FindAll(ctx, models.TaskFilter{ProjectID: &id})
	return tasks, err
}

func (s *projectService) Members(ctx context.Context, id int64) (*models.ProjectMembers, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	manager, err := s.users.GetByID(ctx, p.ManagerID)
	if err != nil {
		return nil, err
	}
	members, err := s.users.ListByIDs(ctx, p.MemberIDs)
	if err != nil {
		return nil, err
	}
	return &models.ProjectMembers{Manager: manager, Members: orEmpty(members)}, nil
}

func (s *projectService) AddMember(ctx context.Context, id, userID int64) (*models.Project, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	if err := s.repo.AddMember(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *projectService) RemoveMember(ctx context.Context, id, userID int64) (*models.Project, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.ManagerID == userID {
		return nil, fmt.Errorf("%w: the manager cannot be removed", ErrValidation)
	}
	if err := s.repo.RemoveMember(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func (s *projectService) KPIs(ctx context.Context, id int64) (*models.ProjectKPIReport, error) {
	p, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.tasks.CountByStatus(ctx, &id)
	if err != nil {
		return nil, err
	}
	sprints, err := s.sprints.ListByProject(ctx, id)
	if err != nil {
		return nil, err
	}
	velocity := make([]models.SprintVelocity, 0, len(sprints))
	for _, sp := range sprints {
		velocity = append(velocity, models.SprintVelocity{Name: sp.Name, Planned: sp.PlannedPoints, Actual: sp.CompletedPoints})
	}
	return &models.ProjectKPIReport{
		KPIs:           orEmpty(p.KPIs),
		BudgetUsage:    p.BudgetUsage(),
		Budget:         p.Budget,
		BudgetUsed:     p.BudgetUsed,
		TaskCompletion: models.Percent(float64(counts.Done), float64(counts.Total)),
		SprintVelocity: velocity,
	}, nil
}

func (s *projectService) AddKPI(ctx context.Context, id int64, kpi models.ProjectKPI) (*models.Project, error) {
	if strings.TrimSpace(kpi.Name) == "" {
		return nil, fmt.Errorf("%w: kpi name is required", ErrValidation)
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.AppendKPI(ctx, id, kpi); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}
