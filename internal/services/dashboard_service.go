package services

import (
	"context"
	"time"

	"metrika/internal/models"
	"metrika/internal/repositories"
)

// DashboardService считает показатели главной страницы и раздела KPI.
type DashboardService interface {
	Stats(ctx context.Context) (*models.DashboardStats, error)
	ActiveProjects(ctx context.Context, limit int) ([]models.Project, error)
	UpcomingTasks(ctx context.Context, userID int64, limit int) ([]models.Task, error)
	KPISummary(ctx context.Context) (*models.KPISummary, error)
	RiskAlerts(ctx context.Context) (*models.RiskAlerts, error)

	KPIDashboard(ctx context.Context) (*models.KPIDashboard, error)
	ProjectPerformance(ctx context.Context) ([]models.ProjectPerformance, error)
	CompletionStats(ctx context.Context) (*models.CompletionStats, error)
	Issues(ctx context.Context) (*models.ActiveIssues, error)
	TeamPerformance(ctx context.Context) ([]models.DepartmentPerformance, error)
}

type dashboardService struct {
	projects repositories.ProjectRepository
	tasks    repositories.TaskRepository
	now      func() time.Time
}

func NewDashboardService(projects repositories.ProjectRepository, tasks repositories.TaskRepository) DashboardService {
	return &dashboardService{projects: projects, tasks: tasks, now: time.Now}
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

func (s *dashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	pc, err := s.projects.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	tc, err := s.tasks.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	now := s.now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	completed, _, err := s.tasks.CompletionSince(ctx, monthStart)
	if err != nil {
		return nil, err
	}
	return &models.DashboardStats{
		TotalProjects:           pc.Total,
		ActiveProjects:          pc.Active,
		ActiveTasks:             tc.Total - tc.Done,
		CompletedTasksThisMonth: completed,
	}, nil
}

func (s *dashboardService) ActiveProjects(ctx context.Context, limit int) ([]models.Project, error) {
	active := models.ProjectActive
	items, _, err := s.projects.List(ctx, models.ProjectFilter{Status: &active, Limit: clampLimit(limit, 5, 50)})
	return orEmpty(items), err
}

func (s *dashboardService) UpcomingTasks(ctx context.Context, userID int64, limit int) ([]models.Task, error) {
	items, err := s.tasks.Upcoming(ctx, userID, clampLimit(limit, 5, 50))
	return orEmpty(items), err
}

func (s *dashboardService) KPISummary(ctx context.Context) (*models.KPISummary, error) {
	tc, err := s.tasks.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	budget, used, err := s.projects.BudgetTotals(ctx)
	if err != nil {
		return nil, err
	}
	completed, onTime, err := s.tasks.CompletionSince(ctx, time.Time{})
	if err != nil {
		return nil, err
	}
	return &models.KPISummary{
		CompletionRate: models.Percent(float64(tc.Done), float64(tc.Total)),
		BudgetUsage:    models.Percent(used, budget),
		OnTimeDelivery: models.Percent(float64(onTime), float64(completed)),
	}, nil
}

func (s *dashboardService) RiskAlerts(ctx context.Context) (*models.RiskAlerts, error) {
	atRisk := models.ProjectAtRisk
	projects, _, err := s.projects.List(ctx, models.ProjectFilter{Status: &atRisk, Limit: 10})
	if err != nil {
		return nil, err
	}
	overdue, err := s.tasks.Overdue(ctx, s.now(), 10)
	if err != nil {
		return nil, err
	}
	return &models.RiskAlerts{
		AtRiskProjects: orEmpty(projects),
		OverdueTasks:   orEmpty(overdue),
		CriticalCount:  len(projects) + len(overdue),
	}, nil
}

func (s *dashboardService) KPIDashboard(ctx context.Context) (*models.KPIDashboard, error) {
	pc, err := s.projects.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	tc, err := s.tasks.CountByStatus(ctx, nil)
	if err != nil {
		return nil, err
	}
	issues, err := s.Issues(ctx)
	if err != nil {
		return nil, err
	}
	return &models.KPIDashboard{
		ProjectSuccessRate: models.Percent(float64(pc.Completed), float64(pc.Total)),
		TaskCompletionRate: models.Percent(float64(tc.Done), float64(tc.Total)),
		ActiveIssues:       issues.Total,
	}, nil
}

// ProjectPerformance берет до 6 проектов в статусе Active или Completed.
func (s *dashboardService) ProjectPerformance(ctx context.Context) ([]models.ProjectPerformance, error) {
	items, _, err := s.projects.List(ctx, models.ProjectFilter{Limit: 100})
	if err != nil {
		return nil, err
	}
	out := []models.ProjectPerformance{}
	for _, p := range items {
		if p.Status != models.ProjectActive && p.Status != models.ProjectCompleted {
			continue
		}
		out = append(out, models.ProjectPerformance{Name: p.Title, OnTime: p.Progress, Budget: p.BudgetUsage()})
		if len(out) == 6 {
			break
		}
	}
	return out, nil
}

func (s *dashboardService) CompletionStats(ctx context.Context) (*models.CompletionStats, error) {
	completed, onTime, err := s.tasks.CompletionSince(ctx, s.now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	return &models.CompletionStats{
		TotalCompleted: completed,
		OnTime:         onTime,
		OnTimeRate:     models.Percent(float64(onTime), float64(completed)),
	}, nil
}

// Issues: заблокированные и просроченные незавершенные задачи; Total считает задачу один раз.
func (s *dashboardService) Issues(ctx context.Context) (*models.ActiveIssues, error) {
	blocked, err := s.tasks.Blocked(ctx, 10)
	if err != nil {
		return nil, err
	}
	overdue, err := s.tasks.Overdue(ctx, s.now(), 10)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool, len(blocked)+len(overdue))
	for _, t := range blocked {
		seen[t.ID] = true
	}
	for _, t := range overdue {
		seen[t.ID] = true
	}
	return &models.ActiveIssues{Total: len(seen), Blocked: orEmpty(blocked), Overdue: orEmpty(overdue)}, nil
}

func (s *dashboardService) TeamPerformance(ctx context.Context) ([]models.DepartmentPerformance, error) {
	items, err := s.tasks.CompletedByDepartment(ctx)
	return orEmpty(items), err
}
