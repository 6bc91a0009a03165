package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"metrika/internal/models"
	"metrika/internal/pdf"
	"metrika/internal/repositories"
)

type ReportService interface {
	ProjectReport(ctx context.Context, projectID int64, w io.Writer) error
}

type reportService struct {
	projects repositories.ProjectRepository
	tasks    repositories.TaskRepository
	sprints  repositories.SprintRepository
	users    repositories.UserRepository
	gen      pdf.Generator
}

func NewReportService(
	projects repositories.ProjectRepository,
	tasks repositories.TaskRepository,
	sprints repositories.SprintRepository,
	users repositories.UserRepository,
	gen pdf.Generator,
) ReportService {
	return &reportService{projects: projects, tasks: tasks, sprints: sprints, users: users, gen: gen}
}

// ProjectReport собирает данные проекта и пишет PDF в w.
func (s *reportService) ProjectReport(ctx context.Context, projectID int64, w io.Writer) error {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project %d: %w", projectID, ErrNotFound)
	}
	counts, err := s.tasks.CountByStatus(ctx, &projectID)
	if err != nil {
		return err
	}
	open, _, err := s.tasks.FindAll(ctx, models.TaskFilter{ProjectID: &projectID, ActiveOnly: true, Limit: 50})
	if err != nil {
		return err
	}
	sprints, err := s.sprints.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}
	manager := "-"
	if m, err := s.users.GetByID(ctx, p.ManagerID); err == nil && m != nil {
		manager = m.Name
	}

	data := pdf.ProjectReportData{
		Title:       p.Title,
		Status:      string(p.Status),
		Methodology: string(p.Methodology),
		Manager:     manager,
		StartDate:   p.StartDate,
		EndDate:     p.EndDate,
		Progress:    p.Progress,
		Budget:      p.Budget,
		BudgetUsed:  p.BudgetUsed,
		BudgetUsage: p.BudgetUsage(),
		TaskCounts: map[string]int{
			string(models.StatusTodo):       counts.Todo,
			string(models.StatusInProgress): counts.InProgress,
			string(models.StatusReview):     counts.Review,
			string(models.StatusDone):       counts.Done,
			string(models.StatusBlocked):    counts.Blocked,
		},
		GeneratedAt: time.Now(),
	}
	for _, sp := range sprints {
		data.Sprints = append(data.Sprints, pdf.SprintLine{Name: sp.Name, Status: string(sp.Status), Planned: sp.PlannedPoints, Actual: sp.CompletedPoints})
	}
	for _, t := range open {
		data.Tasks = append(data.Tasks, pdf.TaskLine{Title: t.Title, Status: string(t.Status), Priority: string(t.Priority), Due: t.DueDate})
	}
	return s.gen.ProjectReport(w, data)
}
