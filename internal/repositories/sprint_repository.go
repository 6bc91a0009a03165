package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"metrika/internal/models"
)

type SprintRepository interface {
	Create(ctx context.Context, s *models.Sprint) error
	GetByID(ctx context.Context, id int64) (*models.Sprint, error)
	ListByProject(ctx context.Context, projectID int64) ([]models.Sprint, error)
	Current(ctx context.Context, projectID int64) (*models.Sprint, error)
	Update(ctx context.Context, s *models.Sprint) error
	Complete(ctx context.Context, id int64, at time.Time) (*models.Sprint, error)
}

type sprintRepository struct {
	db *sql.DB
}

func NewSprintRepository(db *sql.DB) SprintRepository {
	return &sprintRepository{db: db}
}

const sprintColumns = `id, project_id, name, start_date, end_date, goal, status, velocity, planned_points, completed_points, created_at, updated_at`

func scanSprint(s scanner) (*models.Sprint, error) {
	sp := &models.Sprint{}
	err := s.Scan(&sp.ID, &sp.ProjectID, &sp.Name, &sp.StartDate, &sp.EndDate, &sp.Goal, &sp.Status,
		&sp.Velocity, &sp.PlannedPoints, &sp.CompletedPoints, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (r *sprintRepository) Create(ctx context.Context, s *models.Sprint) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO sprints (project_id, name, start_date, end_date, goal, status, velocity, planned_points)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`,
		s.ProjectID, s.Name, s.StartDate, s.EndDate, s.Goal, s.Status, s.Velocity, s.PlannedPoints,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *sprintRepository) GetByID(ctx context.Context, id int64) (*models.Sprint, error) {
	s, err := scanSprint(r.db.QueryRowContext(ctx, `SELECT `+sprintColumns+` FROM sprints WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *sprintRepository) ListByProject(ctx context.Context, projectID int64) ([]models.Sprint, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+sprintColumns+` FROM sprints WHERE project_id = $1 ORDER BY start_date ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Sprint{}
	for rows.Next() {
		s, err := scanSprint(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// Current returns the most recently started Active sprint of the project.
func (r *sprintRepository) Current(ctx context.Context, projectID int64) (*models.Sprint, error) {
	s, err := scanSprint(r.db.QueryRowContext(ctx, `SELECT `+sprintColumns+` FROM sprints
		WHERE project_id = $1 AND status = 'Active' ORDER BY start_date DESC LIMIT 1`, projectID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

func (r *sprintRepository) Update(ctx context.Context, s *models.Sprint) error {
	return r.db.QueryRowContext(ctx, `
		UPDATE sprints SET name=$1, start_date=$2, end_date=$3, goal=$4, status=$5, velocity=$6, planned_points=$7, updated_at=NOW()
		WHERE id=$8
		RETURNING updated_at`,
		s.Name, s.StartDate, s.EndDate, s.Goal, s.Status, s.Velocity, s.PlannedPoints, s.ID,
	).Scan(&s.UpdatedAt)
}

// Complete closes the sprint and freezes completed_points to its Done task count.
func (r *sprintRepository) Complete(ctx context.Context, id int64, at time.Time) (*models.Sprint, error) {
	s, err := scanSprint(r.db.QueryRowContext(ctx, `
		UPDATE sprints SET
			status = 'Completed',
			end_date = $1,
			completed_points = (SELECT COUNT(*) FROM tasks WHERE sprint_id = $2 AND status = 'Done'),
			updated_at = NOW()
		WHERE id = $2 AND status NOT IN ('Completed', 'Cancelled')
		RETURNING `+sprintColumns, at, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}
