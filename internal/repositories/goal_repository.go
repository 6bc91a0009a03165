package repositories

import (
	"context"
	"database/sql"
	"errors"

	"metrika/internal/models"
)

type GoalRepository interface {
	Create(ctx context.Context, g *models.Goal) error
	GetByID(ctx context.Context, id int64) (*models.Goal, error)
	List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, error)
	Update(ctx context.Context, g *models.Goal) error
	Delete(ctx context.Context, id int64) error
	AddRecord(ctx context.Context, rec *models.GoalRecord) error
	ListRecords(ctx context.Context, goalID int64) ([]models.GoalRecord, error)
}

type goalRepository struct {
	db *sql.DB
}

func NewGoalRepository(db *sql.DB) GoalRepository {
	return &goalRepository{db: db}
}

const goalColumns = `id, name, description, target, current, unit, category, deadline, status, project_id,
	COALESCE(created_by, 0), is_custom, created_at, updated_at`

func scanGoal(s scanner) (*models.Goal, error) {
	g := &models.Goal{}
	err := s.Scan(&g.ID, &g.Name, &g.Description, &g.Target, &g.Current, &g.Unit, &g.Category, &g.Deadline,
		&g.Status, &g.ProjectID, &g.CreatedBy, &g.IsCustom, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return nil, err
	}
	g.ComputeProgress()
	return g, nil
}

func (r *goalRepository) Create(ctx context.Context, g *models.Goal) error {
	var createdBy any
	if g.CreatedBy != 0 {
		createdBy = g.CreatedBy
	}
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO goals (name, description, target, current, unit, category, deadline, status, project_id, created_by, is_custom)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`,
		g.Name, g.Description, g.Target, g.Current, g.Unit, g.Category, g.Deadline, g.Status, g.ProjectID, createdBy, g.IsCustom,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return err
	}
	g.ComputeProgress()
	return nil
}

func (r *goalRepository) GetByID(ctx context.Context, id int64) (*models.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, `SELECT `+goalColumns+` FROM goals WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

func (r *goalRepository) List(ctx context.Context, filter models.GoalFilter) ([]models.Goal, error) {
	w := &where{}
	if filter.Category != nil {
		w.add("category = $%d", *filter.Category)
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.ProjectID != nil {
		w.add("project_id = $%d", *filter.ProjectID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+goalColumns+` FROM goals`+w.sql()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *g)
	}
	return out, rows.Err()
}

func (r *goalRepository) Update(ctx context.Context, g *models.Goal) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE goals SET name=$1, description=$2, target=$3, current=$4, unit=$5, category=$6, deadline=$7, status=$8, updated_at=NOW()
		WHERE id=$9
		RETURNING updated_at`,
		g.Name, g.Description, g.Target, g.Current, g.Unit, g.Category, g.Deadline, g.Status, g.ID,
	).Scan(&g.UpdatedAt)
	if err != nil {
		return err
	}
	g.ComputeProgress()
	return nil
}

func (r *goalRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE id = $1`, id)
	return err
}

func (r *goalRepository) AddRecord(ctx context.Context, rec *models.GoalRecord) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO goal_records (goal_id, value, note, recorded_by) VALUES ($1,$2,$3,$4) RETURNING id, recorded_at`,
		rec.GoalID, rec.Value, rec.Note, rec.RecordedBy).Scan(&rec.ID, &rec.RecordedAt)
}

func (r *goalRepository) ListRecords(ctx context.Context, goalID int64) ([]models.GoalRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, goal_id, value, note, COALESCE(recorded_by, 0), recorded_at
		FROM goal_records WHERE goal_id = $1 ORDER BY recorded_at DESC`, goalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.GoalRecord{}
	for rows.Next() {
		var rec models.GoalRecord
		if err := rows.Scan(&rec.ID, &rec.GoalID, &rec.Value, &rec.Note, &rec.RecordedBy, &rec.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
