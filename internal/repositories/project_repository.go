package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"metrika/internal/models"
)

type ProjectRepository interface {
	Create(ctx context.Context, p *models.Project) error
	GetByID(ctx context.Context, id int64) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error)
	// Update writes p; progress only when progress is set.
	Update(ctx context.Context, p *models.Project, progress *int) error
	Delete(ctx context.Context, id int64) error

	AddMember(ctx context.Context, id, userID int64) error
	RemoveMember(ctx context.Context, id, userID int64) error
	AppendKPI(ctx context.Context, id int64, kpi models.ProjectKPI) error
	RecalcProgress(ctx context.Context, id int64) (int, error)

	CountByStatus(ctx context.Context) (models.ProjectStatusCounts, error)
	CountFor(ctx context.Context, userID int64) (total, active int, err error)
	BudgetTotals(ctx context.Context) (budget, used float64, err error)
}

type projectRepository struct {
	db *sql.DB
}

func NewProjectRepository(db *sql.DB) ProjectRepository {
	return &projectRepository{db: db}
}

const projectColumns = `
	id, title, description, status, methodology, progress, start_date, end_date,
	budget::float8, budget_used::float8, color, manager_id, member_ids, kpis, created_at, updated_at`

func scanProject(s scanner, extra ...any) (*models.Project, error) {
	p := &models.Project{}
	var (
		members pq.Int64Array
		kpis    []byte
	)
	dest := []any{
		&p.ID, &p.Title, &p.Description, &p.Status, &p.Methodology, &p.Progress, &p.StartDate, &p.EndDate,
		&p.Budget, &p.BudgetUsed, &p.Color, &p.ManagerID, &members, &kpis, &p.CreatedAt, &p.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := fromJSON(kpis, &p.KPIs); err != nil {
		return nil, err
	}
	p.MemberIDs = nonNil([]int64(members))
	p.KPIs = nonNil(p.KPIs)
	return p, nil
}

func (r *projectRepository) Create(ctx context.Context, p *models.Project) error {
	kpis, err := toJSON(nonNil(p.KPIs))
	if err != nil {
		return err
	}
	const q = `
		INSERT INTO projects (title, description, status, methodology, progress, start_date, end_date,
			budget, budget_used, color, manager_id, member_ids, kpis)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		p.Title, p.Description, p.Status, p.Methodology, p.Progress, p.StartDate, p.EndDate,
		p.Budget, p.BudgetUsed, p.Color, p.ManagerID, pq.Int64Array(nonNil(p.MemberIDs)), kpis,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *projectRepository) GetByID(ctx context.Context, id int64) (*models.Project, error) {
	p, err := scanProject(r.db.QueryRowContext(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

func (r *projectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, int, error) {
	w := &where{}
	if filter.Search != nil && *filter.Search != "" {
		w.add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", likePattern(*filter.Search))
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.Methodology != nil {
		w.add("methodology = $%d", *filter.Methodology)
	}
	if filter.MemberID != nil {
		w.add("(manager_id = $%[1]d OR $%[1]d = ANY(member_ids))", *filter.MemberID)
	}

	query := `SELECT ` + projectColumns + `, COUNT(*) OVER() FROM projects` + w.sql() + ` ORDER BY created_at DESC`
	if filter.Limit > 0 {
		query += " LIMIT " + w.next(filter.Limit) + " OFFSET " + w.next(filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   []models.Project
		total int
	)
	for rows.Next() {
		p, err := scanProject(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *projectRepository) Update(ctx context.Context, p *models.Project, progress *int) error {
	const q = `
		UPDATE projects SET
			title=$1, description=$2, status=$3, methodology=$4, progress=COALESCE($5, progress),
			start_date=$6, end_date=$7, budget=$8, budget_used=$9, color=$10, updated_at=NOW()
		WHERE id=$11
		RETURNING progress, updated_at`
	return r.db.QueryRowContext(ctx, q,
		p.Title, p.Description, p.Status, p.Methodology, progress, p.StartDate, p.EndDate,
		p.Budget, p.BudgetUsed, p.Color, p.ID,
	).Scan(&p.Progress, &p.UpdatedAt)
}

func (r *projectRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id = $1`, id)
	return err
}

func (r *projectRepository) AddMember(ctx context.Context, id, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET member_ids = array_append(member_ids, $1), updated_at = NOW()
		WHERE id = $2 AND NOT ($1 = ANY(member_ids))`, userID, id)
	return err
}

func (r *projectRepository) RemoveMember(ctx context.Context, id, userID int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE projects SET member_ids = array_remove(member_ids, $1), updated_at = NOW()
		WHERE id = $2`, userID, id)
	return err
}

func (r *projectRepository) AppendKPI(ctx context.Context, id int64, kpi models.ProjectKPI) error {
	b, err := toJSON([]models.ProjectKPI{kpi})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, `UPDATE projects SET kpis = kpis || $1::jsonb, updated_at = NOW() WHERE id = $2`, b, id)
	return err
}

// RecalcProgress sets progress to round(done/total*100) over the project's primary tasks.
func (r *projectRepository) RecalcProgress(ctx context.Context, id int64) (int, error) {
	var progress int
	err := r.db.QueryRowContext(ctx, `
		UPDATE projects p SET progress = COALESCE((
			SELECT ROUND(COUNT(*) FILTER (WHERE t.status = 'Done') * 100.0 / NULLIF(COUNT(*), 0))::int
			FROM tasks t WHERE t.project_id = p.id
		), 0), updated_at = NOW()
		WHERE p.id = $1
		RETURNING progress`, id).Scan(&progress)
	return progress, err
}

func (r *projectRepository) CountByStatus(ctx context.Context) (models.ProjectStatusCounts, error) {
	var c models.ProjectStatusCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Active'),
			COUNT(*) FILTER (WHERE status = 'Completed'),
			COUNT(*) FILTER (WHERE status = 'At Risk'),
			COUNT(*) FILTER (WHERE status = 'On Hold')
		FROM projects`).Scan(&c.Total, &c.Active, &c.Completed, &c.AtRisk, &c.OnHold)
	return c, err
}

func (r *projectRepository) CountFor(ctx context.Context, userID int64) (int, int, error) {
	var total, active int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE status = 'Active')
		FROM projects WHERE manager_id = $1 OR $1 = ANY(member_ids)`, userID).Scan(&total, &active)
	return total, active, err
}

func (r *projectRepository) BudgetTotals(ctx context.Context) (float64, float64, error) {
	var budget, used float64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(budget), 0)::float8, COALESCE(SUM(budget_used), 0)::float8 FROM projects`).Scan(&budget, &used)
	return budget, used, err
}
