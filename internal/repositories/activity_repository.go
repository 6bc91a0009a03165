package repositories

import (
	"context"
	"database/sql"
	"errors"

	"metrika/internal/models"
)

// ActivityRepository is append-only: there is no update or delete.
type ActivityRepository interface {
	Append(ctx context.Context, a *models.Activity) (bool, error)
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error)
}

type activityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) ActivityRepository {
	return &activityRepository{db: db}
}

// Append inserts the activity. A repeated idempotency key is a no-op and
// reports false.
func (r *activityRepository) Append(ctx context.Context, a *models.Activity) (bool, error) {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO activities (user_id, project_id, task_id, action, type, content, xp_earned, idempotency_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, created_at`,
		a.UserID, a.ProjectID, a.TaskID, a.Action, a.Type, a.Content, a.XPEarned, a.IdempotencyKey,
	).Scan(&a.ID, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *activityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	w := &where{}
	if filter.UserID != nil {
		w.add("user_id = $%d", *filter.UserID)
	}
	if filter.TaskID != nil {
		w.add("task_id = $%d", *filter.TaskID)
	}
	if filter.ProjectID != nil {
		w.add("project_id = $%d", *filter.ProjectID)
	}
	if filter.XPOnly {
		w.addRaw("xp_earned > 0")
	}
	q := `SELECT id, user_id, project_id, task_id, action, type, content, xp_earned, created_at
		FROM activities` + w.sql() + ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		q += " LIMIT " + w.next(filter.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.Activity{}
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.UserID, &a.ProjectID, &a.TaskID, &a.Action, &a.Type, &a.Content, &a.XPEarned, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
