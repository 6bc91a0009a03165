package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"metrika/internal/models"
)

type TaskRepository interface {
	Store(ctx context.Context, task *models.Task) error
	FindByID(ctx context.Context, id int64) (*models.Task, error)
	FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	// Update writes task; logged_hours only when loggedHours is set.
	Update(ctx context.Context, task *models.Task, loggedHours *float64) error
	Delete(ctx context.Context, id int64) error

	Reorder(ctx context.Context, projectID, actorID int64, items []models.ReorderItem) (int64, error)
	AddLoggedHours(ctx context.Context, id int64, hours float64) (float64, error)
	LinkProject(ctx context.Context, id, projectID int64) (bool, error)
	UnlinkProject(ctx context.Context, id, projectID int64) (bool, error)
	AppendAttachment(ctx context.Context, id int64, a models.Attachment) error

	CountByStatus(ctx context.Context, projectID *int64) (models.TaskStatusCounts, error)
	CountDoneFor(ctx context.Context, userID int64) (int, error)
	StatsFor(ctx context.Context, userID int64) (models.UserStats, error)
	Upcoming(ctx context.Context, userID int64, limit int) ([]models.Task, error)
	Overdue(ctx context.Context, now time.Time, limit int) ([]models.Task, error)
	Blocked(ctx context.Context, limit int) ([]models.Task, error)
	CompletionSince(ctx context.Context, since time.Time) (completed, onTime int, err error)
	CompletedByDepartment(ctx context.Context) ([]models.DepartmentPerformance, error)

	AddComment(ctx context.Context, c *models.TaskComment) error
	ListComments(ctx context.Context, taskID int64) ([]models.TaskComment, error)
	AddTimeLog(ctx context.Context, l *models.TimeLog) error
	ListTimeLogs(ctx context.Context, taskID int64) ([]models.TimeLog, error)
}

type taskRepository struct {
	db *sql.DB
}

func NewTaskRepository(db *sql.DB) TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `
	id, title, description, status, priority, sort_order, project_id, project_ids, sprint_id, assignee_id,
	creator_id, due_date, estimated_hours, logged_hours, tags, attachments, document_ids,
	completed_by, completed_at, completions, created_at, updated_at`

func scanTask(s scanner, extra ...any) (*models.Task, error) {
	t := &models.Task{}
	var (
		projectIDs, documentIDs pq.Int64Array
		tags                    pq.StringArray
		attachments             []byte
	)
	dest := []any{
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Order, &t.ProjectID, &projectIDs, &t.SprintID, &t.AssigneeID,
		&t.CreatorID, &t.DueDate, &t.EstimatedHours, &t.LoggedHours, &tags, &attachments, &documentIDs,
		&t.CompletedBy, &t.CompletedAt, &t.Completions, &t.CreatedAt, &t.UpdatedAt,
	}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := fromJSON(attachments, &t.Attachments); err != nil {
		return nil, err
	}
	t.ProjectIDs = nonNil([]int64(projectIDs))
	t.DocumentIDs = nonNil([]int64(documentIDs))
	t.Tags = nonNil([]string(tags))
	t.Attachments = nonNil(t.Attachments)
	t.ComputeProgress()
	return t, nil
}

func (r *taskRepository) queryTasks(ctx context.Context, q string, args ...any) ([]models.Task, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Store inserts the task at the end of its status column within the project.
func (r *taskRepository) Store(ctx context.Context, task *models.Task) error {
	attachments, err := toJSON(nonNil(task.Attachments))
	if err != nil {
		return err
	}
	query := `
		INSERT INTO tasks (
			title, description, status, priority, sort_order, project_id, project_ids, sprint_id, assignee_id,
			creator_id, due_date, estimated_hours, logged_hours, tags, attachments, document_ids
		)
		VALUES (
			$1, $2, $3, $4,
			(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM tasks WHERE project_id = $5 AND status = $3),
			$5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
		)
		RETURNING id, sort_order, created_at, updated_at`
	err = r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority,
		task.ProjectID, pq.Int64Array(nonNil(task.ProjectIDs)), task.SprintID, task.AssigneeID,
		task.CreatorID, task.DueDate, task.EstimatedHours, task.LoggedHours,
		pq.StringArray(nonNil(task.Tags)), attachments, pq.Int64Array(nonNil(task.DocumentIDs)),
	).Scan(&task.ID, &task.Order, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return err
	}
	task.ComputeProgress()
	return nil
}

func (r *taskRepository) FindByID(ctx context.Context, id int64) (*models.Task, error) {
	t, err := scanTask(r.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return t, err
}

func (r *taskRepository) FindAll(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	w := &where{}
	if filter.Search != nil && *filter.Search != "" {
		w.add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", likePattern(*filter.Search))
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	if filter.ActiveOnly {
		w.addRaw("status <> 'Done'")
	}
	if filter.Priority != nil {
		w.add("priority = $%d", *filter.Priority)
	}
	if filter.ProjectID != nil {
		w.add("(project_id = $%[1]d OR $%[1]d = ANY(project_ids))", *filter.ProjectID)
	}
	if filter.AssigneeID != nil {
		w.add("assignee_id = $%d", *filter.AssigneeID)
	}
	if filter.SprintID != nil {
		w.add("sprint_id = $%d", *filter.SprintID)
	}

	query := `SELECT ` + taskColumns + `, COUNT(*) OVER() FROM tasks` + w.sql() + ` ORDER BY sort_order ASC, created_at DESC`
	if filter.Limit > 0 {
		query += " LIMIT " + w.next(filter.Limit) + " OFFSET " + w.next(filter.Offset)
	}

	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		tasks []models.Task
		total int
	)
	for rows.Next() {
		t, err := scanTask(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, total, rows.Err()
}

func (r *taskRepository) Update(ctx context.Context, task *models.Task, loggedHours *float64) error {
	query := `
		UPDATE tasks SET
			title=$1, description=$2, status=$3, priority=$4, sprint_id=$5, assignee_id=$6,
			due_date=$7, estimated_hours=$8, logged_hours=COALESCE($9, logged_hours), tags=$10,
			completed_by=$11, completed_at=$12, completions=$13, updated_at=NOW()
		WHERE id=$14
		RETURNING logged_hours, updated_at`
	err := r.db.QueryRowContext(ctx, query,
		task.Title, task.Description, task.Status, task.Priority, task.SprintID, task.AssigneeID,
		task.DueDate, task.EstimatedHours, loggedHours, pq.StringArray(nonNil(task.Tags)),
		task.CompletedBy, task.CompletedAt, task.Completions, task.ID,
	).Scan(&task.LoggedHours, &task.UpdatedAt)
	if err != nil {
		return err
	}
	task.ComputeProgress()
	return nil
}

func (r *taskRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	return err
}

// Reorder applies every {id, order, status} triple of one project in one
// statement and returns the number of rows touched. Duplicate orders within
// a column are allowed. completed_at/completed_by follow the new status.
func (r *taskRepository) Reorder(ctx context.Context, projectID, actorID int64, items []models.ReorderItem) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	ids := make(pq.Int64Array, len(items))
	orders := make(pq.Int64Array, len(items))
	statuses := make(pq.StringArray, len(items))
	for i, it := range items {
		ids[i] = it.ID
		orders[i] = int64(it.Order)
		statuses[i] = string(it.Status)
	}
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks t SET
			sort_order = v.ord,
			status = v.status,
			completed_at = CASE WHEN v.status = 'Done' THEN COALESCE(t.completed_at, NOW()) END,
			completed_by = CASE WHEN v.status = 'Done' THEN COALESCE(t.completed_by, $5) END,
			updated_at = NOW()
		FROM unnest($1::bigint[], $2::int[], $3::text[]) AS v(id, ord, status)
		WHERE t.id = v.id AND t.project_id = $4`, ids, orders, statuses, projectID, actorID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *taskRepository) AddLoggedHours(ctx context.Context, id int64, hours float64) (float64, error) {
	var logged float64
	err := r.db.QueryRowContext(ctx,
		`UPDATE tasks SET logged_hours = logged_hours + $1, updated_at = NOW() WHERE id = $2 RETURNING logged_hours`,
		hours, id).Scan(&logged)
	return logged, err
}

func (r *taskRepository) LinkProject(ctx context.Context, id, projectID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET project_ids = array_append(project_ids, $1), updated_at = NOW()
		WHERE id = $2 AND project_id <> $1 AND NOT ($1 = ANY(project_ids))`, projectID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *taskRepository) UnlinkProject(ctx context.Context, id, projectID int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE tasks SET project_ids = array_remove(project_ids, $1), updated_at = NOW()
		WHERE id = $2 AND $1 = ANY(project_ids)`, projectID, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *taskRepository) AppendAttachment(ctx context.Context, id int64, a models.Attachment) error {
	b, err := toJSON([]models.Attachment{a})
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`UPDATE tasks SET attachments = attachments || $1::jsonb, updated_at = NOW() WHERE id = $2`, b, id)
	return err
}

func (r *taskRepository) CountByStatus(ctx context.Context, projectID *int64) (models.TaskStatusCounts, error) {
	var c models.TaskStatusCounts
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'Todo'),
			COUNT(*) FILTER (WHERE status = 'In Progress'),
			COUNT(*) FILTER (WHERE status = 'Review'),
			COUNT(*) FILTER (WHERE status = 'Done'),
			COUNT(*) FILTER (WHERE status = 'Blocked')
		FROM tasks
		WHERE $1::bigint IS NULL OR project_id = $1 OR $1 = ANY(project_ids)`, projectID,
	).Scan(&c.Total, &c.Todo, &c.InProgress, &c.Review, &c.Done, &c.Blocked)
	return c, err
}

// CountDoneFor counts Done tasks the user completed or is assigned to.
func (r *taskRepository) CountDoneFor(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status = 'Done' AND (assignee_id = $1 OR completed_by = $1)`, userID).Scan(&n)
	return n, err
}

func (r *taskRepository) StatsFor(ctx context.Context, userID int64) (models.UserStats, error) {
	var (
		s              models.UserStats
		done, doneOnTm int
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE status = 'Done'),
			COUNT(*) FILTER (WHERE status <> 'Done'),
			COUNT(*) FILTER (WHERE status = 'Done' AND due_date IS NOT NULL),
			COUNT(*) FILTER (WHERE status = 'Done' AND due_date IS NOT NULL AND completed_at <= due_date)
		FROM tasks WHERE assignee_id = $1`, userID,
	).Scan(&s.CompletedTasks, &s.ActiveTasks, &done, &doneOnTm)
	if err != nil {
		return s, err
	}
	s.OnTimeRate = 100
	if done > 0 {
		s.OnTimeRate = models.Percent(float64(doneOnTm), float64(done))
	}
	return s, nil
}

func (r *taskRepository) Upcoming(ctx context.Context, userID int64, limit int) ([]models.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE assignee_id = $1 AND status <> 'Done' AND due_date IS NOT NULL
		ORDER BY due_date ASC LIMIT $2`, userID, limit)
}

func (r *taskRepository) Overdue(ctx context.Context, now time.Time, limit int) ([]models.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE status <> 'Done' AND due_date < $1
		ORDER BY due_date ASC LIMIT $2`, now, limit)
}

func (r *taskRepository) Blocked(ctx context.Context, limit int) ([]models.Task, error) {
	return r.queryTasks(ctx, `SELECT `+taskColumns+` FROM tasks
		WHERE status = 'Blocked' ORDER BY updated_at DESC LIMIT $1`, limit)
}

func (r *taskRepository) CompletionSince(ctx context.Context, since time.Time) (int, int, error) {
	var completed, onTime int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE due_date IS NULL OR completed_at <= due_date)
		FROM tasks WHERE status = 'Done' AND completed_at >= $1`, since,
	).Scan(&completed, &onTime)
	return completed, onTime, err
}

func (r *taskRepository) CompletedByDepartment(ctx context.Context) ([]models.DepartmentPerformance, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT u.department, COUNT(*)::int, COALESCE(SUM(d.done), 0)::int, COALESCE(SUM(u.xp), 0)::int
		FROM users u
		LEFT JOIN (
			SELECT assignee_id, COUNT(*) AS done FROM tasks WHERE status = 'Done' GROUP BY assignee_id
		) d ON d.assignee_id = u.id
		WHERE u.department <> ''
		GROUP BY u.department
		ORDER BY 3 DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.DepartmentPerformance
	for rows.Next() {
		var d models.DepartmentPerformance
		if err := rows.Scan(&d.Department, &d.Members, &d.CompletedTasks, &d.XP); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *taskRepository) AddComment(ctx context.Context, c *models.TaskComment) error {
	return r.db.QueryRowContext(ctx,
		`INSERT INTO task_comments (task_id, user_id, content) VALUES ($1,$2,$3) RETURNING id, created_at`,
		c.TaskID, c.UserID, c.Content).Scan(&c.ID, &c.CreatedAt)
}

func (r *taskRepository) ListComments(ctx context.Context, taskID int64) ([]models.TaskComment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, user_id, content, created_at FROM task_comments WHERE task_id = $1 ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.TaskComment{}
	for rows.Next() {
		var c models.TaskComment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.Content, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *taskRepository) AddTimeLog(ctx context.Context, l *models.TimeLog) error {
	if l.LoggedAt.IsZero() {
		l.LoggedAt = time.Now()
	}
	return r.db.QueryRowContext(ctx,
		`INSERT INTO time_logs (task_id, user_id, hours, note, logged_at) VALUES ($1,$2,$3,$4,$5) RETURNING id, created_at`,
		l.TaskID, l.UserID, l.Hours, l.Note, l.LoggedAt).Scan(&l.ID, &l.CreatedAt)
}

func (r *taskRepository) ListTimeLogs(ctx context.Context, taskID int64) ([]models.TimeLog, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, task_id, user_id, hours, note, logged_at, created_at FROM time_logs WHERE task_id = $1 ORDER BY logged_at DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.TimeLog{}
	for rows.Next() {
		var l models.TimeLog
		if err := rows.Scan(&l.ID, &l.TaskID, &l.UserID, &l.Hours, &l.Note, &l.LoggedAt, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
