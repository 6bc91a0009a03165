package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"metrika/internal/models"
)

type CalendarRepository interface {
	Create(ctx context.Context, e *models.CalendarEvent) error
	GetByID(ctx context.Context, id int64) (*models.CalendarEvent, error)
	List(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, error)
	Update(ctx context.Context, e *models.CalendarEvent) error
	Delete(ctx context.Context, id int64) error
}

type calendarRepository struct {
	db *sql.DB
}

func NewCalendarRepository(db *sql.DB) CalendarRepository {
	return &calendarRepository{db: db}
}

const eventColumns = `id, title, description, type, start_date, end_date, all_day, color, project_id, task_id,
	creator_id, attendee_ids, location, meeting_url, reminders, created_at, updated_at`

func scanEvent(s scanner) (*models.CalendarEvent, error) {
	e := &models.CalendarEvent{}
	var (
		attendees pq.Int64Array
		reminders []byte
	)
	err := s.Scan(&e.ID, &e.Title, &e.Description, &e.Type, &e.StartDate, &e.EndDate, &e.AllDay, &e.Color,
		&e.ProjectID, &e.TaskID, &e.CreatorID, &attendees, &e.Location, &e.MeetingURL, &reminders,
		&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if err := fromJSON(reminders, &e.Reminders); err != nil {
		return nil, err
	}
	e.AttendeeIDs = nonNil([]int64(attendees))
	e.Reminders = nonNil(e.Reminders)
	return e, nil
}

func (r *calendarRepository) Create(ctx context.Context, e *models.CalendarEvent) error {
	reminders, err := toJSON(nonNil(e.Reminders))
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO calendar_events (title, description, type, start_date, end_date, all_day, color, project_id, task_id,
			creator_id, attendee_ids, location, meeting_url, reminders)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at, updated_at`,
		e.Title, e.Description, e.Type, e.StartDate, e.EndDate, e.AllDay, e.Color, e.ProjectID, e.TaskID,
		e.CreatorID, pq.Int64Array(nonNil(e.AttendeeIDs)), e.Location, e.MeetingURL, reminders,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *calendarRepository) GetByID(ctx context.Context, id int64) (*models.CalendarEvent, error) {
	e, err := scanEvent(r.db.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM calendar_events WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return e, err
}

func (r *calendarRepository) List(ctx context.Context, filter models.CalendarFilter) ([]models.CalendarEvent, error) {
	w := &where{}
	w.add("(creator_id = $%[1]d OR $%[1]d = ANY(attendee_ids))", filter.UserID)
	if filter.From != nil {
		w.add("start_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		w.add("start_date < $%d", *filter.To)
	}
	if filter.ProjectID != nil {
		w.add("project_id = $%d", *filter.ProjectID)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventColumns+` FROM calendar_events`+w.sql()+` ORDER BY start_date ASC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.CalendarEvent{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *e)
	}
	return out, rows.Err()
}

func (r *calendarRepository) Update(ctx context.Context, e *models.CalendarEvent) error {
	reminders, err := toJSON(nonNil(e.Reminders))
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		UPDATE calendar_events SET title=$1, description=$2, type=$3, start_date=$4, end_date=$5, all_day=$6, color=$7,
			attendee_ids=$8, location=$9, meeting_url=$10, reminders=$11, updated_at=NOW()
		WHERE id=$12
		RETURNING updated_at`,
		e.Title, e.Description, e.Type, e.StartDate, e.EndDate, e.AllDay, e.Color,
		pq.Int64Array(nonNil(e.AttendeeIDs)), e.Location, e.MeetingURL, reminders, e.ID,
	).Scan(&e.UpdatedAt)
}

func (r *calendarRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM calendar_events WHERE id = $1`, id)
	return err
}
