package repositories

import (
	"context"
	"database/sql"
	"errors"

	"metrika/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, n *models.Notification) (bool, error)
	List(ctx context.Context, recipientID int64, isRead *bool, limit, offset int) ([]models.Notification, int, error)
	UnreadCount(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, id, recipientID int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

const notificationColumns = `id, recipient_id, type, title, message, is_read, actions, context, created_at`

func scanNotification(s scanner, extra ...any) (*models.Notification, error) {
	n := &models.Notification{}
	var actions, ctxRaw []byte
	dest := []any{&n.ID, &n.RecipientID, &n.Type, &n.Title, &n.Message, &n.IsRead, &actions, &ctxRaw, &n.CreatedAt}
	if err := s.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	if err := fromJSON(actions, &n.Actions); err != nil {
		return nil, err
	}
	if len(ctxRaw) > 0 {
		n.Context = &models.NotificationContext{}
		if err := fromJSON(ctxRaw, n.Context); err != nil {
			return nil, err
		}
	}
	n.Actions = nonNil(n.Actions)
	return n, nil
}

// Create inserts the notification. A repeated dedupe key is a no-op and reports false.
func (r *notificationRepository) Create(ctx context.Context, n *models.Notification) (bool, error) {
	actions, err := toJSON(nonNil(n.Actions))
	if err != nil {
		return false, err
	}
	var ctxRaw any
	if n.Context != nil {
		b, err := toJSON(n.Context)
		if err != nil {
			return false, err
		}
		ctxRaw = b
	}
	err = r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (recipient_id, type, title, message, actions, context, dedupe_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (dedupe_key) DO NOTHING
		RETURNING id, is_read, created_at`,
		n.RecipientID, n.Type, n.Title, n.Message, actions, ctxRaw, n.DedupeKey,
	).Scan(&n.ID, &n.IsRead, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *notificationRepository) List(ctx context.Context, recipientID int64, isRead *bool, limit, offset int) ([]models.Notification, int, error) {
	w := &where{}
	w.add("recipient_id = $%d", recipientID)
	if isRead != nil {
		w.add("is_read = $%d", *isRead)
	}
	q := `SELECT ` + notificationColumns + `, COUNT(*) OVER() FROM notifications` + w.sql() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.next(limit) + ` OFFSET ` + w.next(offset)

	rows, err := r.db.QueryContext(ctx, q, w.args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var (
		out   []models.Notification
		total int
	)
	for rows.Next() {
		n, err := scanNotification(rows, &total)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *n)
	}
	return out, total, rows.Err()
}

func (r *notificationRepository) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`, recipientID).Scan(&n)
	return n, err
}

// MarkRead flips is_read only when recipientID owns the row; otherwise it returns nil.
func (r *notificationRepository) MarkRead(ctx context.Context, id, recipientID int64) (*models.Notification, error) {
	n, err := scanNotification(r.db.QueryRowContext(ctx, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND recipient_id = $2
		RETURNING `+notificationColumns, id, recipientID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return n, err
}

func (r *notificationRepository) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET is_read = TRUE WHERE recipient_id = $1 AND NOT is_read`, recipientID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
