package repositories

import (
	"context"
	"database/sql"
	"errors"

	"metrika/internal/models"
)

type SettingsRepository interface {
	Get(ctx context.Context, userID int64) (*models.Settings, error)
	Upsert(ctx context.Context, s *models.Settings) error
}

type settingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, userID int64) (*models.Settings, error) {
	s := &models.Settings{}
	var notif, prefs []byte
	err := r.db.QueryRowContext(ctx,
		`SELECT user_id, notifications, preferences, created_at, updated_at FROM settings WHERE user_id = $1`, userID,
	).Scan(&s.UserID, &notif, &prefs, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := fromJSON(notif, &s.Notifications); err != nil {
		return nil, err
	}
	if err := fromJSON(prefs, &s.Preferences); err != nil {
		return nil, err
	}
	return s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, s *models.Settings) error {
	notif, err := toJSON(s.Notifications)
	if err != nil {
		return err
	}
	prefs, err := toJSON(s.Preferences)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO settings (user_id, notifications, preferences)
		VALUES ($1,$2,$3)
		ON CONFLICT (user_id) DO UPDATE SET notifications = EXCLUDED.notifications, preferences = EXCLUDED.preferences, updated_at = NOW()
		RETURNING created_at, updated_at`,
		s.UserID, notif, prefs,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
}
