package services

import (
	"context"
	"fmt"

	"metrika/internal/models"
	"metrika/internal/repositories"
)

type SettingsService interface {
	Get(ctx context.Context, userID int64) (*models.Settings, error)
	UpdateNotifications(ctx context.Context, userID int64, patch models.NotificationSettingsPatch) (*models.Settings, error)
	UpdatePreferences(ctx context.Context, userID int64, patch models.PreferencesPatch) (*models.Settings, error)
}

type settingsService struct {
	repo repositories.SettingsRepository
}

func NewSettingsService(repo repositories.SettingsRepository) SettingsService {
	return &settingsService{repo: repo}
}

// Get creates the row with defaults on first read.
func (s *settingsService) Get(ctx context.Context, userID int64) (*models.Settings, error) {
	st, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st != nil {
		return st, nil
	}
	st = models.DefaultSettings(userID)
	if err := s.repo.Upsert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func (s *settingsService) UpdateNotifications(ctx context.Context, userID int64, p models.NotificationSettingsPatch) (*models.Settings, error) {
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	n := &st.Notifications
	setBool(&n.Email, p.Email)
	setBool(&n.Desktop, p.Desktop)
	setBool(&n.TaskAssignments, p.TaskAssignments)
	setBool(&n.DeadlineReminders, p.DeadlineReminders)
	setBool(&n.WeeklyReport, p.WeeklyReport)
	setBool(&n.MentionAlerts, p.MentionAlerts)
	setBool(&n.ProjectUpdates, p.ProjectUpdates)
	if err := s.repo.Upsert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *settingsService) UpdatePreferences(ctx context.Context, userID int64, p models.PreferencesPatch) (*models.Settings, error) {
	if p.Theme != nil {
		switch *p.Theme {
		case "light", "dark", "system":
		default:
			return nil, fmt.Errorf("%w: theme must be light, dark or system", ErrValidation)
		}
	}
	st, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	pr := &st.Preferences
	if p.Language != nil {
		pr.Language = *p.Language
	}
	if p.Timezone != nil {
		pr.Timezone = *p.Timezone
	}
	if p.Theme != nil {
		pr.Theme = *p.Theme
	}
	if p.DateFormat != nil {
		pr.DateFormat = *p.DateFormat
	}
	if err := s.repo.Upsert(ctx, st); err != nil {
		return nil, err
	}
	return st, nil
}
