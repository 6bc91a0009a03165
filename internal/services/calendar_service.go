package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"metrika/internal/models"
	"metrika/internal/repositories"
)

type CalendarService interface {
	Month(ctx context.Context, userID int64, year int, month time.Month, projectID *int64) ([]models.CalendarEvent, error)
	GetByID(ctx context.Context, id int64) (*models.CalendarEvent, error)
	Create(ctx context.Context, actorID int64, e *models.CalendarEvent) (*models.CalendarEvent, error)
	Update(ctx context.Context, actorID, id int64, patch models.CalendarPatch) (*models.CalendarEvent, error)
	Delete(ctx context.Context, actorID, id int64) error
	Respond(ctx context.Context, actorID, id int64, response string) (*models.CalendarEvent, error)
}

type calendarService struct {
	repo     repositories.CalendarRepository
	notifier NotificationService
}

func NewCalendarService(repo repositories.CalendarRepository, notifier NotificationService) CalendarService {
	return &calendarService{repo: repo, notifier: notifier}
}

func (s *calendarService) Month(ctx context.Context, userID int64, year int, month time.Month, projectID *int64) ([]models.CalendarEvent, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month must be 1..12", ErrValidation)
	}
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	return s.repo.List(ctx, models.CalendarFilter{UserID: userID, From: &from, To: &to, ProjectID: projectID})
}

func (s *calendarService) GetByID(ctx context.Context, id int64) (*models.CalendarEvent, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("event %d: %w", id, ErrNotFound)
	}
	return e, nil
}

func validateEvent(e *models.CalendarEvent) error {
	if strings.TrimSpace(e.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !e.Type.Valid() {
		return fmt.Errorf("%w: unknown event type %q", ErrValidation, e.Type)
	}
	if e.StartDate.IsZero() {
		return fmt.Errorf("%w: start date is required", ErrValidation)
	}
	if e.EndDate != nil && e.EndDate.Before(e.StartDate) {
		return fmt.Errorf("%w: end date before start date", ErrValidation)
	}
	return nil
}

func (s *calendarService) Create(ctx context.Context, actorID int64, e *models.CalendarEvent) (*models.CalendarEvent, error) {
	if e.Type == "" {
		e.Type = models.EventMeeting
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	e.CreatorID = actorID
	e.AttendeeIDs = orEmpty(e.AttendeeIDs)
	e.Reminders = orEmpty(e.Reminders)
	if err := s.repo.Create(ctx, e); err != nil {
		return nil, err
	}

	var failed stepFailures
	for _, uid := range e.AttendeeIDs {
		if uid == actorID {
			continue
		}
		failed.check(ctx, "notification", s.notifier.Notify(ctx, &models.Notification{
			RecipientID: uid,
			Type:        models.NotifyMeeting,
			Title:       e.Title,
			Message:     fmt.Sprintf("You are invited: %s", e.StartDate.Format("02.01.2006 15:04")),
			Context:     &models.NotificationContext{Kind: models.ContextMeeting, MeetingURL: e.MeetingURL, ProjectID: e.ProjectID},
			DedupeKey:   ptr(fmt.Sprintf("event:%d:invite:%d", e.ID, uid)),
		}), "event_id", e.ID, "recipient_id", uid)
	}
	if len(failed) > 0 {
		return e, fmt.Errorf("event %d: %w: %s", e.ID, ErrSideEffects, failed)
	}
	return e, nil
}

func (s *calendarService) owned(ctx context.Context, actorID, id int64) (*models.CalendarEvent, error) {
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e.CreatorID != actorID {
		return nil, fmt.Errorf("event %d belongs to another user: %w", id, ErrForbidden)
	}
	return e, nil
}

func (s *calendarService) Update(ctx context.Context, actorID, id int64, patch models.CalendarPatch) (*models.CalendarEvent, error) {
	e, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Description != nil {
		e.Description = *patch.Description
	}
	if patch.Type != nil {
		e.Type = *patch.Type
	}
	if patch.StartDate != nil {
		e.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		e.EndDate = patch.EndDate
	}
	if patch.AllDay != nil {
		e.AllDay = *patch.AllDay
	}
	if patch.Color != nil {
		e.Color = *patch.Color
	}
	if patch.Location != nil {
		e.Location = *patch.Location
	}
	if patch.MeetingURL != nil {
		e.MeetingURL = *patch.MeetingURL
	}
	if patch.AttendeeIDs != nil {
		e.AttendeeIDs = patch.AttendeeIDs
	}
	if err := validateEvent(e); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

func (s *calendarService) Delete(ctx context.Context, actorID, id int64) error {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}

// Respond: accept добавляет участника, decline убирает.
func (s *calendarService) Respond(ctx context.Context, actorID, id int64, response string) (*models.CalendarEvent, error) {
	if response != "accept" && response != "decline" {
		return nil, fmt.Errorf("%w: response must be accept or decline", ErrValidation)
	}
	e, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	attendees := make([]int64, 0, len(e.AttendeeIDs)+1)
	for _, uid := range e.AttendeeIDs {
		if uid != actorID {
			attendees = append(attendees, uid)
		}
	}
	if response == "accept" {
		attendees = append(attendees, actorID)
	}
	e.AttendeeIDs = attendees
	if err := s.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}
