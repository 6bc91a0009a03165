package services

import (
	"context"
	"fmt"

	"metrika/internal/metrics"
	"metrika/internal/models"
	"metrika/internal/repositories"
)

type NotificationService interface {
	Notify(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, recipientID int64, isRead *bool, page, limit int) (models.Page[models.Notification], error)
	UnreadCount(ctx context.Context, recipientID int64) (int, error)
	MarkRead(ctx context.Context, id, recipientID int64) (*models.Notification, error)
	MarkAllRead(ctx context.Context, recipientID int64) (int64, error)
}

type notificationService struct {
	repo repositories.NotificationRepository
}

func NewNotificationService(repo repositories.NotificationRepository) NotificationService {
	return &notificationService{repo: repo}
}

func (s *notificationService) Notify(ctx context.Context, n *models.Notification) error {
	if n.RecipientID == 0 || n.Title == "" {
		return fmt.Errorf("%w: notification needs a recipient and a title", ErrValidation)
	}
	if n.Type == "" {
		n.Type = models.NotifyInfo
	}
	created, err := s.repo.Create(ctx, n)
	if err != nil {
		return err
	}
	if created {
		metrics.NotificationsCreated.WithLabelValues(string(n.Type)).Inc()
	}
	return nil
}

func (s *notificationService) List(ctx context.Context, recipientID int64, isRead *bool, page, limit int) (models.Page[models.Notification], error) {
	page, limit = normalizePage(page, limit)
	items, total, err := s.repo.List(ctx, recipientID, isRead, limit, (page-1)*limit)
	if err != nil {
		return models.Page[models.Notification]{}, err
	}
	return models.NewPage(items, page, limit, total), nil
}

func (s *notificationService) UnreadCount(ctx context.Context, recipientID int64) (int, error) {
	return s.repo.UnreadCount(ctx, recipientID)
}

// MarkRead only succeeds for the recipient; anyone else gets ErrNotFound.
func (s *notificationService) MarkRead(ctx context.Context, id, recipientID int64) (*models.Notification, error) {
	n, err := s.repo.MarkRead(ctx, id, recipientID)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, fmt.Errorf("notification %d: %w", id, ErrNotFound)
	}
	return n, nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, recipientID int64) (int64, error) {
	return s.repo.MarkAllRead(ctx, recipientID)
}
