package services

import (
	"context"
	"fmt"
	"strings"

	"metrika/internal/models"
	"metrika/internal/repositories"
)

type HelpService interface {
	Articles(ctx context.Context, category string) ([]models.HelpArticle, error)
	Search(ctx context.Context, q string) ([]models.HelpArticle, error)
	FAQ(ctx context.Context) ([]models.HelpArticle, error)
	CreateTicket(ctx context.Context, userID int64, t *models.SupportTicket) (*models.SupportTicket, error)
}

type helpService struct {
	repo repositories.HelpRepository
}

func NewHelpService(repo repositories.HelpRepository) HelpService {
	return &helpService{repo: repo}
}

func (s *helpService) Articles(ctx context.Context, category string) ([]models.HelpArticle, error) {
	var c *string
	if category != "" {
		c = &category
	}
	return s.repo.ListArticles(ctx, c)
}

func (s *helpService) Search(ctx context.Context, q string) ([]models.HelpArticle, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.HelpArticle{}, nil
	}
	return s.repo.SearchArticles(ctx, q)
}

func (s *helpService) FAQ(ctx context.Context) ([]models.HelpArticle, error) {
	return s.Articles(ctx, "faq")
}

func (s *helpService) CreateTicket(ctx context.Context, userID int64, t *models.SupportTicket) (*models.SupportTicket, error) {
	if strings.TrimSpace(t.Subject) == "" || strings.TrimSpace(t.Message) == "" {
		return nil, fmt.Errorf("%w: subject and message are required", ErrValidation)
	}
	switch t.Category {
	case "":
		t.Category = "question"
	case "bug", "feature", "question", "other":
	default:
		return nil, fmt.Errorf("%w: unknown ticket category %q", ErrValidation, t.Category)
	}
	switch t.Priority {
	case "":
		t.Priority = "medium"
	case "low", "medium", "high":
	default:
		return nil, fmt.Errorf("%w: unknown ticket priority %q", ErrValidation, t.Priority)
	}
	t.UserID = userID
	t.Status = "open"
	if err := s.repo.CreateTicket(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
