package repositories

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"metrika/internal/models"
)

type HelpRepository interface {
	ListArticles(ctx context.Context, category *string) ([]models.HelpArticle, error)
	SearchArticles(ctx context.Context, q string) ([]models.HelpArticle, error)
	CreateTicket(ctx context.Context, t *models.SupportTicket) error
}

type helpRepository struct {
	db *sql.DB
}

func NewHelpRepository(db *sql.DB) HelpRepository {
	return &helpRepository{db: db}
}

const articleColumns = `id, title, content, category, tags, sort_order, is_published, created_at`

func (r *helpRepository) queryArticles(ctx context.Context, q string, args ...any) ([]models.HelpArticle, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.HelpArticle{}
	for rows.Next() {
		var (
			a    models.HelpArticle
			tags pq.StringArray
		)
		if err := rows.Scan(&a.ID, &a.Title, &a.Content, &a.Category, &tags, &a.Order, &a.IsPublished, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Tags = nonNil([]string(tags))
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *helpRepository) ListArticles(ctx context.Context, category *string) ([]models.HelpArticle, error) {
	return r.queryArticles(ctx, `SELECT `+articleColumns+` FROM help_articles
		WHERE is_published AND ($1::text IS NULL OR category = $1)
		ORDER BY sort_order ASC`, category)
}

func (r *helpRepository) SearchArticles(ctx context.Context, q string) ([]models.HelpArticle, error) {
	return r.queryArticles(ctx, `SELECT `+articleColumns+` FROM help_articles
		WHERE is_published AND (title ILIKE $1 OR content ILIKE $1 OR EXISTS (SELECT 1 FROM unnest(tags) t WHERE t ILIKE $1))
		ORDER BY sort_order ASC`, likePattern(q))
}

func (r *helpRepository) CreateTicket(ctx context.Context, t *models.SupportTicket) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO support_tickets (user_id, subject, message, category, status, priority)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		t.UserID, t.Subject, t.Message, t.Category, t.Status, t.Priority,
	).Scan(&t.ID, &t.CreatedAt)
}
