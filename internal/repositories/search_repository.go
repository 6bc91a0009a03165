package repositories

import (
	"context"
	"database/sql"

	"metrika/internal/models"
)

// SearchRepository is the ILIKE fallback used when no search index is configured.
type SearchRepository interface {
	Search(ctx context.Context, q string, limit int) (models.SearchResults, error)
}

type searchRepository struct {
	db *sql.DB
}

func NewSearchRepository(db *sql.DB) SearchRepository {
	return &searchRepository{db: db}
}

func (r *searchRepository) Search(ctx context.Context, q string, limit int) (models.SearchResults, error) {
	var (
		res models.SearchResults
		err error
	)
	pattern := likePattern(q)
	if res.Projects, err = r.hits(ctx, "project",
		`SELECT id, title FROM projects WHERE title ILIKE $1 OR description ILIKE $1 ORDER BY updated_at DESC LIMIT $2`, pattern, limit); err != nil {
		return res, err
	}
	if res.Tasks, err = r.hits(ctx, "task",
		`SELECT id, title FROM tasks WHERE title ILIKE $1 OR description ILIKE $1 ORDER BY updated_at DESC LIMIT $2`, pattern, limit); err != nil {
		return res, err
	}
	if res.Documents, err = r.hits(ctx, "document",
		`SELECT id, name FROM documents WHERE name ILIKE $1 ORDER BY updated_at DESC LIMIT $2`, pattern, limit); err != nil {
		return res, err
	}
	res.Users, err = r.hits(ctx, "user",
		`SELECT id, name FROM users WHERE name ILIKE $1 OR email ILIKE $1 ORDER BY name LIMIT $2`, pattern, limit)
	return res, err
}

func (r *searchRepository) hits(ctx context.Context, kind, q string, args ...any) ([]models.SearchHit, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.SearchHit{}
	for rows.Next() {
		h := models.SearchHit{Kind: kind}
		if err := rows.Scan(&h.ID, &h.Title); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
