package services

import (
	"context"
	"log/slog"
	"strings"

	"metrika/internal/models"
	"metrika/internal/repositories"
	"metrika/internal/search"
)

type SearchService interface {
	Search(ctx context.Context, q string, limit int) (models.SearchResults, error)
}

type searchService struct {
	index    search.Index
	fallback repositories.SearchRepository
}

// NewSearchService uses index when it is set and Postgres otherwise.
func NewSearchService(index search.Index, fallback repositories.SearchRepository) SearchService {
	return &searchService{index: index, fallback: fallback}
}

func (s *searchService) Search(ctx context.Context, q string, limit int) (models.SearchResults, error) {
	q = strings.TrimSpace(q)
	if limit <= 0 || limit > 20 {
		limit = 5
	}
	if q == "" {
		return models.SearchResults{
			Projects: []models.SearchHit{}, Tasks: []models.SearchHit{},
			Documents: []models.SearchHit{}, Users: []models.SearchHit{},
		}, nil
	}
	if s.index != nil {
		res, err := s.index.Search(ctx, q, limit)
		if err == nil {
			return res, nil
		}
		slog.WarnContext(ctx, "search index failed, using database", "err", err)
	}
	return s.fallback.Search(ctx, q, limit)
}

// indexer keeps the search index in step with writes. It is best effort:
// a failed index call is logged and never fails the request.
type indexer struct {
	index search.Index
}

func (i indexer) put(ctx context.Context, doc search.Doc) {
	if i.index == nil {
		return
	}
	if err := i.index.Put(ctx, doc); err != nil {
		slog.WarnContext(ctx, "search index put failed", "kind", doc.Kind, "id", doc.EntityID, "err", err)
	}
}

func (i indexer) remove(ctx context.Context, kind string, id int64) {
	if i.index == nil {
		return
	}
	if err := i.index.Remove(ctx, kind, id); err != nil {
		slog.WarnContext(ctx, "search index remove failed", "kind", kind, "id", id, "err", err)
	}
}

func taskDoc(t *models.Task) search.Doc {
	return search.Doc{Kind: search.KindTask, EntityID: t.ID, Title: t.Title,
		Body: t.Description + " " + strings.Join(t.Tags, " "), UpdatedAt: t.UpdatedAt}
}

func projectDoc(p *models.Project) search.Doc {
	return search.Doc{Kind: search.KindProject, EntityID: p.ID, Title: p.Title, Body: p.Description, UpdatedAt: p.UpdatedAt}
}

func documentDoc(d *models.Document) search.Doc {
	return search.Doc{Kind: search.KindDocument, EntityID: d.ID, Title: d.Name, Body: d.Type, UpdatedAt: d.UpdatedAt}
}

func userDoc(u *models.User) search.Doc {
	return search.Doc{Kind: search.KindUser, EntityID: u.ID, Title: u.Name,
		Body: u.Email + " " + u.Department + " " + u.Role, UpdatedAt: u.UpdatedAt}
}
