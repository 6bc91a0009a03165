package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"metrika/internal/models"
)

type AnalysisRepository interface {
	Create(ctx context.Context, a *models.Analysis) error
	GetByID(ctx context.Context, id int64) (*models.Analysis, error)
	GetByShareToken(ctx context.Context, token string) (*models.Analysis, error)
	LatestForDocument(ctx context.Context, documentID int64) (*models.Analysis, error)
	List(ctx context.Context, filter models.AnalysisFilter) ([]models.Analysis, error)
	Update(ctx context.Context, a *models.Analysis) error
}

type analysisRepository struct {
	db *sql.DB
}

func NewAnalysisRepository(db *sql.DB) AnalysisRepository {
	return &analysisRepository{db: db}
}

const analysisColumns = `
	id, document_id, status, summary, findings, risks, suggested_actions, user_actions, tags,
	ai_model, confidence, analyzed_at, saved_at, shared_with, share_link, COALESCE(share_token, ''),
	created_by, created_at, updated_at`

func scanAnalysis(s scanner) (*models.Analysis, error) {
	a := &models.Analysis{}
	var (
		findings, risks, suggested, user []byte
		tags                             pq.StringArray
		shared                           pq.Int64Array
	)
	err := s.Scan(&a.ID, &a.DocumentID, &a.Status, &a.Summary, &findings, &risks, &suggested, &user, &tags,
		&a.AIModel, &a.Confidence, &a.AnalyzedAt, &a.SavedAt, &shared, &a.ShareLink, &a.ShareToken,
		&a.CreatedBy, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw []byte
		dst any
	}{{findings, &a.Findings}, {risks, &a.Risks}, {suggested, &a.SuggestedActions}, {user, &a.UserActions}} {
		if err := fromJSON(f.raw, f.dst); err != nil {
			return nil, err
		}
	}
	a.Findings = nonNil(a.Findings)
	a.Risks = nonNil(a.Risks)
	a.SuggestedActions = nonNil(a.SuggestedActions)
	a.UserActions = nonNil(a.UserActions)
	a.Tags = nonNil([]string(tags))
	a.SharedWith = nonNil([]int64(shared))
	return a, nil
}

type analysisJSON struct {
	findings, risks, suggested, user []byte
}

func encodeAnalysis(a *models.Analysis) (analysisJSON, error) {
	var (
		out analysisJSON
		err error
	)
	if out.findings, err = toJSON(nonNil(a.Findings)); err != nil {
		return out, err
	}
	if out.risks, err = toJSON(nonNil(a.Risks)); err != nil {
		return out, err
	}
	if out.suggested, err = toJSON(nonNil(a.SuggestedActions)); err != nil {
		return out, err
	}
	out.user, err = toJSON(nonNil(a.UserActions))
	return out, err
}

func (r *analysisRepository) Create(ctx context.Context, a *models.Analysis) error {
	j, err := encodeAnalysis(a)
	if err != nil {
		return err
	}
	return r.db.QueryRowContext(ctx, `
		INSERT INTO analyses (document_id, status, summary, findings, risks, suggested_actions, user_actions, tags, ai_model, confidence, created_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at, updated_at`,
		a.DocumentID, a.Status, a.Summary, j.findings, j.risks, j.suggested, j.user,
		pq.StringArray(nonNil(a.Tags)), a.AIModel, a.Confidence, a.CreatedBy,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *analysisRepository) getOne(ctx context.Context, cond string, arg any) (*models.Analysis, error) {
	a, err := scanAnalysis(r.db.QueryRowContext(ctx, `SELECT `+analysisColumns+` FROM analyses WHERE `+cond, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return a, err
}

func (r *analysisRepository) GetByID(ctx context.Context, id int64) (*models.Analysis, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *analysisRepository) GetByShareToken(ctx context.Context, token string) (*models.Analysis, error) {
	return r.getOne(ctx, `share_token = $1`, token)
}

func (r *analysisRepository) LatestForDocument(ctx context.Context, documentID int64) (*models.Analysis, error) {
	return r.getOne(ctx, `document_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, documentID)
}

func (r *analysisRepository) List(ctx context.Context, filter models.AnalysisFilter) ([]models.Analysis, error) {
	w := &where{}
	if filter.DocumentID != nil {
		w.add("document_id = $%d", *filter.DocumentID)
	}
	if filter.Status != nil {
		w.add("status = $%d", *filter.Status)
	}
	rows, err := r.db.QueryContext(ctx, `SELECT `+analysisColumns+` FROM analyses`+w.sql()+` ORDER BY created_at DESC`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Analysis{}
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (r *analysisRepository) Update(ctx context.Context, a *models.Analysis) error {
	j, err := encodeAnalysis(a)
	if err != nil {
		return err
	}
	var token any
	if a.ShareToken != "" {
		token = a.ShareToken
	}
	return r.db.QueryRowContext(ctx, `
		UPDATE analyses SET
			status=$1, summary=$2, findings=$3, risks=$4, suggested_actions=$5, user_actions=$6, tags=$7,
			ai_model=$8, confidence=$9, analyzed_at=$10, saved_at=$11, shared_with=$12, share_link=$13,
			share_token=$14, updated_at=NOW()
		WHERE id=$15
		RETURNING updated_at`,
		a.Status, a.Summary, j.findings, j.risks, j.suggested, j.user, pq.StringArray(nonNil(a.Tags)),
		a.AIModel, a.Confidence, a.AnalyzedAt, a.SavedAt, pq.Int64Array(nonNil(a.SharedWith)), a.ShareLink,
		token, a.ID,
	).Scan(&a.UpdatedAt)
}
