package repositories

import (
	"context"
	"database/sql"
	"errors"

	"metrika/internal/models"
)

type DocumentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	GetByID(ctx context.Context, id int64) (*models.Document, error)
	List(ctx context.Context, projectID *int64) ([]models.Document, error)
	Update(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id int64) error
	CountByUploader(ctx context.Context, userID int64) (int, error)
}

type documentRepository struct {
	db *sql.DB
}

func NewDocumentRepository(db *sql.DB) DocumentRepository {
	return &documentRepository{db: db}
}

const documentColumns = `id, name, project_id, uploader_id, type, size, byte_size, path, storage_key, created_at, updated_at`

func scanDocument(s scanner) (*models.Document, error) {
	d := &models.Document{}
	err := s.Scan(&d.ID, &d.Name, &d.ProjectID, &d.UploaderID, &d.Type, &d.Size, &d.ByteSize, &d.Path,
		&d.StorageKey, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *documentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO documents (name, project_id, uploader_id, type, size, byte_size, path, storage_key)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		RETURNING id, created_at, updated_at`,
		doc.Name, doc.ProjectID, doc.UploaderID, doc.Type, doc.Size, doc.ByteSize, doc.Path, doc.StorageKey,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

func (r *documentRepository) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	d, err := scanDocument(r.db.QueryRowContext(ctx, `SELECT `+documentColumns+` FROM documents WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return d, err
}

func (r *documentRepository) List(ctx context.Context, projectID *int64) ([]models.Document, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+documentColumns+` FROM documents
		WHERE $1::bigint IS NULL OR project_id = $1
		ORDER BY created_at DESC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []models.Document{}
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *documentRepository) Update(ctx context.Context, doc *models.Document) error {
	return r.db.QueryRowContext(ctx,
		`UPDATE documents SET name=$1, project_id=$2, updated_at=NOW() WHERE id=$3 RETURNING updated_at`,
		doc.Name, doc.ProjectID, doc.ID).Scan(&doc.UpdatedAt)
}

func (r *documentRepository) Delete(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, id)
	return err
}

func (r *documentRepository) CountByUploader(ctx context.Context, userID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE uploader_id = $1`, userID).Scan(&n)
	return n, err
}
