package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"metrika/internal/models"
	"metrika/internal/repositories"
	"metrika/internal/search"
	"metrika/internal/storage"
)

type DocumentService struct {
	DocRepo      repositories.DocumentRepository
	ProjectRepo  repositories.ProjectRepository
	Blobs        storage.BlobStore // хранилище файлов (S3 или локальный диск)
	Gamification GamificationService
	Activities   ActivityService

	index indexer
}

func NewDocumentService(
	docRepo repositories.DocumentRepository,
	projectRepo repositories.ProjectRepository,
	blobs storage.BlobStore,
	gamification GamificationService,
	activities ActivityService,
	idx search.Index,
) *DocumentService {
	return &DocumentService{
		DocRepo:      docRepo,
		ProjectRepo:  projectRepo,
		Blobs:        blobs,
		Gamification: gamification,
		Activities:   activities,
		index:        indexer{index: idx},
	}
}

// ===== CRUD =====

func (s *DocumentService) List(ctx context.Context, projectID *int64) ([]models.Document, error) {
	docs, err := s.DocRepo.List(ctx, projectID)
	return orEmpty(docs), err
}

func (s *DocumentService) GetByID(ctx context.Context, id int64) (*models.Document, error) {
	d, err := s.DocRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, fmt.Errorf("document %d: %w", id, ErrNotFound)
	}
	return d, nil
}

func (s *DocumentService) checkProject(ctx context.Context, projectID *int64) error {
	if projectID == nil {
		return nil
	}
	p, err := s.ProjectRepo.GetByID(ctx, *projectID)
	if err != nil {
		return err
	}
	if p == nil {
		return fmt.Errorf("project %d: %w", *projectID, ErrNotFound)
	}
	return nil
}

// HumanSize форматирует размер как "%.2f MB".
func HumanSize(n int64) string {
	return fmt.Sprintf("%.2f MB", float64(n)/(1024*1024))
}

// FileType is the upper-cased extension without the dot, e.g. "PDF".
func FileType(name string) string {
	return strings.ToUpper(strings.TrimPrefix(filepath.Ext(name), "."))
}

// Upload кладет файл в хранилище, сохраняет только url и размер, +10 XP.
func (s *DocumentService) Upload(ctx context.Context, actorID int64, projectID *int64, name string, body io.Reader, size int64) (*models.Document, error) {
	name = filepath.Base(strings.TrimSpace(name))
	if name == "" || name == "." {
		return nil, fmt.Errorf("%w: file name is required", ErrValidation)
	}
	if err := s.checkProject(ctx, projectID); err != nil {
		return nil, err
	}

	obj, err := s.Blobs.Put(ctx, name, body, size)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", name, err)
	}
	doc := &models.Document{
		Name:       name,
		ProjectID:  projectID,
		UploaderID: actorID,
		Type:       FileType(name),
		Size:       HumanSize(obj.Size),
		ByteSize:   obj.Size,
		Path:       obj.URL,
		StorageKey: obj.Key,
	}
	if err := s.DocRepo.Create(ctx, doc); err != nil {
		if derr := s.Blobs.Delete(ctx, obj.Key); derr != nil {
			slog.WarnContext(ctx, "orphan blob left", "key", obj.Key, "err", derr)
		}
		return nil, err
	}
	s.index.put(ctx, documentDoc(doc))

	var failed stepFailures
	key := fmt.Sprintf("document:%d:upload", doc.ID)
	_, err = s.Gamification.Award(ctx, models.XPAward{Key: key, UserID: actorID, Amount: XPDocumentUploaded, Event: "document_uploaded"})
	failed.check(ctx, "xp", err, "document_id", doc.ID)
	failed.check(ctx, "activity", s.Activities.Append(ctx, &models.Activity{
		UserID:         actorID,
		ProjectID:      projectID,
		Action:         "uploaded document",
		Type:           models.ActivityUpload,
		Content:        name,
		XPEarned:       XPDocumentUploaded,
		IdempotencyKey: &key,
	}), "document_id", doc.ID)

	if len(failed) > 0 {
		return doc, fmt.Errorf("upload %d: %w: %s", doc.ID, ErrSideEffects, failed)
	}
	return doc, nil
}

func (s *DocumentService) Update(ctx context.Context, id int64, patch models.DocumentPatch) (*models.Document, error) {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if patch.Name != nil {
		name := strings.TrimSpace(*patch.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrValidation)
		}
		d.Name = name
	}
	if patch.ProjectID != nil {
		if err := s.checkProject(ctx, patch.ProjectID); err != nil {
			return nil, err
		}
		d.ProjectID = patch.ProjectID
	}
	if err := s.DocRepo.Update(ctx, d); err != nil {
		return nil, err
	}
	s.index.put(ctx, documentDoc(d))
	return d, nil
}

// Delete удаляет запись; файл в хранилище удаляется по возможности.
func (s *DocumentService) Delete(ctx context.Context, id int64) error {
	d, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.DocRepo.Delete(ctx, id); err != nil {
		return err
	}
	if d.StorageKey != "" {
		if err := s.Blobs.Delete(ctx, d.StorageKey); err != nil {
			slog.WarnContext(ctx, "blob delete failed", "document_id", id, "key", d.StorageKey, "err", err)
		}
	}
	s.index.remove(ctx, search.KindDocument, id)
	return nil
}
