package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"

	"metrika/internal/config"
)

// Object is what callers keep after an upload: never the bytes, only where they went.
type Object struct {
	Key  string
	URL  string
	Size int64
}

type BlobStore interface {
	Put(ctx context.Context, name string, body io.Reader, size int64) (Object, error)
	Delete(ctx context.Context, key string) error
}

// New picks the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, filesRoot string) (BlobStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "", "local":
		return NewLocalStore(filesRoot, "/files"), nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// ObjectKey builds a collision-free key that keeps the original extension.
func ObjectKey(name string) string {
	ext := strings.ToLower(path.Ext(name))
	return "uploads/" + uuid.NewString() + ext
}

func contentType(name string) string {
	ct := mime.TypeByExtension(path.Ext(name))
	if ct == "" {
		ct = "application/octet-stream"
	}
	return ct
}
