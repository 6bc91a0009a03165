package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps blobs under RootDir and serves them from URLPrefix.
type LocalStore struct {
	RootDir   string
	URLPrefix string
}

func NewLocalStore(rootDir, urlPrefix string) *LocalStore {
	return &LocalStore{RootDir: rootDir, URLPrefix: strings.TrimRight(urlPrefix, "/")}
}

func (s *LocalStore) Put(ctx context.Context, name string, body io.Reader, _ int64) (Object, error) {
	key := ObjectKey(name)
	full := filepath.Join(s.RootDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return Object{}, fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.Create(full)
	if err != nil {
		return Object{}, fmt.Errorf("create: %w", err)
	}
	defer f.Close()

	n, err := io.Copy(f, body)
	if err != nil {
		_ = os.Remove(full)
		return Object{}, fmt.Errorf("write: %w", err)
	}
	return Object{Key: key, URL: s.URLPrefix + "/" + key, Size: n}, nil
}

func (s *LocalStore) Delete(_ context.Context, key string) error {
	full := filepath.Join(s.RootDir, filepath.FromSlash(key))
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
