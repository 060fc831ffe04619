package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/complyon/kyc-pipeline/internal/core/domain"
)

// Storage is a filesystem-backed object store for uploaded source files and
// emitted packages. Absolute keys bypass the base path so the CLI can point
// the pipeline at files anywhere on disk.
type Storage struct {
	basePath string
}

func New(basePath string) (*Storage, error) {
	if basePath == "" {
		basePath = "./data/storage"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	return &Storage{basePath: basePath}, nil
}

func (s *Storage) resolve(key string) string {
	if filepath.IsAbs(key) {
		return key
	}
	return filepath.Join(s.basePath, key)
}

func (s *Storage) Save(_ context.Context, key string, data io.Reader) error {
	f, err := os.Create(s.resolve(key))
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

func (s *Storage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(key))
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return f, nil
}

// Stat builds the immutable document metadata for a stored file. Creation
// time is not portably available, so it carries the modification time twice.
func (s *Storage) Stat(_ context.Context, key string) (domain.Document, error) {
	path := s.resolve(key)
	info, err := os.Stat(path)
	if err != nil {
		return domain.Document{}, fmt.Errorf("stat file: %w", err)
	}
	name := filepath.Base(path)
	return domain.Document{
		FileName:    name,
		Path:        path,
		StoragePath: key,
		Extension:   filepath.Ext(name),
		SizeBytes:   info.Size(),
		CreatedAt:   info.ModTime().UTC(),
		ModifiedAt:  info.ModTime().UTC(),
	}, nil
}
