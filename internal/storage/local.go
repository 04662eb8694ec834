package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// LocalStore keeps files in a directory on the local filesystem.
type LocalStore struct {
	dir string
}

// NewLocalStore creates the upload directory if needed.
func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &LocalStore{dir: dir}, nil
}

// path joins the store directory with the bare filename. filepath.Base strips
// any path components so a crafted name cannot escape the directory.
func (s *LocalStore) path(filename string) string {
	return filepath.Join(s.dir, filepath.Base(filename))
}

func (s *LocalStore) Save(ctx context.Context, filename string, r io.Reader) error {
	f, err := os.Create(s.path(filename))
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", filename, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}
	return nil
}

func (s *LocalStore) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(filename))
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", filename, err)
	}
	return f, nil
}

func (s *LocalStore) Delete(ctx context.Context, filename string) error {
	err := os.Remove(s.path(filename))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete file %s: %w", filename, err)
	}
	return nil
}
