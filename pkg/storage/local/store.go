package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/angelmondragon/estatehub-backend/pkg/logger"
	"github.com/angelmondragon/estatehub-backend/pkg/storage"
)

// Store writes uploads to a directory served under /uploads.
type Store struct {
	dir  string
	logg *logger.Logger
}

func New(ctx context.Context, dir string, logg *logger.Logger) (*Store, error) {
	if dir == "" {
		return nil, errors.New("upload dir is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir %q: %w", dir, err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "dir", dir), "storage.local.ready")
	}
	return &Store{dir: dir, logg: logg}, nil
}

func (s *Store) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	if !storage.SafeName(name) {
		return "", fmt.Errorf("invalid object name %q", name)
	}
	full := filepath.Join(s.dir, name)
	f, err := os.OpenFile(full, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", name, err)
	}
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		_ = os.Remove(full)
		return "", fmt.Errorf("write %q: %w", name, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %q: %w", name, err)
	}
	return name, nil
}

// Delete removes the object; a missing file is not an error.
func (s *Store) Delete(ctx context.Context, name string) error {
	if !storage.SafeName(name) {
		return fmt.Errorf("invalid object name %q", name)
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete %q: %w", name, err)
	}
	return nil
}

// Handler serves stored files; mount it with http.StripPrefix.
func (s *Store) Handler() http.Handler {
	return http.FileServer(http.Dir(s.dir))
}
