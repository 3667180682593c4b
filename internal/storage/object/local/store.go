package local

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/smallbiznis/peoplehub/internal/storage/object"
)

// Store keeps objects under baseDir on the local filesystem.
type Store struct {
	baseDir string
}

func New(baseDir string) (*Store, error) {
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolve base dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &Store{baseDir: abs}, nil
}

// Path maps a key to its absolute filesystem path. Absolute inputs are
// accepted only when they already point inside the store.
func (s *Store) Path(key string) (string, error) {
	trimmed := strings.TrimSpace(key)
	if filepath.IsAbs(trimmed) {
		rel, err := filepath.Rel(s.baseDir, filepath.Clean(trimmed))
		if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
			return "", object.ErrInvalidKey
		}
		trimmed = filepath.ToSlash(rel)
	}
	clean, err := object.CleanKey(trimmed)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(clean)), nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.Stat(ctx, key)
	if errors.Is(err, object.ErrNotExist) || errors.Is(err, object.ErrInvalidKey) {
		return false, nil
	}
	return err == nil, err
}

func (s *Store) Stat(ctx context.Context, key string) (object.Info, error) {
	if err := ctx.Err(); err != nil {
		return object.Info{}, err
	}
	fullPath, err := s.Path(key)
	if err != nil {
		return object.Info{}, err
	}
	info, err := os.Stat(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return object.Info{}, object.ErrNotExist
	}
	if err != nil {
		return object.Info{}, err
	}
	if info.IsDir() {
		return object.Info{}, object.ErrNotExist
	}
	return object.Info{Key: key, Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (s *Store) Read(ctx context.Context, key string) ([]byte, error) {
	rc, err := s.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fullPath, err := s.Path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(fullPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, object.ErrNotExist
	}
	return f, err
}

// Write replaces the object atomically via a temp file and rename.
func (s *Store) Write(ctx context.Context, key string, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fullPath, err := s.Path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write body: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, fullPath)
}

var _ object.Store = (*Store)(nil)
