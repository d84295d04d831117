// Package attachment keeps expense receipts. The core only ever sees the
// reference returned on upload.
package attachment

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var ErrInvalidReference = errors.New("invalid attachment reference")

// Store persists opaque payloads under a reference chosen by the caller.
type Store interface {
	Put(ctx context.Context, ref string, r io.Reader) (int64, error)
	Exists(ctx context.Context, ref string) (bool, error)
	Delete(ctx context.Context, ref string) error
}

type LocalStore struct {
	basePath string
}

func NewLocalStore(basePath string) (*LocalStore, error) {
	abs, err := filepath.Abs(basePath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage directory: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStore{basePath: abs}, nil
}

// Put writes r to a temporary file and renames it into place, so a reader
// never observes a partial payload.
func (s *LocalStore) Put(ctx context.Context, ref string, r io.Reader) (int64, error) {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	n, err := io.Copy(tmp, r)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		os.Remove(tmp.Name())
		return 0, fmt.Errorf("failed to store file: %w", err)
	}
	return n, nil
}

func (s *LocalStore) Exists(_ context.Context, ref string) (bool, error) {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return false, nil
	}
	info, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (s *LocalStore) Delete(_ context.Context, ref string) error {
	fullPath, err := s.resolve(ref)
	if err != nil {
		return err
	}
	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// resolve maps ref to a path inside basePath, refusing anything that would
// escape it.
func (s *LocalStore) resolve(ref string) (string, error) {
	if ref == "" || filepath.IsAbs(ref) {
		return "", ErrInvalidReference
	}
	fullPath := filepath.Join(s.basePath, filepath.FromSlash(ref))
	if !strings.HasPrefix(fullPath, s.basePath+string(filepath.Separator)) {
		return "", ErrInvalidReference
	}
	return fullPath, nil
}
