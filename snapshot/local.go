package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore keeps snapshots on the local filesystem under a base directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore creates a filesystem-backed store. The base directory is
// created if it does not exist.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	baseDir = filepath.Clean(baseDir)
	if baseDir == "" || baseDir == "." {
		return nil, fmt.Errorf("%w: base directory cannot be empty", ErrInvalidKey)
	}
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory: %w", err)
	}
	return &LocalStore{baseDir: baseDir}, nil
}

// Put stores the reader's contents at key.
func (s *LocalStore) Put(ctx context.Context, key string, reader io.Reader) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, reader); err != nil {
		os.Remove(fullPath)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// Get retrieves the blob at key.
func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	return file, nil
}

// Delete removes the blob at key.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	fullPath, err := s.resolve(key)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

// URL returns the filesystem path of the blob.
func (s *LocalStore) URL(ctx context.Context, key string) (string, error) {
	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat snapshot: %w", err)
	}
	return fullPath, nil
}

// resolve joins the key with the base directory, rejecting traversal out of
// it.
func (s *LocalStore) resolve(key string) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}

	fullPath := filepath.Join(s.baseDir, filepath.Clean(key))
	rel, err := filepath.Rel(s.baseDir, fullPath)
	if err != nil || rel == ".." || (len(rel) > 1 && rel[:2] == "..") {
		return "", fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}
	return fullPath, nil
}
