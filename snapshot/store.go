// Package snapshot archives a screenshot each time a step is confirmed, so
// a finished run can be reviewed frame by frame. Screenshots go to a blob
// store; local disk for single-machine use, S3 when runs are collected
// centrally.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	// ErrNotFound is returned when no snapshot exists at a key.
	ErrNotFound = errors.New("snapshot not found")

	// ErrInvalidKey is returned for empty keys or path traversal.
	ErrInvalidKey = errors.New("invalid snapshot key")
)

// BlobStore stores and retrieves snapshot bytes by key.
type BlobStore interface {
	// Put stores the reader's contents at key, replacing any existing blob.
	Put(ctx context.Context, key string, reader io.Reader) error

	// Get retrieves the blob at key, or ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob at key. Deleting a missing key returns
	// ErrNotFound.
	Delete(ctx context.Context, key string) error

	// URL returns an access URL for the blob: a filesystem path for local
	// storage, a presigned URL for S3.
	URL(ctx context.Context, key string) (string, error)
}

// StoreConfig selects and configures a blob store backend.
type StoreConfig struct {
	Backend string
	Dir     string
	Bucket  string
	Region  string
}

// NewBlobStore creates a blob store for the configured backend.
func NewBlobStore(cfg StoreConfig) (BlobStore, error) {
	switch strings.ToLower(cfg.Backend) {
	case "local":
		return NewLocalStore(cfg.Dir)
	case "s3":
		return NewS3Store(cfg.Bucket, cfg.Region)
	default:
		return nil, fmt.Errorf("unsupported snapshot backend: %s", cfg.Backend)
	}
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key cannot be empty", ErrInvalidKey)
	}
	if strings.Contains(key, "..") {
		return fmt.Errorf("%w: path traversal detected", ErrInvalidKey)
	}
	return nil
}
