// Package storage provides the blob stores the pipeline reads reference
// files from and writes exports to.
package storage

import (
	"context"
	"errors"
	"fmt"

	infraconfig "github.com/salesrecon/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned by Get for a missing key
var ErrObjectNotFound = errors.New("storage: object not found")

// BlobStore reads and writes whole objects by key
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Exists(ctx context.Context, key string) (bool, error)
}

// New builds the blob store selected by cfg.Type
func New(ctx context.Context, cfg *infraconfig.StorageConfig, log *zap.Logger) (BlobStore, error) {
	switch cfg.Type {
	case "", "local":
		return NewLocalStorage(cfg.LocalPath)
	case "s3":
		s, err := NewS3ObjectStorage(&cfg.S3, WithLogger(log))
		if err != nil {
			return nil, err
		}
		if err := s.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
