// internal/storage/factory.go
package storage

import (
	"context"
	"fmt"

	"github.com/javajoker/artmarket-backend/internal/config"
)

// NewFromConfig builds the backend named by STORAGE_DRIVER and makes sure
// its bucket (or directory) exists.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Storage, error) {
	var (
		backend ObjectStorage
		err     error
	)

	switch cfg.Storage.Driver {
	case "s3":
		backend, err = NewS3Client(cfg.AWS)
	case "minio":
		backend, err = NewMinioClient(cfg.Minio)
	case "gcs":
		backend, err = NewGCSClient(ctx, cfg.GCS)
	case "local", "":
		backend, err = NewLocalClient(cfg.Storage.LocalPath, cfg.Storage.PublicBaseURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create %s storage: %w", cfg.Storage.Driver, err)
	}

	if err := backend.EnsureBucket(ctx); err != nil {
		return nil, fmt.Errorf("failed to prepare %s storage: %w", cfg.Storage.Driver, err)
	}

	return NewStorage(backend, cfg.Storage.MaxImageSize), nil
}
