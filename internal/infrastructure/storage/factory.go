package storage

import (
	"context"
	"fmt"

	artworkapp "github.com/inkthread/storefront/internal/application/artwork"
	"github.com/inkthread/storefront/internal/infrastructure/config"
	"go.uber.org/zap"
)

// New returns the object storage selected by storage.provider
func New(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (artworkapp.ObjectStorageService, error) {
	switch cfg.Provider {
	case "memory":
		logger.Warn("using in-memory artwork storage; files are lost on restart")
		return NewMemoryObjectStorage(""), nil
	case "s3", "":
		s, err := NewS3ObjectStorage(ctx, cfg, WithLogger(logger))
		if err != nil {
			return nil, err
		}
		if cfg.CreateBucket {
			if err := s.EnsureBucket(ctx); err != nil {
				return nil, err
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported storage provider %q", cfg.Provider)
	}
}
