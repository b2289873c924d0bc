package storage

import (
	"context"
	"fmt"

	"github.com/foodgram/backend/config"
)

// New builds the store selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config) (ImageStore, error) {
	switch cfg.Storage.Driver {
	case "s3":
		s3cfg, err := config.NewS3Config(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		return NewS3Store(s3cfg), nil
	case "local":
		return NewLocalStore(cfg.Storage.LocalDir, cfg.Server.BaseURL+cfg.Storage.MediaURL)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
