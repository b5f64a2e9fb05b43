// Package repo holds the adapters to external collaborators: the remote model
// service and the review sources.
package repo

import (
	"context"
	"fmt"

	"github.com/miradorstack/review-intel/internal/models"
	"github.com/miradorstack/review-intel/internal/utils"
)

// ReviewSource yields a finite batch of reviews.
type ReviewSource interface {
	Reviews(ctx context.Context) ([]models.ReviewRecord, error)
}

// SourceConfig selects and configures a review source.
type SourceConfig struct {
	Kind       string
	Path       string
	DSN        string
	BusinessID string
}

// OpenSource builds the configured source. The returned close func releases
// any connection the source holds.
func OpenSource(ctx context.Context, cfg SourceConfig) (ReviewSource, func(), error) {
	switch cfg.Kind {
	case "", "file":
		if cfg.Path == "" {
			return nil, nil, utils.ConfigError("repo.OpenSource", "file source needs a path", nil)
		}
		return NewFileSource(cfg.Path, cfg.BusinessID), func() {}, nil
	case "sqlite":
		src, err := OpenSQLiteSource(firstNonEmpty(cfg.DSN, cfg.Path), cfg.BusinessID)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { _ = src.Close() }, nil
	case "postgres":
		src, err := OpenPostgresSource(ctx, cfg.DSN, cfg.BusinessID)
		if err != nil {
			return nil, nil, err
		}
		return src, src.Close, nil
	default:
		return nil, nil, utils.ConfigError("repo.OpenSource", fmt.Sprintf("unknown source kind %q", cfg.Kind), nil)
	}
}
