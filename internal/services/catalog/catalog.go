// Package catalog manages categories, genres and titles.
package catalog

import (
	"context"
	"log/slog"

	"imdb/proj/internal/lib/logger/sl"
)

// TitlesCachePrefix prefixes every cached title listing.
const TitlesCachePrefix = "titles:"

type Cache interface {
	Get(ctx context.Context, key string, dst any) error
	Set(ctx context.Context, key string, value any) error
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// InvalidateTitles drops cached title listings. Failures are logged only.
func InvalidateTitles(ctx context.Context, cache Cache, log *slog.Logger) {
	if cache == nil {
		return
	}
	if _, err := cache.DeletePrefix(ctx, TitlesCachePrefix); err != nil {
		log.Warn("failed to invalidate titles cache", sl.Err(err))
	}
}
