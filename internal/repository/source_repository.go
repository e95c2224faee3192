package repository

import (
	"context"
	"time"

	"reputwatch/internal/domain/entity"
)

// SourceRepository persists the configured feed source list. Sources are
// normally seeded from the config file (spec.md §6) via Upsert and read back
// grouped by priority for the Fetcher's crawl waves.
type SourceRepository interface {
	Get(ctx context.Context, id int64) (*entity.FeedSource, error)
	List(ctx context.Context) ([]*entity.FeedSource, error)
	ListActive(ctx context.Context) ([]*entity.FeedSource, error)

	// Upsert inserts or updates a source keyed by URL, used to sync the
	// database with the feed source configuration file on startup.
	Upsert(ctx context.Context, source *entity.FeedSource) error

	Delete(ctx context.Context, id int64) error

	// TouchCrawledAt records the most recent successful crawl time.
	TouchCrawledAt(ctx context.Context, id int64, t time.Time) error
}
