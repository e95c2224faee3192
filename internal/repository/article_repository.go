package repository

import (
	"context"
	"time"

	"reputwatch/internal/domain/entity"
)

// RelevanceUpdate is the per-article payload of UpdateRelevanceBatch.
type RelevanceUpdate struct {
	Relevant bool
	Score    float64
}

// ClassificationUpdate is the per-article payload of UpdateClassificationBatch.
type ClassificationUpdate struct {
	Category    string
	Subcategory string
	Confidence  float64
}

// WindowFilter narrows SelectByWindow beyond the time range.
type WindowFilter struct {
	OnlyRelevant   bool
	OnlyClassified bool
	Limit          int // 0 means unbounded
}

// ArticleRepository is the Article Store of spec.md §4.2: durable,
// transactionally safe persistence with the queries the pipeline needs.
//
// Batch operations are idempotent: re-running one with the same inputs
// produces the same observable state, because updates set fields to the
// same values and inserts are de-duplicated by the post_id/url unique
// constraints (I7).
type ArticleRepository interface {
	// InsertMany inserts candidates one row at a time, silently skipping
	// any row that violates the post_id or url uniqueness constraint, and
	// returns how many rows were inserted. All other errors surface.
	InsertMany(ctx context.Context, candidates []*entity.Article) (insertedCount int, err error)

	// ExistingURLs returns the set of URLs already present in the store,
	// used by the Fetcher to pre-filter candidates before dedup.
	ExistingURLs(ctx context.Context) (map[string]bool, error)

	// SelectUnchecked returns articles with relevance = unknown, newest
	// first. limit <= 0 means unbounded.
	SelectUnchecked(ctx context.Context, limit int) ([]*entity.Article, error)

	// SelectRelevantUnclassified returns articles with relevance = true,
	// relevance_score >= 0.7, and no category yet, newest first.
	SelectRelevantUnclassified(ctx context.Context, limit int) ([]*entity.Article, error)

	// SelectByWindow returns articles published in [from, to], newest
	// first, narrowed by the optional filter.
	SelectByWindow(ctx context.Context, from, to time.Time, filter WindowFilter) ([]*entity.Article, error)

	// UpdateRelevanceBatch applies relevance judgments keyed by post_id.
	UpdateRelevanceBatch(ctx context.Context, updates map[string]RelevanceUpdate) (updatedCount int, err error)

	// UpdateClassificationBatch applies classification results keyed by post_id.
	UpdateClassificationBatch(ctx context.Context, updates map[string]ClassificationUpdate) (updatedCount int, err error)

	// UpdateSummaries applies generated summaries keyed by post_id, in order.
	UpdateSummaries(ctx context.Context, summaries []PostSummary) (updatedCount int, err error)

	// DeleteIrrelevant removes rows with relevance = false. Administrative.
	DeleteIrrelevant(ctx context.Context) (removedCount int, err error)

	// CountAll returns the total number of articles, used for the
	// ArticlesTotal gauge.
	CountAll(ctx context.Context) (int64, error)
}

// PostSummary pairs a post_id with its generated summary text.
type PostSummary struct {
	PostID  string
	Summary string
}
