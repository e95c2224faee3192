// Package fetcher implements the RSS/Atom ingestion stage of the pipeline:
// priority-grouped concurrent polling of configured feed sources, body
// cleanup, SimHash computation, and per-source health accounting.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"reputwatch/internal/dedup"
	"reputwatch/internal/domain/entity"
	"reputwatch/internal/observability/logging"
	"reputwatch/internal/observability/metrics"
)

// Options configures a Fetcher. Concurrency bounds the number of sources
// polled at once within a priority wave; SourceTimeout is the per-source
// fetch deadline used when a source does not set its own; DefaultRetries is
// the attempt count used on a source's first failure-free run.
type Options struct {
	Concurrency    int
	SourceTimeout  time.Duration
	DefaultRetries int
}

// Fetcher implements spec.md §4.1's fetch_all operation: it polls sources
// grouped by priority, bounding in-flight requests per wave, and returns the
// union of discovered articles falling inside the requested time window.
type Fetcher struct {
	parser  FeedParser
	health  *HealthTracker
	options Options
}

// New constructs a Fetcher. A nil parser defaults to the gofeed-backed one.
func New(parser FeedParser, health *HealthTracker, opts Options) *Fetcher {
	if parser == nil {
		parser = NewFeedParser()
	}
	if health == nil {
		health = NewHealthTracker()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 10
	}
	if opts.SourceTimeout <= 0 {
		opts.SourceTimeout = 30 * time.Second
	}
	if opts.DefaultRetries <= 0 {
		opts.DefaultRetries = 1
	}
	return &Fetcher{parser: parser, health: health, options: opts}
}

// Health exposes the tracker accumulating per-source crawl outcomes, so
// callers can emit the periodic report (spec.md §4.1).
func (f *Fetcher) Health() *HealthTracker {
	return f.health
}

// FetchAll implements fetch_all: sources are grouped by ascending priority
// (lower value first) into waves, each wave is polled concurrently under the
// configured ceiling, and the union of entries whose resolved publish
// instant falls in [from, to] is returned as candidate articles.
func (f *Fetcher) FetchAll(ctx context.Context, sources []*entity.FeedSource, from, to time.Time) ([]*entity.Article, error) {
	waves := groupByPriority(sources)

	var all []*entity.Article
	for _, wave := range waves {
		results, err := f.fetchWave(ctx, wave, from, to)
		if err != nil {
			return all, err
		}
		all = append(all, results...)
	}
	return all, nil
}

func groupByPriority(sources []*entity.FeedSource) [][]*entity.FeedSource {
	byPriority := make(map[int][]*entity.FeedSource)
	for _, s := range sources {
		if !s.Active {
			continue
		}
		byPriority[s.Priority] = append(byPriority[s.Priority], s)
	}

	priorities := make([]int, 0, len(byPriority))
	for p := range byPriority {
		priorities = append(priorities, p)
	}
	sort.Ints(priorities)

	waves := make([][]*entity.FeedSource, 0, len(priorities))
	for _, p := range priorities {
		waves = append(waves, byPriority[p])
	}
	return waves
}

func (f *Fetcher) fetchWave(ctx context.Context, sources []*entity.FeedSource, from, to time.Time) ([]*entity.Article, error) {
	results := make([][]*entity.Article, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.options.Concurrency)

	for i, source := range sources {
		i, source := i, source
		g.Go(func() error {
			articles := f.fetchSourceWithRetry(gctx, source, from, to)
			results[i] = articles
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*entity.Article
	for _, r := range results {
		out = append(out, r...)
	}
	return out, nil
}

// fetchSourceWithRetry implements fetch_with_retry (spec.md §4.1): up to R
// attempts, R escalated from DefaultRetries to 3 if the source's previous
// status was ERROR, with delay 2*2^(k-1) + uniform(0,1) seconds between
// attempts. Failures are absorbed into the health tracker; fetchSourceWithRetry
// never fails fetchWave as a whole.
func (f *Fetcher) fetchSourceWithRetry(ctx context.Context, source *entity.FeedSource, from, to time.Time) []*entity.Article {
	logger := logging.FromContext(ctx)

	maxAttempts := f.options.DefaultRetries
	if f.health.LastStatus(source.ID) == "ERROR" {
		maxAttempts = 3
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		start := time.Now()
		articles, err := f.fetchOneSource(ctx, source, from, to)
		duration := time.Since(start)

		if err == nil {
			metrics.RecordFeedCrawl(source.ID, duration, len(articles), len(articles))
			f.health.RecordSuccess(source.ID, source.Name, len(articles))
			return articles
		}

		lastErr = err
		metrics.RecordFeedCrawlError(source.ID, classifyFetchError(err))
		logger.Warn("feed fetch attempt failed",
			"source_id", source.ID, "source_name", source.Name,
			"attempt", attempt, "max_attempts", maxAttempts, "error", err)

		if attempt < maxAttempts {
			delay := backoffDelay(attempt)
			select {
			case <-ctx.Done():
				lastErr = ctx.Err()
				attempt = maxAttempts
			case <-time.After(delay):
			}
		}
	}

	f.health.RecordError(source.ID, source.Name, classifyFetchError(lastErr))
	return nil
}

// backoffDelay implements the fetch_with_retry delay formula:
// 2*2^(k-1) + uniform(0,1) seconds, where k is the attempt number just made.
func backoffDelay(attempt int) time.Duration {
	base := 2 * (1 << uint(attempt-1))
	jitter := rand.Float64()
	return time.Duration((float64(base) + jitter) * float64(time.Second))
}

func classifyFetchError(err error) string {
	if err == nil {
		return "unknown"
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "parse_error"
	}
}

func (f *Fetcher) fetchOneSource(ctx context.Context, source *entity.FeedSource, from, to time.Time) ([]*entity.Article, error) {
	timeout := source.Timeout
	if timeout <= 0 {
		timeout = f.options.SourceTimeout
	}
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	feed, err := f.parser.ParseURLWithContext(fetchCtx, source.URL)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", source.URL, err)
	}

	entries := extractEntries(feed)
	now := time.Now().UTC()

	articles := make([]*entity.Article, 0, len(entries))
	for _, e := range entries {
		published := e.PublishedOn
		failedPublishedAt := false
		if !e.HadInstant {
			published = now
			failedPublishedAt = true
		}
		if published.Before(from) || published.After(to) {
			continue
		}

		plainBody := cleanBody(e.Body)
		postID := computePostID(e.Link, source.Name, e.Title, published)

		article := &entity.Article{
			PostID:            postID,
			URL:               e.Link,
			Title:             e.Title,
			Content:           plainBody,
			HTMLContent:       e.Body,
			BlogHost:          source.Name,
			BlogHostType:      entity.BlogHostMedia,
			PublishedOn:       published,
			FailedPublishedAt: failedPublishedAt,
			SourceID:          source.ID,
		}
		article.SimHash = dedup.SimHash(article.CombinedText())
		article.HasSimHash = true

		articles = append(articles, article)
	}

	return articles, nil
}
