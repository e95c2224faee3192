package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"reputwatch/internal/domain/entity"
	"reputwatch/internal/repository"
)

// ArticleRepo implements repository.ArticleRepository against the
// articles table. Grounded on the teacher's postgres.ArticleRepo (same
// *sql.DB-wrapping shape, same "Method: %w" error wrapping, same
// pq.Array batch pattern, here in ExistingURLsBatch), generalized
// from the teacher's CRUD/search surface to the fixed operation set of
// spec.md §4.2.
type ArticleRepo struct{ db *sql.DB }

// NewArticleRepo wraps db as a repository.ArticleRepository.
func NewArticleRepo(db *sql.DB) repository.ArticleRepository {
	return &ArticleRepo{db: db}
}

const articleColumns = `
	id, post_id, url, title, content, html_content,
	blog_host, blog_host_type, published_on, failed_published_at,
	sim_hash, has_sim_hash,
	relevance, relevance_score, category, subcategory, classification_confidence,
	summary, source_id, created_at, updated_at`

func scanArticle(row interface{ Scan(...interface{}) error }) (*entity.Article, error) {
	var a entity.Article
	var simHash int64
	err := row.Scan(
		&a.ID, &a.PostID, &a.URL, &a.Title, &a.Content, &a.HTMLContent,
		&a.BlogHost, &a.BlogHostType, &a.PublishedOn, &a.FailedPublishedAt,
		&simHash, &a.HasSimHash,
		&a.Relevance, &a.RelevanceScore, &a.Category, &a.Subcategory, &a.ClassificationConfidence,
		&a.Summary, &a.SourceID, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	a.SimHash = uint64(simHash)
	return &a, nil
}

// InsertMany bulk-inserts candidates, skipping rows whose post_id or url
// already exists (I7 idempotency). The bare ON CONFLICT DO NOTHING absorbs
// a violation of either table's UNIQUE constraint, since link-less articles
// (empty url) can collide with each other on the url constraint even when
// their post_id values differ.
func (r *ArticleRepo) InsertMany(ctx context.Context, candidates []*entity.Article) (int, error) {
	if len(candidates) == 0 {
		return 0, nil
	}

	now := time.Now().UTC()
	inserted := 0
	for _, a := range candidates {
		const query = `
INSERT INTO articles
	(post_id, url, title, content, html_content, blog_host, blog_host_type,
	 published_on, failed_published_at, sim_hash, has_sim_hash,
	 relevance, relevance_score, category, subcategory, classification_confidence,
	 summary, source_id, created_at, updated_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
ON CONFLICT DO NOTHING`

		relevance := a.Relevance
		if relevance == "" {
			relevance = entity.RelevanceUnknown
		}

		res, err := r.db.ExecContext(ctx, query,
			a.PostID, a.URL, a.Title, a.Content, a.HTMLContent, a.BlogHost, a.BlogHostType,
			a.PublishedOn, a.FailedPublishedAt, int64(a.SimHash), a.HasSimHash,
			relevance, a.RelevanceScore, a.Category, a.Subcategory, a.ClassificationConfidence,
			a.Summary, a.SourceID, now, now,
		)
		if err != nil {
			return inserted, fmt.Errorf("InsertMany: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// ExistingURLs returns every URL already present, for Fetcher pre-filtering.
func (r *ArticleRepo) ExistingURLs(ctx context.Context) (map[string]bool, error) {
	const query = `SELECT url FROM articles`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ExistingURLs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistingURLs: Scan: %w", err)
		}
		out[url] = true
	}
	return out, rows.Err()
}

// ExistingURLsBatch reports, for each url in urls, whether it already
// exists; kept for callers that only need to check a known candidate set,
// using the teacher's pq.Array(ANY) batching technique.
func (r *ArticleRepo) ExistingURLsBatch(ctx context.Context, urls []string) (map[string]bool, error) {
	if len(urls) == 0 {
		return make(map[string]bool), nil
	}

	const query = `SELECT url FROM articles WHERE url = ANY($1)`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(urls))
	if err != nil {
		return nil, fmt.Errorf("ExistingURLsBatch: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := make(map[string]bool)
	for rows.Next() {
		var url string
		if err := rows.Scan(&url); err != nil {
			return nil, fmt.Errorf("ExistingURLsBatch: Scan: %w", err)
		}
		out[url] = true
	}
	return out, rows.Err()
}

func (r *ArticleRepo) SelectUnchecked(ctx context.Context, limit int) ([]*entity.Article, error) {
	query := fmt.Sprintf(`
SELECT %s FROM articles
WHERE relevance = $1
ORDER BY published_on DESC`, articleColumns)
	args := []interface{}{entity.RelevanceUnknown}
	if limit > 0 {
		query += " LIMIT $2"
		args = append(args, limit)
	}

	return r.queryArticles(ctx, "SelectUnchecked", query, args...)
}

func (r *ArticleRepo) SelectRelevantUnclassified(ctx context.Context, limit int) ([]*entity.Article, error) {
	query := fmt.Sprintf(`
SELECT %s FROM articles
WHERE relevance = $1 AND relevance_score >= $2 AND category = ''
ORDER BY published_on DESC`, articleColumns)
	args := []interface{}{entity.RelevanceTrue, 0.7}
	if limit > 0 {
		query += " LIMIT $3"
		args = append(args, limit)
	}

	return r.queryArticles(ctx, "SelectRelevantUnclassified", query, args...)
}

func (r *ArticleRepo) SelectByWindow(ctx context.Context, from, to time.Time, filter repository.WindowFilter) ([]*entity.Article, error) {
	conditions := []string{"published_on >= $1", "published_on <= $2"}
	args := []interface{}{from, to}

	if filter.OnlyRelevant {
		args = append(args, entity.RelevanceTrue, 0.7)
		conditions = append(conditions,
			fmt.Sprintf("relevance = $%d AND relevance_score >= $%d", len(args)-1, len(args)))
	}
	if filter.OnlyClassified {
		conditions = append(conditions, "category <> ''")
	}

	query := fmt.Sprintf(`
SELECT %s FROM articles
WHERE %s
ORDER BY published_on DESC`, articleColumns, strings.Join(conditions, " AND "))

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	return r.queryArticles(ctx, "SelectByWindow", query, args...)
}

func (r *ArticleRepo) queryArticles(ctx context.Context, op, query string, args ...interface{}) ([]*entity.Article, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	articles := make([]*entity.Article, 0, 64)
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		articles = append(articles, a)
	}
	return articles, rows.Err()
}

// UpdateRelevanceBatch applies relevance judgments inside a single
// transaction; a failure partway through rolls back the whole batch rather
// than leaving it half-applied.
func (r *ArticleRepo) UpdateRelevanceBatch(ctx context.Context, updates map[string]repository.RelevanceUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("UpdateRelevanceBatch: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
UPDATE articles SET
	relevance = $1, relevance_score = $2, updated_at = $3
WHERE post_id = $4`

	now := time.Now().UTC()
	updated := 0
	for postID, u := range updates {
		relevance := entity.RelevanceFalse
		if u.Relevant {
			relevance = entity.RelevanceTrue
		}
		res, err := tx.ExecContext(ctx, query, relevance, u.Score, now, postID)
		if err != nil {
			return updated, fmt.Errorf("UpdateRelevanceBatch: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return updated, fmt.Errorf("UpdateRelevanceBatch: commit: %w", err)
	}
	return updated, nil
}

func (r *ArticleRepo) UpdateClassificationBatch(ctx context.Context, updates map[string]repository.ClassificationUpdate) (int, error) {
	if len(updates) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("UpdateClassificationBatch: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `
UPDATE articles SET
	category = $1, subcategory = $2, classification_confidence = $3, updated_at = $4
WHERE post_id = $5`

	now := time.Now().UTC()
	updated := 0
	for postID, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.Category, u.Subcategory, u.Confidence, now, postID)
		if err != nil {
			return updated, fmt.Errorf("UpdateClassificationBatch: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return updated, fmt.Errorf("UpdateClassificationBatch: commit: %w", err)
	}
	return updated, nil
}

func (r *ArticleRepo) UpdateSummaries(ctx context.Context, summaries []repository.PostSummary) (int, error) {
	if len(summaries) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("UpdateSummaries: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	const query = `UPDATE articles SET summary = $1, updated_at = $2 WHERE post_id = $3`

	now := time.Now().UTC()
	updated := 0
	for _, s := range summaries {
		res, err := tx.ExecContext(ctx, query, s.Summary, now, s.PostID)
		if err != nil {
			return updated, fmt.Errorf("UpdateSummaries: %w", err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			updated++
		}
	}

	if err := tx.Commit(); err != nil {
		return updated, fmt.Errorf("UpdateSummaries: commit: %w", err)
	}
	return updated, nil
}

func (r *ArticleRepo) DeleteIrrelevant(ctx context.Context) (int, error) {
	const query = `DELETE FROM articles WHERE relevance = $1`
	res, err := r.db.ExecContext(ctx, query, entity.RelevanceFalse)
	if err != nil {
		return 0, fmt.Errorf("DeleteIrrelevant: %w", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (r *ArticleRepo) CountAll(ctx context.Context) (int64, error) {
	const query = `SELECT COUNT(*) FROM articles`
	var count int64
	if err := r.db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("CountAll: %w", err)
	}
	return count, nil
}
