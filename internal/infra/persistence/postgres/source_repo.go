package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"reputwatch/internal/domain/entity"
	"reputwatch/internal/repository"
)

// SourceRepo implements repository.SourceRepository against the sources
// table. Grounded on the teacher's postgres.SourceRepo (same scan-helper and
// error-wrapping shape), generalized to entity.FeedSource's priority/timeout
// fields.
type SourceRepo struct{ db *sql.DB }

// NewSourceRepo wraps db as a repository.SourceRepository.
func NewSourceRepo(db *sql.DB) repository.SourceRepository {
	return &SourceRepo{db: db}
}

func scanSource(row interface{ Scan(...interface{}) error }) (*entity.FeedSource, error) {
	var s entity.FeedSource
	var timeoutSeconds sql.NullInt64
	err := row.Scan(&s.ID, &s.Name, &s.URL, &s.Category, &s.Priority,
		&timeoutSeconds, &s.LastCrawledAt, &s.Active)
	if err != nil {
		return nil, err
	}
	if timeoutSeconds.Valid {
		s.Timeout = time.Duration(timeoutSeconds.Int64) * time.Second
	}
	return &s, nil
}

const sourceColumns = `id, name, url, category, priority, timeout_seconds, last_crawled_at, active`

func (r *SourceRepo) Get(ctx context.Context, id int64) (*entity.FeedSource, error) {
	query := fmt.Sprintf(`SELECT %s FROM sources WHERE id = $1 LIMIT 1`, sourceColumns)
	s, err := scanSource(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return s, nil
}

func (r *SourceRepo) List(ctx context.Context) ([]*entity.FeedSource, error) {
	query := fmt.Sprintf(`SELECT %s FROM sources ORDER BY priority ASC, id ASC`, sourceColumns)
	return r.querySources(ctx, "List", query)
}

func (r *SourceRepo) ListActive(ctx context.Context) ([]*entity.FeedSource, error) {
	query := fmt.Sprintf(`SELECT %s FROM sources WHERE active = TRUE ORDER BY priority ASC, id ASC`, sourceColumns)
	return r.querySources(ctx, "ListActive", query)
}

func (r *SourceRepo) querySources(ctx context.Context, op, query string, args ...interface{}) ([]*entity.FeedSource, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	sources := make([]*entity.FeedSource, 0, 64)
	for rows.Next() {
		s, err := scanSource(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		sources = append(sources, s)
	}
	return sources, rows.Err()
}

// Upsert inserts a new source or updates an existing one matched by URL,
// used by the sources-file loader to reconcile config with the database.
func (r *SourceRepo) Upsert(ctx context.Context, source *entity.FeedSource) error {
	var timeoutSeconds sql.NullInt64
	if source.Timeout > 0 {
		timeoutSeconds = sql.NullInt64{Int64: int64(source.Timeout / time.Second), Valid: true}
	}

	const query = `
INSERT INTO sources (name, url, category, priority, timeout_seconds, last_crawled_at, active)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (url) DO UPDATE SET
	name = EXCLUDED.name,
	category = EXCLUDED.category,
	priority = EXCLUDED.priority,
	timeout_seconds = EXCLUDED.timeout_seconds,
	active = EXCLUDED.active
RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		source.Name, source.URL, source.Category, source.Priority,
		timeoutSeconds, source.LastCrawledAt, source.Active,
	).Scan(&source.ID)
}

func (r *SourceRepo) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM sources WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("Delete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("Delete: no rows affected")
	}
	return nil
}

func (r *SourceRepo) TouchCrawledAt(ctx context.Context, id int64, t time.Time) error {
	const query = `UPDATE sources SET last_crawled_at = $1 WHERE id = $2`
	_, err := r.db.ExecContext(ctx, query, t, id)
	if err != nil {
		return fmt.Errorf("TouchCrawledAt: %w", err)
	}
	return nil
}
