package postgres_test

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reputwatch/internal/domain/entity"
	pg "reputwatch/internal/infra/persistence/postgres"
)

func sourceRow(s *entity.FeedSource) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "url", "category", "priority", "timeout_seconds", "last_crawled_at", "active"}).
		AddRow(s.ID, s.Name, s.URL, s.Category, s.Priority, nil, s.LastCrawledAt, s.Active)
}

func TestSourceRepo_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	want := &entity.FeedSource{ID: 1, Name: "example", URL: "https://example.com/feed", Priority: entity.PriorityHigh, Active: true}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, url, category, priority, timeout_seconds, last_crawled_at, active FROM sources WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(sourceRow(want))

	repo := pg.NewSourceRepo(db)
	got, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.Priority, got.Priority)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceRepo_ListActive(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	a := &entity.FeedSource{ID: 1, Name: "a", URL: "https://a.example.com/feed", Priority: entity.PriorityHigh, Active: true}
	b := &entity.FeedSource{ID: 2, Name: "b", URL: "https://b.example.com/feed", Priority: entity.PriorityLow, Active: true}

	rows := sqlmock.NewRows([]string{"id", "name", "url", "category", "priority", "timeout_seconds", "last_crawled_at", "active"}).
		AddRow(a.ID, a.Name, a.URL, a.Category, a.Priority, nil, a.LastCrawledAt, a.Active).
		AddRow(b.ID, b.Name, b.URL, b.Category, b.Priority, nil, b.LastCrawledAt, b.Active)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE active = TRUE")).WillReturnRows(rows)

	repo := pg.NewSourceRepo(db)
	got, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceRepo_Upsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO sources")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	repo := pg.NewSourceRepo(db)
	source := &entity.FeedSource{Name: "new-source", URL: "https://new.example.com/feed", Priority: entity.PriorityMedium, Active: true}
	err = repo.Upsert(context.Background(), source)
	require.NoError(t, err)
	assert.Equal(t, int64(7), source.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSourceRepo_TouchCrawledAt(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sources SET last_crawled_at = $1 WHERE id = $2")).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := pg.NewSourceRepo(db)
	err = repo.TouchCrawledAt(context.Background(), 1, time.Now())
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
