package fetcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reputwatch/internal/domain/entity"
)

type fakeParser struct {
	feeds map[string]*gofeed.Feed
	errs  map[string]error
	calls int
}

func (f *fakeParser) ParseURLWithContext(_ context.Context, feedURL string) (*gofeed.Feed, error) {
	f.calls++
	if err, ok := f.errs[feedURL]; ok {
		return nil, err
	}
	return f.feeds[feedURL], nil
}

func mustTime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestFetchAll_FiltersToWindow(t *testing.T) {
	parser := &fakeParser{feeds: map[string]*gofeed.Feed{
		"http://example.com/feed": {
			Items: []*gofeed.Item{
				{Title: "inside window", Link: "http://example.com/a", Description: "body a", PublishedParsed: mustTime("2026-07-31T10:00:00Z")},
				{Title: "outside window", Link: "http://example.com/b", Description: "body b", PublishedParsed: mustTime("2026-07-01T10:00:00Z")},
			},
		},
	}}

	f := New(parser, nil, Options{Concurrency: 2, SourceTimeout: time.Second, DefaultRetries: 1})
	sources := []*entity.FeedSource{
		{ID: 1, Name: "example", URL: "http://example.com/feed", Priority: entity.PriorityHigh, Active: true},
	}

	from, _ := time.Parse(time.RFC3339, "2026-07-30T00:00:00Z")
	to, _ := time.Parse(time.RFC3339, "2026-08-01T00:00:00Z")

	articles, err := f.FetchAll(context.Background(), sources, from, to)
	require.NoError(t, err)
	require.Len(t, articles, 1)
	assert.Equal(t, "inside window", articles[0].Title)
	assert.True(t, articles[0].HasSimHash)
}

func TestFetchAll_SkipsInactiveSources(t *testing.T) {
	parser := &fakeParser{feeds: map[string]*gofeed.Feed{}}
	f := New(parser, nil, Options{})
	sources := []*entity.FeedSource{
		{ID: 1, Name: "inactive", URL: "http://example.com/feed", Priority: entity.PriorityHigh, Active: false},
	}

	articles, err := f.FetchAll(context.Background(), sources, time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Empty(t, articles)
	assert.Equal(t, 0, parser.calls)
}

func TestFetchAll_RecordsHealthOnError(t *testing.T) {
	parser := &fakeParser{errs: map[string]error{
		"http://broken.example.com/feed": errors.New("connection refused"),
	}}
	f := New(parser, nil, Options{Concurrency: 1, SourceTimeout: time.Second, DefaultRetries: 1})
	sources := []*entity.FeedSource{
		{ID: 9, Name: "broken", URL: "http://broken.example.com/feed", Priority: entity.PriorityMedium, Active: true},
	}

	_, err := f.FetchAll(context.Background(), sources, time.Time{}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, "ERROR", f.Health().LastStatus(9))
}

func TestFetchAll_GroupsByPriorityAscending(t *testing.T) {
	var order []string
	parser := &orderTrackingParser{order: &order}
	f := New(parser, nil, Options{Concurrency: 1})
	sources := []*entity.FeedSource{
		{ID: 1, Name: "low", URL: "low", Priority: entity.PriorityLow, Active: true},
		{ID: 2, Name: "high", URL: "high", Priority: entity.PriorityHigh, Active: true},
		{ID: 3, Name: "medium", URL: "medium", Priority: entity.PriorityMedium, Active: true},
	}

	_, err := f.FetchAll(context.Background(), sources, time.Time{}, time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{"high", "medium", "low"}, order)
}

type orderTrackingParser struct {
	order *[]string
}

func (p *orderTrackingParser) ParseURLWithContext(_ context.Context, feedURL string) (*gofeed.Feed, error) {
	*p.order = append(*p.order, feedURL)
	return &gofeed.Feed{}, nil
}

func TestBackoffDelay_GrowsExponentially(t *testing.T) {
	d1 := backoffDelay(1)
	d3 := backoffDelay(3)
	assert.GreaterOrEqual(t, d1, 2*time.Second)
	assert.Less(t, d1, 3*time.Second)
	assert.GreaterOrEqual(t, d3, 8*time.Second)
	assert.Less(t, d3, 9*time.Second)
}
