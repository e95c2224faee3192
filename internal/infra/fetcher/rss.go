package fetcher

import (
	"context"
	"time"

	"github.com/mmcdole/gofeed"
)

// FeedParser fetches and parses a single RSS/Atom feed URL. Satisfied by
// *gofeed.Parser; an interface here lets tests substitute a fake.
type FeedParser interface {
	ParseURLWithContext(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

// NewFeedParser returns the default gofeed-backed parser.
func NewFeedParser() FeedParser {
	return gofeed.NewParser()
}

// rawEntry is the subset of a parsed feed item the Fetcher needs, decoupled
// from gofeed's type so the rest of the package doesn't import it.
type rawEntry struct {
	Title       string
	Link        string
	Body        string // richest of content/summary/description, HTML
	PublishedOn time.Time
	HadInstant  bool // false means neither published nor updated parsed
}

func extractEntries(feed *gofeed.Feed) []rawEntry {
	entries := make([]rawEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		body := richestBody(item.Content, item.Description)

		var published time.Time
		hadInstant := false
		switch {
		case item.PublishedParsed != nil:
			published = *item.PublishedParsed
			hadInstant = true
		case item.UpdatedParsed != nil:
			published = *item.UpdatedParsed
			hadInstant = true
		}

		entries = append(entries, rawEntry{
			Title:       item.Title,
			Link:        item.Link,
			Body:        body,
			PublishedOn: published,
			HadInstant:  hadInstant,
		})
	}
	return entries
}
