// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Article and FeedSource, along with
// their validation rules and domain-specific errors.
package entity

import "time"

// BlogHostType classifies the kind of source an article originated from.
type BlogHostType string

const (
	BlogHostOther     BlogHostType = "OTHER"
	BlogHostBlog      BlogHostType = "BLOG"
	BlogHostMicroblog BlogHostType = "MICROBLOG"
	BlogHostSocial    BlogHostType = "SOCIAL"
	BlogHostForum     BlogHostType = "FORUM"
	BlogHostMedia     BlogHostType = "MEDIA"
	BlogHostReview    BlogHostType = "REVIEW"
	BlogHostMessenger BlogHostType = "MESSENGER"
)

// Relevance is the three-valued relevance judgment asserted by the LLM orchestrator.
type Relevance string

const (
	RelevanceUnknown Relevance = "unknown"
	RelevanceTrue    Relevance = "true"
	RelevanceFalse   Relevance = "false"
)

// Article represents a single ingested news item and its pipeline lifecycle state.
//
// Lifecycle is monotone: ingested -> relevance-checked -> classified -> summarized.
// Fields move from null/unknown to set; normal pipeline operation never clears them (I7).
type Article struct {
	ID     int64
	PostID string // stable opaque id, "rss_" + md5(url), or md5(source|title|published) fallback
	URL    string
	Title  string

	Content     string // plain text body
	HTMLContent string // original markup, optional

	BlogHost     string
	BlogHostType BlogHostType

	PublishedOn       time.Time
	FailedPublishedAt bool // set when published_on could not be parsed and fell back to fetch time

	SimHash    uint64 // 64-bit fingerprint of normalized content
	HasSimHash bool   // distinguishes "hash is 0" from "hash was never computed"

	Relevance      Relevance
	RelevanceScore float64 // meaningful only when Relevance != unknown

	Category    string // empty until classified
	Subcategory string // empty until classified, or classification left it blank

	ClassificationConfidence float64

	Summary string // empty until summarized

	SourceID  int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsClassified reports whether the article has been assigned a category.
func (a *Article) IsClassified() bool {
	return a.Category != ""
}

// IsSummarized reports whether the article has a persisted summary.
func (a *Article) IsSummarized() bool {
	return a.Summary != ""
}

// IsStronglyRelevant reports the gate used throughout the pipeline for
// "relevant enough to classify/summarize": relevance=true and score >= 0.7 (I3).
func (a *Article) IsStronglyRelevant() bool {
	return a.Relevance == RelevanceTrue && a.RelevanceScore >= 0.7
}

// CombinedText returns the text used by the dedup engine and LLM prompts:
// title and content concatenated with a single space.
func (a *Article) CombinedText() string {
	if a.Title == "" {
		return a.Content
	}
	if a.Content == "" {
		return a.Title
	}
	return a.Title + " " + a.Content
}
