// Package notify dispatches the daily digest to configured chat-delivery
// channels (Discord, Slack), applying retry with backoff and a circuit
// breaker per channel around the underlying webhook call.
package notify

import (
	"context"

	"reputwatch/internal/infra/notifier"
)

// DigestItem is one story in the daily digest: a summarized, deduplicated
// article ready for delivery.
type DigestItem struct {
	PostID    string
	Title     string
	Summary   string
	SourceURL string
	Category  string
}

// Channel represents a chat-delivery channel (Discord, Slack, ...).
// Implementations translate a DigestItem into one or more wire messages and
// delegate the actual HTTP call to an infra/notifier.Notifier.
type Channel interface {
	// Name returns the channel identifier used for logging and metrics
	// labels (lowercase, e.g. "discord").
	Name() string

	// IsEnabled returns true if this channel is configured and should
	// receive digest deliveries.
	IsEnabled() bool

	// Deliver sends one already-rendered message to this channel.
	Deliver(ctx context.Context, msg notifier.Message) error
}
