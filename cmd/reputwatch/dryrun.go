package main

import (
	"context"
	"fmt"

	"reputwatch/internal/usecase/notify"
)

// dryRunNotifier implements notify.Service by printing each digest item to
// stdout instead of delivering it, grounded on the origin pipeline's
// standalone test-digest script: run the real selection pipeline, swap only
// the last step.
type dryRunNotifier struct{}

func (dryRunNotifier) DeliverDigest(ctx context.Context, items []notify.DigestItem) []notify.DeliveryOutcome {
	outcomes := make([]notify.DeliveryOutcome, 0, len(items))
	for i, item := range items {
		fmt.Printf("--- story %d ---\ntitle: %s\ncategory: %s\nsource: %s\nsummary: %s\n\n",
			i+1, item.Title, item.Category, item.SourceURL, item.Summary)
		outcomes = append(outcomes, notify.DeliveryOutcome{Channel: "dry-run", PostID: item.PostID, Delivered: true})
	}
	return outcomes
}

func (dryRunNotifier) DeliverNoStoriesNotice(ctx context.Context) error {
	fmt.Println("no stories found for today's digest")
	return nil
}

func (dryRunNotifier) GetChannelHealth() []notify.ChannelHealthStatus {
	return nil
}
