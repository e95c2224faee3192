package notify

import (
	"fmt"

	"reputwatch/internal/infra/notifier"
)

// messageSizeLimit is the wire contract's maximum length for a single
// message's text field.
const messageSizeLimit = 4096

// renderDigestItem renders item as one or more notifier.Message values. If
// the combined rendering fits within messageSizeLimit, a single message is
// returned; otherwise the item is split per-field (title, body, source
// link) and each field is sent as its own message.
func renderDigestItem(item DigestItem) []notifier.Message {
	combined := renderCombined(item)
	if len(combined) <= messageSizeLimit {
		return []notifier.Message{
			{
				Text:                  combined,
				ParseMode:             defaultParseMode,
				DisableWebPagePreview: false,
			},
		}
	}

	messages := make([]notifier.Message, 0, 3)
	if title := renderTitle(item); title != "" {
		messages = append(messages, notifier.Message{
			Text:      title,
			ParseMode: defaultParseMode,
		})
	}
	if body := renderBody(item); body != "" {
		messages = append(messages, notifier.Message{
			Text:      truncateToLimit(body),
			ParseMode: defaultParseMode,
		})
	}
	if item.SourceURL != "" {
		messages = append(messages, notifier.Message{
			Text:                  item.SourceURL,
			ParseMode:             defaultParseMode,
			DisableWebPagePreview: false,
		})
	}
	return messages
}

func renderCombined(item DigestItem) string {
	title := renderTitle(item)
	body := renderBody(item)
	if item.SourceURL == "" {
		return fmt.Sprintf("%s\n\n%s", title, body)
	}
	return fmt.Sprintf("%s\n\n%s\n\n%s", title, body, item.SourceURL)
}

func renderTitle(item DigestItem) string {
	if item.Category != "" {
		return fmt.Sprintf("[%s] %s", item.Category, item.Title)
	}
	return item.Title
}

func renderBody(item DigestItem) string {
	return item.Summary
}

func truncateToLimit(text string) string {
	if len(text) <= messageSizeLimit {
		return text
	}
	const suffix = "..."
	cut := messageSizeLimit - len(suffix)
	if cut < 0 {
		cut = 0
	}
	return text[:cut] + suffix
}
