package notify

import (
	"context"

	"reputwatch/internal/infra/notifier"
)

// SlackChannel implements Channel by wrapping notifier.SlackNotifier.
type SlackChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewSlackChannel creates a Slack channel. If disabled, a NoOpNotifier backs
// it so the Channel interface contract always holds.
func NewSlackChannel(config notifier.SlackConfig) *SlackChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewSlackNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &SlackChannel{notifier: n, enabled: config.Enabled}
}

func (c *SlackChannel) Name() string {
	return "slack"
}

func (c *SlackChannel) IsEnabled() bool {
	return c.enabled
}

func (c *SlackChannel) Deliver(ctx context.Context, msg notifier.Message) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	return c.notifier.Deliver(ctx, msg)
}
