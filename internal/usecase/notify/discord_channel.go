package notify

import (
	"context"

	"reputwatch/internal/infra/notifier"
)

// DiscordChannel implements Channel by wrapping notifier.DiscordNotifier.
type DiscordChannel struct {
	notifier notifier.Notifier
	enabled  bool
}

// NewDiscordChannel creates a Discord channel. If disabled, a NoOpNotifier
// backs it so the Channel interface contract always holds.
func NewDiscordChannel(config notifier.DiscordConfig) *DiscordChannel {
	var n notifier.Notifier
	if config.Enabled {
		n = notifier.NewDiscordNotifier(config)
	} else {
		n = notifier.NewNoOpNotifier()
	}

	return &DiscordChannel{notifier: n, enabled: config.Enabled}
}

func (c *DiscordChannel) Name() string {
	return "discord"
}

func (c *DiscordChannel) IsEnabled() bool {
	return c.enabled
}

func (c *DiscordChannel) Deliver(ctx context.Context, msg notifier.Message) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	return c.notifier.Deliver(ctx, msg)
}
