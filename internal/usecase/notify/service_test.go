package notify

import (
	"context"
	"errors"
	"testing"

	"reputwatch/internal/infra/notifier"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliverDigest_NoChannelsEnabled(t *testing.T) {
	// Arrange
	channels := []Channel{
		&mockChannel{name: "discord", enabled: false},
		&mockChannel{name: "slack", enabled: false},
	}
	svc := NewService(channels)

	// Act
	outcomes := svc.DeliverDigest(context.Background(), singleItemDigest())

	// Assert
	assert.Empty(t, outcomes)
	for _, ch := range channels {
		mock := ch.(*mockChannel)
		assert.Equal(t, 0, mock.getDeliverCalledCount())
	}
}

func TestDeliverDigest_SingleChannel(t *testing.T) {
	// Arrange
	mock := &mockChannel{name: "discord", enabled: true}
	svc := NewService([]Channel{mock})

	// Act
	outcomes := svc.DeliverDigest(context.Background(), singleItemDigest())

	// Assert
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Delivered)
	assert.Equal(t, "discord", outcomes[0].Channel)
	assert.Equal(t, 1, mock.getDeliverCalledCount())
}

func TestDeliverDigest_MultipleChannels(t *testing.T) {
	// Arrange
	mock1 := &mockChannel{name: "discord", enabled: true}
	mock2 := &mockChannel{name: "slack", enabled: true}
	mock3 := &mockChannel{name: "email", enabled: false}
	svc := NewService([]Channel{mock1, mock2, mock3})

	// Act
	outcomes := svc.DeliverDigest(context.Background(), singleItemDigest())

	// Assert
	require.Len(t, outcomes, 2)
	assert.Equal(t, 1, mock1.getDeliverCalledCount(), "discord should receive the digest")
	assert.Equal(t, 1, mock2.getDeliverCalledCount(), "slack should receive the digest")
	assert.Equal(t, 0, mock3.getDeliverCalledCount(), "disabled channel should not receive anything")
}

func TestDeliverDigest_RetriesTransientFailureThenSucceeds(t *testing.T) {
	// Arrange - fails twice with a retryable (non-ClientError) error, then succeeds.
	mock := &mockChannel{name: "discord", enabled: true}
	failures := 2
	mock.deliverError = errors.New("temporary network blip")

	wrapped := &flakyChannel{mockChannel: mock, failuresLeft: &failures}
	svc := NewService([]Channel{wrapped})

	// Act
	outcomes := svc.DeliverDigest(context.Background(), singleItemDigest())

	// Assert
	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Delivered)
	assert.Equal(t, 3, mock.getDeliverCalledCount(), "expected 2 failed attempts then 1 success")
}

func TestDeliverDigest_NonRetryableFailureStopsImmediately(t *testing.T) {
	// Arrange
	mock := &mockChannel{name: "discord", enabled: true}
	svc := NewService([]Channel{mock})
	mock.setDeliverError(&notifier.ClientError{StatusCode: 400, Message: "bad webhook payload"})

	// Act
	outcomes := svc.DeliverDigest(context.Background(), singleItemDigest())

	// Assert
	require.Len(t, outcomes, 1)
	assert.False(t, outcomes[0].Delivered)
	assert.Equal(t, 1, mock.getDeliverCalledCount(), "a non-retryable error should not be retried")
}

func TestDeliverNoStoriesNotice_SendsToEnabledChannels(t *testing.T) {
	// Arrange
	mock1 := &mockChannel{name: "discord", enabled: true}
	mock2 := &mockChannel{name: "slack", enabled: false}
	svc := NewService([]Channel{mock1, mock2})

	// Act
	err := svc.DeliverNoStoriesNotice(context.Background())

	// Assert
	assert.NoError(t, err)
	assert.Equal(t, 1, mock1.getDeliverCalledCount())
	assert.Equal(t, 0, mock2.getDeliverCalledCount())
	require.Len(t, mock1.messages, 1)
	assert.NotEmpty(t, mock1.messages[0].Text)
}

func TestGetChannelHealth(t *testing.T) {
	// Arrange
	mock1 := &mockChannel{name: "discord", enabled: true}
	mock2 := &mockChannel{name: "slack", enabled: false}
	svc := NewService([]Channel{mock1, mock2})

	// Act
	health := svc.GetChannelHealth()

	// Assert
	assert.Len(t, health, 2)

	var discordHealth, slackHealth *ChannelHealthStatus
	for i := range health {
		switch health[i].Name {
		case "discord":
			discordHealth = &health[i]
		case "slack":
			slackHealth = &health[i]
		}
	}

	require.NotNil(t, discordHealth)
	assert.True(t, discordHealth.Enabled)
	assert.False(t, discordHealth.CircuitBreakerOpen)

	require.NotNil(t, slackHealth)
	assert.False(t, slackHealth.Enabled)
	assert.False(t, slackHealth.CircuitBreakerOpen)
}

// flakyChannel fails failuresLeft times then delegates to mockChannel.
type flakyChannel struct {
	*mockChannel
	failuresLeft *int
}

func (f *flakyChannel) Deliver(ctx context.Context, msg notifier.Message) error {
	if *f.failuresLeft > 0 {
		*f.failuresLeft--
		return f.mockChannel.Deliver(ctx, msg)
	}
	mock := f.mockChannel
	saved := mock.deliverError
	mock.setDeliverError(nil)
	err := mock.Deliver(ctx, msg)
	mock.setDeliverError(saved)
	return err
}

