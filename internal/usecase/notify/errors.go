package notify

import "errors"

// Sentinel errors for notify use case operations.
var (
	// ErrChannelDisabled indicates that Deliver() was called on a disabled channel.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrNoChannelsEnabled indicates that DeliverDigest/DeliverNoStoriesNotice
	// was called but no delivery channel is enabled in the configuration.
	ErrNoChannelsEnabled = errors.New("no delivery channels enabled")

	// ErrInvalidDigestItem indicates that a DigestItem is missing required
	// fields (Title or PostID).
	ErrInvalidDigestItem = errors.New("invalid digest item")

	// ErrCircuitBreakerOpen indicates that the circuit breaker is open for this channel
	// and deliveries are being rejected to prevent continuous failures.
	// The circuit breaker will automatically close after the timeout period.
	ErrCircuitBreakerOpen = errors.New("circuit breaker is open for this channel")
)
