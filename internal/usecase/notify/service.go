// Package notify dispatches the daily digest to configured chat-delivery
// channels (Discord, Slack), applying retry with backoff and a circuit
// breaker per channel around the underlying webhook call.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"reputwatch/internal/infra/notifier"
	"reputwatch/internal/observability/metrics"
	"reputwatch/internal/resilience/circuitbreaker"
	"reputwatch/internal/resilience/retry"

	"github.com/sony/gobreaker"
)

// defaultParseMode is the wire-contract parse_mode label used for all
// delivered messages, per the HTML-by-default wire contract.
const defaultParseMode = "HTML"

// maxDeliveryAttempts bounds how many times a single message is retried
// before its outcome is recorded as a failure.
const maxDeliveryAttempts = 3

// interMessagePauseMin/Max bound the randomized pause between successive
// messages sent to the same channel (used both between split parts of one
// item and between distinct digest items).
const (
	interMessagePauseMin = 1000 * time.Millisecond
	interMessagePauseMax = 1500 * time.Millisecond
)

// DeliveryOutcome reports what happened when one digest item was delivered
// to one channel.
type DeliveryOutcome struct {
	Channel   string
	PostID    string
	Delivered bool
	Err       error
}

// ChannelHealthStatus represents the health status of a notification channel.
type ChannelHealthStatus struct {
	Name               string
	Enabled            bool
	CircuitBreakerOpen bool
}

// Service delivers the daily digest to all enabled channels.
type Service interface {
	// DeliverDigest sends each item to every enabled channel. It never
	// returns an error for a single delivery failure: failures are
	// reported per-item/per-channel in the returned slice so the caller
	// (the daily pipeline) can still record and archive the digest and
	// continue the run.
	DeliverDigest(ctx context.Context, items []DigestItem) []DeliveryOutcome

	// DeliverNoStoriesNotice sends a "no stories found" notification to
	// all enabled channels.
	DeliverNoStoriesNotice(ctx context.Context) error

	// GetChannelHealth returns the circuit breaker state of all channels.
	GetChannelHealth() []ChannelHealthStatus
}

type service struct {
	channels []Channel
	retry    retry.Config
	breakers map[string]*circuitbreaker.CircuitBreaker
	mu       sync.Mutex
}

// NewService creates a notification service that delivers to the given
// channels. A circuit breaker is created per channel so one failing
// destination does not affect delivery to the others.
func NewService(channels []Channel) Service {
	breakers := make(map[string]*circuitbreaker.CircuitBreaker, len(channels))
	for _, ch := range channels {
		cfg := circuitbreaker.DeliveryWebhookConfig()
		cfg.Name = fmt.Sprintf("delivery-webhook-%s", ch.Name())
		breakers[ch.Name()] = circuitbreaker.New(cfg)
	}

	return &service{
		channels: channels,
		retry:    retry.DeliveryConfig(),
		breakers: breakers,
	}
}

// DeliverDigest implements Service.DeliverDigest.
func (s *service) DeliverDigest(ctx context.Context, items []DigestItem) []DeliveryOutcome {
	outcomes := make([]DeliveryOutcome, 0, len(items)*len(s.channels))

	first := true
	for _, item := range items {
		for _, ch := range s.channels {
			if !ch.IsEnabled() {
				continue
			}

			for _, msg := range renderDigestItem(item) {
				if !first {
					sleepInterMessage(ctx)
				}
				first = false

				err := s.deliverWithRetry(ctx, ch, msg)
				outcomes = append(outcomes, DeliveryOutcome{
					Channel:   ch.Name(),
					PostID:    item.PostID,
					Delivered: err == nil,
					Err:       err,
				})
				if err != nil {
					slog.Error("digest item delivery failed",
						slog.String("channel", ch.Name()),
						slog.String("post_id", item.PostID),
						slog.Any("error", err))
					break
				}
			}
		}
	}

	return outcomes
}

// DeliverNoStoriesNotice implements Service.DeliverNoStoriesNotice.
func (s *service) DeliverNoStoriesNotice(ctx context.Context) error {
	msg := notifier.Message{
		Text:      "No stories found for today's digest.",
		ParseMode: defaultParseMode,
	}

	var lastErr error
	first := true
	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		if !first {
			sleepInterMessage(ctx)
		}
		first = false

		if err := s.deliverWithRetry(ctx, ch, msg); err != nil {
			slog.Error("no-stories notice delivery failed",
				slog.String("channel", ch.Name()),
				slog.Any("error", err))
			lastErr = err
		}
	}
	return lastErr
}

// deliverWithRetry sends msg through ch's circuit breaker, retrying
// transient failures up to maxDeliveryAttempts. A 429 response honors the
// server's retry_after hint instead of the configured backoff delay,
// matching the wire contract's rate-limit behavior.
func (s *service) deliverWithRetry(ctx context.Context, ch Channel, msg notifier.Message) error {
	breaker := s.breakerFor(ch.Name())
	start := time.Now()

	delay := s.retry.InitialDelay
	var lastErr error

	for attempt := 1; attempt <= maxDeliveryAttempts; attempt++ {
		_, err := breaker.Execute(func() (interface{}, error) {
			return nil, ch.Deliver(ctx, msg)
		})

		if err == nil {
			metrics.RecordDigestDelivery(ch.Name(), "success", time.Since(start))
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) {
			slog.Warn("delivery circuit breaker open, rejecting",
				slog.String("channel", ch.Name()),
				slog.String("state", breaker.State().String()))
			metrics.RecordDigestDelivery(ch.Name(), "circuit_open", time.Since(start))
			return ErrCircuitBreakerOpen
		}

		lastErr = err

		if rle, ok := is429(err); ok {
			if attempt == maxDeliveryAttempts {
				break
			}
			sleepFor(ctx, rle)
			continue
		}

		if !isRetryable(err) {
			break
		}

		if attempt == maxDeliveryAttempts {
			break
		}

		sleepFor(ctx, delay)
		delay = time.Duration(float64(delay) * s.retry.Multiplier)
		if delay > s.retry.MaxDelay {
			delay = s.retry.MaxDelay
		}
	}

	metrics.RecordDigestDelivery(ch.Name(), "failure", time.Since(start))
	return lastErr
}

func (s *service) breakerFor(channel string) *circuitbreaker.CircuitBreaker {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.breakers[channel]
}

// GetChannelHealth implements Service.GetChannelHealth.
func (s *service) GetChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))
	for _, ch := range s.channels {
		breaker := s.breakerFor(ch.Name())
		statuses = append(statuses, ChannelHealthStatus{
			Name:               ch.Name(),
			Enabled:            ch.IsEnabled(),
			CircuitBreakerOpen: breaker != nil && breaker.IsOpen(),
		})
	}
	return statuses
}

// is429 extracts a retry-after hint from a notifier.RateLimitError, looking
// through the notifier package's webhook-specific error types.
func is429(err error) (time.Duration, bool) {
	var rateLimitErr *notifier.RateLimitError
	if errors.As(err, &rateLimitErr) {
		return rateLimitErr.RetryAfter, true
	}
	return 0, false
}

// isRetryable mirrors notifier's own client/server error classification so
// the service layer's retry loop agrees with what the webhook actually
// reported.
func isRetryable(err error) bool {
	var clientErr *notifier.ClientError
	if errors.As(err, &clientErr) {
		return false
	}
	return true
}

// sleepInterMessage pauses for a randomized 1-1.5s interval between
// successive digest messages, honoring context cancellation.
func sleepInterMessage(ctx context.Context) {
	jitterRange := interMessagePauseMax - interMessagePauseMin
	// #nosec G404 -- non-cryptographic jitter for pacing, not security sensitive.
	d := interMessagePauseMin + time.Duration(rand.Int63n(int64(jitterRange)))
	sleepFor(ctx, d)
}

// sleepFor waits for d or until ctx is done, whichever comes first.
func sleepFor(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
