package notify

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/gridhook/gridhook/observability"
	"github.com/gridhook/gridhook/ratelimit"
)

// Config configures the dispatcher's retry and rate limit behavior.
type Config struct {
	// MaxRetries is the number of retries after the first attempt for
	// transient failures.
	MaxRetries int

	// RetryBase is the base delay; attempt n waits base*2^n plus jitter
	// drawn from [0, base).
	RetryBase time.Duration

	// RateLimit is the number of sends allowed per channel per RateWindow.
	// Zero disables rate limiting.
	RateLimit int

	// RateWindow is the sliding rate limit window.
	RateWindow time.Duration
}

// DefaultConfig returns the dispatcher defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		RetryBase:  500 * time.Millisecond,
		RateLimit:  60,
		RateWindow: time.Minute,
	}
}

// Dispatcher fans a notification out to its recipients, routing each to the
// provider for its channel. Recipients are independent: one failing does not
// stop the others, and the summary reports each outcome.
type Dispatcher struct {
	providers map[string]Provider
	cfg       Config
	limiter   *ratelimit.Limiter
	metrics   *observability.Metrics
	logger    *slog.Logger

	// sleep is replaceable in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatcher with the given providers.
func NewDispatcher(cfg Config, metrics *observability.Metrics, logger *slog.Logger, providers ...Provider) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Dispatcher{
		providers: make(map[string]Provider, len(providers)),
		cfg:       cfg,
		metrics:   metrics,
		logger:    logger,
		sleep:     sleepCtx,
	}
	if cfg.RateLimit > 0 {
		d.limiter = ratelimit.New(cfg.RateLimit, cfg.RateWindow)
	}
	for _, p := range providers {
		d.providers[p.Channel()] = p
	}
	return d
}

// Register adds or replaces the provider for its channel.
func (d *Dispatcher) Register(p Provider) {
	d.providers[p.Channel()] = p
}

// Dispatch delivers the notification to every recipient and returns the
// per-recipient summary. It returns an error only for invalid input; send
// failures are reported inside the summary.
func (d *Dispatcher) Dispatch(ctx context.Context, n *Notification) (*DeliverySummary, error) {
	if n == nil || len(n.Recipients) == 0 {
		return nil, fmt.Errorf("notification has no recipients")
	}
	if n.Priority == "" {
		n.Priority = PriorityNormal
	}
	if !n.Priority.Valid() {
		return nil, fmt.Errorf("invalid priority %q", n.Priority)
	}

	summary := &DeliverySummary{
		NotificationID: n.ID,
		Total:          len(n.Recipients),
		Outcomes:       make([]RecipientOutcome, 0, len(n.Recipients)),
	}

	for _, recipient := range n.Recipients {
		outcome := d.deliver(ctx, recipient, n)
		if outcome.Success {
			summary.Succeeded++
		} else {
			summary.Failed++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}

	if d.metrics != nil {
		result := "delivered"
		if summary.Failed > 0 {
			result = "partial"
			if summary.Succeeded == 0 {
				result = "failed"
			}
		}
		// Channel label reflects the first recipient's channel; mixed
		// batches are rare and per-recipient channels live in the summary.
		channel := "mixed"
		if len(summary.Outcomes) > 0 && summary.Outcomes[0].Channel != "" {
			channel = summary.Outcomes[0].Channel
		}
		var total time.Duration
		for _, o := range summary.Outcomes {
			total += o.Duration
		}
		d.metrics.RecordNotification(result, channel, string(n.Priority), summary.Total, summary.Failed, total)
	}

	return summary, nil
}

// deliver handles one recipient: channel inference, validation, rate limit,
// send with transient retry.
func (d *Dispatcher) deliver(ctx context.Context, recipient string, n *Notification) RecipientOutcome {
	start := time.Now()
	outcome := RecipientOutcome{Recipient: recipient}

	channel, err := ChannelFor(recipient)
	if err != nil {
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		return outcome
	}
	outcome.Channel = channel

	provider, ok := d.providers[channel]
	if !ok {
		outcome.Error = "no provider registered for channel " + channel
		outcome.Duration = time.Since(start)
		return outcome
	}

	if err := provider.ValidateRecipient(recipient); err != nil {
		outcome.Error = err.Error()
		outcome.Duration = time.Since(start)
		return outcome
	}

	if d.limiter != nil && !d.limiter.Allow(channel) {
		rlErr := &RateLimitError{Channel: channel}
		outcome.Error = rlErr.Error()
		outcome.Duration = time.Since(start)
		return outcome
	}

	for attempt := 0; ; attempt++ {
		outcome.Attempts = attempt + 1

		err := provider.Send(ctx, recipient, n)
		if err == nil {
			outcome.Success = true
			break
		}

		if IsPermanent(err) {
			outcome.Error = err.Error()
			d.logger.Warn("notification send failed permanently",
				"channel", channel, "recipient", recipient, "error", err)
			break
		}
		if attempt >= d.cfg.MaxRetries {
			outcome.Error = err.Error()
			d.logger.Warn("notification send exhausted retries",
				"channel", channel, "recipient", recipient,
				"attempts", outcome.Attempts, "error", err)
			break
		}

		delay := d.retryDelay(attempt)
		d.logger.Debug("retrying notification send",
			"channel", channel, "recipient", recipient,
			"attempt", outcome.Attempts, "delay", delay)
		if err := d.sleep(ctx, delay); err != nil {
			outcome.Error = err.Error()
			break
		}
	}

	outcome.Duration = time.Since(start)
	return outcome
}

// retryDelay is base*2^attempt plus jitter drawn from [0, base).
func (d *Dispatcher) retryDelay(attempt int) time.Duration {
	base := d.cfg.RetryBase
	if base <= 0 {
		base = 100 * time.Millisecond
	}
	delay := base << uint(attempt)
	return delay + time.Duration(rand.Int63n(int64(base)))
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
