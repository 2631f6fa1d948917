package delivery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
	"github.com/gridhook/gridhook/observability"
	"github.com/gridhook/gridhook/webhook"
)

// ErrWebhookInactive is returned when enqueueing a delivery for a disabled
// webhook.
var ErrWebhookInactive = errors.New("delivery: webhook is inactive")

// EngineStore is the interface the engine needs for delivery operations.
type EngineStore interface {
	Enqueue(ctx context.Context, d *Delivery) error
	Dequeue(ctx context.Context, limit int) ([]*Delivery, error)
	UpdateDelivery(ctx context.Context, d *Delivery) error
	GetWebhook(ctx context.Context, whID id.ID) (*webhook.Webhook, error)
	IncrDeliveryCounters(ctx context.Context, whID id.ID, success, failure int64, deliveredAt *time.Time) error
}

// DLQPusher records deliveries that ended abandoned or permanently failed.
type DLQPusher interface {
	PushFailed(ctx context.Context, d *Delivery, wh *webhook.Webhook, lastError string, lastStatusCode int) error
}

// EngineConfig holds engine configuration.
type EngineConfig struct {
	Concurrency  int
	PollInterval time.Duration
	BatchSize    int
	Metrics      *observability.Metrics
	Tracer       *observability.Tracer
}

// Engine is the delivery worker pool that scans the queue on a fixed interval
// and dispatches each eligible delivery to an independent concurrent worker.
// Workers are not serialized per webhook.
type Engine struct {
	store   EngineStore
	sender  *Sender
	retrier *Retrier
	dlq     DLQPusher
	config  EngineConfig
	logger  *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewEngine creates a delivery engine.
func NewEngine(store EngineStore, dlq DLQPusher, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:   store,
		sender:  NewSender(),
		retrier: NewRetrier(),
		dlq:     dlq,
		config:  cfg,
		logger:  logger,
	}
}

// Deliver enqueues a pending delivery of one event payload to one webhook and
// returns immediately; the background loop performs the HTTP call.
func (e *Engine) Deliver(ctx context.Context, whID id.ID, eventType string, payload map[string]any) (*Delivery, error) {
	return e.enqueue(ctx, whID, id.Nil, eventType, payload)
}

// DeliverEvent is Deliver with an originating event ID attached.
func (e *Engine) DeliverEvent(ctx context.Context, whID, evtID id.ID, eventType string, payload map[string]any) (*Delivery, error) {
	return e.enqueue(ctx, whID, evtID, eventType, payload)
}

// Test enqueues a synthetic test event for a webhook.
func (e *Engine) Test(ctx context.Context, whID id.ID) (*Delivery, error) {
	return e.enqueue(ctx, whID, id.Nil, "webhook.test", map[string]any{
		"test":      true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (e *Engine) enqueue(ctx context.Context, whID, evtID id.ID, eventType string, payload map[string]any) (*Delivery, error) {
	wh, err := e.store.GetWebhook(ctx, whID)
	if err != nil {
		return nil, err
	}
	if !wh.Active {
		return nil, fmt.Errorf("%w: %s", ErrWebhookInactive, wh.ID)
	}

	d := &Delivery{
		Entity:        entity.New(),
		ID:            id.NewDeliveryID(),
		WebhookID:     wh.ID,
		EventID:       evtID,
		EventType:     eventType,
		Payload:       payload,
		State:         StatePending,
		AttemptCount:  0,
		MaxAttempts:   wh.RetryPolicy.MaxRetries + 1,
		NextAttemptAt: time.Now().UTC(),
	}

	if err := e.store.Enqueue(ctx, d); err != nil {
		return nil, err
	}

	if e.config.Metrics != nil {
		e.config.Metrics.PendingDeliveries.Inc()
	}

	return d, nil
}

// Start begins the delivery workers and poll loop.
func (e *Engine) Start(ctx context.Context) {
	ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.pollLoop(ctx)
	}()
}

// Stop cancels the poll loop and waits for in-flight deliveries to complete.
// Waiting is bounded by ctx: a deadline or cancellation abandons the wait and
// returns the context's error.
func (e *Engine) Stop(ctx context.Context) error {
	if e.cancel != nil {
		e.cancel()
	}

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// pollLoop periodically dequeues eligible deliveries and dispatches them to workers.
func (e *Engine) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(e.config.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, e.config.Concurrency)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			batch, err := e.store.Dequeue(ctx, e.config.BatchSize)
			if err != nil {
				e.logger.ErrorContext(ctx, "dequeue failed", "error", err)
				continue
			}

			for _, d := range batch {
				select {
				case <-ctx.Done():
					return
				case sem <- struct{}{}:
				}

				e.wg.Add(1)
				go func(del *Delivery) {
					defer e.wg.Done()
					defer func() { <-sem }()
					e.process(ctx, del)
				}(d)
			}
		}
	}
}

// process handles a single delivery: fetch webhook, send, decide, update.
func (e *Engine) process(ctx context.Context, d *Delivery) {
	// Start a tracing span for this delivery attempt.
	var span trace.Span
	if e.config.Tracer != nil {
		ctx, span = e.config.Tracer.StartDeliverySpan(ctx, d.ID.String(), d.WebhookID.String(), d.EventType)
	}

	wh, err := e.store.GetWebhook(ctx, d.WebhookID)
	if err != nil {
		if span != nil {
			e.config.Tracer.EndDeliverySpan(span, 0, 0, err.Error())
		}
		if errors.Is(err, webhook.ErrNotFound) {
			// The webhook vanished between enqueue and attempt (deleted).
			// Drop the delivery quietly; DeleteWebhook removes queued work,
			// this is the race window for work already dequeued.
			e.logger.WarnContext(ctx, "webhook gone, dropping delivery",
				"delivery_id", d.ID, "webhook_id", d.WebhookID)
			if e.config.Metrics != nil {
				e.config.Metrics.PendingDeliveries.Dec()
			}
			return
		}

		// Transient store failure. Release the claim with NextAttemptAt
		// pushed forward so the next scan picks the delivery up again.
		e.logger.ErrorContext(ctx, "get webhook failed, releasing delivery",
			"delivery_id", d.ID, "webhook_id", d.WebhookID, "error", err)
		d.NextAttemptAt = time.Now().UTC().Add(e.config.PollInterval)
		if updateErr := e.store.UpdateDelivery(ctx, d); updateErr != nil {
			e.logger.ErrorContext(ctx, "release delivery failed",
				"delivery_id", d.ID, "error", updateErr)
		}
		return
	}

	// Perform the HTTP delivery. A panic anywhere in the attempt is caught and
	// classified as a transient failure; it never takes down the poll loop.
	d.AttemptCount++
	result := e.attempt(ctx, wh, d)

	d.LastError = result.Error
	d.LastStatusCode = result.StatusCode
	d.LastResponse = result.Response
	d.LastLatencyMs = result.LatencyMs

	latencySeconds := float64(result.LatencyMs) / 1000.0

	decision := e.retrier.Decide(result, d)

	switch decision {
	case Delivered:
		now := time.Now().UTC()
		d.State = StateDelivered
		d.CompletedAt = &now
		if err := e.store.IncrDeliveryCounters(ctx, wh.ID, 1, 0, &now); err != nil {
			e.logger.ErrorContext(ctx, "increment success counter failed",
				"webhook_id", wh.ID, "error", err)
		}
		if e.config.Metrics != nil {
			e.config.Metrics.RecordDelivery("delivered", latencySeconds)
			e.config.Metrics.PendingDeliveries.Dec()
		}
		e.logger.DebugContext(ctx, "delivered",
			"delivery_id", d.ID, "status", result.StatusCode, "latency_ms", result.LatencyMs)

	case Retry:
		d.State = StateRetrying
		d.NextAttemptAt = e.retrier.ComputeNextAttempt(wh.RetryPolicy, d.AttemptCount)
		if e.config.Metrics != nil {
			e.config.Metrics.RecordDelivery("retried", latencySeconds)
		}
		e.logger.DebugContext(ctx, "retry scheduled",
			"delivery_id", d.ID, "attempt", d.AttemptCount, "next_at", d.NextAttemptAt)

	case Abandon:
		e.finalize(ctx, d, wh, StateAbandoned, result, latencySeconds)
		e.logger.WarnContext(ctx, "delivery abandoned after exhausting retries",
			"delivery_id", d.ID, "attempts", d.AttemptCount, "error", result.Error)

	case Fail:
		e.finalize(ctx, d, wh, StateFailed, result, latencySeconds)
		e.logger.WarnContext(ctx, "delivery failed permanently",
			"delivery_id", d.ID, "status", result.StatusCode, "error", result.Error)
	}

	if span != nil {
		e.config.Tracer.EndDeliverySpan(span, d.LastStatusCode, d.LastLatencyMs, d.LastError)
	}

	if updateErr := e.store.UpdateDelivery(ctx, d); updateErr != nil {
		e.logger.ErrorContext(ctx, "update delivery failed",
			"delivery_id", d.ID, "error", updateErr)
	}
}

// attempt runs one send with panic isolation.
func (e *Engine) attempt(ctx context.Context, wh *webhook.Webhook, d *Delivery) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "panic during delivery attempt",
				"delivery_id", d.ID, "panic", r)
			result = Result{Error: fmt.Sprintf("panic: %v", r)}
		}
	}()
	return e.sender.Send(ctx, wh, d)
}

// finalize moves a delivery into a non-success terminal state.
func (e *Engine) finalize(ctx context.Context, d *Delivery, wh *webhook.Webhook, state State, result Result, latencySeconds float64) {
	now := time.Now().UTC()
	d.State = state
	d.CompletedAt = &now

	if err := e.store.IncrDeliveryCounters(ctx, wh.ID, 0, 1, nil); err != nil {
		e.logger.ErrorContext(ctx, "increment failure counter failed",
			"webhook_id", wh.ID, "error", err)
	}

	if e.dlq != nil {
		if dlqErr := e.dlq.PushFailed(ctx, d, wh, result.Error, result.StatusCode); dlqErr != nil {
			e.logger.ErrorContext(ctx, "push to DLQ failed",
				"delivery_id", d.ID, "error", dlqErr)
		}
	}

	if e.config.Metrics != nil {
		e.config.Metrics.RecordDelivery(string(state), latencySeconds)
		e.config.Metrics.PendingDeliveries.Dec()
		e.config.Metrics.DLQSize.Inc()
	}
}
