package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/gridhook/gridhook"

// Tracer provides OpenTelemetry tracing for hub operations.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer creates a new hub tracer.
func NewTracer() *Tracer {
	return &Tracer{
		tracer: otel.Tracer(tracerName),
	}
}

// StartDeliverySpan starts a new span for a delivery attempt.
func (t *Tracer) StartDeliverySpan(ctx context.Context, deliveryID, webhookID, eventType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "gridhook.delivery",
		trace.WithAttributes(
			attribute.String("gridhook.delivery_id", deliveryID),
			attribute.String("gridhook.webhook_id", webhookID),
			attribute.String("gridhook.event_type", eventType),
		),
	)
}

// EndDeliverySpan ends a delivery span with result attributes.
func (t *Tracer) EndDeliverySpan(span trace.Span, statusCode, latencyMs int, err string) {
	span.SetAttributes(
		attribute.Int("http.status_code", statusCode),
		attribute.Int("gridhook.latency_ms", latencyMs),
	)
	if err != "" {
		span.SetAttributes(attribute.String("gridhook.error", err))
	}
	span.End()
}

// StartConnectorSpan starts a new span for a connector operation.
func (t *Tracer) StartConnectorSpan(ctx context.Context, connectorType, operation string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "gridhook.connector",
		trace.WithAttributes(
			attribute.String("gridhook.connector_type", connectorType),
			attribute.String("gridhook.operation", operation),
		),
	)
}

// EndConnectorSpan ends a connector span, recording the error if any.
func (t *Tracer) EndConnectorSpan(span trace.Span, err string) {
	if err != "" {
		span.SetAttributes(attribute.String("gridhook.error", err))
	}
	span.End()
}
