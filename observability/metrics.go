// Package observability provides Prometheus metrics and OpenTelemetry tracing
// for the hub.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the metric instruments for the hub, registered against the
// supplied Prometheus registerer.
type Metrics struct {
	EventsPublishedTotal prometheus.Counter
	DeliveriesTotal      *prometheus.CounterVec
	DeliveryLatency      prometheus.Histogram
	PendingDeliveries    prometheus.Gauge
	DLQSize              prometheus.Gauge

	NotificationSendsTotal      *prometheus.CounterVec
	NotificationDuration        *prometheus.HistogramVec
	NotificationRecipientsTotal *prometheus.CounterVec
	NotificationFailuresTotal   *prometheus.CounterVec
}

// NewMetrics creates the hub metric instruments. Pass
// prometheus.DefaultRegisterer for standalone usage, or a private registry in
// tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsPublishedTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "gridhook_events_published_total",
			Help: "Total hub events published to the event bus.",
		}),
		DeliveriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridhook_deliveries_total",
			Help: "Webhook delivery attempts by outcome.",
		}, []string{"status"}),
		DeliveryLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "gridhook_delivery_latency_seconds",
			Help:    "Latency of webhook delivery attempts.",
			Buckets: prometheus.DefBuckets,
		}),
		PendingDeliveries: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridhook_pending_deliveries",
			Help: "Deliveries currently awaiting attempt.",
		}),
		DLQSize: factory.NewGauge(prometheus.GaugeOpts{
			Name: "gridhook_dlq_size",
			Help: "Entries in the dead letter queue.",
		}),
		NotificationSendsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridhook_notification_sends_total",
			Help: "Notification send attempts by result, channel and priority.",
		}, []string{"result", "channel", "priority"}),
		NotificationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gridhook_notification_duration_seconds",
			Help:    "Duration of notification sends.",
			Buckets: prometheus.DefBuckets,
		}, []string{"result", "channel", "priority"}),
		NotificationRecipientsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridhook_notification_recipients_total",
			Help: "Recipients targeted by notification sends.",
		}, []string{"result", "channel", "priority"}),
		NotificationFailuresTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gridhook_notification_failures_total",
			Help: "Per-recipient notification failures.",
		}, []string{"result", "channel", "priority"}),
	}
}

// RecordDelivery records a delivery attempt with the given status and latency.
func (m *Metrics) RecordDelivery(status string, latencySeconds float64) {
	m.DeliveriesTotal.WithLabelValues(status).Inc()
	m.DeliveryLatency.Observe(latencySeconds)
}

// RecordNotification records a notification batch send tagged by result,
// channel and priority.
func (m *Metrics) RecordNotification(result, channel, priority string, recipients, failures int, elapsed time.Duration) {
	m.NotificationSendsTotal.WithLabelValues(result, channel, priority).Inc()
	m.NotificationDuration.WithLabelValues(result, channel, priority).Observe(elapsed.Seconds())
	m.NotificationRecipientsTotal.WithLabelValues(result, channel, priority).Add(float64(recipients))
	if failures > 0 {
		m.NotificationFailuresTotal.WithLabelValues(result, channel, priority).Add(float64(failures))
	}
}
