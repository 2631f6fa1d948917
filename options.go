package gridhook

import (
	"log/slog"
	"time"

	"github.com/gridhook/gridhook/bus"
	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/dlq"
	"github.com/gridhook/gridhook/integration"
	"github.com/gridhook/gridhook/notify"
	"github.com/gridhook/gridhook/observability"
	"github.com/gridhook/gridhook/store"
	"github.com/gridhook/gridhook/template"
	"github.com/gridhook/gridhook/webhook"
)

// Hub is the root integration and event hub.
type Hub struct {
	config         Config
	store          store.Store
	integrationSvc *integration.Service
	webhookSvc     *webhook.Service
	templateSvc    *template.Service
	dlqSvc         *dlq.Service
	engine         *delivery.Engine
	bus            *bus.Bus
	registry       *connector.Registry
	dispatcher     *notify.Dispatcher
	metrics        *observability.Metrics
	tracer         *observability.Tracer
	logger         *slog.Logger

	// registration collected by options, applied during wiring
	connectors []connector.Connector
	providers  []notify.Provider
}

// Option configures a Hub instance.
type Option func(*Hub) error

// New creates a new Hub with the given options.
func New(opts ...Option) (*Hub, error) {
	h := &Hub{
		config: DefaultConfig(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(h); err != nil {
			return nil, err
		}
	}
	if h.store == nil {
		return nil, ErrNoStore
	}
	h.wireServices()
	return h, nil
}

// WithStore sets the persistence backend for the Hub instance.
func WithStore(s store.Store) Option {
	return func(h *Hub) error {
		h.store = s
		return nil
	}
}

// WithLogger sets the structured logger for the Hub instance.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Hub) error {
		h.logger = logger
		return nil
	}
}

// WithMetrics sets the Prometheus metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(h *Hub) error {
		h.metrics = m
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer.
func WithTracer(t *observability.Tracer) Option {
	return func(h *Hub) error {
		h.tracer = t
		return nil
	}
}

// WithConnector registers a connector before the hub is wired.
func WithConnector(c connector.Connector) Option {
	return func(h *Hub) error {
		h.connectors = append(h.connectors, c)
		return nil
	}
}

// WithNotifyProvider registers a notification channel provider.
func WithNotifyProvider(p notify.Provider) Option {
	return func(h *Hub) error {
		h.providers = append(h.providers, p)
		return nil
	}
}

// WithConcurrency sets the number of delivery worker goroutines.
func WithConcurrency(n int) Option {
	return func(h *Hub) error {
		h.config.Concurrency = n
		return nil
	}
}

// WithPollInterval sets how often the delivery engine checks for due deliveries.
func WithPollInterval(d time.Duration) Option {
	return func(h *Hub) error {
		h.config.PollInterval = d
		return nil
	}
}

// WithBatchSize sets the maximum number of deliveries dequeued per poll cycle.
func WithBatchSize(n int) Option {
	return func(h *Hub) error {
		h.config.BatchSize = n
		return nil
	}
}

// WithShutdownTimeout sets the maximum time to wait for in-flight work on shutdown.
func WithShutdownTimeout(d time.Duration) Option {
	return func(h *Hub) error {
		h.config.ShutdownTimeout = d
		return nil
	}
}

// WithNotifyConfig sets retry and rate limit behavior for the notification
// dispatcher.
func WithNotifyConfig(cfg notify.Config) Option {
	return func(h *Hub) error {
		h.config.Notify = cfg
		return nil
	}
}
