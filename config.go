package gridhook

import (
	"time"

	"github.com/gridhook/gridhook/notify"
)

// Config holds the configuration for a Hub instance.
type Config struct {
	// Concurrency is the number of delivery worker goroutines.
	Concurrency int

	// PollInterval is how often the delivery engine checks for due deliveries.
	PollInterval time.Duration

	// BatchSize is the maximum number of deliveries dequeued per poll cycle.
	BatchSize int

	// ShutdownTimeout is the maximum time to wait for in-flight work on shutdown.
	ShutdownTimeout time.Duration

	// Notify configures the notification dispatcher (retries, rate limits).
	Notify notify.Config
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Concurrency:     10,
		PollInterval:    1 * time.Second,
		BatchSize:       50,
		ShutdownTimeout: 30 * time.Second,
		Notify:          notify.DefaultConfig(),
	}
}
