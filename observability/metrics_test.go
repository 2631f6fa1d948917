package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordDelivery(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordDelivery("delivered", 0.125)
	m.RecordDelivery("delivered", 0.25)
	m.RecordDelivery("abandoned", 1.5)

	if got := testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("delivered")); got != 2 {
		t.Errorf("delivered count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.DeliveriesTotal.WithLabelValues("abandoned")); got != 1 {
		t.Errorf("abandoned count = %v, want 1", got)
	}
}

func TestRecordNotification(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordNotification("partial", "chat", "high", 5, 2, 80*time.Millisecond)

	if got := testutil.ToFloat64(m.NotificationSendsTotal.WithLabelValues("partial", "chat", "high")); got != 1 {
		t.Errorf("sends = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.NotificationRecipientsTotal.WithLabelValues("partial", "chat", "high")); got != 5 {
		t.Errorf("recipients = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.NotificationFailuresTotal.WithLabelValues("partial", "chat", "high")); got != 2 {
		t.Errorf("failures = %v, want 2", got)
	}
}

func TestPendingGauge(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.PendingDeliveries.Inc()
	m.PendingDeliveries.Inc()
	m.PendingDeliveries.Dec()

	if got := testutil.ToFloat64(m.PendingDeliveries); got != 1 {
		t.Errorf("pending = %v, want 1", got)
	}
}
