package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gridhook/gridhook/signature"
	"github.com/gridhook/gridhook/template"
	"github.com/gridhook/gridhook/webhook"
)

const maxResponseBody = 1024 // 1KB cap on response body storage

// userAgent identifies the hub on every outbound delivery.
const userAgent = "Gridhook/1.0"

// Sender performs HTTP webhook delivery. The per-attempt timeout comes from
// each webhook's retry policy, applied as a context deadline.
type Sender struct {
	client *http.Client
}

// NewSender creates a sender.
func NewSender() *Sender {
	return &Sender{
		client: &http.Client{},
	}
}

// Send delivers a payload to a webhook and returns the result.
func (s *Sender) Send(ctx context.Context, wh *webhook.Webhook, d *Delivery) Result {
	body, err := renderBody(wh, d)
	if err != nil {
		return Result{Error: err.Error(), Permanent: true}
	}

	timeout := wh.RetryPolicy.Timeout
	if timeout <= 0 {
		timeout = webhook.DefaultRetryPolicy().Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return Result{Error: fmt.Sprintf("create request: %v", err), Permanent: true}
	}

	// Standard headers.
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Gridhook-Event-Type", d.EventType)
	req.Header.Set("X-Gridhook-Delivery-ID", d.ID.String())
	if !d.EventID.IsNil() {
		req.Header.Set("X-Gridhook-Event-ID", d.EventID.String())
	}

	// HMAC signature over the exact body bytes.
	if wh.Secret != "" {
		req.Header.Set(signature.Header, signature.Sign(body, wh.Secret))
	}

	// Custom webhook headers, attached verbatim.
	for k, v := range wh.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := s.client.Do(req) //nolint:gosec // the destination is a user-configured webhook URL
	latency := time.Since(start).Milliseconds()

	if err != nil {
		return Result{
			Error:     err.Error(),
			LatencyMs: int(latency),
		}
	}
	defer resp.Body.Close()

	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if readErr != nil {
		return Result{
			StatusCode: resp.StatusCode,
			Error:      fmt.Sprintf("read response: %v", readErr),
			LatencyMs:  int(latency),
		}
	}

	return Result{
		StatusCode: resp.StatusCode,
		Response:   string(respBody),
		LatencyMs:  int(latency),
	}
}

// renderBody serializes the delivery payload, substituting it into the
// webhook's payload template when one is configured.
func renderBody(wh *webhook.Webhook, d *Delivery) ([]byte, error) {
	if wh.PayloadTemplate == "" {
		body, err := json.Marshal(d.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal payload: %w", err)
		}
		return body, nil
	}

	data := make(map[string]any, len(d.Payload)+2)
	for k, v := range d.Payload {
		data[k] = v
	}
	if _, ok := data["event_type"]; !ok {
		data["event_type"] = d.EventType
	}
	if _, ok := data["event_id"]; !ok {
		data["event_id"] = d.EventID.String()
	}

	rendered, err := template.Render(wh.PayloadTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("render payload template: %w", err)
	}
	return []byte(rendered), nil
}
