package delivery_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/signature"
	"github.com/gridhook/gridhook/webhook"
)

type captured struct {
	headers http.Header
	body    []byte
}

func captureServer(t *testing.T, status int, got *captured) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Error(err)
		}
		got.headers = r.Header.Clone()
		got.body = body
		w.WriteHeader(status)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testWebhook(url string) *webhook.Webhook {
	return &webhook.Webhook{
		ID:          id.NewWebhookID(),
		OwnerID:     "o1",
		URL:         url,
		Secret:      "s3cr3t",
		RetryPolicy: webhook.DefaultRetryPolicy(),
	}
}

func testDelivery(whID id.ID, payload map[string]any) *delivery.Delivery {
	return &delivery.Delivery{
		ID:        id.NewDeliveryID(),
		WebhookID: whID,
		EventType: "order.created",
		Payload:   payload,
		State:     delivery.StatePending,
	}
}

func TestSendHeadersAndSignature(t *testing.T) {
	var got captured
	srv := captureServer(t, http.StatusOK, &got)
	s := delivery.NewSender()

	wh := testWebhook(srv.URL)
	wh.Headers = map[string]string{"X-Custom": "yes"}
	d := testDelivery(wh.ID, map[string]any{"order_id": "42"})

	res := s.Send(ctx(), wh, d)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, err = %q", res.StatusCode, res.Error)
	}

	var payload map[string]any
	if err := json.Unmarshal(got.body, &payload); err != nil {
		t.Fatalf("body is not JSON: %v", err)
	}
	if payload["order_id"] != "42" {
		t.Errorf("payload = %v", payload)
	}

	if ct := got.headers.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if et := got.headers.Get("X-Gridhook-Event-Type"); et != "order.created" {
		t.Errorf("event type header = %q", et)
	}
	if did := got.headers.Get("X-Gridhook-Delivery-ID"); did != d.ID.String() {
		t.Errorf("delivery ID header = %q", did)
	}
	if c := got.headers.Get("X-Custom"); c != "yes" {
		t.Errorf("custom header = %q", c)
	}

	want := signature.Sign(got.body, wh.Secret)
	if sig := got.headers.Get(signature.Header); sig != want {
		t.Errorf("signature = %q, want %q", sig, want)
	}
}

func TestSendNoSecretNoSignature(t *testing.T) {
	var got captured
	srv := captureServer(t, http.StatusOK, &got)
	s := delivery.NewSender()

	wh := testWebhook(srv.URL)
	wh.Secret = ""

	s.Send(ctx(), wh, testDelivery(wh.ID, nil))
	if sig := got.headers.Get(signature.Header); sig != "" {
		t.Errorf("unexpected signature header %q", sig)
	}
}

func TestSendPayloadTemplate(t *testing.T) {
	var got captured
	srv := captureServer(t, http.StatusOK, &got)
	s := delivery.NewSender()

	wh := testWebhook(srv.URL)
	wh.PayloadTemplate = `{"text": "order {{order_id}} via {{event_type}}"}`
	d := testDelivery(wh.ID, map[string]any{"order_id": "42"})

	res := s.Send(ctx(), wh, d)
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, err = %q", res.StatusCode, res.Error)
	}
	want := `{"text": "order 42 via order.created"}`
	if string(got.body) != want {
		t.Errorf("body = %s, want %s", got.body, want)
	}
}

func TestSendTemplateErrorIsPermanent(t *testing.T) {
	var got captured
	srv := captureServer(t, http.StatusOK, &got)
	s := delivery.NewSender()

	wh := testWebhook(srv.URL)
	wh.PayloadTemplate = `{"text": "{{missing}}"}`

	res := s.Send(ctx(), wh, testDelivery(wh.ID, nil))
	if !res.Permanent {
		t.Fatalf("expected permanent failure, got %+v", res)
	}
	if got.headers != nil {
		t.Fatal("no request should have been made")
	}
}

func TestSendTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections
	s := delivery.NewSender()

	res := s.Send(ctx(), testWebhook(srv.URL), testDelivery(id.NewWebhookID(), nil))
	if res.Error == "" || res.StatusCode != 0 {
		t.Fatalf("expected transport error, got %+v", res)
	}
	if res.Permanent {
		t.Fatal("transport errors are transient")
	}
}

func TestSendTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	t.Cleanup(srv.Close)
	s := delivery.NewSender()

	wh := testWebhook(srv.URL)
	wh.RetryPolicy.Timeout = 50 * time.Millisecond

	start := time.Now()
	res := s.Send(ctx(), wh, testDelivery(wh.ID, nil))
	if res.Error == "" {
		t.Fatalf("expected timeout error, got %+v", res)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Fatalf("timeout not applied, took %s", elapsed)
	}
}

func TestSendResponseBodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		for i := 0; i < 100; i++ {
			_, _ = w.Write(make([]byte, 100))
		}
	}))
	t.Cleanup(srv.Close)
	s := delivery.NewSender()

	res := s.Send(ctx(), testWebhook(srv.URL), testDelivery(id.NewWebhookID(), nil))
	if len(res.Response) > 1024 {
		t.Fatalf("response body not capped: %d bytes", len(res.Response))
	}
}
