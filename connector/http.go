package connector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds every connector HTTP call that does not carry its
// own deadline.
const DefaultTimeout = 15 * time.Second

// maxErrorBody caps how much of a remote error body is read into messages.
const maxErrorBody = 1024

// NewHTTPClient returns the http.Client connectors should use for remote
// calls. The timeout is a hard upper bound per request.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultTimeout}
}

// DoJSON issues an HTTP request with an optional JSON body and decodes the
// JSON response into a map. Non-2xx responses are returned as *RemoteError
// carrying the status code and a snippet of the body.
func DoJSON(ctx context.Context, client *http.Client, method, url string, headers map[string]string, body any) (map[string]any, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, &RemoteError{Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RemoteError{
			StatusCode: resp.StatusCode,
			Message:    string(snippet),
		}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: err.Error()}
	}
	if len(raw) == 0 {
		return map[string]any{}, nil
	}

	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		// Some endpoints answer with non-object JSON; wrap it.
		var v any
		if err2 := json.Unmarshal(raw, &v); err2 == nil {
			return map[string]any{"result": v}, nil
		}
		return nil, &RemoteError{StatusCode: resp.StatusCode, Message: "invalid JSON response"}
	}
	return result, nil
}

// Probe issues a GET against url and reports reachability as a TestOutcome.
// Transport failures produce an unsuccessful outcome, not an error.
func Probe(ctx context.Context, client *http.Client, url string, headers map[string]string) (*TestOutcome, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build probe request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		return &TestOutcome{
			Success:   false,
			Message:   err.Error(),
			LatencyMs: latency,
		}, nil
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))

	out := &TestOutcome{
		Success:    resp.StatusCode >= 200 && resp.StatusCode < 300,
		LatencyMs:  latency,
		StatusCode: resp.StatusCode,
	}
	if out.Success {
		out.Message = "connection ok"
	} else {
		out.Message = fmt.Sprintf("probe returned status %d", resp.StatusCode)
	}
	return out, nil
}
