package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/mail"
	"time"
)

// EmailProvider delivers email through an HTTP relay API (the shape used by
// transactional mail services).
type EmailProvider struct {
	relayURL string
	apiKey   string
	from     string
	client   *http.Client
}

// NewEmailProvider creates an email provider posting to relayURL with the
// given sender address.
func NewEmailProvider(relayURL, apiKey, from string) *EmailProvider {
	return &EmailProvider{
		relayURL: relayURL,
		apiKey:   apiKey,
		from:     from,
		client:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Channel implements Provider.
func (p *EmailProvider) Channel() string { return ChannelEmail }

// ValidateRecipient requires a parseable email address.
func (p *EmailProvider) ValidateRecipient(recipient string) error {
	if _, err := mail.ParseAddress(recipient); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidRecipient, recipient, err)
	}
	return nil
}

// Send posts the message to the relay. Auth rejections are permanent;
// everything else non-2xx is transient.
func (p *EmailProvider) Send(ctx context.Context, recipient string, n *Notification) error {
	payload, err := json.Marshal(map[string]any{
		"from":    p.from,
		"to":      recipient,
		"subject": n.Subject,
		"body":    n.Body,
	})
	if err != nil {
		return &PermanentError{Reason: "marshal message: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.relayURL, bytes.NewReader(payload))
	if err != nil {
		return &PermanentError{Reason: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("email send: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized,
		resp.StatusCode == http.StatusForbidden,
		resp.StatusCode == http.StatusNotFound:
		return &PermanentError{Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, raw)}
	default:
		return fmt.Errorf("email send: status %d: %s", resp.StatusCode, raw)
	}
}
