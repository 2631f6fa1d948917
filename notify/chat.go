package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ChatProvider posts messages to a Slack-compatible chat webhook API.
type ChatProvider struct {
	apiURL string
	token  string
	client *http.Client
}

// NewChatProvider creates a chat provider targeting the given API URL.
func NewChatProvider(apiURL, token string) *ChatProvider {
	return &ChatProvider{
		apiURL: apiURL,
		token:  token,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// Channel implements Provider.
func (p *ChatProvider) Channel() string { return ChannelChat }

// ValidateRecipient accepts "#channel" and "@user" addresses.
func (p *ChatProvider) ValidateRecipient(recipient string) error {
	if len(recipient) < 2 {
		return fmt.Errorf("%w: %q", ErrInvalidRecipient, recipient)
	}
	if !strings.HasPrefix(recipient, "#") && !strings.HasPrefix(recipient, "@") {
		return fmt.Errorf("%w: chat recipients start with # or @", ErrInvalidRecipient)
	}
	return nil
}

// Send posts the message. API-level failures ({"ok":false,"error":...}) with
// a permanent marker are surfaced as *PermanentError.
func (p *ChatProvider) Send(ctx context.Context, recipient string, n *Notification) error {
	text := n.Body
	if n.Subject != "" {
		text = "*" + n.Subject + "*\n" + n.Body
	}

	payload, err := json.Marshal(map[string]any{
		"channel": recipient,
		"text":    text,
	})
	if err != nil {
		return &PermanentError{Reason: "marshal message: " + err.Error()}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(payload))
	if err != nil {
		return &PermanentError{Reason: "build request: " + err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("chat send: %w", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return &PermanentError{Reason: fmt.Sprintf("status %d: %s", resp.StatusCode, raw)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chat send: status %d: %s", resp.StatusCode, raw)
	}

	var body struct {
		OK    bool   `json:"ok"`
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && !body.OK && body.Error != "" {
		if IsPermanent(fmt.Errorf("%s", body.Error)) {
			return &PermanentError{Reason: body.Error}
		}
		return fmt.Errorf("chat send: %s", body.Error)
	}
	return nil
}
