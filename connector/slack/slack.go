// Package slack implements the Slack connector using the Slack Web API and
// a bot token.
package slack

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/integration"
)

const defaultAPIURL = "https://slack.com/api"

// Connector is the Slack connector.
type Connector struct {
	client *http.Client
}

// New creates a Slack connector.
func New() *Connector {
	return &Connector{client: connector.NewHTTPClient()}
}

// Type implements connector.Connector.
func (c *Connector) Type() integration.Type { return integration.TypeSlack }

// Initialize validates the integration's configuration.
func (c *Connector) Initialize(_ context.Context, intg *integration.Integration) (*connector.Info, error) {
	if token(intg) == "" {
		return nil, &connector.ValidationError{Operation: "initialize", Message: "credentials: bot token is required"}
	}
	return &connector.Info{
		Name:         "Slack",
		Version:      "web-api",
		Account:      intg.Config["workspace"],
		Capabilities: []string{"chat", "channels"},
	}, nil
}

// TestConnection calls auth.test, which validates the token.
func (c *Connector) TestConnection(ctx context.Context, intg *integration.Integration) (*connector.TestOutcome, error) {
	if token(intg) == "" {
		return nil, &connector.ValidationError{Operation: "test_connection", Message: "credentials: bot token is required"}
	}

	out, err := connector.Probe(ctx, c.client, apiURL(intg)+"/auth.test", headers(intg))
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Operations implements connector.Connector.
func (c *Connector) Operations() []connector.OperationDescriptor {
	return []connector.OperationDescriptor{
		{
			Name:        "post_message",
			Description: "Post a message to a channel",
			Params: []connector.ParamSpec{
				{Name: "channel", Type: "string", Required: true, Description: "channel ID or name"},
				{Name: "text", Type: "string", Required: true, Description: "message text"},
			},
			Returns: "the posted message envelope",
		},
		{
			Name:        "list_channels",
			Description: "List public channels",
			Params: []connector.ParamSpec{
				{Name: "limit", Type: "integer", Default: 100, Description: "maximum channels to return"},
			},
			Returns: "a list of channels",
		},
	}
}

// Execute implements connector.Connector. Slack reports failures inside a
// 200 response as {"ok": false, "error": "..."}; those are mapped to
// RemoteError like any transport-level failure.
func (c *Connector) Execute(ctx context.Context, intg *integration.Integration, op string, params map[string]any) (map[string]any, error) {
	var result map[string]any
	var err error

	switch op {
	case "post_message":
		body := map[string]any{
			"channel": params["channel"],
			"text":    params["text"],
		}
		result, err = connector.DoJSON(ctx, c.client, http.MethodPost, apiURL(intg)+"/chat.postMessage", headers(intg), body)

	case "list_channels":
		limit := 100
		switch v := params["limit"].(type) {
		case float64:
			limit = int(v)
		case int:
			limit = v
		}
		u := fmt.Sprintf("%s/conversations.list?limit=%s", apiURL(intg), url.QueryEscape(fmt.Sprint(limit)))
		result, err = connector.DoJSON(ctx, c.client, http.MethodGet, u, headers(intg), nil)

	default:
		return nil, fmt.Errorf("%w: slack.%s", connector.ErrUnknownOperation, op)
	}

	if err != nil {
		return nil, err
	}
	if ok, present := result["ok"].(bool); present && !ok {
		msg, _ := result["error"].(string)
		return nil, &connector.RemoteError{StatusCode: http.StatusOK, Message: msg}
	}
	return result, nil
}

// Cleanup implements connector.Connector. The Slack connector holds no
// per-integration state.
func (c *Connector) Cleanup(_ context.Context, _ *integration.Integration) error {
	return nil
}

func apiURL(intg *integration.Integration) string {
	if u := intg.Config["api_url"]; u != "" {
		return u
	}
	return defaultAPIURL
}

func token(intg *integration.Integration) string {
	return intg.Credentials.Encrypted
}

func headers(intg *integration.Integration) map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + token(intg),
	}
}
