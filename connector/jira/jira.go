// Package jira implements the Jira Cloud connector using the REST API v3
// with basic authentication (account email + API token).
package jira

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/integration"
)

// Connector is the Jira connector.
type Connector struct {
	client *http.Client
}

// New creates a Jira connector.
func New() *Connector {
	return &Connector{client: connector.NewHTTPClient()}
}

// Type implements connector.Connector.
func (c *Connector) Type() integration.Type { return integration.TypeJira }

// Initialize validates the integration's configuration. Jira requires the
// site base URL and the account email alongside the API token.
func (c *Connector) Initialize(_ context.Context, intg *integration.Integration) (*connector.Info, error) {
	if intg.Config["base_url"] == "" {
		return nil, &connector.ValidationError{Operation: "initialize", Message: "config: base_url is required"}
	}
	if intg.Config["email"] == "" {
		return nil, &connector.ValidationError{Operation: "initialize", Message: "config: email is required"}
	}
	if intg.Credentials.Encrypted == "" {
		return nil, &connector.ValidationError{Operation: "initialize", Message: "credentials: api token is required"}
	}
	return &connector.Info{
		Name:         "Jira",
		Version:      "3",
		Account:      intg.Config["base_url"],
		Capabilities: []string{"issues", "search"},
	}, nil
}

// TestConnection probes the authenticated user endpoint.
func (c *Connector) TestConnection(ctx context.Context, intg *integration.Integration) (*connector.TestOutcome, error) {
	if intg.Config["base_url"] == "" {
		return nil, &connector.ValidationError{Operation: "test_connection", Message: "config: base_url is required"}
	}
	return connector.Probe(ctx, c.client, intg.Config["base_url"]+"/rest/api/3/myself", headers(intg))
}

// Operations implements connector.Connector.
func (c *Connector) Operations() []connector.OperationDescriptor {
	return []connector.OperationDescriptor{
		{
			Name:        "create_issue",
			Description: "Create an issue in a project",
			Params: []connector.ParamSpec{
				{Name: "project", Type: "string", Required: true, Description: "project key"},
				{Name: "summary", Type: "string", Required: true, Description: "issue summary"},
				{Name: "description", Type: "string", Description: "plain-text description"},
				{Name: "issue_type", Type: "string", Default: "Task", Description: "issue type name"},
			},
			Returns: "the created issue reference",
		},
		{
			Name:        "get_issue",
			Description: "Fetch an issue by key",
			Params: []connector.ParamSpec{
				{Name: "key", Type: "string", Required: true, Description: "issue key, e.g. PROJ-123"},
			},
			Returns: "the issue object",
		},
		{
			Name:        "search_issues",
			Description: "Search issues with JQL",
			Params: []connector.ParamSpec{
				{Name: "jql", Type: "string", Required: true, Description: "JQL query"},
				{Name: "max_results", Type: "integer", Default: 50},
			},
			Returns: "matching issues",
		},
	}
}

// Execute implements connector.Connector.
func (c *Connector) Execute(ctx context.Context, intg *integration.Integration, op string, params map[string]any) (map[string]any, error) {
	base := intg.Config["base_url"]

	switch op {
	case "create_issue":
		fields := map[string]any{
			"project":   map[string]any{"key": params["project"]},
			"summary":   params["summary"],
			"issuetype": map[string]any{"name": params["issue_type"]},
		}
		if desc, ok := params["description"].(string); ok && desc != "" {
			fields["description"] = adfParagraph(desc)
		}
		body := map[string]any{"fields": fields}
		return connector.DoJSON(ctx, c.client, http.MethodPost, base+"/rest/api/3/issue", headers(intg), body)

	case "get_issue":
		key, _ := params["key"].(string)
		return connector.DoJSON(ctx, c.client, http.MethodGet, base+"/rest/api/3/issue/"+url.PathEscape(key), headers(intg), nil)

	case "search_issues":
		body := map[string]any{
			"jql":        params["jql"],
			"maxResults": params["max_results"],
		}
		return connector.DoJSON(ctx, c.client, http.MethodPost, base+"/rest/api/3/search", headers(intg), body)

	default:
		return nil, fmt.Errorf("%w: jira.%s", connector.ErrUnknownOperation, op)
	}
}

// Cleanup implements connector.Connector. The Jira connector holds no
// per-integration state.
func (c *Connector) Cleanup(_ context.Context, _ *integration.Integration) error {
	return nil
}

func headers(intg *integration.Integration) map[string]string {
	cred := intg.Config["email"] + ":" + intg.Credentials.Encrypted
	return map[string]string{
		"Authorization": "Basic " + base64.StdEncoding.EncodeToString([]byte(cred)),
	}
}

// adfParagraph wraps plain text in the minimal Atlassian Document Format
// required by the v3 issue API.
func adfParagraph(text string) map[string]any {
	return map[string]any{
		"type":    "doc",
		"version": 1,
		"content": []any{
			map[string]any{
				"type": "paragraph",
				"content": []any{
					map[string]any{"type": "text", "text": text},
				},
			},
		},
	}
}
