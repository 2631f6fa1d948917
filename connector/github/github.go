// Package github implements the GitHub connector. It talks to the GitHub
// REST API v3 using a personal access or installation token.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/integration"
)

const defaultAPIURL = "https://api.github.com"

// Connector is the GitHub connector. A single instance serves every GitHub
// integration; per-integration state lives in the integration record.
type Connector struct {
	client *http.Client
}

// New creates a GitHub connector.
func New() *Connector {
	return &Connector{client: connector.NewHTTPClient()}
}

// Type implements connector.Connector.
func (c *Connector) Type() integration.Type { return integration.TypeGitHub }

// Initialize validates the integration's configuration.
func (c *Connector) Initialize(_ context.Context, intg *integration.Integration) (*connector.Info, error) {
	if token(intg) == "" {
		return nil, &connector.ValidationError{Operation: "initialize", Message: "credentials: token is required"}
	}
	return &connector.Info{
		Name:         "GitHub",
		Version:      "2022-11-28",
		Capabilities: []string{"issues", "repositories"},
	}, nil
}

// TestConnection probes the authenticated user endpoint.
func (c *Connector) TestConnection(ctx context.Context, intg *integration.Integration) (*connector.TestOutcome, error) {
	if token(intg) == "" {
		return nil, &connector.ValidationError{Operation: "test_connection", Message: "credentials: token is required"}
	}
	return connector.Probe(ctx, c.client, apiURL(intg)+"/user", headers(intg))
}

// Operations implements connector.Connector.
func (c *Connector) Operations() []connector.OperationDescriptor {
	return []connector.OperationDescriptor{
		{
			Name:        "create_issue",
			Description: "Create an issue in a repository",
			Params: []connector.ParamSpec{
				{Name: "owner", Type: "string", Required: true, Description: "repository owner"},
				{Name: "repo", Type: "string", Required: true, Description: "repository name"},
				{Name: "title", Type: "string", Required: true, Description: "issue title"},
				{Name: "body", Type: "string", Description: "issue body in Markdown"},
			},
			Returns: "the created issue",
		},
		{
			Name:        "get_repo",
			Description: "Fetch repository metadata",
			Params: []connector.ParamSpec{
				{Name: "owner", Type: "string", Required: true},
				{Name: "repo", Type: "string", Required: true},
			},
			Returns: "the repository object",
		},
		{
			Name:        "list_issues",
			Description: "List repository issues",
			Params: []connector.ParamSpec{
				{Name: "owner", Type: "string", Required: true},
				{Name: "repo", Type: "string", Required: true},
				{Name: "state", Type: "string", Default: "open", Description: "open, closed or all"},
			},
			Returns: "a list of issues",
		},
	}
}

// Execute implements connector.Connector.
func (c *Connector) Execute(ctx context.Context, intg *integration.Integration, op string, params map[string]any) (map[string]any, error) {
	switch op {
	case "create_issue":
		path := fmt.Sprintf("/repos/%s/%s/issues",
			url.PathEscape(str(params, "owner")), url.PathEscape(str(params, "repo")))
		body := map[string]any{"title": params["title"]}
		if v, ok := params["body"]; ok {
			body["body"] = v
		}
		return connector.DoJSON(ctx, c.client, http.MethodPost, apiURL(intg)+path, headers(intg), body)

	case "get_repo":
		path := fmt.Sprintf("/repos/%s/%s",
			url.PathEscape(str(params, "owner")), url.PathEscape(str(params, "repo")))
		return connector.DoJSON(ctx, c.client, http.MethodGet, apiURL(intg)+path, headers(intg), nil)

	case "list_issues":
		path := fmt.Sprintf("/repos/%s/%s/issues?state=%s",
			url.PathEscape(str(params, "owner")), url.PathEscape(str(params, "repo")),
			url.QueryEscape(str(params, "state")))
		return connector.DoJSON(ctx, c.client, http.MethodGet, apiURL(intg)+path, headers(intg), nil)

	default:
		return nil, fmt.Errorf("%w: github.%s", connector.ErrUnknownOperation, op)
	}
}

// Cleanup implements connector.Connector. The GitHub connector holds no
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
		"Authorization":        "Bearer " + token(intg),
		"X-GitHub-Api-Version": "2022-11-28",
	}
}

func str(params map[string]any, key string) string {
	s, _ := params[key].(string)
	return s
}
