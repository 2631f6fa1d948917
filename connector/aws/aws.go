// Package aws implements a lightweight AWS connector. It performs unsigned
// reachability checks against regional service endpoints; signed API calls
// are out of its scope.
package aws

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/integration"
)

const defaultRegion = "us-east-1"

// regions is the static set of commercial AWS regions the connector knows.
var regions = []string{
	"us-east-1", "us-east-2", "us-west-1", "us-west-2",
	"eu-west-1", "eu-west-2", "eu-west-3", "eu-central-1", "eu-north-1",
	"ap-south-1", "ap-southeast-1", "ap-southeast-2",
	"ap-northeast-1", "ap-northeast-2", "ap-northeast-3",
	"ca-central-1", "sa-east-1",
}

// Connector is the AWS connector.
type Connector struct {
	client *http.Client
}

// New creates an AWS connector.
func New() *Connector {
	return &Connector{client: connector.NewHTTPClient()}
}

// Type implements connector.Connector.
func (c *Connector) Type() integration.Type { return integration.TypeAWS }

// Initialize validates the integration's configuration.
func (c *Connector) Initialize(_ context.Context, intg *integration.Integration) (*connector.Info, error) {
	r := region(intg)
	if !knownRegion(r) {
		return nil, &connector.ValidationError{Operation: "initialize", Message: "config: unknown region " + r}
	}
	return &connector.Info{
		Name:         "AWS",
		Version:      "endpoint-probe",
		Account:      intg.Config["account_id"],
		Capabilities: []string{"regions", "service-reachability"},
	}, nil
}

// TestConnection probes the regional STS endpoint. STS answers unsigned
// requests with a 4xx, which still proves the endpoint is reachable.
func (c *Connector) TestConnection(ctx context.Context, intg *integration.Integration) (*connector.TestOutcome, error) {
	r := region(intg)
	if !knownRegion(r) {
		return nil, &connector.ValidationError{Operation: "test_connection", Message: "config: unknown region " + r}
	}

	out, err := connector.Probe(ctx, c.client, endpoint(intg, "sts", r), nil)
	if err != nil {
		return nil, err
	}
	// Any HTTP response means the endpoint is reachable; unsigned probes
	// are expected to be rejected at the auth layer.
	if !out.Success && out.StatusCode > 0 {
		out.Success = true
		out.Message = "endpoint reachable"
	}
	return out, nil
}

// Operations implements connector.Connector.
func (c *Connector) Operations() []connector.OperationDescriptor {
	return []connector.OperationDescriptor{
		{
			Name:        "list_regions",
			Description: "List known AWS regions",
			Returns:     "region identifiers",
		},
		{
			Name:        "check_service",
			Description: "Check reachability of a regional service endpoint",
			Params: []connector.ParamSpec{
				{Name: "service", Type: "string", Required: true, Description: "service endpoint prefix, e.g. sqs"},
				{Name: "region", Type: "string", Description: "region override; defaults to the integration's region"},
			},
			Returns: "reachability report",
		},
	}
}

// Execute implements connector.Connector.
func (c *Connector) Execute(ctx context.Context, intg *integration.Integration, op string, params map[string]any) (map[string]any, error) {
	switch op {
	case "list_regions":
		out := make([]any, len(regions))
		for i, r := range regions {
			out[i] = r
		}
		return map[string]any{"regions": out}, nil

	case "check_service":
		service, _ := params["service"].(string)
		r := region(intg)
		if override, ok := params["region"].(string); ok && override != "" {
			r = override
		}
		if !knownRegion(r) {
			return nil, &connector.ValidationError{Operation: op, Message: "unknown region " + r}
		}

		probe, err := connector.Probe(ctx, c.client, endpoint(intg, service, r), nil)
		if err != nil {
			return nil, err
		}
		reachable := probe.StatusCode > 0
		return map[string]any{
			"service":     service,
			"region":      r,
			"reachable":   reachable,
			"status_code": probe.StatusCode,
			"latency_ms":  probe.LatencyMs,
		}, nil

	default:
		return nil, fmt.Errorf("%w: aws.%s", connector.ErrUnknownOperation, op)
	}
}

// Cleanup implements connector.Connector. The AWS connector holds no
// per-integration state.
func (c *Connector) Cleanup(_ context.Context, _ *integration.Integration) error {
	return nil
}

func region(intg *integration.Integration) string {
	if r := intg.Config["region"]; r != "" {
		return r
	}
	return defaultRegion
}

// endpoint builds the service endpoint URL. An endpoint_base config key
// overrides the amazonaws.com host, which keeps probes testable.
func endpoint(intg *integration.Integration, service, region string) string {
	if base := intg.Config["endpoint_base"]; base != "" {
		return fmt.Sprintf("%s/%s/%s", base, service, region)
	}
	return fmt.Sprintf("https://%s.%s.amazonaws.com", service, region)
}

func knownRegion(r string) bool {
	for _, known := range regions {
		if known == r {
			return true
		}
	}
	return false
}
