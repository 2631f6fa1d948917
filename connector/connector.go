// Package connector defines the pluggable connector contract and the
// registry that routes integration operations to connector implementations.
package connector

import (
	"context"

	"github.com/gridhook/gridhook/integration"
)

// Connector is implemented once per external system kind. Implementations
// must be safe for concurrent use: a single connector instance serves every
// integration of its type.
type Connector interface {
	// Type returns the integration type this connector serves.
	Type() integration.Type

	// Initialize validates the integration's configuration and credentials
	// and returns descriptive information about the connection. It must not
	// mutate the integration.
	Initialize(ctx context.Context, intg *integration.Integration) (*Info, error)

	// TestConnection performs a bounded connectivity probe against the
	// external system. A failed probe is reported in the outcome, not as an
	// error; errors are reserved for invalid input or local failures.
	TestConnection(ctx context.Context, intg *integration.Integration) (*TestOutcome, error)

	// Execute runs a named operation with validated parameters and returns
	// the operation result. Remote failures surface as *RemoteError.
	// Connectors never retry; retry policy belongs to callers.
	Execute(ctx context.Context, intg *integration.Integration, op string, params map[string]any) (map[string]any, error)

	// Operations describes the operations this connector supports.
	Operations() []OperationDescriptor

	// Cleanup releases any resources held for the integration. It is
	// idempotent: cleaning up an integration that holds nothing is a no-op.
	Cleanup(ctx context.Context, intg *integration.Integration) error
}

// Info describes an initialized connection.
type Info struct {
	// Name is the connector's human-readable name.
	Name string `json:"name"`

	// Version is the connector implementation version.
	Version string `json:"version"`

	// Account identifies the remote account or workspace the integration
	// is bound to, when the connector can determine it.
	Account string `json:"account,omitempty"`

	// Capabilities lists optional features the connection supports.
	Capabilities []string `json:"capabilities,omitempty"`
}

// TestOutcome is the result of a connectivity probe.
type TestOutcome struct {
	// Success reports whether the probe reached the external system and
	// authenticated successfully.
	Success bool `json:"success"`

	// Message is a human-readable summary of the probe result.
	Message string `json:"message"`

	// LatencyMs is the probe round-trip time in milliseconds.
	LatencyMs int64 `json:"latency_ms"`

	// StatusCode is the HTTP status of the probe response, when applicable.
	StatusCode int `json:"status_code,omitempty"`
}

// OperationDescriptor declares one operation a connector supports, including
// its parameter schema. Descriptors drive parameter validation before
// dispatch.
type OperationDescriptor struct {
	// Name is the operation identifier passed to Execute.
	Name string `json:"name"`

	// Description explains what the operation does.
	Description string `json:"description"`

	// Params declares the accepted parameters.
	Params []ParamSpec `json:"params,omitempty"`

	// Returns describes the shape of the operation result.
	Returns string `json:"returns,omitempty"`
}

// ParamSpec declares one operation parameter.
type ParamSpec struct {
	// Name is the parameter key in the params map.
	Name string `json:"name"`

	// Type is the JSON type of the parameter: "string", "number",
	// "integer", "boolean", "array" or "object".
	Type string `json:"type"`

	// Required marks the parameter as mandatory.
	Required bool `json:"required,omitempty"`

	// Default is applied when the parameter is absent. A required
	// parameter must not carry a default.
	Default any `json:"default,omitempty"`

	// Description explains the parameter.
	Description string `json:"description,omitempty"`
}

// Descriptor returns the descriptor for the named operation, or nil when the
// connector does not support it.
func Descriptor(c Connector, op string) *OperationDescriptor {
	for _, d := range c.Operations() {
		if d.Name == op {
			return &d
		}
	}
	return nil
}
