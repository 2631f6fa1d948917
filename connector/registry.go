package connector

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"github.com/gridhook/gridhook/integration"
)

// Registry holds the registered connectors, keyed by integration type, and
// routes operations to them. Parameter validation happens here so individual
// connectors can trust their inputs.
//
// The registry never retries: a failed connector call is returned to the
// caller as-is.
type Registry struct {
	mu         sync.RWMutex
	connectors map[integration.Type]Connector
	validator  *validator
	logger     *slog.Logger
}

// NewRegistry creates an empty connector registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		connectors: make(map[integration.Type]Connector),
		validator:  newValidator(),
		logger:     logger,
	}
}

// Register adds a connector. Registering a second connector for the same
// type replaces the first.
func (r *Registry) Register(c Connector) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.connectors[c.Type()] = c
}

// Get returns the connector for an integration type.
func (r *Registry) Get(typ integration.Type) (Connector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.connectors[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownType, typ)
	}
	return c, nil
}

// Types returns the registered integration types in sorted order.
func (r *Registry) Types() []integration.Type {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]integration.Type, 0, len(r.connectors))
	for t := range r.connectors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// Initialize routes Initialize to the integration's connector.
func (r *Registry) Initialize(ctx context.Context, intg *integration.Integration) (*Info, error) {
	c, err := r.Get(intg.Type)
	if err != nil {
		return nil, err
	}
	return c.Initialize(ctx, intg)
}

// TestConnection routes a connectivity probe to the integration's connector.
func (r *Registry) TestConnection(ctx context.Context, intg *integration.Integration) (*TestOutcome, error) {
	c, err := r.Get(intg.Type)
	if err != nil {
		return nil, err
	}
	return c.TestConnection(ctx, intg)
}

// Execute validates params against the operation's descriptor, applies
// parameter defaults, and dispatches to the integration's connector.
func (r *Registry) Execute(ctx context.Context, intg *integration.Integration, op string, params map[string]any) (map[string]any, error) {
	c, err := r.Get(intg.Type)
	if err != nil {
		return nil, err
	}

	desc := Descriptor(c, op)
	if desc == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, intg.Type, op)
	}

	if params == nil {
		params = map[string]any{}
	}
	params = applyDefaults(desc, params)

	if err := r.validator.validate(desc, params); err != nil {
		return nil, &ValidationError{Operation: op, Message: err.Error()}
	}

	r.logger.Debug("executing connector operation",
		"type", intg.Type,
		"operation", op,
		"integration_id", intg.ID)

	return c.Execute(ctx, intg, op, params)
}

// Operations returns the operation descriptors for an integration type.
func (r *Registry) Operations(typ integration.Type) ([]OperationDescriptor, error) {
	c, err := r.Get(typ)
	if err != nil {
		return nil, err
	}
	return c.Operations(), nil
}

// Cleanup routes Cleanup to the integration's connector. An unknown type is
// a no-op so removing an integration never fails on a missing connector.
func (r *Registry) Cleanup(ctx context.Context, intg *integration.Integration) error {
	c, err := r.Get(intg.Type)
	if err != nil {
		return nil
	}
	return c.Cleanup(ctx, intg)
}
