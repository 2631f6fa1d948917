package integration

import (
	"context"
	"log/slog"

	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// Service provides integration management operations. Connector invocation
// (initialize, test, execute) is orchestrated by the hub facade; this service
// owns the records.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new integration service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Input is the creation/update payload for integrations.
type Input struct {
	OwnerID     string            `json:"owner_id"`
	Name        string            `json:"name"`
	Type        Type              `json:"type"`
	Config      map[string]string `json:"config"`
	Credentials *Credentials      `json:"credentials,omitempty"`
}

// Create registers a new integration record in active status.
func (svc *Service) Create(ctx context.Context, in Input) (*Integration, error) {
	if in.OwnerID == "" {
		return nil, &ValidationError{Field: "owner_id", Message: "required"}
	}
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if in.Type == "" {
		return nil, &ValidationError{Field: "type", Message: "required"}
	}

	intg := &Integration{
		Entity:  entity.New(),
		ID:      id.NewIntegrationID(),
		OwnerID: in.OwnerID,
		Name:    in.Name,
		Type:    in.Type,
		Config:  in.Config,
		Status:  StatusActive,
	}
	if in.Credentials != nil {
		intg.Credentials = *in.Credentials
	}

	if err := svc.store.CreateIntegration(ctx, intg); err != nil {
		return nil, err
	}

	return intg, nil
}

// Get returns an integration by ID.
func (svc *Service) Get(ctx context.Context, intgID id.ID) (*Integration, error) {
	return svc.store.GetIntegration(ctx, intgID)
}

// Update modifies an existing integration.
func (svc *Service) Update(ctx context.Context, intgID id.ID, in Input) (*Integration, error) {
	intg, err := svc.store.GetIntegration(ctx, intgID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		intg.Name = in.Name
	}
	if in.Config != nil {
		intg.Config = in.Config
	}
	if in.Credentials != nil {
		intg.Credentials = *in.Credentials
	}

	if err := svc.store.UpdateIntegration(ctx, intg); err != nil {
		return nil, err
	}

	return intg, nil
}

// Delete soft-removes an integration.
func (svc *Service) Delete(ctx context.Context, intgID id.ID) error {
	return svc.store.DeleteIntegration(ctx, intgID)
}

// List returns non-deleted integrations for an owner.
func (svc *Service) List(ctx context.Context, ownerID string, opts ListOpts) ([]*Integration, error) {
	return svc.store.ListIntegrations(ctx, ownerID, opts)
}

// SetStatus updates the lifecycle status of an integration.
func (svc *Service) SetStatus(ctx context.Context, intgID id.ID, status Status) error {
	return svc.store.SetIntegrationStatus(ctx, intgID, status)
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "integration validation: " + e.Field + ": " + e.Message
}
