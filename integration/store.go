package integration

import (
	"context"

	"github.com/gridhook/gridhook/id"
)

// Store defines the persistence contract for integrations.
type Store interface {
	// CreateIntegration persists a new integration.
	CreateIntegration(ctx context.Context, in *Integration) error

	// GetIntegration returns an integration by ID, including soft-deleted ones.
	GetIntegration(ctx context.Context, intgID id.ID) (*Integration, error)

	// UpdateIntegration modifies an existing integration.
	UpdateIntegration(ctx context.Context, in *Integration) error

	// DeleteIntegration soft-removes an integration: it is marked inactive
	// with a deletion timestamp and excluded from listings.
	DeleteIntegration(ctx context.Context, intgID id.ID) error

	// ListIntegrations returns non-deleted integrations for an owner.
	ListIntegrations(ctx context.Context, ownerID string, opts ListOpts) ([]*Integration, error)

	// SetIntegrationStatus updates the lifecycle status.
	SetIntegrationStatus(ctx context.Context, intgID id.ID, status Status) error

	// CountIntegrations returns total and active counts across all owners.
	CountIntegrations(ctx context.Context) (total, active int64, err error)
}
