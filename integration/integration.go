// Package integration defines integrations: configured connections to
// external systems operated through pluggable connectors.
package integration

import (
	"time"

	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// Type identifies the connector kind an integration uses.
type Type string

// The fixed set of connector kinds.
const (
	TypeGitHub Type = "github"
	TypeSlack  Type = "slack"
	TypeJira   Type = "jira"
	TypeAWS    Type = "aws"
)

// Status represents the lifecycle state of an integration.
type Status string

const (
	// StatusActive indicates the integration is configured and usable.
	StatusActive Status = "active"

	// StatusInactive indicates the integration is disabled or soft-deleted.
	StatusInactive Status = "inactive"

	// StatusError indicates the most recent connector operation failed.
	StatusError Status = "error"
)

// Credentials holds an integration's secret material. The blob is opaque to
// the hub core; encryption and decryption belong to the credential service
// collaborator.
type Credentials struct {
	// Type names the credential scheme (e.g. "token", "basic", "access_key").
	Type string `json:"type"`

	// Encrypted is the opaque encrypted credential blob. Never logged.
	Encrypted string `json:"-"`
}

// Integration is one configured connection to an external system.
type Integration struct {
	entity.Entity

	// ID is the unique TypeID for this integration.
	ID id.ID `json:"id"`

	// OwnerID identifies the owner of this integration.
	OwnerID string `json:"owner_id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// Type selects the connector implementation.
	Type Type `json:"type"`

	// Config holds connector-specific configuration keys.
	Config map[string]string `json:"config"`

	// Credentials holds the integration's secret material.
	Credentials Credentials `json:"credentials"`

	// Status is the integration's lifecycle state.
	Status Status `json:"status"`

	// DeletedAt is set when the integration is soft-removed; soft-deleted
	// integrations are excluded from listings and resolution.
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
}

// ListOpts configures filtering and pagination for integration listing.
type ListOpts struct {
	Offset int
	Limit  int
	Type   Type
	Status Status
}
