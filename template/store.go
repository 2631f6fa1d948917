package template

import (
	"context"

	"github.com/gridhook/gridhook/id"
)

// Store defines the persistence contract for notification templates.
type Store interface {
	// CreateTemplate persists a new template.
	CreateTemplate(ctx context.Context, tpl *Template) error

	// GetTemplate returns a template by ID.
	GetTemplate(ctx context.Context, tplID id.ID) (*Template, error)

	// GetTemplateByName returns an owner's template by name.
	GetTemplateByName(ctx context.Context, ownerID, name string) (*Template, error)

	// UpdateTemplate modifies an existing template.
	UpdateTemplate(ctx context.Context, tpl *Template) error

	// DeleteTemplate removes a template.
	DeleteTemplate(ctx context.Context, tplID id.ID) error

	// ListTemplates returns templates for an owner, optionally filtered.
	ListTemplates(ctx context.Context, ownerID string, opts ListOpts) ([]*Template, error)
}
