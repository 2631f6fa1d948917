// Package template manages notification templates and placeholder rendering.
package template

import (
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// Template is a reusable notification body with {{name}} placeholders.
type Template struct {
	entity.Entity

	// ID is the unique TypeID for this template.
	ID id.ID `json:"id"`

	// OwnerID identifies the owner of this template.
	OwnerID string `json:"owner_id"`

	// Name is the unique-per-owner template name.
	Name string `json:"name"`

	// Channel is the notification channel this template targets.
	Channel string `json:"channel"`

	// Subject is the rendered notification subject. May contain placeholders.
	Subject string `json:"subject"`

	// Body is the rendered notification body. May contain placeholders.
	Body string `json:"body"`

	// Variables lists the placeholder names the template requires.
	Variables []string `json:"variables,omitempty"`
}

// ListOpts configures filtering and pagination for template listing.
type ListOpts struct {
	Offset  int
	Limit   int
	Channel string
}
