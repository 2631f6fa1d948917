// Package store defines the composite Store interface for all Gridhook
// persistence.
//
// Each subsystem defines its own store interface next to its models; the
// aggregate Store composes them all, so a backend implements every subsystem
// in one type.
package store

import (
	"context"

	"github.com/gridhook/gridhook/bus"
	"github.com/gridhook/gridhook/delivery"
	"github.com/gridhook/gridhook/dlq"
	"github.com/gridhook/gridhook/integration"
	"github.com/gridhook/gridhook/template"
	"github.com/gridhook/gridhook/webhook"
)

// Store is the aggregate persistence interface.
type Store interface {
	integration.Store
	webhook.Store
	delivery.Store
	bus.Store
	template.Store
	dlq.Store

	// Ping checks backend connectivity.
	Ping(ctx context.Context) error

	// Close closes the store connection.
	Close() error
}
