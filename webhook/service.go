package webhook

import (
	"context"
	"log/slog"
	"net/url"

	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
	"github.com/gridhook/gridhook/signature"
)

// Service provides webhook management operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new webhook service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Create registers a new webhook.
func (svc *Service) Create(ctx context.Context, in Input) (*Webhook, error) {
	if err := validateURL(in.URL); err != nil {
		return nil, err
	}

	if in.OwnerID == "" {
		return nil, &ValidationError{Field: "owner_id", Message: "required"}
	}

	if len(in.EventTypes) == 0 {
		return nil, &ValidationError{Field: "event_types", Message: "at least one event type required"}
	}

	secret := in.Secret
	if secret == "" {
		secret = signature.GenerateSecret()
	}

	policy := DefaultRetryPolicy()
	if in.RetryPolicy != nil {
		policy = in.RetryPolicy.normalize()
	}

	wh := &Webhook{
		Entity:          entity.New(),
		ID:              id.NewWebhookID(),
		OwnerID:         in.OwnerID,
		URL:             in.URL,
		Description:     in.Description,
		Secret:          secret,
		EventTypes:      in.EventTypes,
		Headers:         in.Headers,
		PayloadTemplate: in.PayloadTemplate,
		RetryPolicy:     policy,
		Active:          true,
		Metadata:        in.Metadata,
	}

	if err := svc.store.CreateWebhook(ctx, wh); err != nil {
		return nil, err
	}

	return wh, nil
}

// Get returns a webhook by ID.
func (svc *Service) Get(ctx context.Context, whID id.ID) (*Webhook, error) {
	return svc.store.GetWebhook(ctx, whID)
}

// Update modifies an existing webhook.
func (svc *Service) Update(ctx context.Context, whID id.ID, in Input) (*Webhook, error) {
	wh, err := svc.store.GetWebhook(ctx, whID)
	if err != nil {
		return nil, err
	}

	if in.URL != "" {
		if err := validateURL(in.URL); err != nil {
			return nil, err
		}
		wh.URL = in.URL
	}
	if in.Description != "" {
		wh.Description = in.Description
	}
	if len(in.EventTypes) > 0 {
		wh.EventTypes = in.EventTypes
	}
	if in.Headers != nil {
		wh.Headers = in.Headers
	}
	if in.PayloadTemplate != "" {
		wh.PayloadTemplate = in.PayloadTemplate
	}
	if in.RetryPolicy != nil {
		wh.RetryPolicy = in.RetryPolicy.normalize()
	}
	if in.Metadata != nil {
		wh.Metadata = in.Metadata
	}

	if err := svc.store.UpdateWebhook(ctx, wh); err != nil {
		return nil, err
	}

	return wh, nil
}

// Delete removes a webhook. The store drops all of its queued (non-terminal)
// deliveries; delivery history stays.
func (svc *Service) Delete(ctx context.Context, whID id.ID) error {
	return svc.store.DeleteWebhook(ctx, whID)
}

// List returns webhooks for an owner.
func (svc *Service) List(ctx context.Context, ownerID string, opts ListOpts) ([]*Webhook, error) {
	return svc.store.ListWebhooks(ctx, ownerID, opts)
}

// SetActive enables or disables a webhook.
func (svc *Service) SetActive(ctx context.Context, whID id.ID, active bool) error {
	return svc.store.SetWebhookActive(ctx, whID, active)
}

// RotateSecret generates a new signing secret for a webhook.
func (svc *Service) RotateSecret(ctx context.Context, whID id.ID) (string, error) {
	wh, err := svc.store.GetWebhook(ctx, whID)
	if err != nil {
		return "", err
	}

	newSecret := signature.GenerateSecret()

	wh.Secret = newSecret
	if err := svc.store.UpdateWebhook(ctx, wh); err != nil {
		return "", err
	}

	return newSecret, nil
}

// validateURL requires an http/https scheme and a non-empty host.
func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return &ValidationError{Field: "url", Message: "invalid URL"}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return &ValidationError{Field: "url", Message: "scheme must be http or https"}
	}
	if u.Host == "" {
		return &ValidationError{Field: "url", Message: "host required"}
	}
	return nil
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "webhook validation: " + e.Field + ": " + e.Message
}
