package template

import (
	"context"
	"log/slog"

	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/internal/entity"
)

// Service provides template management operations.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new template service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		logger: logger,
	}
}

// Input is the creation/update payload for templates.
type Input struct {
	OwnerID   string   `json:"owner_id"`
	Name      string   `json:"name"`
	Channel   string   `json:"channel"`
	Subject   string   `json:"subject"`
	Body      string   `json:"body"`
	Variables []string `json:"variables,omitempty"`
}

// Create registers a new notification template.
func (svc *Service) Create(ctx context.Context, in Input) (*Template, error) {
	if in.OwnerID == "" {
		return nil, &ValidationError{Field: "owner_id", Message: "required"}
	}
	if in.Name == "" {
		return nil, &ValidationError{Field: "name", Message: "required"}
	}
	if in.Body == "" {
		return nil, &ValidationError{Field: "body", Message: "required"}
	}

	tpl := &Template{
		Entity:    entity.New(),
		ID:        id.NewTemplateID(),
		OwnerID:   in.OwnerID,
		Name:      in.Name,
		Channel:   in.Channel,
		Subject:   in.Subject,
		Body:      in.Body,
		Variables: in.Variables,
	}

	if err := svc.store.CreateTemplate(ctx, tpl); err != nil {
		return nil, err
	}

	return tpl, nil
}

// Get returns a template by ID.
func (svc *Service) Get(ctx context.Context, tplID id.ID) (*Template, error) {
	return svc.store.GetTemplate(ctx, tplID)
}

// Update modifies an existing template.
func (svc *Service) Update(ctx context.Context, tplID id.ID, in Input) (*Template, error) {
	tpl, err := svc.store.GetTemplate(ctx, tplID)
	if err != nil {
		return nil, err
	}

	if in.Name != "" {
		tpl.Name = in.Name
	}
	if in.Channel != "" {
		tpl.Channel = in.Channel
	}
	if in.Subject != "" {
		tpl.Subject = in.Subject
	}
	if in.Body != "" {
		tpl.Body = in.Body
	}
	if in.Variables != nil {
		tpl.Variables = in.Variables
	}

	if err := svc.store.UpdateTemplate(ctx, tpl); err != nil {
		return nil, err
	}

	return tpl, nil
}

// Delete removes a template.
func (svc *Service) Delete(ctx context.Context, tplID id.ID) error {
	return svc.store.DeleteTemplate(ctx, tplID)
}

// List returns templates for an owner.
func (svc *Service) List(ctx context.Context, ownerID string, opts ListOpts) ([]*Template, error) {
	return svc.store.ListTemplates(ctx, ownerID, opts)
}

// Render loads a template and substitutes the given data into subject and body.
// All variables the template declares must be present in data.
func (svc *Service) Render(ctx context.Context, tplID id.ID, data map[string]any) (subject, body string, err error) {
	tpl, err := svc.store.GetTemplate(ctx, tplID)
	if err != nil {
		return "", "", err
	}

	for _, v := range tpl.Variables {
		if _, ok := data[v]; !ok {
			return "", "", &ValidationError{Field: "data", Message: "missing variable " + v}
		}
	}

	subject, err = Render(tpl.Subject, data)
	if err != nil {
		return "", "", err
	}
	body, err = Render(tpl.Body, data)
	if err != nil {
		return "", "", err
	}
	return subject, body, nil
}

// ValidationError indicates invalid input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return "template validation: " + e.Field + ": " + e.Message
}
