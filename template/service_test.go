package template_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/store/memory"
	"github.com/gridhook/gridhook/template"
)

func ctx() context.Context { return context.Background() }

func newService() *template.Service {
	return template.NewService(memory.New(), nil)
}

func deployTemplate(ownerID string) template.Input {
	return template.Input{
		OwnerID:   ownerID,
		Name:      "deploy-done",
		Channel:   "chat",
		Subject:   "Deploy {{version}}",
		Body:      "{{service}} {{version}} is live",
		Variables: []string{"service", "version"},
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService()

	cases := []template.Input{
		{Name: "n", Body: "b"},     // no owner
		{OwnerID: "o1", Body: "b"}, // no name
		{OwnerID: "o1", Name: "n"}, // no body
	}
	for _, in := range cases {
		var verr *template.ValidationError
		if _, err := svc.Create(ctx(), in); !errors.As(err, &verr) {
			t.Errorf("Create(%+v): expected validation error, got %v", in, err)
		}
	}
}

func TestNameUniquePerOwner(t *testing.T) {
	svc := newService()

	if _, err := svc.Create(ctx(), deployTemplate("o1")); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(ctx(), deployTemplate("o1")); !errors.Is(err, gridhook.ErrDuplicateTemplateName) {
		t.Fatalf("expected duplicate name error, got %v", err)
	}
	// The same name is fine for a different owner.
	if _, err := svc.Create(ctx(), deployTemplate("o2")); err != nil {
		t.Fatal(err)
	}
}

func TestUpdate(t *testing.T) {
	svc := newService()
	tpl, err := svc.Create(ctx(), deployTemplate("o1"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Update(ctx(), tpl.ID, template.Input{Subject: "Deployed {{version}}"})
	if err != nil {
		t.Fatal(err)
	}
	if got.Subject != "Deployed {{version}}" {
		t.Errorf("subject = %q", got.Subject)
	}
	// Untouched fields keep their values.
	if got.Body != tpl.Body || got.Name != tpl.Name {
		t.Errorf("unrelated fields changed: %+v", got)
	}
}

func TestRenderThroughService(t *testing.T) {
	svc := newService()
	tpl, err := svc.Create(ctx(), deployTemplate("o1"))
	if err != nil {
		t.Fatal(err)
	}

	subject, body, err := svc.Render(ctx(), tpl.ID, map[string]any{
		"service": "gridhook",
		"version": "v1.2.0",
	})
	if err != nil {
		t.Fatal(err)
	}
	if subject != "Deploy v1.2.0" {
		t.Errorf("subject = %q", subject)
	}
	if body != "gridhook v1.2.0 is live" {
		t.Errorf("body = %q", body)
	}

	// A declared variable missing from data is rejected before rendering.
	var verr *template.ValidationError
	if _, _, err := svc.Render(ctx(), tpl.ID, map[string]any{"service": "gridhook"}); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc := newService()
	tpl, err := svc.Create(ctx(), deployTemplate("o1"))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx(), tpl.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Get(ctx(), tpl.ID); !errors.Is(err, gridhook.ErrTemplateNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	// Deleting frees the name for reuse.
	if _, err := svc.Create(ctx(), deployTemplate("o1")); err != nil {
		t.Fatal(err)
	}
}
