package integration_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gridhook/gridhook"
	"github.com/gridhook/gridhook/id"
	"github.com/gridhook/gridhook/integration"
	"github.com/gridhook/gridhook/store/memory"
)

func ctx() context.Context { return context.Background() }

func newService() *integration.Service {
	return integration.NewService(memory.New(), nil)
}

func githubInput(ownerID string) integration.Input {
	return integration.Input{
		OwnerID: ownerID,
		Name:    "ci-github",
		Type:    integration.TypeGitHub,
		Config:  map[string]string{"org": "acme"},
		Credentials: &integration.Credentials{
			Type:      "token",
			Encrypted: "ghp_opaque",
		},
	}
}

func TestCreate(t *testing.T) {
	svc := newService()

	intg, err := svc.Create(ctx(), githubInput("o1"))
	if err != nil {
		t.Fatal(err)
	}
	if intg.ID.IsNil() {
		t.Error("no ID assigned")
	}
	if intg.Status != integration.StatusActive {
		t.Errorf("status = %s, want active", intg.Status)
	}
	if intg.Config["org"] != "acme" {
		t.Errorf("config = %v", intg.Config)
	}
}

func TestCreateValidation(t *testing.T) {
	svc := newService()

	cases := []integration.Input{
		{Name: "n", Type: integration.TypeSlack},
		{OwnerID: "o1", Type: integration.TypeSlack},
		{OwnerID: "o1", Name: "n"},
	}
	for _, in := range cases {
		var verr *integration.ValidationError
		if _, err := svc.Create(ctx(), in); !errors.As(err, &verr) {
			t.Errorf("Create(%+v): expected validation error, got %v", in, err)
		}
	}
}

func TestUpdate(t *testing.T) {
	svc := newService()
	intg, err := svc.Create(ctx(), githubInput("o1"))
	if err != nil {
		t.Fatal(err)
	}

	got, err := svc.Update(ctx(), intg.ID, integration.Input{
		Config: map[string]string{"org": "globex"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.Config["org"] != "globex" {
		t.Errorf("config = %v", got.Config)
	}
	if got.Name != intg.Name {
		t.Errorf("name changed to %q", got.Name)
	}
}

func TestSoftDelete(t *testing.T) {
	svc := newService()
	intg, err := svc.Create(ctx(), githubInput("o1"))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(ctx(), intg.ID); err != nil {
		t.Fatal(err)
	}

	// Soft-deleted integrations stay fetchable by ID but leave listings.
	got, err := svc.Get(ctx(), intg.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.DeletedAt == nil {
		t.Error("deleted_at not set")
	}

	list, err := svc.List(ctx(), "o1", integration.ListOpts{})
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 0 {
		t.Errorf("listed %d integrations after delete", len(list))
	}
}

func TestSetStatus(t *testing.T) {
	svc := newService()
	intg, err := svc.Create(ctx(), githubInput("o1"))
	if err != nil {
		t.Fatal(err)
	}

	if err := svc.SetStatus(ctx(), intg.ID, integration.StatusError); err != nil {
		t.Fatal(err)
	}
	got, _ := svc.Get(ctx(), intg.ID)
	if got.Status != integration.StatusError {
		t.Errorf("status = %s, want error", got.Status)
	}

	if err := svc.SetStatus(ctx(), id.NewIntegrationID(), integration.StatusActive); !errors.Is(err, gridhook.ErrIntegrationNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
