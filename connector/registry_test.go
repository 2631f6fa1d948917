package connector_test

import (
	"context"
	"errors"
	"testing"

	"github.com/gridhook/gridhook/connector"
	"github.com/gridhook/gridhook/integration"
)

type fakeConnector struct {
	typ      integration.Type
	executed map[string]any
	result   map[string]any
	err      error
}

func (f *fakeConnector) Type() integration.Type { return f.typ }

func (f *fakeConnector) Initialize(context.Context, *integration.Integration) (*connector.Info, error) {
	return &connector.Info{Name: string(f.typ)}, nil
}

func (f *fakeConnector) TestConnection(context.Context, *integration.Integration) (*connector.TestOutcome, error) {
	return &connector.TestOutcome{Success: true, Message: "ok"}, nil
}

func (f *fakeConnector) Execute(_ context.Context, _ *integration.Integration, op string, params map[string]any) (map[string]any, error) {
	f.executed = params
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeConnector) Operations() []connector.OperationDescriptor {
	return []connector.OperationDescriptor{
		{
			Name: "greet",
			Params: []connector.ParamSpec{
				{Name: "name", Type: "string", Required: true},
				{Name: "loud", Type: "boolean", Default: false},
			},
		},
	}
}

func (f *fakeConnector) Cleanup(context.Context, *integration.Integration) error { return nil }

func testIntegration(typ integration.Type) *integration.Integration {
	return &integration.Integration{
		OwnerID: "org_1",
		Name:    "test",
		Type:    typ,
		Status:  integration.StatusActive,
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := connector.NewRegistry(nil)

	_, err := r.Execute(context.Background(), testIntegration("nope"), "greet", nil)
	if !errors.Is(err, connector.ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestRegistryUnknownOperation(t *testing.T) {
	r := connector.NewRegistry(nil)
	r.Register(&fakeConnector{typ: "fake"})

	_, err := r.Execute(context.Background(), testIntegration("fake"), "does_not_exist", nil)
	if !errors.Is(err, connector.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestRegistryValidatesParams(t *testing.T) {
	fake := &fakeConnector{typ: "fake"}
	r := connector.NewRegistry(nil)
	r.Register(fake)

	// Missing required param.
	_, err := r.Execute(context.Background(), testIntegration("fake"), "greet", map[string]any{})
	var verr *connector.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if fake.executed != nil {
		t.Fatal("connector must not run when validation fails")
	}

	// Wrong type.
	_, err = r.Execute(context.Background(), testIntegration("fake"), "greet", map[string]any{"name": 42})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for wrong type, got %v", err)
	}

	// Unknown param rejected.
	_, err = r.Execute(context.Background(), testIntegration("fake"), "greet", map[string]any{"name": "a", "extra": true})
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError for unknown param, got %v", err)
	}
}

func TestRegistryAppliesDefaults(t *testing.T) {
	fake := &fakeConnector{typ: "fake", result: map[string]any{"ok": true}}
	r := connector.NewRegistry(nil)
	r.Register(fake)

	out, err := r.Execute(context.Background(), testIntegration("fake"), "greet", map[string]any{"name": "ada"})
	if err != nil {
		t.Fatal(err)
	}
	if out["ok"] != true {
		t.Fatalf("unexpected result: %v", out)
	}
	if got, ok := fake.executed["loud"].(bool); !ok || got != false {
		t.Fatalf("expected default loud=false to be applied, got %v", fake.executed["loud"])
	}
	if fake.executed["name"] != "ada" {
		t.Fatalf("expected name passthrough, got %v", fake.executed["name"])
	}
}

func TestRegistryTypes(t *testing.T) {
	r := connector.NewRegistry(nil)
	r.Register(&fakeConnector{typ: "zeta"})
	r.Register(&fakeConnector{typ: "alpha"})

	types := r.Types()
	if len(types) != 2 || types[0] != "alpha" || types[1] != "zeta" {
		t.Fatalf("expected sorted types, got %v", types)
	}
}

func TestRegistryCleanupUnknownTypeIsNoop(t *testing.T) {
	r := connector.NewRegistry(nil)
	if err := r.Cleanup(context.Background(), testIntegration("gone")); err != nil {
		t.Fatalf("cleanup of unknown type should be a no-op, got %v", err)
	}
}
