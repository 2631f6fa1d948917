package connector

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// validator validates operation parameters against the JSON Schema derived
// from an operation descriptor. Compiled schemas are cached per descriptor.
type validator struct {
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema // keyed by schema JSON content
}

func newValidator() *validator {
	return &validator{
		cache: make(map[string]*jsonschema.Schema),
	}
}

// validate checks params against the descriptor's parameter schema. A
// descriptor without parameters accepts any params map.
func (v *validator) validate(desc *OperationDescriptor, params map[string]any) error {
	if len(desc.Params) == 0 {
		return nil
	}

	compiled, err := v.compile(desc)
	if err != nil {
		return fmt.Errorf("schema compilation error: %w", err)
	}

	// The compiler operates on generic JSON values, so round-trip the
	// params through encoding/json before validating.
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal params: %w", err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("unmarshal params: %w", err)
	}

	return compiled.Validate(doc)
}

// compile returns the compiled schema for a descriptor, using the cache for
// previously-seen descriptors.
func (v *validator) compile(desc *OperationDescriptor) (*jsonschema.Schema, error) {
	schema := schemaFor(desc)

	raw, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	key := string(raw)

	v.mu.RLock()
	if cached, ok := v.cache[key]; ok {
		v.mu.RUnlock()
		return cached, nil
	}
	v.mu.RUnlock()

	var doc any
	if unmarshalErr := json.Unmarshal(raw, &doc); unmarshalErr != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", unmarshalErr)
	}

	url := "gridhook://connector/" + desc.Name

	c := jsonschema.NewCompiler()
	if addErr := c.AddResource(url, doc); addErr != nil {
		return nil, fmt.Errorf("add schema resource: %w", addErr)
	}

	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	v.mu.Lock()
	v.cache[key] = compiled
	v.mu.Unlock()

	return compiled, nil
}

// schemaFor translates an operation descriptor into a JSON Schema object.
func schemaFor(desc *OperationDescriptor) map[string]any {
	props := make(map[string]any, len(desc.Params))
	var required []string

	for _, p := range desc.Params {
		prop := map[string]any{"type": p.Type}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// applyDefaults fills absent optional parameters with descriptor defaults.
// The input map is not mutated.
func applyDefaults(desc *OperationDescriptor, params map[string]any) map[string]any {
	out := make(map[string]any, len(params)+len(desc.Params))
	for k, v := range params {
		out[k] = v
	}
	for _, p := range desc.Params {
		if p.Default == nil {
			continue
		}
		if _, ok := out[p.Name]; !ok {
			out[p.Name] = p.Default
		}
	}
	return out
}
