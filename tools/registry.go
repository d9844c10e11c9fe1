// Package tools implements the tool registry and executor: named handlers
// with input schemas, validated and invoked against model-emitted tool
// calls.
package tools

import (
	"context"
	"fmt"
	"sync"

	"github.com/jkhoffman/cogni/llm"
	"github.com/jkhoffman/cogni/logger"
	"github.com/rs/zerolog"
)

// Handler executes a tool call. args is the parsed JSON arguments object;
// the returned value is marshaled to JSON text as the tool result.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// entry pairs a tool's descriptor with its handler. Register adds entries
// to the map in place under the write lock; Describe/Execute only read
// the map, under the read lock.
type entry struct {
	spec    llm.ToolSpec
	handler Handler
}

// Registry maps tool name to (descriptor, handler). Safe for concurrent
// reads; Register is expected to happen during setup, before concurrent
// Execute/ExecuteMany calls begin.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  zerolog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(base zerolog.Logger) *Registry {
	return &Registry{
		entries: make(map[string]entry),
		logger:  logger.Component(base, "tool_registry"),
	}
}

// Register adds a tool. Fails with a Validation error if the name is
// already registered or the schema is not a valid JSON-Schema object.
func (r *Registry) Register(spec llm.ToolSpec, handler Handler) error {
	if spec.Name == "" {
		return llm.NewValidationError("tool registration: name must not be empty")
	}
	if err := validateSchemaShape(spec.Schema); err != nil {
		return llm.NewValidationError("tool " + spec.Name + ": " + err.Error())
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[spec.Name]; exists {
		return llm.NewValidationError("tool " + spec.Name + " is already registered")
	}
	r.entries[spec.Name] = entry{spec: spec, handler: handler}
	r.logger.Debug().Str("tool", spec.Name).Msg("registered tool")
	return nil
}

// Describe returns every registered tool's descriptor, for embedding into
// a Request's Tools field. Order follows map iteration: it is not
// registration order and may differ between calls.
func (r *Registry) Describe() []llm.ToolSpec {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]llm.ToolSpec, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.spec)
	}
	return out
}

// lookup returns the entry for name, or false if unregistered.
func (r *Registry) lookup(name string) (entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// validateSchemaShape rejects schemas too malformed to serve as tool
// parameters. A full JSON-Schema validator is out of scope; this is a
// shallow well-formedness check applied at registration time (object
// type, schema-shaped property map).
func validateSchemaShape(schema llm.ToolSchema) error {
	if schema.Type != "object" {
		return fmt.Errorf("schema type must be %q, got %q", "object", schema.Type)
	}
	for name, prop := range schema.Properties {
		if _, ok := prop.(map[string]any); !ok {
			return fmt.Errorf("property %q is not a schema object", name)
		}
	}
	return nil
}
