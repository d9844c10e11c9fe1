package tools

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/jkhoffman/cogni/llm"
	"github.com/rs/zerolog"
)

func echoSpec(name string) llm.ToolSpec {
	return llm.ToolSpec{
		Name:        name,
		Description: "echoes its input",
		Schema:      objectSchema([]string{"text"}, map[string]any{"text": stringProp("text to echo")}),
	}
}

func TestRegisterRejectsDuplicateName(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	handler := func(ctx context.Context, args map[string]any) (any, error) { return args, nil }

	if err := r.Register(echoSpec("echo"), handler); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if err := r.Register(echoSpec("echo"), handler); err == nil {
		t.Fatal("expected duplicate registration to fail")
	}
}

func TestRegisterRejectsNonObjectSchema(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	spec := echoSpec("echo")
	spec.Schema.Type = "string"
	if err := r.Register(spec, nil); err == nil {
		t.Fatal("expected non-object schema to be rejected")
	}
}

func TestDescribeReturnsAllRegisteredSpecs(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	noop := func(ctx context.Context, args map[string]any) (any, error) { return nil, nil }
	_ = r.Register(echoSpec("a"), noop)
	_ = r.Register(echoSpec("b"), noop)

	specs := r.Describe()
	if len(specs) != 2 {
		t.Fatalf("expected 2 specs, got %d", len(specs))
	}
}

func TestExecuteUnknownToolReturnsToolExecutionError(t *testing.T) {
	r := NewRegistry(zerolog.Nop())
	_, err := r.Execute(context.Background(), llm.ToolCall{ID: "1", Name: "missing", Arguments: json.RawMessage(`{}`)})
	var e *llm.Error
	if err == nil || !errors.As(err, &e) || e.Type != llm.ErrorTypeToolExecution {
		t.Fatalf("expected ToolExecution error, got %v", err)
	}
}
