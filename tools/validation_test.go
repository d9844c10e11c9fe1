package tools

import (
	"testing"

	"github.com/jkhoffman/cogni/llm"
)

func TestValidateRequiresDeclaredFields(t *testing.T) {
	schema := objectSchema([]string{"name"}, map[string]any{"name": stringProp("")})
	if err := Validate(map[string]any{}, schema); err == nil {
		t.Fatal("expected missing required field to fail")
	}
	if err := Validate(map[string]any{"name": "x"}, schema); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsWrongType(t *testing.T) {
	schema := objectSchema(nil, map[string]any{"count": numberProp("")})
	if err := Validate(map[string]any{"count": "nope"}, schema); err == nil {
		t.Fatal("expected type mismatch to fail")
	}
	if err := Validate(map[string]any{"count": 3.0}, schema); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateEnforcesNoAdditionalProperties(t *testing.T) {
	schema := llm.ToolSchema{
		Type:        "object",
		Properties:  map[string]any{"name": stringProp("")},
		ExtraFields: map[string]any{"additionalProperties": false},
	}
	if err := Validate(map[string]any{"name": "x", "extra": 1}, schema); err == nil {
		t.Fatal("expected unexpected field to fail")
	}
}
