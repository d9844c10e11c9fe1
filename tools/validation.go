package tools

import (
	"fmt"
	"math"

	"github.com/jkhoffman/cogni/llm"
)

// Validate checks that args satisfies schema: every required field is
// present, and every present field matches its declared JSON-Schema
// primitive type. This is a minimal, non-recursive validator — it does
// not descend into nested object/array schemas — which covers every
// built-in tool's parameter shape.
func Validate(args map[string]any, schema llm.ToolSchema) error {
	if args == nil {
		args = map[string]any{}
	}

	for _, field := range schema.Required {
		if _, ok := args[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	if additionalPropertiesDisallowed(schema) {
		for key := range args {
			if _, declared := schema.Properties[key]; !declared {
				return fmt.Errorf("unexpected field: %s", key)
			}
		}
	}

	for key, value := range args {
		propDef, ok := schema.Properties[key]
		if !ok {
			continue
		}
		expected := schemaPropertyType(propDef)
		if expected == "" {
			continue
		}
		if err := checkType(value, expected); err != nil {
			return fmt.Errorf("field %s: %w", key, err)
		}
	}

	return nil
}

func additionalPropertiesDisallowed(schema llm.ToolSchema) bool {
	allowed, ok := schema.ExtraFields["additionalProperties"].(bool)
	return ok && !allowed
}

func schemaPropertyType(def any) string {
	m, ok := def.(map[string]any)
	if !ok {
		return ""
	}
	t, _ := m["type"].(string)
	return t
}

func checkType(value any, expected string) error {
	switch expected {
	case "string":
		if _, ok := value.(string); ok {
			return nil
		}
	case "number":
		if isNumber(value) {
			return nil
		}
	case "integer":
		if isInteger(value) {
			return nil
		}
	case "boolean":
		if _, ok := value.(bool); ok {
			return nil
		}
	case "object":
		if _, ok := value.(map[string]any); ok {
			return nil
		}
	case "array":
		if _, ok := value.([]any); ok {
			return nil
		}
	case "null":
		if value == nil {
			return nil
		}
	default:
		return fmt.Errorf("unsupported schema type %q", expected)
	}
	return fmt.Errorf("expected %s but got %T", expected, value)
}

func isNumber(value any) bool {
	switch value.(type) {
	case float32, float64, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isInteger(value any) bool {
	switch v := value.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	case float32:
		return math.Trunc(float64(v)) == float64(v)
	case float64:
		return math.Trunc(v) == v
	}
	return false
}
