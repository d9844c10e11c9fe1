package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	"github.com/jkhoffman/cogni/llm"
)

// StructuredOutput is implemented by types that provide their own JSON
// Schema for structured-output requests, rather than relying on
// reflection.
type StructuredOutput interface {
	Schema() map[string]any
}

// ChatStructured sends messages with a JSON-Schema response format
// derived from T (via its Schema method if T implements StructuredOutput,
// otherwise via reflection with github.com/invopop/jsonschema), and
// unmarshals the response into a T.
func ChatStructured[T any](ctx context.Context, c *Client, messages []llm.Message) (T, error) {
	var zero T
	schema, err := schemaFor(zero)
	if err != nil {
		return zero, err
	}

	req := &llm.Request{
		Messages: messages,
		ResponseFormat: &llm.ResponseFormat{
			Type:   llm.ResponseFormatJSONSchema,
			Schema: schema,
			Strict: true,
		},
	}

	resp, err := c.Execute(ctx, req)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal([]byte(resp.ContentText), &out); err != nil {
		return zero, llm.NewSerializationError(fmt.Sprintf("chat_structured: decode response: %v", err), err)
	}
	return out, nil
}

func schemaFor(v any) (map[string]any, error) {
	if so, ok := v.(StructuredOutput); ok {
		return so.Schema(), nil
	}

	reflector := &jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	schema := reflector.Reflect(v)
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("structured: reflect schema: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("structured: decode reflected schema: %w", err)
	}
	return m, nil
}
