package ollama

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jkhoffman/cogni/llm"
	"github.com/ollama/ollama/api"
)

// validateAndConvertToolArguments checks required parameters and converts
// argument values to the types named in the tool's JSON schema. Ollama
// models are prone to emitting stringified numbers/booleans, so this is not
// optional the way it would be for OpenAI/Anthropic's stricter function
// calling.
func validateAndConvertToolArguments(toolName string, args map[string]interface{}, schema llm.ToolSchema) (api.ToolCallFunctionArguments, error) {
	result := make(api.ToolCallFunctionArguments)

	for _, reqParam := range schema.Required {
		val, exists := args[reqParam]
		if !exists {
			providedKeys := make([]string, 0, len(args))
			for k := range args {
				providedKeys = append(providedKeys, k)
			}
			return nil, fmt.Errorf("missing required parameter %q for tool %q (provided: %v)", reqParam, toolName, providedKeys)
		}
		if isEmptyValue(val) {
			return nil, fmt.Errorf("required parameter %q for tool %q cannot be empty", reqParam, toolName)
		}
	}

	properties := schema.Properties
	if properties == nil {
		properties = make(map[string]interface{})
	}

	for k, v := range args {
		propSchema, exists := properties[k]
		if !exists {
			result[k] = v
			continue
		}
		converted, err := convertValueToType(v, getPropertyType(propSchema), k)
		if err != nil {
			return nil, fmt.Errorf("convert parameter %q for tool %q: %w", k, toolName, err)
		}
		result[k] = converted
	}

	return result, nil
}

func isEmptyValue(v interface{}) bool {
	if v == nil {
		return true
	}
	switch val := v.(type) {
	case string:
		return val == ""
	case []interface{}:
		return len(val) == 0
	case []string:
		return len(val) == 0
	case map[string]interface{}:
		return len(val) == 0
	}
	return false
}

func getPropertyType(propSchema interface{}) string {
	if propMap, ok := propSchema.(map[string]interface{}); ok {
		if propType, ok := propMap["type"].(string); ok {
			return propType
		}
	}
	return "string"
}

func convertValueToType(v interface{}, targetType, paramName string) (interface{}, error) {
	switch targetType {
	case "integer", "int":
		return convertToInteger(v, paramName)
	case "number", "float":
		return convertToNumber(v, paramName)
	case "boolean", "bool":
		return convertToBoolean(v, paramName)
	case "string":
		return convertToString(v), nil
	default:
		return v, nil
	}
}

func convertToInteger(v interface{}, paramName string) (interface{}, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case int64:
		return int(val), nil
	case float64:
		return int(val), nil
	case string:
		var i int
		if _, err := fmt.Sscanf(val, "%d", &i); err != nil {
			return nil, fmt.Errorf("parameter %q: cannot convert %q to integer", paramName, val)
		}
		return i, nil
	default:
		return nil, fmt.Errorf("parameter %q: cannot convert %T to integer", paramName, v)
	}
}

func convertToNumber(v interface{}, paramName string) (interface{}, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		var f float64
		if _, err := fmt.Sscanf(val, "%f", &f); err != nil {
			return nil, fmt.Errorf("parameter %q: cannot convert %q to number", paramName, val)
		}
		return f, nil
	default:
		return nil, fmt.Errorf("parameter %q: cannot convert %T to number", paramName, v)
	}
}

func convertToBoolean(v interface{}, paramName string) (interface{}, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		switch strings.ToLower(val) {
		case "true", "1", "yes", "on":
			return true, nil
		case "false", "0", "no", "off":
			return false, nil
		default:
			return nil, fmt.Errorf("parameter %q: cannot convert %q to boolean", paramName, val)
		}
	case int:
		return val != 0, nil
	default:
		return nil, fmt.Errorf("parameter %q: cannot convert %T to boolean", paramName, v)
	}
}

func convertToString(v interface{}) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// ToOllamaMessages converts a canonical message list to Ollama chat format.
// toolSpecs, if given, is used to validate and type-convert tool-call
// arguments on outgoing assistant messages.
func ToOllamaMessages(msgs []llm.Message, toolSpecs ...[]llm.ToolSpec) ([]api.Message, error) {
	var toolSpecMap map[string]llm.ToolSpec
	if len(toolSpecs) > 0 && len(toolSpecs[0]) > 0 {
		toolSpecMap = make(map[string]llm.ToolSpec)
		for _, spec := range toolSpecs[0] {
			toolSpecMap[spec.Name] = spec
		}
	}

	result := make([]api.Message, 0, len(msgs))
	for _, msg := range msgs {
		ollamaMsg, err := ToOllamaMessage(msg, toolSpecMap)
		if err != nil {
			return nil, fmt.Errorf("convert message: %w", err)
		}
		result = append(result, ollamaMsg)
	}
	return result, nil
}

// ToOllamaMessage converts a single canonical Message to Ollama format.
func ToOllamaMessage(msg llm.Message, toolSpecMap map[string]llm.ToolSpec) (api.Message, error) {
	role := string(msg.Role)
	if msg.Role == llm.RoleTool {
		role = "tool"
	}

	ollamaMsg := api.Message{Role: role, Content: textOf(msg.Content)}

	for _, tc := range msg.Metadata.ToolCalls {
		argsMap, err := tc.ArgumentsMap()
		if err != nil {
			return api.Message{}, fmt.Errorf("tool call %s: %w", tc.ID, err)
		}

		var args api.ToolCallFunctionArguments
		if spec, ok := toolSpecMap[tc.Name]; ok {
			converted, err := validateAndConvertToolArguments(tc.Name, argsMap, spec.Schema)
			if err != nil {
				return api.Message{}, fmt.Errorf("tool argument validation failed: %w", err)
			}
			args = converted
		} else {
			args = make(api.ToolCallFunctionArguments, len(argsMap))
			for k, v := range argsMap {
				args[k] = v
			}
		}

		ollamaMsg.ToolCalls = append(ollamaMsg.ToolCalls, api.ToolCall{
			Function: api.ToolCallFunction{Name: tc.Name, Arguments: args},
		})
	}

	return ollamaMsg, nil
}

func textOf(c llm.Content) string {
	switch c.Type {
	case llm.ContentTypeText:
		return c.Text
	case llm.ContentTypeMulti:
		var b strings.Builder
		for _, p := range c.Parts {
			b.WriteString(textOf(p))
		}
		return b.String()
	default:
		return ""
	}
}

// FromOllamaMessage converts an Ollama message to a canonical Message.
func FromOllamaMessage(msg *api.Message) (llm.Message, error) {
	role := llm.RoleUser
	switch msg.Role {
	case "assistant":
		role = llm.RoleAssistant
	case "system":
		role = llm.RoleSystem
	case "tool":
		role = llm.RoleTool
	}

	var toolCalls []llm.ToolCall
	for i, toolCall := range msg.ToolCalls {
		args, err := json.Marshal(toolCall.Function.Arguments)
		if err != nil {
			return llm.Message{}, fmt.Errorf("marshal tool call arguments: %w", err)
		}
		// Ollama does not assign tool call IDs; synthesize a stable one.
		toolCalls = append(toolCalls, llm.ToolCall{
			ID:        fmt.Sprintf("call_%s_%d", toolCall.Function.Name, i),
			Name:      toolCall.Function.Name,
			Arguments: json.RawMessage(args),
		})
	}

	return llm.Message{
		Role:     role,
		Content:  llm.TextContent(msg.Content),
		Metadata: llm.Metadata{ToolCalls: toolCalls},
	}, nil
}

// ToOllamaTools converts canonical tool specs to Ollama function format.
func ToOllamaTools(specs []llm.ToolSpec) ([]api.Tool, error) {
	result := make([]api.Tool, 0, len(specs))
	for i := range specs {
		tool, err := ToOllamaTool(&specs[i])
		if err != nil {
			return nil, fmt.Errorf("convert tool %s: %w", specs[i].Name, err)
		}
		result = append(result, tool)
	}
	return result, nil
}

// ToOllamaTool converts a single ToolSpec to Ollama's Tool format.
func ToOllamaTool(spec *llm.ToolSpec) (api.Tool, error) {
	properties := make(map[string]api.ToolProperty)
	for k, v := range spec.Schema.Properties {
		if propMap, ok := v.(map[string]interface{}); ok {
			toolProp := api.ToolProperty{}
			if propType, ok := propMap["type"].(string); ok {
				toolProp.Type = []string{propType}
			}
			if desc, ok := propMap["description"].(string); ok {
				toolProp.Description = desc
			}
			properties[k] = toolProp
		} else {
			properties[k] = api.ToolProperty{Type: []string{"string"}}
		}
	}

	return api.Tool{
		Type: "function",
		Function: api.ToolFunction{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters: api.ToolFunctionParameters{
				Type:       spec.Schema.Type,
				Properties: properties,
				Required:   spec.Schema.Required,
			},
		},
	}, nil
}

// FromOllamaToolCall converts an Ollama tool call to a canonical ToolCall.
func FromOllamaToolCall(toolCall api.ToolCall) (llm.ToolCall, error) {
	args, err := json.Marshal(toolCall.Function.Arguments)
	if err != nil {
		return llm.ToolCall{}, fmt.Errorf("marshal tool call arguments: %w", err)
	}
	return llm.ToolCall{
		ID:        fmt.Sprintf("tool_%s", toolCall.Function.Name),
		Name:      toolCall.Function.Name,
		Arguments: json.RawMessage(args),
	}, nil
}
