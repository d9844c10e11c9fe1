package openai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jkhoffman/cogni/llm"
	openai "github.com/sashabaranov/go-openai"
)

// ToOpenAIMessages converts a canonical message list to OpenAI chat format.
func ToOpenAIMessages(msgs []llm.Message) ([]openai.ChatCompletionMessage, error) {
	result := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, msg := range msgs {
		openaiMsg, err := ToOpenAIMessage(msg)
		if err != nil {
			return nil, fmt.Errorf("convert message: %w", err)
		}
		result = append(result, openaiMsg)
	}
	return result, nil
}

// ToOpenAIMessage converts a single canonical Message to OpenAI format.
func ToOpenAIMessage(msg llm.Message) (openai.ChatCompletionMessage, error) {
	switch msg.Role {
	case llm.RoleTool:
		text, _ := msg.Content.AsText()
		return openai.ChatCompletionMessage{
			Role:       openai.ChatMessageRoleTool,
			Content:    text,
			ToolCallID: msg.Metadata.ToolCallID,
			Name:       msg.Metadata.Name,
		}, nil

	case llm.RoleAssistant:
		text := textOf(msg.Content)
		out := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: text}
		for _, tc := range msg.Metadata.ToolCalls {
			args := tc.Arguments
			if len(args) == 0 {
				args = json.RawMessage("{}")
			}
			out.ToolCalls = append(out.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		return out, nil

	case llm.RoleUser:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: textOf(msg.Content)}, nil

	case llm.RoleSystem:
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: textOf(msg.Content)}, nil

	default:
		return openai.ChatCompletionMessage{}, fmt.Errorf("openai: unsupported role %q", msg.Role)
	}
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

// ToOpenAITools converts canonical tool specs to OpenAI function definitions.
func ToOpenAITools(specs []llm.ToolSpec) ([]openai.Tool, error) {
	result := make([]openai.Tool, 0, len(specs))
	for i := range specs {
		tool, err := ToOpenAITool(&specs[i])
		if err != nil {
			return nil, fmt.Errorf("convert tool %s: %w", specs[i].Name, err)
		}
		result = append(result, tool)
	}
	return result, nil
}

// ToOpenAITool converts a single ToolSpec to OpenAI Tool format.
func ToOpenAITool(spec *llm.ToolSpec) (openai.Tool, error) {
	properties := make(map[string]interface{})
	for k, v := range spec.Schema.Properties {
		properties[k] = v
	}

	parameters := map[string]interface{}{
		"type":       spec.Schema.Type,
		"properties": properties,
	}
	if len(spec.Schema.Required) > 0 {
		parameters["required"] = spec.Schema.Required
	}
	for k, v := range spec.Schema.ExtraFields {
		parameters[k] = v
	}

	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        spec.Name,
			Description: spec.Description,
			Parameters:  parameters,
		},
	}, nil
}

// FromOpenAIToolCall converts an OpenAI tool call to a canonical ToolCall.
func FromOpenAIToolCall(toolCall openai.ToolCall) (llm.ToolCall, error) {
	args := toolCall.Function.Arguments
	if args == "" {
		args = "{}"
	}
	return llm.ToolCall{
		ID:        toolCall.ID,
		Name:      toolCall.Function.Name,
		Arguments: json.RawMessage(args),
	}, nil
}
