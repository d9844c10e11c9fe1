package anthropic

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/jkhoffman/cogni/llm"
	"github.com/samber/lo"
)

// jsonMarshalInput re-encodes an already-decoded tool-use input value back
// into raw JSON, since ToolCall.Arguments is kept as undecoded text.
func jsonMarshalInput(input any) (json.RawMessage, error) {
	if input == nil {
		return json.RawMessage("{}"), nil
	}
	b, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("anthropic: marshal tool input: %w", err)
	}
	return json.RawMessage(b), nil
}

// ExtractSystem pulls any leading system-role messages out of a message
// list and joins their text with a blank line, since Anthropic's API takes
// the system prompt as a dedicated top-level field rather than a message.
func ExtractSystem(messages []llm.Message) (string, []llm.Message) {
	var systemParts []string
	i := 0
	for i < len(messages) && messages[i].Role == llm.RoleSystem {
		if text, ok := messages[i].Content.AsText(); ok {
			systemParts = append(systemParts, text)
		}
		i++
	}
	return strings.Join(systemParts, "\n\n"), messages[i:]
}

// textOf returns the text payload of a Content value, flattening Multi
// parts by concatenation. Used where Anthropic expects a single string
// (tool results).
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

// contentBlocks converts a Content value into Anthropic content blocks.
func contentBlocks(c llm.Content) ([]anthropic.ContentBlockParamUnion, error) {
	switch c.Type {
	case llm.ContentTypeText:
		if c.Text == "" {
			return nil, nil
		}
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(c.Text)}, nil
	case llm.ContentTypeImage:
		if c.Image == nil {
			return nil, fmt.Errorf("anthropic: image content missing payload")
		}
		if c.Image.URL != "" {
			return []anthropic.ContentBlockParamUnion{anthropic.NewImageBlock(anthropic.URLImageSourceParam{URL: c.Image.URL})}, nil
		}
		mime := c.Image.MIME
		if mime == "" {
			mime = "image/png"
		}
		return []anthropic.ContentBlockParamUnion{anthropic.NewImageBlockBase64(mime, base64.StdEncoding.EncodeToString(c.Image.Data))}, nil
	case llm.ContentTypeAudio:
		// Anthropic's messages API has no native audio block; degrade to a
		// text marker rather than silently dropping the content.
		return []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock("[audio content omitted]")}, nil
	case llm.ContentTypeMulti:
		var blocks []anthropic.ContentBlockParamUnion
		for _, part := range c.Parts {
			sub, err := contentBlocks(part)
			if err != nil {
				return nil, err
			}
			blocks = append(blocks, sub...)
		}
		return blocks, nil
	default:
		return nil, fmt.Errorf("anthropic: unsupported content type %q", c.Type)
	}
}

// ToMessageParam converts a canonical Message to an Anthropic MessageParam.
// ok is false for system messages, which have no Anthropic message
// representation and must be extracted with ExtractSystem beforehand.
func ToMessageParam(msg llm.Message) (param anthropic.MessageParam, ok bool, err error) {
	switch msg.Role {
	case llm.RoleSystem:
		return anthropic.MessageParam{}, false, nil

	case llm.RoleTool:
		block := anthropic.NewToolResultBlock(msg.Metadata.ToolCallID, textOf(msg.Content), msg.Metadata.IsError)
		return anthropic.NewUserMessage(block), true, nil

	case llm.RoleUser:
		if msg.Metadata.ToolCallID != "" {
			block := anthropic.NewToolResultBlock(msg.Metadata.ToolCallID, textOf(msg.Content), msg.Metadata.IsError)
			return anthropic.NewUserMessage(block), true, nil
		}
		blocks, err := contentBlocks(msg.Content)
		if err != nil {
			return anthropic.MessageParam{}, false, err
		}
		return anthropic.NewUserMessage(blocks...), true, nil

	case llm.RoleAssistant:
		blocks, err := contentBlocks(msg.Content)
		if err != nil {
			return anthropic.MessageParam{}, false, err
		}
		for _, tc := range msg.Metadata.ToolCalls {
			args, err := tc.ArgumentsMap()
			if err != nil {
				return anthropic.MessageParam{}, false, fmt.Errorf("anthropic: tool call %s: %w", tc.ID, err)
			}
			blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, args, tc.Name))
		}
		return anthropic.NewAssistantMessage(blocks...), true, nil

	default:
		return anthropic.MessageParam{}, false, fmt.Errorf("anthropic: unsupported role %q", msg.Role)
	}
}

// ToMessageParams converts a message list, dropping system messages (which
// the caller should already have pulled out with ExtractSystem).
func ToMessageParams(msgs []llm.Message) ([]anthropic.MessageParam, error) {
	result := make([]anthropic.MessageParam, 0, len(msgs))
	for _, msg := range msgs {
		param, ok, err := ToMessageParam(msg)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		result = append(result, param)
	}
	return result, nil
}

// FromMessageParam converts an Anthropic MessageParam back to a canonical
// Message. Used for round-tripping history loaded from a transcript.
func FromMessageParam(msg anthropic.MessageParam) (llm.Message, error) {
	role := llm.RoleUser
	if string(msg.Role) == "assistant" {
		role = llm.RoleAssistant
	}

	var textParts []string
	var toolCalls []llm.ToolCall
	var toolResultID string
	var toolResultText string
	sawToolResult := false

	for _, blockUnion := range msg.Content {
		switch {
		case blockUnion.OfText != nil:
			textParts = append(textParts, blockUnion.OfText.Text)

		case blockUnion.OfToolUse != nil:
			args, err := jsonMarshalInput(blockUnion.OfToolUse.Input)
			if err != nil {
				return llm.Message{}, err
			}
			toolCalls = append(toolCalls, llm.ToolCall{
				ID:        blockUnion.OfToolUse.ID,
				Name:      blockUnion.OfToolUse.Name,
				Arguments: args,
			})

		case blockUnion.OfToolResult != nil:
			sawToolResult = true
			toolResultID = blockUnion.OfToolResult.ToolUseID
			for _, contentUnion := range blockUnion.OfToolResult.Content {
				if contentUnion.OfText != nil {
					toolResultText += contentUnion.OfText.Text
				}
			}
		}
	}

	if sawToolResult {
		return llm.Message{
			Role:     llm.RoleTool,
			Content:  llm.TextContent(toolResultText),
			Metadata: llm.Metadata{ToolCallID: toolResultID},
		}, nil
	}

	return llm.Message{
		Role:     role,
		Content:  llm.TextContent(strings.Join(textParts, "")),
		Metadata: llm.Metadata{ToolCalls: toolCalls},
	}, nil
}

// FromMessageParams converts a slice of Anthropic MessageParams.
func FromMessageParams(msgs []anthropic.MessageParam) ([]llm.Message, error) {
	result := make([]llm.Message, 0, len(msgs))
	for _, msg := range msgs {
		llmMsg, err := FromMessageParam(msg)
		if err != nil {
			return nil, err
		}
		result = append(result, llmMsg)
	}
	return result, nil
}

// FromToolUnionParam converts an Anthropic ToolUnionParam to an llm.ToolSpec.
func FromToolUnionParam(tool anthropic.ToolUnionParam) (llm.ToolSpec, error) {
	if tool.OfTool == nil {
		return llm.ToolSpec{}, nil
	}

	t := tool.OfTool
	schema := llm.ToolSchema{
		Type:        "object",
		Properties:  make(map[string]interface{}),
		Required:    t.InputSchema.Required,
		ExtraFields: make(map[string]interface{}),
	}

	if t.InputSchema.Properties != nil {
		if propsMap, ok := t.InputSchema.Properties.(map[string]interface{}); ok {
			for k, v := range propsMap {
				schema.Properties[k] = v
			}
		}
	}

	if t.InputSchema.ExtraFields != nil {
		for k, v := range t.InputSchema.ExtraFields {
			schema.ExtraFields[k] = v
		}
	}

	description := ""
	if t.Description.Value != "" {
		description = t.Description.Value
	}

	return llm.ToolSpec{
		Name:        t.Name,
		Description: description,
		Schema:      schema,
	}, nil
}

// ToToolUnionParam converts an llm.ToolSpec to an Anthropic ToolUnionParam.
func ToToolUnionParam(spec *llm.ToolSpec) anthropic.ToolUnionParam {
	desc := anthropic.String(spec.Description)

	toolParam := anthropic.ToolParam{
		Name:        spec.Name,
		Description: desc,
		InputSchema: anthropic.ToolInputSchemaParam{
			Type:        "object",
			Properties:  spec.Schema.Properties,
			Required:    spec.Schema.Required,
			ExtraFields: spec.Schema.ExtraFields,
		},
	}

	return anthropic.ToolUnionParam{OfTool: &toolParam}
}

// FromToolUnionParams converts a slice of Anthropic ToolUnionParams.
func FromToolUnionParams(tools []anthropic.ToolUnionParam) ([]llm.ToolSpec, error) {
	result := make([]llm.ToolSpec, 0, len(tools))
	for _, tool := range tools {
		spec, err := FromToolUnionParam(tool)
		if err != nil {
			return nil, err
		}
		result = append(result, spec)
	}
	return result, nil
}

// ToToolUnionParams converts a slice of llm.ToolSpecs to Anthropic ToolUnionParams.
func ToToolUnionParams(specs []llm.ToolSpec) []anthropic.ToolUnionParam {
	return lo.Map(specs, func(spec llm.ToolSpec, _ int) anthropic.ToolUnionParam {
		return ToToolUnionParam(&spec)
	})
}
