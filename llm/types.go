package llm

import (
	"encoding/json"
	"fmt"
)

// Role is the role of a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ContentType discriminates the payload carried by a Content value.
type ContentType string

const (
	ContentTypeText  ContentType = "text"
	ContentTypeImage ContentType = "image"
	ContentTypeAudio ContentType = "audio"
	ContentTypeMulti ContentType = "multi"
)

// MediaPart is an image or audio payload, either a URL reference or
// inlined bytes with a MIME type. Exactly one of URL or Data is set.
type MediaPart struct {
	URL  string
	Data []byte
	MIME string
}

// Content is a sum type over plain text, one image, one audio, or an
// ordered heterogeneous sequence of such parts (Parts). Only the field
// matching Type is meaningful.
type Content struct {
	Type  ContentType
	Text  string
	Image *MediaPart
	Audio *MediaPart
	Parts []Content
}

// TextContent builds a plain-text Content value.
func TextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// ImageContent builds an image Content value.
func ImageContent(part MediaPart) Content {
	return Content{Type: ContentTypeImage, Image: &part}
}

// AudioContent builds an audio Content value.
func AudioContent(part MediaPart) Content {
	return Content{Type: ContentTypeAudio, Audio: &part}
}

// MultiContent builds a heterogeneous sequence of content parts.
func MultiContent(parts ...Content) Content {
	return Content{Type: ContentTypeMulti, Parts: parts}
}

// AsText returns the text payload and true if this Content is ContentTypeText.
func (c Content) AsText() (string, bool) {
	if c.Type == ContentTypeText {
		return c.Text, true
	}
	return "", false
}

// ToolCall is a model-emitted invocation of a named tool. Arguments are
// kept as raw JSON text — never parsed incrementally, only concatenated
// during streaming and parsed once at finalization.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ArgumentsMap parses Arguments as a JSON object.
func (tc ToolCall) ArgumentsMap() (map[string]any, error) {
	if len(tc.Arguments) == 0 {
		return map[string]any{}, nil
	}
	var m map[string]any
	if err := json.Unmarshal(tc.Arguments, &m); err != nil {
		return nil, fmt.Errorf("tool call %s: %w", tc.ID, err)
	}
	return m, nil
}

// Metadata carries the per-message fields that don't belong to Content:
// a name override (function name on tool messages), a tool-call
// correlator (on tool-result messages), and the tool calls an assistant
// message invoked.
type Metadata struct {
	Name       string
	ToolCallID string
	ToolCalls  []ToolCall
	IsError    bool // set on a tool-result message whose tool execution failed
	Custom     map[string]string
}

// Message is an immutable value: (role, content, metadata).
type Message struct {
	Role     Role
	Content  Content
	Metadata Metadata
}

// SystemMessage builds a system message with plain text content.
func SystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: TextContent(text)}
}

// UserMessage builds a user message with plain text content.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: TextContent(text)}
}

// AssistantMessage builds an assistant message with plain text content.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: TextContent(text)}
}

// AssistantToolCallMessage builds an assistant message that invoked tools.
// Content is empty text unless accompanyingText is non-empty.
func AssistantToolCallMessage(accompanyingText string, calls []ToolCall) Message {
	return Message{
		Role:     RoleAssistant,
		Content:  TextContent(accompanyingText),
		Metadata: Metadata{ToolCalls: calls},
	}
}

// ToolResultMessage builds a tool-result message correlated to a tool call.
func ToolResultMessage(toolCallID, name, resultText string) Message {
	return Message{
		Role:     RoleTool,
		Content:  TextContent(resultText),
		Metadata: Metadata{ToolCallID: toolCallID, Name: name},
	}
}

// ToJSON marshals a message to JSON for debugging/logging purposes.
func (m Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ToolSchema is the JSON-Schema value describing a tool's parameters.
type ToolSchema struct {
	Type        string
	Properties  map[string]any
	Required    []string
	ExtraFields map[string]any
}

// ToolSpec is a tool descriptor: (name, description, parameter_schema).
// Tool names must be unique within a request.
type ToolSpec struct {
	Name        string
	Description string
	Schema      ToolSchema
}

// ResponseFormatType discriminates the structured-output request mode.
type ResponseFormatType string

const (
	ResponseFormatJSONObject ResponseFormatType = "json_object"
	ResponseFormatJSONSchema ResponseFormatType = "json_schema"
)

// ResponseFormat requests either a bare JSON object or a response matching
// a specific JSON Schema.
type ResponseFormat struct {
	Type   ResponseFormatType
	Schema map[string]any // only meaningful when Type == ResponseFormatJSONSchema
	Strict bool
}

// Parameters holds the optional generation knobs of a Request.
type Parameters struct {
	Temperature      *float64
	TopP             *float64
	MaxTokens        int64
	PresencePenalty  *float64
	FrequencyPenalty *float64
	Stop             []string
}

// Request is a complete LLM API request: (messages, model, parameters,
// tools, response_format?).
type Request struct {
	Messages       []Message
	Model          string
	Parameters     Parameters
	Tools          []ToolSpec
	ResponseFormat *ResponseFormat
}

// HasTools reports whether the request carries any tool descriptors.
func (r Request) HasTools() bool {
	return len(r.Tools) > 0
}

// FinishReason is the canonical vocabulary for why generation stopped.
type FinishReason string

const (
	FinishReasonStop          FinishReason = "stop"
	FinishReasonLength        FinishReason = "length"
	FinishReasonToolUse       FinishReason = "tool_use"
	FinishReasonContentFilter FinishReason = "content_filter"
	FinishReasonOther         FinishReason = "other"
)

// Usage reports token counts for a response.
type Usage struct {
	InputTokens              int64
	OutputTokens             int64
	CacheCreationInputTokens int64
	CacheReadInputTokens     int64
}

// TotalTokens returns InputTokens + OutputTokens.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Response is a complete LLM API response.
type Response struct {
	ContentText  string
	ToolCalls    []ToolCall
	FinishReason FinishReason
	Usage        *Usage
	Model        string
	Metadata     map[string]string
}

// HasToolCalls reports whether the response contains any tool calls. Per
// spec, a response with FinishReasonToolUse has at least one complete
// tool call, and stop/length have none.
func (r Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// StreamEventType discriminates a StreamEvent variant.
type StreamEventType string

const (
	StreamEventContentDelta  StreamEventType = "content_delta"
	StreamEventToolCallDelta StreamEventType = "tool_call_delta"
	StreamEventMetadataDelta StreamEventType = "metadata_delta"
	StreamEventDone          StreamEventType = "done"
)

// ToolCallDelta is a fragment of an in-progress tool call. Any field may
// be the zero value when absent; Index identifies the call slot.
type ToolCallDelta struct {
	Index               int
	ID                  string
	Name                string
	ArgumentsFragment   string
	HasID               bool
	HasName             bool
	HasArgumentsFragment bool
}

// MetadataDelta carries finish reason, usage, or model-id updates that
// arrive mid-stream.
type MetadataDelta struct {
	FinishReason FinishReason
	Usage        *Usage
	Model        string
}

// StreamEvent is one element of the ordered sequence an adapter's Stream
// yields. Exactly one of the typed fields is meaningful, selected by Type.
//
// Invariants (see spec): every non-error stream ends with exactly one
// Done; ContentDelta text concatenated in order reproduces the final
// Response.ContentText; for a given tool-call slot, ID and Name each
// arrive at most once, and ArgumentsFragment pieces concatenated in
// arrival order form a syntactically valid JSON document.
type StreamEvent struct {
	Type          StreamEventType
	ContentDelta  string
	ToolCallDelta ToolCallDelta
	MetadataDelta MetadataDelta
}
