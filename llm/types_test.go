package llm

import (
	"encoding/json"
	"testing"
)

func TestUserMessage(t *testing.T) {
	msg := UserMessage("Hello, world!")
	if msg.Role != RoleUser {
		t.Errorf("expected role %v, got %v", RoleUser, msg.Role)
	}
	text, ok := msg.Content.AsText()
	if !ok {
		t.Fatal("expected text content")
	}
	if text != "Hello, world!" {
		t.Errorf("expected %q, got %q", "Hello, world!", text)
	}
}

func TestAssistantToolCallMessage(t *testing.T) {
	calls := []ToolCall{
		{ID: "tool-1", Name: "test_tool", Arguments: json.RawMessage(`{"arg":"value"}`)},
	}
	msg := AssistantToolCallMessage("", calls)
	if msg.Role != RoleAssistant {
		t.Errorf("expected role %v, got %v", RoleAssistant, msg.Role)
	}
	if len(msg.Metadata.ToolCalls) != 1 {
		t.Fatalf("expected 1 tool call, got %d", len(msg.Metadata.ToolCalls))
	}
	if msg.Metadata.ToolCalls[0].ID != "tool-1" {
		t.Errorf("expected tool id %q, got %q", "tool-1", msg.Metadata.ToolCalls[0].ID)
	}

	args, err := msg.Metadata.ToolCalls[0].ArgumentsMap()
	if err != nil {
		t.Fatalf("ArgumentsMap: %v", err)
	}
	if args["arg"] != "value" {
		t.Errorf("expected arg=value, got %v", args)
	}
}

func TestToolResultMessage(t *testing.T) {
	msg := ToolResultMessage("tool-1", "test_tool", `{"result":"success"}`)
	if msg.Role != RoleTool {
		t.Errorf("expected role %v, got %v", RoleTool, msg.Role)
	}
	if msg.Metadata.ToolCallID != "tool-1" {
		t.Errorf("expected tool call id %q, got %q", "tool-1", msg.Metadata.ToolCallID)
	}
	text, ok := msg.Content.AsText()
	if !ok || text != `{"result":"success"}` {
		t.Errorf("unexpected content: %q ok=%v", text, ok)
	}
}

func TestMessageToJSON(t *testing.T) {
	msg := UserMessage("Test message")
	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("ToJSON: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty JSON data")
	}

	var decoded Message
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Role != msg.Role {
		t.Errorf("expected role %v, got %v", msg.Role, decoded.Role)
	}
}

func TestContentTypes(t *testing.T) {
	img := ImageContent(MediaPart{URL: "https://example.com/a.png"})
	if img.Type != ContentTypeImage || img.Image == nil || img.Image.URL == "" {
		t.Errorf("unexpected image content: %+v", img)
	}

	multi := MultiContent(TextContent("a"), TextContent("b"))
	if multi.Type != ContentTypeMulti || len(multi.Parts) != 2 {
		t.Errorf("unexpected multi content: %+v", multi)
	}
}

func TestToolCallArgumentsMapEmpty(t *testing.T) {
	tc := ToolCall{ID: "x", Name: "noop"}
	args, err := tc.ArgumentsMap()
	if err != nil {
		t.Fatalf("ArgumentsMap: %v", err)
	}
	if len(args) != 0 {
		t.Errorf("expected empty map, got %v", args)
	}
}

func TestUsageTotalTokens(t *testing.T) {
	u := Usage{InputTokens: 10, OutputTokens: 5}
	if got := u.TotalTokens(); got != 15 {
		t.Errorf("expected 15, got %d", got)
	}
}

func TestResponseHasToolCalls(t *testing.T) {
	r := Response{}
	if r.HasToolCalls() {
		t.Error("expected no tool calls")
	}
	r.ToolCalls = []ToolCall{{ID: "x", Name: "y"}}
	if !r.HasToolCalls() {
		t.Error("expected tool calls")
	}
}
