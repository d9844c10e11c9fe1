package accumulator

import (
	"testing"

	"github.com/jkhoffman/cogni/llm"
)

// fakeStream replays a fixed slice of events, mimicking the llm.Stream
// contract without a real provider.
type fakeStream struct {
	events []*llm.StreamEvent
	pos    int
}

func (f *fakeStream) Next() bool {
	if f.pos >= len(f.events) {
		return false
	}
	f.pos++
	return true
}

func (f *fakeStream) Event() *llm.StreamEvent { return f.events[f.pos-1] }
func (f *fakeStream) Err() error              { return nil }
func (f *fakeStream) Close() error            { return nil }

func TestAccumulateContentOnly(t *testing.T) {
	// Anthropic streaming text scenario.
	stream := &fakeStream{events: []*llm.StreamEvent{
		{Type: llm.StreamEventContentDelta, ContentDelta: "Hel"},
		{Type: llm.StreamEventContentDelta, ContentDelta: "lo"},
		{Type: llm.StreamEventMetadataDelta, MetadataDelta: llm.MetadataDelta{FinishReason: llm.FinishReasonStop}},
		{Type: llm.StreamEventDone},
	}}

	resp, err := Accumulate(stream)
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if resp.ContentText != "Hello" {
		t.Errorf("expected %q, got %q", "Hello", resp.ContentText)
	}
	if resp.FinishReason != llm.FinishReasonStop {
		t.Errorf("expected stop, got %s", resp.FinishReason)
	}
	if len(resp.ToolCalls) != 0 {
		t.Errorf("expected no tool calls, got %d", len(resp.ToolCalls))
	}
}

func TestAccumulateFragmentedToolCall(t *testing.T) {
	// OpenAI-style streaming tool call: id, name, and arguments arrive as
	// separate deltas on the same index and must be reassembled in order.
	stream := &fakeStream{events: []*llm.StreamEvent{
		{Type: llm.StreamEventToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, ID: "c1", HasID: true}},
		{Type: llm.StreamEventToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, Name: "add", HasName: true}},
		{Type: llm.StreamEventToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, ArgumentsFragment: `{"a":`, HasArgumentsFragment: true}},
		{Type: llm.StreamEventToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, ArgumentsFragment: `1,"b":`, HasArgumentsFragment: true}},
		{Type: llm.StreamEventToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, ArgumentsFragment: `2}`, HasArgumentsFragment: true}},
		{Type: llm.StreamEventMetadataDelta, MetadataDelta: llm.MetadataDelta{FinishReason: llm.FinishReasonToolUse}},
		{Type: llm.StreamEventDone},
	}}

	resp, err := Accumulate(stream)
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if !resp.HasToolCalls() {
		t.Fatal("expected tool calls")
	}
	if resp.FinishReason != llm.FinishReasonToolUse {
		t.Errorf("expected tool_use, got %s", resp.FinishReason)
	}
	call := resp.ToolCalls[0]
	if call.ID != "c1" || call.Name != "add" {
		t.Errorf("unexpected call: %+v", call)
	}
	args, err := call.ArgumentsMap()
	if err != nil {
		t.Fatalf("ArgumentsMap: %v", err)
	}
	if args["a"] != float64(1) || args["b"] != float64(2) {
		t.Errorf("unexpected args: %v", args)
	}
}

func TestAccumulateMultipleToolCallSlots(t *testing.T) {
	stream := &fakeStream{events: []*llm.StreamEvent{
		{Type: llm.StreamEventToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 1, ID: "c2", HasID: true, Name: "second", HasName: true, ArgumentsFragment: `{}`, HasArgumentsFragment: true}},
		{Type: llm.StreamEventToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, ID: "c1", HasID: true, Name: "first", HasName: true, ArgumentsFragment: `{}`, HasArgumentsFragment: true}},
		{Type: llm.StreamEventDone},
	}}

	resp, err := Accumulate(stream)
	if err != nil {
		t.Fatalf("Accumulate: %v", err)
	}
	if len(resp.ToolCalls) != 2 {
		t.Fatalf("expected 2 tool calls, got %d", len(resp.ToolCalls))
	}
	if resp.ToolCalls[0].Name != "first" || resp.ToolCalls[1].Name != "second" {
		t.Errorf("expected slots in index order, got %+v", resp.ToolCalls)
	}
}

func TestFinalizeIncompleteToolCallArguments(t *testing.T) {
	stream := &fakeStream{events: []*llm.StreamEvent{
		{Type: llm.StreamEventToolCallDelta, ToolCallDelta: llm.ToolCallDelta{Index: 0, ArgumentsFragment: `{"a":`, HasArgumentsFragment: true}},
		{Type: llm.StreamEventDone},
	}}

	_, err := Accumulate(stream)
	if err == nil {
		t.Fatal("expected error for truncated arguments JSON")
	}
	llmErr, ok := err.(*llm.Error)
	if !ok || llmErr.Type != llm.ErrorTypeValidation {
		t.Errorf("expected Validation error, got %v", err)
	}
}

func TestPushAfterDonePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	a := New()
	a.Push(&llm.StreamEvent{Type: llm.StreamEventDone})
	a.Push(&llm.StreamEvent{Type: llm.StreamEventContentDelta, ContentDelta: "x"})
}

func TestFinalizeBeforeDoneErrors(t *testing.T) {
	a := New()
	a.Push(&llm.StreamEvent{Type: llm.StreamEventContentDelta, ContentDelta: "x"})
	if _, err := a.Finalize(); err == nil {
		t.Fatal("expected error finalizing an open accumulator")
	}
}
