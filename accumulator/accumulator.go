// Package accumulator reduces an ordered llm.StreamEvent sequence into a
// canonical llm.Response, the same shape a non-streaming call would return.
//
// It is provider-agnostic: since every adapter under llm/ emits the same
// four-variant StreamEvent vocabulary, one reducer consumes all of them.
package accumulator

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/jkhoffman/cogni/llm"
)

// state is the accumulator's internal lifecycle, mirroring the open →
// finalized|failed state machine.
type state int

const (
	stateOpen state = iota
	stateFinalized
	stateFailed
)

// toolSlot accumulates one tool call's fields across however many
// ToolCallDelta fragments name its index. id and name are set-once: once
// non-empty, later deltas for the same field are ignored, matching the
// wire-format guarantee that each arrives at most once per slot.
type toolSlot struct {
	index     int
	id        string
	name      string
	arguments []byte
}

// Accumulator merges an ordered StreamEvent sequence into a Response. It is
// not safe for concurrent use; a single stream has a single consumer.
type Accumulator struct {
	state state

	text []byte

	slots   map[int]*toolSlot
	slotOrd []int

	finishReason llm.FinishReason
	usage        *llm.Usage
	model        string

	err error
}

// New returns an empty Accumulator ready to consume a stream.
func New() *Accumulator {
	return &Accumulator{slots: make(map[int]*toolSlot)}
}

// Push applies one StreamEvent. Calling Push after Done or after a failure
// is a programming error and panics, mirroring the "no further events"
// invariant on Done.
func (a *Accumulator) Push(ev *llm.StreamEvent) {
	if a.state != stateOpen {
		panic("accumulator: Push called after terminal event")
	}
	switch ev.Type {
	case llm.StreamEventContentDelta:
		a.text = append(a.text, ev.ContentDelta...)
	case llm.StreamEventToolCallDelta:
		a.mergeToolCallDelta(ev.ToolCallDelta)
	case llm.StreamEventMetadataDelta:
		a.mergeMetadataDelta(ev.MetadataDelta)
	case llm.StreamEventDone:
		a.state = stateFinalized
	default:
		a.Fail(fmt.Errorf("accumulator: unknown stream event type %q", ev.Type))
	}
}

// Fail transitions the accumulator to the failed state, retaining whatever
// partial state has been accumulated so far for diagnostics.
func (a *Accumulator) Fail(err error) {
	a.state = stateFailed
	a.err = err
}

func (a *Accumulator) mergeToolCallDelta(d llm.ToolCallDelta) {
	slot, ok := a.slots[d.Index]
	if !ok {
		slot = &toolSlot{index: d.Index}
		a.slots[d.Index] = slot
		a.slotOrd = append(a.slotOrd, d.Index)
	}
	if d.HasID && slot.id == "" {
		slot.id = d.ID
	}
	if d.HasName && slot.name == "" {
		slot.name = d.Name
	}
	if d.HasArgumentsFragment {
		slot.arguments = append(slot.arguments, d.ArgumentsFragment...)
	}
}

func (a *Accumulator) mergeMetadataDelta(d llm.MetadataDelta) {
	if d.FinishReason != "" {
		a.finishReason = d.FinishReason
	}
	if d.Usage != nil {
		a.usage = mergeUsage(a.usage, d.Usage)
	}
	if d.Model != "" {
		a.model = d.Model
	}
}

// mergeUsage combines two usage snapshots. Providers emit usage either once
// at the end (OpenAI, Ollama) or incrementally (Anthropic's running
// input-token count plus a final output-token count); taking the max of
// each field is correct for both patterns without double-counting.
func mergeUsage(prev, next *llm.Usage) *llm.Usage {
	if prev == nil {
		return next
	}
	return &llm.Usage{
		InputTokens:              max64(prev.InputTokens, next.InputTokens),
		OutputTokens:             max64(prev.OutputTokens, next.OutputTokens),
		CacheCreationInputTokens: max64(prev.CacheCreationInputTokens, next.CacheCreationInputTokens),
		CacheReadInputTokens:     max64(prev.CacheReadInputTokens, next.CacheReadInputTokens),
	}
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// Finalize freezes the accumulated state into a Response. It is an error to
// call Finalize before a Done event has been pushed, or after Fail.
func (a *Accumulator) Finalize() (*llm.Response, error) {
	switch a.state {
	case stateFailed:
		return nil, a.err
	case stateOpen:
		return nil, fmt.Errorf("accumulator: Finalize called before stream completed")
	}

	sort.Ints(a.slotOrd)
	calls := make([]llm.ToolCall, 0, len(a.slotOrd))
	for _, idx := range a.slotOrd {
		slot := a.slots[idx]
		if len(slot.arguments) == 0 {
			slot.arguments = []byte("{}")
		}
		var probe any
		if err := json.Unmarshal(slot.arguments, &probe); err != nil {
			return nil, llm.NewValidationError(fmt.Sprintf("incomplete tool call arguments for slot %d (%s): %v", idx, slot.name, err))
		}
		calls = append(calls, llm.ToolCall{
			ID:        slot.id,
			Name:      slot.name,
			Arguments: json.RawMessage(slot.arguments),
		})
	}

	return &llm.Response{
		ContentText:  string(a.text),
		ToolCalls:    calls,
		FinishReason: a.finishReason,
		Usage:        a.usage,
		Model:        a.model,
	}, nil
}

// Accumulate drains an llm.Stream completely and returns the resulting
// Response. It closes the stream before returning.
func Accumulate(s llm.Stream) (*llm.Response, error) {
	defer s.Close()

	acc := New()
	for s.Next() {
		acc.Push(s.Event())
	}
	if err := s.Err(); err != nil {
		acc.Fail(err)
		return nil, err
	}
	return acc.Finalize()
}
