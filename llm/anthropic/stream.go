package anthropic

import (
	"context"
	"sync"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
	"github.com/jkhoffman/cogni/llm"
	"github.com/rs/zerolog"
)

// stream implements llm.Stream over Anthropic's SSE message stream. The SDK
// stream is only safe to pull from a single goroutine, so a background
// goroutine drains it into an event buffer guarded by a condition variable,
// and Next/Event hand those events to the caller one at a time.
type stream struct {
	ctx     context.Context
	raw     *ssestream.Stream[anthropic.MessageStreamEventUnion]
	logger  zerolog.Logger
	events  []*llm.StreamEvent
	current int
	mu      sync.Mutex
	cond    *sync.Cond
	err     error
	done    bool
	started bool
}

func newStream(ctx context.Context, raw *ssestream.Stream[anthropic.MessageStreamEventUnion], logger zerolog.Logger) *stream {
	s := &stream{ctx: ctx, raw: raw, logger: logger, current: -1}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *stream) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		s.started = true
		go s.pump()
	}

	s.current++
	for s.current >= len(s.events) && !s.done && s.err == nil {
		s.cond.Wait()
	}

	if s.err != nil {
		return false
	}
	return s.current < len(s.events)
}

func (s *stream) Event() *llm.StreamEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < 0 || s.current >= len(s.events) {
		return nil
	}
	return s.events[s.current]
}

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) Close() error {
	s.mu.Lock()
	s.done = true
	s.mu.Unlock()
	if s.raw != nil {
		return s.raw.Close()
	}
	return nil
}

func (s *stream) emit(ev *llm.StreamEvent) {
	s.events = append(s.events, ev)
	s.cond.Broadcast()
}

// pump drains the SDK stream and translates each Anthropic event into the
// canonical StreamEvent vocabulary. toolIndex tracks the content-block index
// assigned to the tool_use block currently open, if any.
func (s *stream) pump() {
	var toolIndex int
	var inToolBlock bool
	var usage *llm.Usage

	for s.raw.Next() {
		event := s.raw.Current()

		s.mu.Lock()
		switch evt := event.AsAny().(type) {
		case anthropic.MessageStartEvent:
			// no canonical event — content deltas carry the signal.

		case anthropic.ContentBlockStartEvent:
			if block, ok := evt.ContentBlock.AsAny().(anthropic.ToolUseBlock); ok {
				toolIndex = int(evt.Index)
				inToolBlock = true
				s.emit(&llm.StreamEvent{
					Type: llm.StreamEventToolCallDelta,
					ToolCallDelta: llm.ToolCallDelta{
						Index:   toolIndex,
						ID:      block.ID,
						Name:    block.Name,
						HasID:   true,
						HasName: true,
					},
				})
			}

		case anthropic.ContentBlockDeltaEvent:
			switch d := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				if d.Text != "" {
					s.emit(&llm.StreamEvent{Type: llm.StreamEventContentDelta, ContentDelta: d.Text})
				}
			case anthropic.InputJSONDelta:
				if inToolBlock && d.PartialJSON != "" {
					s.emit(&llm.StreamEvent{
						Type: llm.StreamEventToolCallDelta,
						ToolCallDelta: llm.ToolCallDelta{
							Index:                toolIndex,
							ArgumentsFragment:    d.PartialJSON,
							HasArgumentsFragment: true,
						},
					})
				}
			}

		case anthropic.ContentBlockStopEvent:
			inToolBlock = false

		case anthropic.MessageDeltaEvent:
			usage = &llm.Usage{
				InputTokens:              evt.Usage.InputTokens,
				OutputTokens:             evt.Usage.OutputTokens,
				CacheCreationInputTokens: evt.Usage.CacheCreationInputTokens,
				CacheReadInputTokens:     evt.Usage.CacheReadInputTokens,
			}
			logCacheStats(s.logger, usage)
			var finish llm.FinishReason
			if string(evt.Delta.StopReason) != "" {
				finish = finishReasonFromStopReason(string(evt.Delta.StopReason))
			}
			s.emit(&llm.StreamEvent{
				Type: llm.StreamEventMetadataDelta,
				MetadataDelta: llm.MetadataDelta{
					FinishReason: finish,
					Usage:        usage,
				},
			})

		case anthropic.MessageStopEvent:
			s.emit(&llm.StreamEvent{Type: llm.StreamEventDone})
			s.done = true
			s.cond.Broadcast()
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
	}

	s.mu.Lock()
	if err := s.raw.Err(); err != nil {
		s.err = err
	} else if !s.done {
		s.emit(&llm.StreamEvent{Type: llm.StreamEventDone})
	}
	s.done = true
	s.cond.Broadcast()
	s.mu.Unlock()
}
