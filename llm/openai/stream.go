package openai

import (
	"context"
	"sync"

	"github.com/jkhoffman/cogni/llm"
	openai "github.com/sashabaranov/go-openai"
)

// stream implements llm.Stream over OpenAI's SSE chat-completion stream.
// Unlike the Anthropic SDK, Recv() blocks synchronously, so Next() can pull
// directly without a background pump.
type stream struct {
	ctx     context.Context
	raw     *openai.ChatCompletionStream
	mu      sync.Mutex
	pending []*llm.StreamEvent
	current int
	err     error
	done    bool
}

func newStream(ctx context.Context, raw *openai.ChatCompletionStream) *stream {
	return &stream{ctx: ctx, raw: raw, current: -1}
}

func (s *stream) Next() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.current++
	for s.current >= len(s.pending) && !s.done && s.err == nil {
		if !s.fill() {
			break
		}
	}
	if s.err != nil {
		return false
	}
	return s.current < len(s.pending)
}

func (s *stream) Event() *llm.StreamEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current < 0 || s.current >= len(s.pending) {
		return nil
	}
	return s.pending[s.current]
}

func (s *stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	if s.raw != nil {
		return s.raw.Close()
	}
	return nil
}

// fill pulls one chunk from the underlying stream and appends zero or more
// canonical events to s.pending. Returns false when Recv fails with an
// error other than end of stream; at end of stream it appends Done and
// returns true.
func (s *stream) fill() bool {
	resp, err := s.raw.Recv()
	if err != nil {
		if err.Error() == "EOF" || err.Error() == "stream closed" {
			s.done = true
			s.pending = append(s.pending, &llm.StreamEvent{Type: llm.StreamEventDone})
			return true
		}
		s.err = convertError(err)
		s.done = true
		return false
	}

	if len(resp.Choices) == 0 {
		return true
	}
	choice := resp.Choices[0]

	if choice.Delta.Content != "" {
		s.pending = append(s.pending, &llm.StreamEvent{Type: llm.StreamEventContentDelta, ContentDelta: choice.Delta.Content})
	}

	for _, tc := range choice.Delta.ToolCalls {
		index := 0
		if tc.Index != nil {
			index = *tc.Index
		}
		delta := llm.ToolCallDelta{Index: index}
		if tc.ID != "" {
			delta.ID = tc.ID
			delta.HasID = true
		}
		if tc.Function.Name != "" {
			delta.Name = tc.Function.Name
			delta.HasName = true
		}
		if tc.Function.Arguments != "" {
			delta.ArgumentsFragment = tc.Function.Arguments
			delta.HasArgumentsFragment = true
		}
		s.pending = append(s.pending, &llm.StreamEvent{Type: llm.StreamEventToolCallDelta, ToolCallDelta: delta})
	}

	if choice.FinishReason != "" {
		var usage *llm.Usage
		if resp.Usage != nil && resp.Usage.TotalTokens > 0 {
			usage = &llm.Usage{
				InputTokens:  int64(resp.Usage.PromptTokens),
				OutputTokens: int64(resp.Usage.CompletionTokens),
			}
		}
		s.pending = append(s.pending, &llm.StreamEvent{
			Type: llm.StreamEventMetadataDelta,
			MetadataDelta: llm.MetadataDelta{
				FinishReason: finishReasonFromOpenAI(choice.FinishReason),
				Usage:        usage,
				Model:        resp.Model,
			},
		})
	}

	return true
}
