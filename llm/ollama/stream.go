package ollama

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"

	"github.com/jkhoffman/cogni/llm"
	"github.com/ollama/ollama/api"
)

// stream implements llm.Stream over Ollama's NDJSON chat streaming
// callback API. api.Client.Chat blocks for the whole exchange and invokes
// a callback per chunk, so a background goroutine drives it and Next/Event
// drain a shared event buffer — the same shape as the Anthropic adapter.
type stream struct {
	ctx     context.Context
	client  *api.Client
	req     *api.ChatRequest
	events  []*llm.StreamEvent
	current int
	mu      sync.Mutex
	cond    *sync.Cond
	err     error
	done    bool
	started bool
}

func newStream(ctx context.Context, client *api.Client, req *api.ChatRequest) *stream {
	s := &stream{ctx: ctx, client: client, req: req, current: -1}
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
	defer s.mu.Unlock()
	s.done = true
	return nil
}

func (s *stream) emit(ev *llm.StreamEvent) {
	s.events = append(s.events, ev)
	s.cond.Broadcast()
}

func (s *stream) pump() {
	var toolIndex = -1

	err := s.client.Chat(s.ctx, s.req, func(resp api.ChatResponse) error {
		s.mu.Lock()
		defer s.mu.Unlock()

		if resp.Message.Content != "" {
			s.emit(&llm.StreamEvent{Type: llm.StreamEventContentDelta, ContentDelta: resp.Message.Content})
		}

		for _, tc := range resp.Message.ToolCalls {
			toolIndex++

			args, err := json.Marshal(tc.Function.Arguments)
			if err != nil {
				return err
			}

			// Ollama hands back the complete call in one shot: ID, name,
			// and arguments all arrive together rather than as fragments.
			s.emit(&llm.StreamEvent{
				Type: llm.StreamEventToolCallDelta,
				ToolCallDelta: llm.ToolCallDelta{
					Index:                toolIndex,
					ID:                   synthesizeToolCallID(tc.Function.Name, toolIndex),
					Name:                 tc.Function.Name,
					ArgumentsFragment:    string(args),
					HasID:                true,
					HasName:              true,
					HasArgumentsFragment: true,
				},
			})
		}

		if resp.Done {
			usage := &llm.Usage{
				InputTokens:  int64(resp.PromptEvalCount),
				OutputTokens: int64(resp.EvalCount),
			}
			finish := llm.FinishReasonStop
			if toolIndex >= 0 {
				finish = llm.FinishReasonToolUse
			}
			s.emit(&llm.StreamEvent{
				Type: llm.StreamEventMetadataDelta,
				MetadataDelta: llm.MetadataDelta{
					FinishReason: finish,
					Usage:        usage,
					Model:        resp.Model,
				},
			})
			s.emit(&llm.StreamEvent{Type: llm.StreamEventDone})
			s.done = true
		}

		return nil
	})

	s.mu.Lock()
	if err != nil {
		s.err = llm.NewNetworkError("ollama: chat stream failed", err)
	} else if !s.done {
		s.emit(&llm.StreamEvent{Type: llm.StreamEventDone})
	}
	s.done = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func synthesizeToolCallID(name string, index int) string {
	return name + "#" + strconv.Itoa(index)
}
