package middleware

import (
	"context"

	"github.com/jkhoffman/cogni/llm"
	"github.com/jkhoffman/cogni/logger"
	"github.com/rs/zerolog"
)

// LoggingConfig controls what the logging layer records.
type LoggingConfig struct {
	// IncludeContent opts into logging message content text. Off by
	// default because request/response bodies can carry sensitive data.
	IncludeContent bool
}

// Logging wraps a Client/Stream with structured request/response logging.
// It never mutates the request or response.
type Logging struct {
	logger zerolog.Logger
	cfg    LoggingConfig
}

// NewLogging builds a logging layer writing through base.
func NewLogging(base zerolog.Logger, cfg LoggingConfig) *Logging {
	return &Logging{logger: logger.Component(base, "llmLogging"), cfg: cfg}
}

// BeforeRequest implements llm.Middleware.
func (l *Logging) BeforeRequest(ctx context.Context, req *llm.Request) (*llm.Request, error) {
	event := l.logger.Info().
		Str("model", req.Model).
		Int("message_count", len(req.Messages)).
		Int("tool_count", len(req.Tools))
	if l.cfg.IncludeContent {
		event = event.Interface("messages", req.Messages)
	}
	event.Msg("llm request begin")
	return req, nil
}

// AfterResponse implements llm.Middleware.
func (l *Logging) AfterResponse(ctx context.Context, req *llm.Request, resp *llm.Response) (*llm.Response, error) {
	event := l.logger.Info().
		Str("model", resp.Model).
		Str("finish_reason", string(resp.FinishReason)).
		Int("content_length", len(resp.ContentText)).
		Int("tool_call_count", len(resp.ToolCalls))
	if resp.Usage != nil {
		event = event.Int64("input_tokens", resp.Usage.InputTokens).Int64("output_tokens", resp.Usage.OutputTokens)
	}
	if l.cfg.IncludeContent {
		event = event.Str("content", resp.ContentText)
	}
	event.Msg("llm response end")
	return resp, nil
}

// OnError implements llm.Middleware.
func (l *Logging) OnError(ctx context.Context, req *llm.Request, err error) error {
	l.logger.Error().Str("model", req.Model).Err(err).Msg("llm request error")
	return err
}

// BeforeStream implements llm.StreamMiddleware.
func (l *Logging) BeforeStream(ctx context.Context, req *llm.Request) (*llm.Request, error) {
	l.logger.Info().
		Str("model", req.Model).
		Int("message_count", len(req.Messages)).
		Int("tool_count", len(req.Tools)).
		Msg("llm stream begin")
	return req, nil
}

// OnStreamEvent implements llm.StreamMiddleware. On Done it logs one
// stream-end line carrying the model; content length, tool-call count
// and duration are not recorded.
func (l *Logging) OnStreamEvent(ctx context.Context, req *llm.Request, event *llm.StreamEvent) (*llm.StreamEvent, error) {
	if event.Type == llm.StreamEventDone {
		l.logger.Info().Str("model", req.Model).Msg("llm stream end")
	}
	return event, nil
}

// OnStreamError implements llm.StreamMiddleware.
func (l *Logging) OnStreamError(ctx context.Context, req *llm.Request, err error) error {
	l.logger.Error().Str("model", req.Model).Err(err).Msg("llm stream error")
	return err
}

var (
	_ llm.Middleware       = (*Logging)(nil)
	_ llm.StreamMiddleware = (*Logging)(nil)
)
