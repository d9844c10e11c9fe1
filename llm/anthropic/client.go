package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/jkhoffman/cogni/llm"
	"github.com/rs/zerolog"
)

// Client implements llm.Client against Anthropic's messages API.
type Client struct {
	client *anthropic.Client
	model  string
	logger zerolog.Logger
}

// New builds a Client. model is the default model id used when a Request
// leaves Model empty.
func New(apiKey, model string, logger zerolog.Logger, opts ...option.RequestOption) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: api key is required")
	}
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	c := anthropic.NewClient(reqOpts...)
	return &Client{client: &c, model: model, logger: logger.With().Str("provider", "anthropic").Logger()}, nil
}

func (c *Client) buildParams(req *llm.Request) (anthropic.MessageNewParams, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}

	system, rest := ExtractSystem(req.Messages)
	msgs, err := ToMessageParams(rest)
	if err != nil {
		return anthropic.MessageNewParams{}, fmt.Errorf("anthropic: convert messages: %w", err)
	}

	maxTokens := req.Parameters.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: maxTokens,
		Messages:  msgs,
		Tools:     ToToolUnionParams(req.Tools),
	}
	if system != "" {
		params.System = buildSystemBlocks(system)
	}
	if req.Parameters.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Parameters.Temperature)
	}
	if req.Parameters.TopP != nil {
		params.TopP = anthropic.Float(*req.Parameters.TopP)
	}
	if len(req.Parameters.Stop) > 0 {
		params.StopSequences = req.Parameters.Stop
	}

	return params, nil
}

// Synchronous implements llm.Client.
func (c *Client) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, llm.NewValidationError("anthropic: request is required")
	}

	params, err := c.buildParams(req)
	if err != nil {
		return nil, llm.NewValidationError(err.Error())
	}

	message, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, convertError(err)
	}

	var text string
	var toolCalls []llm.ToolCall
	for _, blockUnion := range message.Content {
		switch block := blockUnion.AsAny().(type) {
		case anthropic.TextBlock:
			text += block.Text
		case anthropic.ToolUseBlock:
			args, err := jsonMarshalInput(block.Input)
			if err != nil {
				return nil, llm.NewSerializationError(err.Error(), err)
			}
			toolCalls = append(toolCalls, llm.ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}

	usage := &llm.Usage{
		InputTokens:              message.Usage.InputTokens,
		OutputTokens:             message.Usage.OutputTokens,
		CacheCreationInputTokens: message.Usage.CacheCreationInputTokens,
		CacheReadInputTokens:     message.Usage.CacheReadInputTokens,
	}
	logCacheStats(c.logger, usage)

	return &llm.Response{
		ContentText:  text,
		ToolCalls:    toolCalls,
		FinishReason: finishReasonFromStopReason(string(message.StopReason)),
		Usage:        usage,
		Model:        string(message.Model),
	}, nil
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	if req == nil {
		return nil, llm.NewValidationError("anthropic: request is required")
	}

	params, err := c.buildParams(req)
	if err != nil {
		return nil, llm.NewValidationError(err.Error())
	}

	stream := c.client.Messages.NewStreaming(ctx, params)
	return newStream(ctx, stream, c.logger), nil
}

// buildSystemBlocks caches the system prompt when it is large enough to be
// worth Anthropic's minimum cacheable prefix size.
func buildSystemBlocks(systemPrompt string) []anthropic.TextBlockParam {
	block := anthropic.TextBlockParam{Text: systemPrompt}
	if len(systemPrompt) >= 4000 {
		block.CacheControl = anthropic.NewCacheControlEphemeralParam()
	}
	return []anthropic.TextBlockParam{block}
}

func logCacheStats(logger zerolog.Logger, usage *llm.Usage) {
	if usage.CacheCreationInputTokens == 0 && usage.CacheReadInputTokens == 0 {
		return
	}
	efficiency := float64(0)
	if usage.InputTokens > 0 {
		efficiency = float64(usage.CacheReadInputTokens) / float64(usage.InputTokens) * 100
	}
	logger.Debug().
		Int64("input_tokens", usage.InputTokens).
		Int64("cache_creation_tokens", usage.CacheCreationInputTokens).
		Int64("cache_read_tokens", usage.CacheReadInputTokens).
		Float64("cache_efficiency", efficiency).
		Msg("prompt cache stats")
}

func finishReasonFromStopReason(stopReason string) llm.FinishReason {
	switch stopReason {
	case "end_turn", "stop_sequence":
		return llm.FinishReasonStop
	case "max_tokens":
		return llm.FinishReasonLength
	case "tool_use":
		return llm.FinishReasonToolUse
	case "":
		return llm.FinishReasonOther
	default:
		return llm.FinishReasonOther
	}
}

// convertError maps a transport-level error into the canonical taxonomy.
func convertError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusTooManyRequests:
			return llm.NewRateLimitError(apiErr.Error(), nil, err)
		case http.StatusRequestEntityTooLarge:
			return llm.NewRequestTooLargeError(apiErr.Error(), err)
		}
		if apiErr.StatusCode >= 500 {
			return llm.NewRetryableProviderError(apiErr.Error(), apiErr.StatusCode, err)
		}
		return llm.NewProviderError(apiErr.Error(), err)
	}
	return llm.NewNetworkError("anthropic: request failed", err)
}
