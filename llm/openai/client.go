package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jkhoffman/cogni/llm"
	openai "github.com/sashabaranov/go-openai"
)

// jsonSchemaMap adapts a map[string]any to json.Marshaler so it can be used
// as openai.ChatCompletionResponseFormatJSONSchema.Schema.
type jsonSchemaMap map[string]any

func (m jsonSchemaMap) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]any(m))
}

// defaultRetryAfter is attached to every rate-limit error built from an
// OpenAI response; the Retry-After header is not read.
const defaultRetryAfter = 60 * time.Second

// Client implements llm.Client against OpenAI-compatible chat completion
// APIs (OpenAI itself, and any server that mirrors its wire format).
type Client struct {
	client *openai.Client
	model  string
}

// New builds a Client. baseURL and organization may be empty to use
// OpenAI's defaults; model is used when a Request leaves Model empty.
func New(apiKey, baseURL, model, organization string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}

	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if organization != "" {
		cfg.OrgID = organization
	}

	return &Client{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (c *Client) buildRequest(req *llm.Request, stream bool) (openai.ChatCompletionRequest, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return openai.ChatCompletionRequest{}, fmt.Errorf("openai: model is required")
	}

	msgs, err := ToOpenAIMessages(req.Messages)
	if err != nil {
		return openai.ChatCompletionRequest{}, err
	}

	chatReq := openai.ChatCompletionRequest{
		Model:    model,
		Messages: msgs,
		Stream:   stream,
	}

	if len(req.Tools) > 0 {
		tools, err := ToOpenAITools(req.Tools)
		if err != nil {
			return openai.ChatCompletionRequest{}, err
		}
		chatReq.Tools = tools
		chatReq.ToolChoice = "auto"
	}

	if req.Parameters.MaxTokens > 0 {
		chatReq.MaxTokens = int(req.Parameters.MaxTokens)
	}
	if req.Parameters.Temperature != nil {
		chatReq.Temperature = float32(*req.Parameters.Temperature)
	}
	if req.Parameters.TopP != nil {
		chatReq.TopP = float32(*req.Parameters.TopP)
	}
	if req.Parameters.PresencePenalty != nil {
		chatReq.PresencePenalty = float32(*req.Parameters.PresencePenalty)
	}
	if req.Parameters.FrequencyPenalty != nil {
		chatReq.FrequencyPenalty = float32(*req.Parameters.FrequencyPenalty)
	}
	if len(req.Parameters.Stop) > 0 {
		chatReq.Stop = req.Parameters.Stop
	}

	if req.ResponseFormat != nil {
		switch req.ResponseFormat.Type {
		case llm.ResponseFormatJSONObject:
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
		case llm.ResponseFormatJSONSchema:
			chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
				JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
					Name:   "response",
					Schema: jsonSchemaMap(req.ResponseFormat.Schema),
					Strict: req.ResponseFormat.Strict,
				},
			}
		}
	}

	return chatReq, nil
}

// Synchronous implements llm.Client.
func (c *Client) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, llm.NewValidationError("openai: request is required")
	}

	chatReq, err := c.buildRequest(req, false)
	if err != nil {
		return nil, llm.NewValidationError(err.Error())
	}

	chatResp, err := c.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, convertError(err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, llm.NewProviderError("openai: response had no choices", nil)
	}

	choice := chatResp.Choices[0]

	var toolCalls []llm.ToolCall
	for _, tc := range choice.Message.ToolCalls {
		call, err := FromOpenAIToolCall(tc)
		if err != nil {
			return nil, llm.NewSerializationError(err.Error(), err)
		}
		toolCalls = append(toolCalls, call)
	}

	return &llm.Response{
		ContentText:  choice.Message.Content,
		ToolCalls:    toolCalls,
		FinishReason: finishReasonFromOpenAI(choice.FinishReason),
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.Usage.PromptTokens),
			OutputTokens: int64(chatResp.Usage.CompletionTokens),
		},
		Model: chatResp.Model,
	}, nil
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	if req == nil {
		return nil, llm.NewValidationError("openai: request is required")
	}

	chatReq, err := c.buildRequest(req, true)
	if err != nil {
		return nil, llm.NewValidationError(err.Error())
	}

	raw, err := c.client.CreateChatCompletionStream(ctx, chatReq)
	if err != nil {
		return nil, convertError(err)
	}
	return newStream(ctx, raw), nil
}

func finishReasonFromOpenAI(reason openai.FinishReason) llm.FinishReason {
	switch reason {
	case openai.FinishReasonStop:
		return llm.FinishReasonStop
	case openai.FinishReasonLength:
		return llm.FinishReasonLength
	case openai.FinishReasonToolCalls, openai.FinishReasonFunctionCall:
		return llm.FinishReasonToolUse
	case openai.FinishReasonContentFilter:
		return llm.FinishReasonContentFilter
	case "":
		return llm.FinishReasonOther
	default:
		return llm.FinishReasonOther
	}
}

// convertError maps an OpenAI transport error into the canonical taxonomy.
func convertError(err error) error {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return llm.NewNetworkError("openai: request failed", err)
	}

	switch apiErr.HTTPStatusCode {
	case http.StatusTooManyRequests:
		retryAfter := defaultRetryAfter
		return llm.NewRateLimitError(fmt.Sprintf("openai: rate limited: %s", apiErr.Message), &retryAfter, err)
	case http.StatusRequestEntityTooLarge:
		return llm.NewRequestTooLargeError(fmt.Sprintf("openai: request too large: %s", apiErr.Message), err)
	case http.StatusBadRequest:
		return llm.NewValidationError(fmt.Sprintf("openai: invalid request: %s", apiErr.Message))
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable:
		return llm.NewRetryableProviderError(fmt.Sprintf("openai: server error: %s", apiErr.Message), apiErr.HTTPStatusCode, err)
	default:
		return llm.NewProviderError(fmt.Sprintf("openai: api error: %s", apiErr.Message), err)
	}
}
