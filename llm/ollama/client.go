package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/jkhoffman/cogni/llm"
	"github.com/ollama/ollama/api"
)

// Client implements llm.Client against a local or remote Ollama server.
type Client struct {
	client *api.Client
	model  string
}

// New builds a Client. If host is empty, it falls back to the environment
// (OLLAMA_HOST, defaulting to http://localhost:11434).
func New(host, model string) (*Client, error) {
	var client *api.Client
	if host != "" {
		baseURL, err := parseHost(host)
		if err != nil {
			return nil, fmt.Errorf("ollama: invalid host: %w", err)
		}
		client = api.NewClient(baseURL, &http.Client{})
	} else {
		envClient, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("ollama: %w", err)
		}
		client = envClient
	}

	return &Client{client: client, model: model}, nil
}

func parseHost(host string) (*url.URL, error) {
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	return url.Parse(host)
}

func (c *Client) buildRequest(req *llm.Request, streaming bool) (*api.ChatRequest, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	if model == "" {
		return nil, fmt.Errorf("ollama: model is required")
	}

	msgs, err := ToOllamaMessages(req.Messages, req.Tools)
	if err != nil {
		return nil, err
	}

	chatReq := &api.ChatRequest{
		Model:    model,
		Messages: msgs,
		Stream:   &streaming,
		Options:  make(map[string]interface{}),
	}

	if len(req.Tools) > 0 {
		tools, err := ToOllamaTools(req.Tools)
		if err != nil {
			return nil, err
		}
		chatReq.Tools = tools
	}

	if req.Parameters.MaxTokens > 0 {
		chatReq.Options["num_predict"] = int(req.Parameters.MaxTokens)
	}
	if req.Parameters.Temperature != nil {
		chatReq.Options["temperature"] = *req.Parameters.Temperature
	}
	if req.Parameters.TopP != nil {
		chatReq.Options["top_p"] = *req.Parameters.TopP
	}
	if len(req.Parameters.Stop) > 0 {
		chatReq.Options["stop"] = req.Parameters.Stop
	}

	return chatReq, nil
}

// Synchronous implements llm.Client.
func (c *Client) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if req == nil {
		return nil, llm.NewValidationError("ollama: request is required")
	}

	chatReq, err := c.buildRequest(req, false)
	if err != nil {
		return nil, llm.NewValidationError(err.Error())
	}

	var chatResp api.ChatResponse
	if err := c.client.Chat(ctx, chatReq, func(resp api.ChatResponse) error {
		chatResp = resp
		return nil
	}); err != nil {
		return nil, llm.NewNetworkError("ollama: chat request failed", err)
	}

	var toolCalls []llm.ToolCall
	for _, tc := range chatResp.Message.ToolCalls {
		call, err := FromOllamaToolCall(tc)
		if err != nil {
			return nil, llm.NewSerializationError(err.Error(), err)
		}
		toolCalls = append(toolCalls, call)
	}

	finish := llm.FinishReasonStop
	if len(toolCalls) > 0 {
		finish = llm.FinishReasonToolUse
	}

	return &llm.Response{
		ContentText:  chatResp.Message.Content,
		ToolCalls:    toolCalls,
		FinishReason: finish,
		Usage: &llm.Usage{
			InputTokens:  int64(chatResp.PromptEvalCount),
			OutputTokens: int64(chatResp.EvalCount),
		},
		Model: chatResp.Model,
	}, nil
}

// Stream implements llm.Client.
func (c *Client) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	if req == nil {
		return nil, llm.NewValidationError("ollama: request is required")
	}

	chatReq, err := c.buildRequest(req, true)
	if err != nil {
		return nil, llm.NewValidationError(err.Error())
	}

	return newStream(ctx, c.client, chatReq), nil
}
