// Package client is the facade the rest of this module is built to be
// consumed through: a thin Client wrapping an llm.Client with convenience
// entry points (chat, stream_chat, a fluent request builder, structured
// output), plus a multi-provider Registry and ParallelClient for fan-out
// strategies.
package client

import (
	"context"
	"fmt"
	"reflect"

	cogctx "github.com/jkhoffman/cogni/context"
	"github.com/jkhoffman/cogni/llm"
)

// Client wraps an llm.Client with defaults applied to every request it
// builds, plus optional context management.
type Client struct {
	inner          llm.Client
	defaultModel   string
	defaultParams  llm.Parameters
	contextManager *cogctx.Manager
	contextBudget  int
}

// New builds a Client over inner. model is used whenever a request
// leaves Model empty.
func New(inner llm.Client, model string) *Client {
	return &Client{inner: inner, defaultModel: model}
}

// WithParameters sets the default generation parameters applied to every
// request this Client builds.
func (c *Client) WithParameters(params llm.Parameters) *Client {
	c.defaultParams = params
	return c
}

// WithContextManager installs a context manager that fits every
// request's messages into budget tokens before it is sent.
func (c *Client) WithContextManager(manager *cogctx.Manager, budget int) *Client {
	c.contextManager = manager
	c.contextBudget = budget
	return c
}

// Provider returns the underlying llm.Client, for callers that need
// direct access (e.g. a ParallelClient fanning out across providers).
func (c *Client) Provider() llm.Client {
	return c.inner
}

// Chat sends a single user-role message and returns the response text.
func (c *Client) Chat(ctx context.Context, text string) (string, error) {
	resp, err := c.Execute(ctx, &llm.Request{Messages: []llm.Message{llm.UserMessage(text)}})
	if err != nil {
		return "", err
	}
	return resp.ContentText, nil
}

// ChatMessages sends a prebuilt message sequence and returns the
// response text.
func (c *Client) ChatMessages(ctx context.Context, messages []llm.Message) (string, error) {
	resp, err := c.Execute(ctx, &llm.Request{Messages: messages})
	if err != nil {
		return "", err
	}
	return resp.ContentText, nil
}

// StreamChat sends a single user-role message and returns a channel of
// content-delta text fragments. The channel is closed when the stream
// ends; a non-nil error from errCh (buffered, capacity 1) indicates the
// stream ended abnormally.
func (c *Client) StreamChat(ctx context.Context, text string) (<-chan string, <-chan error) {
	return c.streamChatMessages(ctx, []llm.Message{llm.UserMessage(text)})
}

func (c *Client) streamChatMessages(ctx context.Context, messages []llm.Message) (<-chan string, <-chan error) {
	out := make(chan string)
	errCh := make(chan error, 1)

	req, err := c.buildRequest(ctx, messages, nil, nil)
	if err != nil {
		close(out)
		errCh <- err
		return out, errCh
	}

	stream, err := c.inner.Stream(ctx, req)
	if err != nil {
		close(out)
		errCh <- err
		return out, errCh
	}

	go func() {
		defer close(out)
		defer stream.Close()
		for stream.Next() {
			event := stream.Event()
			if event.Type == llm.StreamEventContentDelta && event.ContentDelta != "" {
				select {
				case out <- event.ContentDelta:
				case <-ctx.Done():
					errCh <- ctx.Err()
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			errCh <- err
		}
	}()

	return out, errCh
}

// Request starts a fluent request builder connected to this client.
func (c *Client) Request() *ConnectedBuilder {
	return &ConnectedBuilder{
		client:  c,
		builder: NewRequestBuilder().Model(c.defaultModel).Parameters(c.defaultParams),
	}
}

// Execute applies this client's defaults, context management, and sends
// req through the wrapped llm.Client.
func (c *Client) Execute(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	built, err := c.buildRequest(ctx, req.Messages, req.Tools, req.ResponseFormat)
	if err != nil {
		return nil, err
	}
	if req.Model != "" {
		built.Model = req.Model
	}
	if !reflect.DeepEqual(req.Parameters, llm.Parameters{}) {
		built.Parameters = req.Parameters
	}
	return c.inner.Synchronous(ctx, built)
}

// ExecuteStream applies this client's defaults and context management,
// then opens a stream through the wrapped llm.Client.
func (c *Client) ExecuteStream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	built, err := c.buildRequest(ctx, req.Messages, req.Tools, req.ResponseFormat)
	if err != nil {
		return nil, err
	}
	if req.Model != "" {
		built.Model = req.Model
	}
	if !reflect.DeepEqual(req.Parameters, llm.Parameters{}) {
		built.Parameters = req.Parameters
	}
	return c.inner.Stream(ctx, built)
}

func (c *Client) buildRequest(ctx context.Context, messages []llm.Message, tools []llm.ToolSpec, rf *llm.ResponseFormat) (*llm.Request, error) {
	if c.contextManager != nil {
		fitted, err := c.contextManager.Fit(ctx, messages, c.contextBudget)
		if err != nil {
			return nil, fmt.Errorf("client: fit context: %w", err)
		}
		messages = fitted
	}
	return &llm.Request{
		Messages:       messages,
		Model:          c.defaultModel,
		Parameters:     c.defaultParams,
		Tools:          tools,
		ResponseFormat: rf,
	}, nil
}
