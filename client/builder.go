package client

import (
	"context"

	cogctx "github.com/jkhoffman/cogni/context"
	"github.com/jkhoffman/cogni/llm"
)

// RequestBuilder builds an llm.Request fluently.
type RequestBuilder struct {
	messages []llm.Message
	model    string
	params   llm.Parameters
	tools    []llm.ToolSpec
	rf       *llm.ResponseFormat
}

// NewRequestBuilder starts an empty builder.
func NewRequestBuilder() *RequestBuilder {
	return &RequestBuilder{}
}

func (b *RequestBuilder) System(content string) *RequestBuilder {
	b.messages = append(b.messages, llm.SystemMessage(content))
	return b
}

func (b *RequestBuilder) User(content string) *RequestBuilder {
	b.messages = append(b.messages, llm.UserMessage(content))
	return b
}

func (b *RequestBuilder) Assistant(content string) *RequestBuilder {
	b.messages = append(b.messages, llm.AssistantMessage(content))
	return b
}

func (b *RequestBuilder) Message(msg llm.Message) *RequestBuilder {
	b.messages = append(b.messages, msg)
	return b
}

func (b *RequestBuilder) Messages(msgs []llm.Message) *RequestBuilder {
	b.messages = append(b.messages, msgs...)
	return b
}

func (b *RequestBuilder) Model(model string) *RequestBuilder {
	b.model = model
	return b
}

func (b *RequestBuilder) Temperature(t float64) *RequestBuilder {
	b.params.Temperature = &t
	return b
}

func (b *RequestBuilder) TopP(p float64) *RequestBuilder {
	b.params.TopP = &p
	return b
}

func (b *RequestBuilder) MaxTokens(n int64) *RequestBuilder {
	b.params.MaxTokens = n
	return b
}

func (b *RequestBuilder) FrequencyPenalty(p float64) *RequestBuilder {
	b.params.FrequencyPenalty = &p
	return b
}

func (b *RequestBuilder) PresencePenalty(p float64) *RequestBuilder {
	b.params.PresencePenalty = &p
	return b
}

func (b *RequestBuilder) Stop(stop []string) *RequestBuilder {
	b.params.Stop = stop
	return b
}

func (b *RequestBuilder) Parameters(params llm.Parameters) *RequestBuilder {
	b.params = params
	return b
}

func (b *RequestBuilder) Tool(tool llm.ToolSpec) *RequestBuilder {
	b.tools = append(b.tools, tool)
	return b
}

func (b *RequestBuilder) Tools(tools []llm.ToolSpec) *RequestBuilder {
	b.tools = append(b.tools, tools...)
	return b
}

func (b *RequestBuilder) ResponseFormat(rf llm.ResponseFormat) *RequestBuilder {
	b.rf = &rf
	return b
}

// Build produces the llm.Request this builder has accumulated.
func (b *RequestBuilder) Build() *llm.Request {
	return &llm.Request{
		Messages:       b.messages,
		Model:          b.model,
		Parameters:     b.params,
		Tools:          b.tools,
		ResponseFormat: b.rf,
	}
}

// ConnectedBuilder is a RequestBuilder bound to a Client, so Send/Stream
// can dispatch the built request directly.
type ConnectedBuilder struct {
	client         *Client
	builder        *RequestBuilder
	contextManager *cogctx.Manager
	contextBudget  int
}

func (c *ConnectedBuilder) System(content string) *ConnectedBuilder {
	c.builder.System(content)
	return c
}

func (c *ConnectedBuilder) User(content string) *ConnectedBuilder {
	c.builder.User(content)
	return c
}

func (c *ConnectedBuilder) Assistant(content string) *ConnectedBuilder {
	c.builder.Assistant(content)
	return c
}

func (c *ConnectedBuilder) Message(msg llm.Message) *ConnectedBuilder {
	c.builder.Message(msg)
	return c
}

func (c *ConnectedBuilder) Model(model string) *ConnectedBuilder {
	c.builder.Model(model)
	return c
}

func (c *ConnectedBuilder) Temperature(t float64) *ConnectedBuilder {
	c.builder.Temperature(t)
	return c
}

func (c *ConnectedBuilder) MaxTokens(n int64) *ConnectedBuilder {
	c.builder.MaxTokens(n)
	return c
}

func (c *ConnectedBuilder) Parameters(params llm.Parameters) *ConnectedBuilder {
	c.builder.Parameters(params)
	return c
}

func (c *ConnectedBuilder) Tool(tool llm.ToolSpec) *ConnectedBuilder {
	c.builder.Tool(tool)
	return c
}

// WithContextManager overrides the client's context manager (or adds one)
// for this single request.
func (c *ConnectedBuilder) WithContextManager(manager *cogctx.Manager, budget int) *ConnectedBuilder {
	c.contextManager = manager
	c.contextBudget = budget
	return c
}

// Build returns the accumulated request without sending it.
func (c *ConnectedBuilder) Build() *llm.Request {
	return c.builder.Build()
}

// Send builds and executes the request against the connected client.
func (c *ConnectedBuilder) Send(ctx context.Context) (*llm.Response, error) {
	req := c.builder.Build()
	if c.contextManager != nil {
		fitted, err := c.contextManager.Fit(ctx, req.Messages, c.contextBudget)
		if err != nil {
			return nil, err
		}
		req.Messages = fitted
		return c.client.inner.Synchronous(ctx, req)
	}
	return c.client.Execute(ctx, req)
}

// Stream builds the request and opens a stream against the connected
// client.
func (c *ConnectedBuilder) Stream(ctx context.Context) (llm.Stream, error) {
	req := c.builder.Build()
	if c.contextManager != nil {
		fitted, err := c.contextManager.Fit(ctx, req.Messages, c.contextBudget)
		if err != nil {
			return nil, err
		}
		req.Messages = fitted
		return c.client.inner.Stream(ctx, req)
	}
	return c.client.ExecuteStream(ctx, req)
}
