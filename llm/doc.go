// Package llm provides a provider-neutral abstraction layer for Large
// Language Model APIs.
//
// It defines the common types, interfaces, and utilities that let the rest
// of the module work with multiple LLM providers (Anthropic, OpenAI,
// Ollama, and anything wire-compatible with them) without being coupled to
// any one provider's SDK.
//
// # Core concepts
//
//  1. Messages: Message pairs a Role with a Content value (plain text,
//     image, audio, or a heterogeneous sequence of those) and Metadata
//     (tool calls on assistant messages, tool-call correlation on tool
//     messages).
//
//  2. Tools: ToolSpec describes a callable tool by name, description, and
//     JSON-Schema parameters; ToolCall is a model-emitted invocation of one.
//
//  3. Client: Synchronous() for non-streaming calls, Stream() for
//     streaming ones. Each provider subpackage (llm/openai, llm/anthropic,
//     llm/ollama) implements Client against its own wire format.
//
//  4. Middleware: Middleware and StreamMiddleware let cross-cutting
//     concerns wrap a Client without touching provider implementations.
//     Logging is implemented as a Middleware; retry, rate limiting and
//     caching are Client decorators in the middleware package, composed
//     by middleware.Pipeline.
//
//  5. Errors: Error carries a stable ErrorType, retryability, and the
//     wrapped provider cause, so callers can branch without knowing which
//     provider was in play.
//
// # Usage
//
//	client, _ := anthropic.New(apiKey, "claude-3-5-sonnet-20241022", logger)
//	wrapped := middleware.Pipeline(client, loggingLayer, retryLayer, nil, nil)
//
//	resp, err := wrapped.Synchronous(ctx, &llm.Request{
//		Model:    "claude-3-5-sonnet-20241022",
//		Messages: []llm.Message{llm.UserMessage("Hello!")},
//	})
//
// # Adding a provider
//
//  1. Implement the Client interface against the provider's transport.
//  2. Translate between the provider's wire types and this package's
//     canonical types (Message/Content/ToolCall/Response/StreamEvent).
//  3. Translate provider errors into llm.Error via the New*Error
//     constructors in errors.go.
package llm
