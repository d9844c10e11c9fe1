package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jkhoffman/cogni/llm"
	"github.com/jkhoffman/cogni/logger"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
)

// RemoteCaller delegates a tool call to a remote backend that returns raw
// JSON, such as an HTTP sidecar.
type RemoteCaller interface {
	Call(ctx context.Context, toolName string, args json.RawMessage) (json.RawMessage, error)
}

// RegisterRemoteTool registers a tool whose implementation lives behind a
// RemoteCaller.
func RegisterRemoteTool(r *Registry, spec llm.ToolSpec, caller RemoteCaller) error {
	return r.Register(spec, func(ctx context.Context, args map[string]any) (any, error) {
		raw, err := json.Marshal(args)
		if err != nil {
			return nil, fmt.Errorf("marshal arguments: %w", err)
		}
		resp, err := caller.Call(ctx, spec.Name, raw)
		if err != nil {
			return nil, err
		}
		if len(resp) == 0 {
			return nil, nil
		}
		var out any
		if err := json.Unmarshal(resp, &out); err != nil {
			return string(resp), nil
		}
		return out, nil
	})
}

// MCPInvoker invokes a tool exposed by a Model Context Protocol server.
// MCPClient below is the production implementation, backed by a real
// mcp-go session; tests can substitute their own.
type MCPInvoker interface {
	CallTool(ctx context.Context, name string, arguments map[string]any) (*MCPToolResult, error)
}

// MCPToolResult is the subset of an MCP CallToolResult this package cares
// about: text content and an error flag, mirroring mcp-go's mcp.Content
// union reduced to the text case plus IsError.
type MCPToolResult struct {
	Text    string
	IsError bool
}

// RegisterMCPTool registers a tool backed by an MCP server. spec.Name is
// the tool name presented to the model (provider tool-name charsets
// reject dots); mcpName is the server's own tool name, used on the wire.
func RegisterMCPTool(r *Registry, spec llm.ToolSpec, mcpName string, invoker MCPInvoker) error {
	return r.Register(spec, func(ctx context.Context, args map[string]any) (any, error) {
		result, err := invoker.CallTool(ctx, mcpName, args)
		if err != nil {
			return nil, fmt.Errorf("mcp tool %s: %w", mcpName, err)
		}
		if result.IsError {
			return nil, fmt.Errorf("mcp tool %s returned an error: %s", mcpName, result.Text)
		}
		return map[string]any{"text": result.Text}, nil
	})
}

// MCPClient is an MCPInvoker backed by a live github.com/mark3labs/mcp-go
// session. One MCPClient holds one underlying transport (stdio subprocess
// or streamable HTTP); the handshake (Initialize then Start) runs once, in
// the constructor, rather than on every call.
type MCPClient struct {
	client *mcpclient.Client
	logger zerolog.Logger
}

// NewStdioMCPClient launches command as a subprocess, passing args and
// env, and speaks MCP over its stdin/stdout.
func NewStdioMCPClient(ctx context.Context, base zerolog.Logger, command string, args, env []string) (*MCPClient, error) {
	c, err := mcpclient.NewStdioMCPClient(command, env, args...)
	if err != nil {
		return nil, fmt.Errorf("mcp: start %q: %w", command, err)
	}
	return newMCPClient(ctx, base, c)
}

// NewHTTPMCPClient connects to an MCP server speaking streamable HTTP at
// baseURL.
func NewHTTPMCPClient(ctx context.Context, base zerolog.Logger, baseURL string) (*MCPClient, error) {
	c, err := mcpclient.NewStreamableHttpClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("mcp: connect to %q: %w", baseURL, err)
	}
	return newMCPClient(ctx, base, c)
}

func newMCPClient(ctx context.Context, base zerolog.Logger, c *mcpclient.Client) (*MCPClient, error) {
	m := &MCPClient{client: c, logger: logger.Component(base, "mcpClient")}
	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo:      mcp.Implementation{Name: "cogni", Version: "0.1.0"},
		},
	}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: initialize: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("mcp: start: %w", err)
	}
	m.logger.Info().Msg("mcp session established")
	return m, nil
}

// ListToolSpecs asks the server for its tool catalog and translates each
// entry into an llm.ToolSpec, so callers can register them without
// hand-writing schemas.
func (m *MCPClient) ListToolSpecs(ctx context.Context) ([]llm.ToolSpec, error) {
	result, err := m.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("mcp: list tools: %w", err)
	}
	specs := make([]llm.ToolSpec, 0, len(result.Tools))
	for _, t := range result.Tools {
		specs = append(specs, llm.ToolSpec{
			Name:        t.Name,
			Description: t.Description,
			Schema: llm.ToolSchema{
				Type:       t.InputSchema.Type,
				Properties: t.InputSchema.Properties,
				Required:   t.InputSchema.Required,
			},
		})
	}
	return specs, nil
}

// CallTool implements MCPInvoker over the underlying mcp-go client,
// flattening the response's text content blocks into a single string.
func (m *MCPClient) CallTool(ctx context.Context, name string, arguments map[string]any) (*MCPToolResult, error) {
	req := mcp.CallToolRequest{Params: mcp.CallToolParams{Name: name, Arguments: arguments}}
	result, err := m.client.CallTool(ctx, req)
	if err != nil {
		m.logger.Error().Str("tool", name).Err(err).Msg("mcp tool call failed")
		return nil, fmt.Errorf("mcp: call tool %q: %w", name, err)
	}

	var texts []string
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			texts = append(texts, tc.Text)
		} else if s := mcp.GetTextFromContent(content); s != "" {
			texts = append(texts, s)
		}
	}
	return &MCPToolResult{Text: strings.Join(texts, "\n"), IsError: result.IsError}, nil
}

// Close releases the underlying transport (subprocess or HTTP connection).
func (m *MCPClient) Close() error {
	return m.client.Close()
}

var _ MCPInvoker = (*MCPClient)(nil)
