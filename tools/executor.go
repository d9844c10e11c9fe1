package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jkhoffman/cogni/llm"
	"golang.org/x/sync/errgroup"
)

// MaxConcurrentExecutions caps how many tool calls ExecuteMany runs at
// once. A model response can carry an arbitrary number of tool calls;
// this bounds fan-out against slow or resource-heavy handlers.
const MaxConcurrentExecutions = 8

// Result is one tool call's outcome: either a JSON-text result or an
// error, correlated back to the call by ID.
type Result struct {
	CallID string
	Output string
	Err    error
}

// Execute parses call.Arguments, validates them against the tool's
// schema, invokes the handler, and serializes its return value to JSON
// text. Returns a ToolExecution error if the tool is unknown or the
// handler fails, a Validation error if the arguments don't satisfy the
// schema.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	e, ok := r.lookup(call.Name)
	if !ok {
		return "", llm.NewToolExecutionError(call.Name, "unknown tool", nil)
	}

	args, err := call.ArgumentsMap()
	if err != nil {
		return "", llm.NewValidationError(fmt.Sprintf("tool %s: malformed arguments: %v", call.Name, err))
	}
	if err := Validate(args, e.spec.Schema); err != nil {
		return "", llm.NewValidationError(fmt.Sprintf("tool %s: %v", call.Name, err))
	}

	r.logger.Debug().Str("tool", call.Name).Str("call_id", call.ID).Msg("executing tool call")
	out, err := e.handler(ctx, args)
	if err != nil {
		r.logger.Warn().Str("tool", call.Name).Str("call_id", call.ID).Err(err).Msg("tool handler failed")
		return "", llm.NewToolExecutionError(call.Name, err.Error(), err)
	}

	serialized, err := json.Marshal(out)
	if err != nil {
		return "", llm.NewToolExecutionError(call.Name, "result is not JSON-serializable", err)
	}
	return string(serialized), nil
}

// ExecuteMany runs calls concurrently, up to MaxConcurrentExecutions at a
// time, and returns one Result per call in input order. A single call's
// failure does not abort the others; it is reported in that call's Result.
func (r *Registry) ExecuteMany(ctx context.Context, calls []llm.ToolCall) []Result {
	results := make([]Result, len(calls))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxConcurrentExecutions)

	for i, call := range calls {
		i, call := i, call
		g.Go(func() error {
			output, err := r.Execute(gctx, call)
			results[i] = Result{CallID: call.ID, Output: output, Err: err}
			return nil
		})
	}
	_ = g.Wait() // handler errors are captured per-result, never aborts siblings

	return results
}
