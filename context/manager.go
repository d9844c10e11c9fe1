// Package context implements the context manager: fitting a message
// sequence into a token budget via a pluggable pruning strategy.
// Importers alias the standard library's context package (to stdctx or
// similar) to avoid a name clash with this package.
package context

import (
	stdctx "context"

	"github.com/jkhoffman/cogni/llm"
)

// Manager fits conversations into a token budget using an injected
// counter and strategy.
type Manager struct {
	counter  TokenCounter
	strategy Strategy
}

// NewManager builds a Manager. counter and strategy are required.
func NewManager(counter TokenCounter, strategy Strategy) *Manager {
	return &Manager{counter: counter, strategy: strategy}
}

// Fit prunes messages to fit within budget tokens, per the configured
// strategy. budget is the caller's max_tokens minus its reserved output
// headroom. Returns a Validation error if the strategy cannot meet budget.
func (m *Manager) Fit(ctx stdctx.Context, messages []llm.Message, budget int) ([]llm.Message, error) {
	return m.strategy.Fit(ctx, messages, m.counter, budget)
}

// Budget computes max_tokens - reserveForOutput, floored at zero.
func Budget(maxTokens, reserveForOutput int) int {
	b := maxTokens - reserveForOutput
	if b < 0 {
		return 0
	}
	return b
}
