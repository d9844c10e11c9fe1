package context

import (
	stdctx "context"
	"sort"

	"github.com/jkhoffman/cogni/llm"
)

// Strategy prunes messages down to budget tokens, as counted by counter.
// Exactly one strategy is used per Fit call.
type Strategy interface {
	Fit(ctx stdctx.Context, messages []llm.Message, counter TokenCounter, budget int) ([]llm.Message, error)
}

func totalTokens(messages []llm.Message, counter TokenCounter) int {
	total := 0
	for _, m := range messages {
		total += counter.CountMessage(m)
	}
	return total
}

// SlidingWindow keeps the first KSystem system messages and the last
// KRecent messages unconditionally, dropping from the middle (oldest
// droppable first) until the budget is met.
type SlidingWindow struct {
	KSystem int
	KRecent int
}

func (s SlidingWindow) Fit(_ stdctx.Context, messages []llm.Message, counter TokenCounter, budget int) ([]llm.Message, error) {
	if totalTokens(messages, counter) <= budget {
		return messages, nil
	}

	keepHead := make([]bool, len(messages))
	systemsKept := 0
	for i, m := range messages {
		if m.Role == llm.RoleSystem && systemsKept < s.KSystem {
			keepHead[i] = true
			systemsKept++
		}
	}

	keepTail := make([]bool, len(messages))
	recentKept := 0
	for i := len(messages) - 1; i >= 0 && recentKept < s.KRecent; i-- {
		if !keepHead[i] {
			keepTail[i] = true
			recentKept++
		}
	}

	// Droppable = neither pinned head nor pinned tail. Drop oldest-first
	// (lowest index) until under budget, preserving relative order of
	// whatever survives.
	dropped := make([]bool, len(messages))
	for {
		kept := make([]llm.Message, 0, len(messages))
		for i, m := range messages {
			if !dropped[i] {
				kept = append(kept, m)
			}
		}
		if totalTokens(kept, counter) <= budget {
			return kept, nil
		}

		droppedAny := false
		for i := range messages {
			if keepHead[i] || keepTail[i] || dropped[i] {
				continue
			}
			dropped[i] = true
			droppedAny = true
			break
		}
		if !droppedAny {
			return nil, llm.NewValidationError("context overflow")
		}
	}
}

// Importance scores every droppable message and drops the lowest-scored
// first (ties broken older-first) until the budget is met. System
// messages are never dropped.
type Importance struct {
	Scorer func(llm.Message) float64
}

func (s Importance) Fit(_ stdctx.Context, messages []llm.Message, counter TokenCounter, budget int) ([]llm.Message, error) {
	if totalTokens(messages, counter) <= budget {
		return messages, nil
	}

	type candidate struct {
		index int
		score float64
	}
	var candidates []candidate
	for i, m := range messages {
		if m.Role == llm.RoleSystem {
			continue
		}
		candidates = append(candidates, candidate{index: i, score: s.Scorer(m)})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].score < candidates[b].score
	})

	dropped := make([]bool, len(messages))
	for _, c := range candidates {
		kept := make([]llm.Message, 0, len(messages))
		for i, m := range messages {
			if !dropped[i] {
				kept = append(kept, m)
			}
		}
		if totalTokens(kept, counter) <= budget {
			return kept, nil
		}
		dropped[c.index] = true
	}

	kept := make([]llm.Message, 0, len(messages))
	for i, m := range messages {
		if !dropped[i] {
			kept = append(kept, m)
		}
	}
	if totalTokens(kept, counter) <= budget {
		return kept, nil
	}
	return nil, llm.NewValidationError("context overflow")
}

// Summarizer produces a short system-note summary of a chunk of messages.
type Summarizer func(ctx stdctx.Context, chunk []llm.Message) (string, error)

// Summarization partitions the droppable region (everything but the
// first system messages and the most recent turn) into chunks of up to
// ChunkSize tokens, replacing each with a synthetic system summary note
// produced by Summarizer. Falls back to Fallback (typically SlidingWindow)
// once chunking stops making progress.
type Summarization struct {
	ChunkSize  int
	Summarizer Summarizer
	Fallback   Strategy
}

func (s Summarization) Fit(ctx stdctx.Context, messages []llm.Message, counter TokenCounter, budget int) ([]llm.Message, error) {
	if totalTokens(messages, counter) <= budget {
		return messages, nil
	}

	leadingSystem := 0
	for leadingSystem < len(messages) && messages[leadingSystem].Role == llm.RoleSystem {
		leadingSystem++
	}
	recentStart := len(messages)
	if recentStart > leadingSystem+1 {
		recentStart--
	}

	droppable := messages[leadingSystem:recentStart]
	if len(droppable) == 0 {
		return s.Fallback.Fit(ctx, messages, counter, budget)
	}

	chunks := chunkByTokenBudget(droppable, counter, s.ChunkSize)
	result := make([]llm.Message, 0, len(messages))
	result = append(result, messages[:leadingSystem]...)

	progressed := false
	for _, chunk := range chunks {
		if len(chunk) <= 1 {
			result = append(result, chunk...)
			continue
		}
		summary, err := s.Summarizer(ctx, chunk)
		if err != nil {
			result = append(result, chunk...)
			continue
		}
		result = append(result, llm.SystemMessage(summary))
		progressed = true
	}
	result = append(result, messages[recentStart:]...)

	if totalTokens(result, counter) <= budget {
		return result, nil
	}
	if !progressed {
		return s.Fallback.Fit(ctx, messages, counter, budget)
	}
	return s.Fit(ctx, result, counter, budget)
}

func chunkByTokenBudget(messages []llm.Message, counter TokenCounter, chunkSize int) [][]llm.Message {
	if chunkSize <= 0 {
		chunkSize = 1
	}
	var chunks [][]llm.Message
	var current []llm.Message
	currentTokens := 0
	for _, m := range messages {
		n := counter.CountMessage(m)
		if len(current) > 0 && currentTokens+n > chunkSize {
			chunks = append(chunks, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, m)
		currentTokens += n
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}
