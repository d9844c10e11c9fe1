package context

import (
	"context"
	"testing"

	"github.com/jkhoffman/cogni/llm"
)

func longMessage(role llm.Role, n int) llm.Message {
	text := make([]byte, n)
	for i := range text {
		text[i] = 'a'
	}
	switch role {
	case llm.RoleSystem:
		return llm.SystemMessage(string(text))
	case llm.RoleUser:
		return llm.UserMessage(string(text))
	default:
		return llm.AssistantMessage(string(text))
	}
}

func TestSlidingWindowKeepsSystemAndRecent(t *testing.T) {
	counter := NewCharCounter()
	messages := []llm.Message{
		longMessage(llm.RoleSystem, 40),
		longMessage(llm.RoleUser, 400),
		longMessage(llm.RoleAssistant, 400),
		longMessage(llm.RoleUser, 400),
		longMessage(llm.RoleAssistant, 40),
	}
	strat := SlidingWindow{KSystem: 1, KRecent: 1}

	out, err := strat.Fit(context.Background(), messages, counter, 30)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if out[0].Role != llm.RoleSystem {
		t.Errorf("expected system message to be kept first, got %+v", out[0])
	}
	if out[len(out)-1].Role != llm.RoleAssistant {
		t.Errorf("expected last message preserved, got %+v", out[len(out)-1])
	}
}

func TestSlidingWindowReturnsValidationOnOverflow(t *testing.T) {
	counter := NewCharCounter()
	messages := []llm.Message{longMessage(llm.RoleSystem, 1000)}
	strat := SlidingWindow{KSystem: 1, KRecent: 0}

	_, err := strat.Fit(context.Background(), messages, counter, 1)
	var e *llm.Error
	if err == nil {
		t.Fatal("expected overflow error")
	}
	if as, ok := err.(*llm.Error); !ok || as.Type != llm.ErrorTypeValidation {
		t.Fatalf("expected Validation error, got %v (%T)", err, err)
	}
	_ = e
}

func TestImportanceNeverDropsSystemMessages(t *testing.T) {
	counter := NewCharCounter()
	messages := []llm.Message{
		longMessage(llm.RoleSystem, 100),
		longMessage(llm.RoleUser, 100),
		longMessage(llm.RoleAssistant, 100),
	}
	strat := Importance{Scorer: func(m llm.Message) float64 { return 0 }}

	out, err := strat.Fit(context.Background(), messages, counter, 30)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	found := false
	for _, m := range out {
		if m.Role == llm.RoleSystem {
			found = true
		}
	}
	if !found {
		t.Error("expected system message to survive")
	}
}

func TestImportanceDropsLowestScoreFirst(t *testing.T) {
	counter := NewCharCounter()
	low := llm.UserMessage("low value message padded out to some length")
	high := llm.AssistantMessage("high value message padded out to some length")
	messages := []llm.Message{low, high}

	scores := map[string]float64{low.Content.Text: 0, high.Content.Text: 10}
	strat := Importance{Scorer: func(m llm.Message) float64 { return scores[m.Content.Text] }}

	budget := counter.CountMessage(high)
	out, err := strat.Fit(context.Background(), messages, counter, budget)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if len(out) != 1 || out[0].Content.Text != high.Content.Text {
		t.Fatalf("expected only the high-value message to survive, got %+v", out)
	}
}

func TestSummarizationFitsWithinBudget(t *testing.T) {
	counter := NewCharCounter()
	messages := []llm.Message{
		longMessage(llm.RoleSystem, 10),
		longMessage(llm.RoleUser, 200),
		longMessage(llm.RoleAssistant, 200),
		longMessage(llm.RoleUser, 10),
	}
	strat := Summarization{
		ChunkSize: 20,
		Summarizer: func(ctx context.Context, chunk []llm.Message) (string, error) {
			return "summary note", nil
		},
		Fallback: SlidingWindow{KSystem: 1, KRecent: 1},
	}

	out, err := strat.Fit(context.Background(), messages, counter, 15)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if totalTokens(out, counter) > 15 {
		t.Errorf("expected result within budget, got %d tokens", totalTokens(out, counter))
	}
}

func TestSummarizationFallsBackWhenSummarizerFails(t *testing.T) {
	counter := NewCharCounter()
	messages := []llm.Message{
		longMessage(llm.RoleSystem, 10),
		longMessage(llm.RoleUser, 400),
		longMessage(llm.RoleAssistant, 400),
		longMessage(llm.RoleUser, 10),
	}
	strat := Summarization{
		ChunkSize: 300,
		Summarizer: func(ctx context.Context, chunk []llm.Message) (string, error) {
			return "", errSummarizeFailed
		},
		Fallback: SlidingWindow{KSystem: 1, KRecent: 1},
	}

	out, err := strat.Fit(context.Background(), messages, counter, 15)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if out[0].Role != llm.RoleSystem {
		t.Errorf("expected fallback to keep leading system message, got %+v", out[0])
	}
}

var errSummarizeFailed = &llm.Error{Type: llm.ErrorTypeProvider, Message: "summarizer unavailable"}
