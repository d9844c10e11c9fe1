package client

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jkhoffman/cogni/llm"
)

// mockProvider is a hand-written llm.Client stub for exercising
// ParallelClient without a real provider.
type mockProvider struct {
	response string
	delay    time.Duration
	fail     error
}

func (m *mockProvider) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.fail != nil {
		return nil, m.fail
	}
	return &llm.Response{ContentText: m.response}, nil
}

func (m *mockProvider) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	return nil, errors.New("mockProvider: streaming not supported")
}

func TestParallelClientFirstSuccess(t *testing.T) {
	pc := NewParallelClient([]llm.Client{
		&mockProvider{fail: errors.New("boom")},
		&mockProvider{response: "Success"},
	}).WithStrategy(FirstSuccess)

	resp, err := pc.Request(context.Background(), &llm.Request{Messages: []llm.Message{llm.UserMessage("hi")}})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if resp.ContentText != "Success" {
		t.Errorf("expected Success, got %q", resp.ContentText)
	}
}

func TestParallelClientFirstSuccessAllFail(t *testing.T) {
	pc := NewParallelClient([]llm.Client{
		&mockProvider{fail: errors.New("a")},
		&mockProvider{fail: errors.New("b")},
	})

	_, err := pc.Request(context.Background(), &llm.Request{})
	if err == nil {
		t.Fatal("expected error when every provider fails")
	}
}

func TestParallelClientRace(t *testing.T) {
	pc := NewParallelClient([]llm.Client{
		&mockProvider{response: "Slow", delay: 50 * time.Millisecond},
		&mockProvider{response: "Fast", delay: 5 * time.Millisecond},
	}).WithStrategy(Race)

	resp, err := pc.Request(context.Background(), &llm.Request{})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if resp.ContentText != "Fast" {
		t.Errorf("expected Fast, got %q", resp.ContentText)
	}
}

func TestParallelClientAll(t *testing.T) {
	pc := NewParallelClient([]llm.Client{
		&mockProvider{response: "one"},
		&mockProvider{fail: errors.New("nope")},
	})

	responses, errs := pc.All(context.Background(), &llm.Request{})
	if len(responses) != 2 || len(errs) != 2 {
		t.Fatalf("expected 2 results, got %d responses %d errs", len(responses), len(errs))
	}
	if responses[0] == nil || responses[0].ContentText != "one" {
		t.Errorf("expected first response 'one', got %v", responses[0])
	}
	if errs[1] == nil {
		t.Errorf("expected second provider's error to be preserved")
	}
}

func TestParallelClientConsensusAgrees(t *testing.T) {
	pc := NewParallelClient([]llm.Client{
		&mockProvider{response: "same"},
		&mockProvider{response: "same"},
		&mockProvider{response: "different"},
	})

	resp, err := pc.Consensus(context.Background(), &llm.Request{}, 2)
	if err != nil {
		t.Fatalf("Consensus: %v", err)
	}
	if resp.ContentText != "same" {
		t.Errorf("expected 'same', got %q", resp.ContentText)
	}
}

func TestParallelClientConsensusFails(t *testing.T) {
	pc := NewParallelClient([]llm.Client{
		&mockProvider{response: "a"},
		&mockProvider{response: "b"},
		&mockProvider{response: "c"},
	})

	_, err := pc.Consensus(context.Background(), &llm.Request{}, 2)
	if err == nil {
		t.Fatal("expected error when no k providers agree")
	}
}

func TestParallelChat(t *testing.T) {
	providers := []llm.Client{
		&mockProvider{response: "Response 1"},
		&mockProvider{response: "Response 2"},
	}

	texts, errs := parallelChat(context.Background(), providers, "Test message")
	if len(texts) != 2 {
		t.Fatalf("expected 2 results, got %d", len(texts))
	}
	for i, err := range errs {
		if err != nil {
			t.Errorf("provider %d: unexpected error %v", i, err)
		}
	}
	if texts[0] != "Response 1" || texts[1] != "Response 2" {
		t.Errorf("unexpected texts: %v", texts)
	}
}
