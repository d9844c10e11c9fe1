package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/jkhoffman/cogni/llm"
)

func TestCacheHitShortCircuitsInnerCall(t *testing.T) {
	stub := &stubClient{responses: []*llm.Response{{ContentText: "first"}}}
	cache := NewCache(8, time.Minute)
	client := cache.Wrap(stub)

	req := &llm.Request{Model: "m", Messages: []llm.Message{llm.UserMessage("hi")}}

	resp1, err := client.Synchronous(context.Background(), req)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	if resp1.ContentText != "first" {
		t.Fatalf("unexpected response: %+v", resp1)
	}

	resp2, err := client.Synchronous(context.Background(), req)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}
	if resp2.ContentText != "first" {
		t.Errorf("expected cached response, got %+v", resp2)
	}
	if stub.calls != 1 {
		t.Errorf("expected inner client called exactly once, got %d", stub.calls)
	}
}

func TestCacheMissOnDifferentRequest(t *testing.T) {
	stub := &stubClient{responses: []*llm.Response{{ContentText: "a"}, {ContentText: "b"}}}
	cache := NewCache(8, time.Minute)
	client := cache.Wrap(stub)

	req1 := &llm.Request{Model: "m", Messages: []llm.Message{llm.UserMessage("one")}}
	req2 := &llm.Request{Model: "m", Messages: []llm.Message{llm.UserMessage("two")}}

	if _, err := client.Synchronous(context.Background(), req1); err != nil {
		t.Fatalf("req1: %v", err)
	}
	if _, err := client.Synchronous(context.Background(), req2); err != nil {
		t.Fatalf("req2: %v", err)
	}
	if stub.calls != 2 {
		t.Errorf("expected 2 inner calls for distinct requests, got %d", stub.calls)
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	req := &llm.Request{Model: "m", Messages: []llm.Message{llm.UserMessage("hi")}}
	if fingerprint(req) != fingerprint(req) {
		t.Error("expected fingerprint to be deterministic for an identical request")
	}
}
