package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/jkhoffman/cogni/llm"
)

func TestRateLimitAdmitsWithinCapacity(t *testing.T) {
	stub := &stubClient{responses: []*llm.Response{{ContentText: "a"}, {ContentText: "b"}}}
	rl := NewRateLimit(RateLimitParams{Capacity: 2, RefillPerPeriod: 2, Period: 1})
	client := rl.Wrap(stub)

	for i := 0; i < 2; i++ {
		if _, err := client.Synchronous(context.Background(), &llm.Request{}); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if stub.calls != 2 {
		t.Errorf("expected 2 calls, got %d", stub.calls)
	}
}

func TestRateLimitSuspendsUntilCanceled(t *testing.T) {
	stub := &stubClient{responses: []*llm.Response{{}, {}}}
	rl := NewRateLimit(RateLimitParams{Capacity: 1, RefillPerPeriod: 1, Period: 60})
	client := rl.Wrap(stub)

	if _, err := client.Synchronous(context.Background(), &llm.Request{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.Synchronous(ctx, &llm.Request{})
	if err == nil {
		t.Fatal("expected the exhausted bucket to suspend until the context deadline")
	}
}
