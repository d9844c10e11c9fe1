package middleware

import (
	"context"

	"github.com/jkhoffman/cogni/llm"
	"golang.org/x/time/rate"
)

// RateLimitParams configures the token-bucket limiter.
type RateLimitParams struct {
	Capacity        int
	RefillPerPeriod int
	Period          float64 // seconds
}

// RateLimit is a token-bucket pre-call throttle: capacity C, refilling r
// tokens per period P. Calls block for a token before ever leaving the
// process, rather than reacting to a 429 the backend already returned.
type RateLimit struct {
	limiter *rate.Limiter
}

// NewRateLimit builds a shared limiter; the same instance should wrap every
// call through a given pipeline so the bucket is actually shared.
func NewRateLimit(params RateLimitParams) *RateLimit {
	r := rate.Limit(float64(params.RefillPerPeriod) / params.Period)
	return &RateLimit{limiter: rate.NewLimiter(r, params.Capacity)}
}

// Wrap returns a Client that acquires one token per call before forwarding
// to next, suspending the caller until a token is available or ctx is
// canceled.
func (rl *RateLimit) Wrap(next llm.Client) llm.Client {
	return &rateLimitClient{inner: next, limiter: rl.limiter}
}

type rateLimitClient struct {
	inner   llm.Client
	limiter *rate.Limiter
}

func (c *rateLimitClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, llm.NewCanceledError("rate limit wait canceled", err)
	}
	return c.inner.Synchronous(ctx, req)
}

func (c *rateLimitClient) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, llm.NewCanceledError("rate limit wait canceled", err)
	}
	return c.inner.Stream(ctx, req)
}

var _ llm.Client = (*rateLimitClient)(nil)
