package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jkhoffman/cogni/llm"
	"github.com/jkhoffman/cogni/logger"
	"github.com/rs/zerolog"
)

// RetryParams are the retry layer's tunables.
type RetryParams struct {
	MaxAttempts     uint64
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	ExponentialBase float64
	JitterFraction  float64
}

// DefaultRetryParams returns a conservative exponential-backoff schedule:
// five attempts, starting at one second and doubling up to five minutes,
// with 20% jitter.
func DefaultRetryParams() RetryParams {
	return RetryParams{
		MaxAttempts:     5,
		InitialDelay:    time.Second,
		MaxDelay:        5 * time.Minute,
		ExponentialBase: 2.0,
		JitterFraction:  0.2,
	}
}

// Retry wraps a Client/Stream in a bounded exponential-backoff retry loop.
// Each call gets its own backoff state; retries happen within that single
// call rather than across separately scheduled invocations.
type Retry struct {
	logger zerolog.Logger
	params RetryParams
}

// NewRetry builds a retry layer.
func NewRetry(base zerolog.Logger, params RetryParams) *Retry {
	return &Retry{logger: logger.Component(base, "llmRetry"), params: params}
}

func (r *Retry) newBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = r.params.InitialDelay
	eb.MaxInterval = r.params.MaxDelay
	eb.Multiplier = r.params.ExponentialBase
	eb.RandomizationFactor = r.params.JitterFraction
	eb.Reset()
	// MaxAttempts counts calls, including the first; the backoff counts
	// only the retries after it.
	retries := r.params.MaxAttempts
	if retries > 0 {
		retries--
	}
	return backoff.WithMaxRetries(eb, retries)
}

// Wrap returns a Client that retries calls to next according to r's params.
func (r *Retry) Wrap(next llm.Client) llm.Client {
	return &retryClient{inner: next, retry: r}
}

type retryClient struct {
	inner llm.Client
	retry *Retry
}

func (c *retryClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	b := c.retry.newBackOff()
	attempt := 0
	for {
		attempt++
		resp, err := c.inner.Synchronous(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !llm.IsRetryableError(err) {
			return nil, err
		}

		delay, ok := c.retry.nextDelay(b, err)
		if !ok {
			return nil, fmt.Errorf("retry: attempt %d: max attempts or elapsed time exceeded: %w", attempt, err)
		}
		c.retry.logger.Warn().Int("attempt", attempt).Err(err).Dur("next_delay", delay).Msg("llm request failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

func (c *retryClient) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	// Retry applies only to stream establishment. Once the first event is
	// yielded, subsequent errors propagate untouched — this loop only ever
	// calls inner.Stream, never reads from the stream.
	b := c.retry.newBackOff()
	attempt := 0
	for {
		attempt++
		stream, err := c.inner.Stream(ctx, req)
		if err == nil {
			return stream, nil
		}
		if !llm.IsRetryableError(err) {
			return nil, err
		}

		delay, ok := c.retry.nextDelay(b, err)
		if !ok {
			return nil, fmt.Errorf("retry: attempt %d: max attempts or elapsed time exceeded: %w", attempt, err)
		}
		c.retry.logger.Warn().Int("attempt", attempt).Err(err).Dur("next_delay", delay).Msg("llm stream establishment failed, retrying")

		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
}

// nextDelay advances b and returns the delay to wait. retry_after on the
// error, when present, is honored as a floor on the backoff-computed delay.
func (r *Retry) nextDelay(b backoff.BackOff, err error) (time.Duration, bool) {
	d := b.NextBackOff()
	if d == backoff.Stop {
		return 0, false
	}
	if ra := llm.ExtractRetryAfter(err); ra != nil && *ra > d {
		return *ra, true
	}
	return d, true
}

// sleep waits for delay, respecting context cancellation.
func sleep(ctx context.Context, delay time.Duration) error {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ llm.Client = (*retryClient)(nil)
