package client

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/jkhoffman/cogni/llm"
	"golang.org/x/sync/errgroup"
)

// ExecutionStrategy selects how a ParallelClient combines responses from
// its providers.
type ExecutionStrategy int

const (
	// FirstSuccess waits for every provider to finish, then returns the
	// first successful response in provider order. It does not return
	// early and does not cancel slower providers.
	FirstSuccess ExecutionStrategy = iota
	// All waits for every provider and, like FirstSuccess, returns the
	// first successful response in provider order. The All method returns
	// every outcome.
	All
	// Race returns whichever provider responds first, success or not,
	// ignoring slower providers entirely.
	Race
)

// ParallelClient fans a single request out across a fixed set of
// providers and combines the results according to an ExecutionStrategy.
type ParallelClient struct {
	providers []llm.Client
	strategy  ExecutionStrategy
}

// NewParallelClient builds a ParallelClient over providers, defaulting
// to the FirstSuccess strategy.
func NewParallelClient(providers []llm.Client) *ParallelClient {
	return &ParallelClient{providers: providers, strategy: FirstSuccess}
}

// WithStrategy sets the execution strategy used by Request.
func (p *ParallelClient) WithStrategy(strategy ExecutionStrategy) *ParallelClient {
	p.strategy = strategy
	return p
}

// Request executes req against every configured provider and combines
// the results per the client's strategy.
func (p *ParallelClient) Request(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	switch p.strategy {
	case All:
		return p.allResponses(ctx, req)
	case Race:
		return p.race(ctx, req)
	default:
		return p.firstSuccess(ctx, req)
	}
}

// Consensus runs req against every provider and returns a response only
// if at least k of them agree on a canonical hash of ContentText.
// Otherwise it returns a Provider error whose cause aggregates the errors
// of the providers that failed.
func (p *ParallelClient) Consensus(ctx context.Context, req *llm.Request, k int) (*llm.Response, error) {
	responses, errs := parallelRequests(ctx, p.providers, req)

	groups := make(map[string][]*llm.Response)
	var order []string
	for _, resp := range responses {
		if resp == nil {
			continue
		}
		h := contentHash(resp.ContentText)
		if _, seen := groups[h]; !seen {
			order = append(order, h)
		}
		groups[h] = append(groups[h], resp)
	}

	for _, h := range order {
		if members := groups[h]; len(members) >= k {
			return members[0], nil
		}
	}

	agg := aggregateErrors(errs)
	return nil, llm.NewProviderError(fmt.Sprintf("consensus: no %d providers agreed on a response", k), agg)
}

func (p *ParallelClient) firstSuccess(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	responses, errs := parallelRequests(ctx, p.providers, req)
	for _, resp := range responses {
		if resp != nil {
			return resp, nil
		}
	}
	return nil, llm.NewProviderError("parallel: all providers failed", aggregateErrors(errs))
}

// allResponses waits for every provider and returns the first success,
// matching the original's all_responses (which, despite its name, waits
// for the full fan-out before picking a winner).
func (p *ParallelClient) allResponses(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	return p.firstSuccess(ctx, req)
}

// All returns one outcome per configured provider, in provider order,
// having waited for every one of them to finish.
func (p *ParallelClient) All(ctx context.Context, req *llm.Request) ([]*llm.Response, []error) {
	return parallelRequests(ctx, p.providers, req)
}

func (p *ParallelClient) race(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	type outcome struct {
		resp *llm.Response
		err  error
	}
	results := make(chan outcome, len(p.providers))

	for _, provider := range p.providers {
		provider := provider
		go func() {
			resp, err := provider.Synchronous(ctx, req)
			select {
			case results <- outcome{resp: resp, err: err}:
			case <-ctx.Done():
			}
		}()
	}

	if len(p.providers) == 0 {
		return nil, llm.NewProviderError("parallel: no providers configured", nil)
	}
	select {
	case o := <-results:
		return o.resp, o.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// parallelRequests runs req against every provider concurrently and
// returns one response/error pair per provider, aligned by index with
// providers.
func parallelRequests(ctx context.Context, providers []llm.Client, req *llm.Request) ([]*llm.Response, []error) {
	responses := make([]*llm.Response, len(providers))
	errs := make([]error, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	for i, provider := range providers {
		i, provider := i, provider
		g.Go(func() error {
			resp, err := provider.Synchronous(gctx, req)
			responses[i] = resp
			errs[i] = err
			return nil
		})
	}
	_ = g.Wait() // per-provider errors are captured above, never abort siblings

	return responses, errs
}

// parallelChat is a convenience wrapper around parallelRequests for the
// common case of a single user-role prompt sent to every provider.
func parallelChat(ctx context.Context, providers []llm.Client, message string) ([]string, []error) {
	req := &llm.Request{Messages: []llm.Message{llm.UserMessage(message)}}
	responses, errs := parallelRequests(ctx, providers, req)

	texts := make([]string, len(providers))
	for i, resp := range responses {
		if resp != nil {
			texts[i] = resp.ContentText
		}
	}
	return texts, errs
}

func aggregateErrors(errs []error) error {
	var merr *multierror.Error
	for _, err := range errs {
		if err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}

func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
