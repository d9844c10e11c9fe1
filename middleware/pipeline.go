package middleware

import "github.com/jkhoffman/cogni/llm"

// Pipeline composes the optional layers over a provider client in a fixed
// order, outermost to innermost: Logging → Retry → RateLimit → Cache →
// Provider. Logging wraps the retry layer, so it records one entry per
// call, not one per attempt; each retry attempt takes its own rate-limit
// token; cache hits still take a rate-limit token, since the cache sits
// inside the rate limiter.
//
// Any layer may be nil to omit it.
func Pipeline(provider llm.Client, logging *Logging, retry *Retry, rateLimit *RateLimit, cache *Cache) llm.Client {
	client := provider
	if cache != nil {
		client = cache.Wrap(client)
	}
	if rateLimit != nil {
		client = rateLimit.Wrap(client)
	}
	if retry != nil {
		client = retry.Wrap(client)
	}
	if logging != nil {
		client = llm.WrapWithMiddleware(client, logging)
	}
	return client
}
