package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jkhoffman/cogni/llm"
)

// Cache is a bounded, TTL-expiring response cache keyed by a SHA-256
// fingerprint of the canonical request: model, messages (role, content,
// tool-call metadata), parameters, tools, and response_format.
type Cache struct {
	lru *expirable.LRU[string, *llm.Response]
}

// NewCache builds a cache with the given capacity and TTL.
func NewCache(capacity int, ttl time.Duration) *Cache {
	return &Cache{lru: expirable.NewLRU[string, *llm.Response](capacity, nil, ttl)}
}

// Wrap returns a Client that short-circuits Synchronous calls on a cache
// hit, and otherwise forwards to next and caches a successful result.
// Streaming responses are not cached.
func (c *Cache) Wrap(next llm.Client) llm.Client {
	return &cacheClient{inner: next, cache: c}
}

type cacheClient struct {
	inner llm.Client
	cache *Cache
}

func (c *cacheClient) Synchronous(ctx context.Context, req *llm.Request) (*llm.Response, error) {
	key := fingerprint(req)
	if resp, ok := c.cache.lru.Get(key); ok {
		return resp, nil
	}

	resp, err := c.inner.Synchronous(ctx, req)
	if err != nil {
		return nil, err
	}
	c.cache.lru.Add(key, resp)
	return resp, nil
}

func (c *cacheClient) Stream(ctx context.Context, req *llm.Request) (llm.Stream, error) {
	return c.inner.Stream(ctx, req)
}

// fingerprint hashes the deterministic parts of a request: model, messages
// (role, content, tool-call metadata), parameters, tools, and
// response_format.
func fingerprint(req *llm.Request) string {
	h := sha256.New()
	fmt.Fprintf(h, "model:%s|", req.Model)

	for _, msg := range req.Messages {
		fmt.Fprintf(h, "role:%s|", msg.Role)
		hashContent(h, msg.Content)
		if msg.Metadata.ToolCallID != "" {
			fmt.Fprintf(h, "tcid:%s|", msg.Metadata.ToolCallID)
		}
		for _, tc := range msg.Metadata.ToolCalls {
			fmt.Fprintf(h, "tc:%s:%s:%s|", tc.ID, tc.Name, string(tc.Arguments))
		}
	}

	if t := req.Parameters.Temperature; t != nil {
		fmt.Fprintf(h, "temp:%v|", *t)
	}
	if p := req.Parameters.TopP; p != nil {
		fmt.Fprintf(h, "topp:%v|", *p)
	}
	if p := req.Parameters.PresencePenalty; p != nil {
		fmt.Fprintf(h, "presence:%v|", *p)
	}
	if p := req.Parameters.FrequencyPenalty; p != nil {
		fmt.Fprintf(h, "frequency:%v|", *p)
	}
	fmt.Fprintf(h, "maxtok:%d|", req.Parameters.MaxTokens)
	for _, s := range req.Parameters.Stop {
		fmt.Fprintf(h, "stop:%s|", s)
	}

	for _, tool := range req.Tools {
		fmt.Fprintf(h, "tool:%s|", tool.Name)
	}

	if req.ResponseFormat != nil {
		fmt.Fprintf(h, "rf:%s:%v:%v|", req.ResponseFormat.Type, req.ResponseFormat.Schema, req.ResponseFormat.Strict)
	}

	return hex.EncodeToString(h.Sum(nil))
}

func hashContent(h interface{ Write([]byte) (int, error) }, c llm.Content) {
	fmt.Fprintf(h, "ct:%s|", c.Type)
	switch c.Type {
	case llm.ContentTypeText:
		fmt.Fprintf(h, "text:%s|", c.Text)
	case llm.ContentTypeImage:
		if c.Image != nil {
			fmt.Fprintf(h, "image:%s:%x|", c.Image.URL, c.Image.Data)
		}
	case llm.ContentTypeAudio:
		if c.Audio != nil {
			fmt.Fprintf(h, "audio:%s:%x|", c.Audio.URL, c.Audio.Data)
		}
	case llm.ContentTypeMulti:
		for _, part := range c.Parts {
			hashContent(h, part)
		}
	}
}

var _ llm.Client = (*cacheClient)(nil)
