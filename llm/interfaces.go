package llm

import (
	"context"
)

// Client is the provider-neutral interface every adapter and every
// middleware-wrapped pipeline implements.
type Client interface {
	// Synchronous sends req and returns a complete Response.
	Synchronous(ctx context.Context, req *Request) (*Response, error)

	// Stream sends req and returns a Stream the caller reads until Next
	// returns false.
	Stream(ctx context.Context, req *Request) (Stream, error)
}

// Stream is a single in-flight streaming response.
type Stream interface {
	// Next advances to the next event. Returns false when the stream is
	// done or an error occurred; check Err to distinguish the two.
	Next() bool

	// Event returns the event Next just advanced to.
	Event() *StreamEvent

	Err() error
	Close() error
}

// Middleware decorates a non-streaming call: it can inspect or rewrite
// the request before it goes out, the response before it comes back, or
// intercept an error.
type Middleware interface {
	BeforeRequest(ctx context.Context, req *Request) (*Request, error)
	AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error)

	// OnError runs when the wrapped call fails. Returning nil tells the
	// pipeline the error was handled; returning a (possibly different)
	// error propagates it to the next middleware out.
	OnError(ctx context.Context, req *Request, err error) error
}

// StreamMiddleware is Middleware's streaming counterpart: one hook per
// stream event instead of one hook per response.
type StreamMiddleware interface {
	BeforeStream(ctx context.Context, req *Request) (*Request, error)

	// OnStreamEvent runs for each event. Returning a nil event or a
	// non-nil error ends the stream early.
	OnStreamEvent(ctx context.Context, req *Request, event *StreamEvent) (*StreamEvent, error)
	OnStreamError(ctx context.Context, req *Request, err error) error
}

// MiddlewareFunc implements Middleware from individual function fields,
// each defaulting to a no-op pass-through when left nil.
type MiddlewareFunc struct {
	BeforeRequestFunc func(ctx context.Context, req *Request) (*Request, error)
	AfterResponseFunc func(ctx context.Context, req *Request, resp *Response) (*Response, error)
	OnErrorFunc       func(ctx context.Context, req *Request, err error) error
}

func (f MiddlewareFunc) BeforeRequest(ctx context.Context, req *Request) (*Request, error) {
	if f.BeforeRequestFunc != nil {
		return f.BeforeRequestFunc(ctx, req)
	}
	return req, nil
}

func (f MiddlewareFunc) AfterResponse(ctx context.Context, req *Request, resp *Response) (*Response, error) {
	if f.AfterResponseFunc != nil {
		return f.AfterResponseFunc(ctx, req, resp)
	}
	return resp, nil
}

func (f MiddlewareFunc) OnError(ctx context.Context, req *Request, err error) error {
	if f.OnErrorFunc != nil {
		return f.OnErrorFunc(ctx, req, err)
	}
	return err
}

// StreamMiddlewareFunc is StreamMiddleware's MiddlewareFunc counterpart.
type StreamMiddlewareFunc struct {
	BeforeStreamFunc  func(ctx context.Context, req *Request) (*Request, error)
	OnStreamEventFunc func(ctx context.Context, req *Request, event *StreamEvent) (*StreamEvent, error)
	OnStreamErrorFunc func(ctx context.Context, req *Request, err error) error
}

func (f StreamMiddlewareFunc) BeforeStream(ctx context.Context, req *Request) (*Request, error) {
	if f.BeforeStreamFunc != nil {
		return f.BeforeStreamFunc(ctx, req)
	}
	return req, nil
}

func (f StreamMiddlewareFunc) OnStreamEvent(ctx context.Context, req *Request, event *StreamEvent) (*StreamEvent, error) {
	if f.OnStreamEventFunc != nil {
		return f.OnStreamEventFunc(ctx, req, event)
	}
	return event, nil
}

func (f StreamMiddlewareFunc) OnStreamError(ctx context.Context, req *Request, err error) error {
	if f.OnStreamErrorFunc != nil {
		return f.OnStreamErrorFunc(ctx, req, err)
	}
	return err
}

// WrapWithMiddleware layers middleware over client, outermost first:
// BeforeRequest/BeforeStream run in the order given, AfterResponse runs
// in reverse. A bare client is returned unchanged when middleware is empty.
func WrapWithMiddleware(client Client, middleware ...Middleware) Client {
	if len(middleware) == 0 {
		return client
	}
	return &clientWithMiddleware{
		client:     client,
		middleware: middleware,
	}
}

type clientWithMiddleware struct {
	client     Client
	middleware []Middleware
}

func (c *clientWithMiddleware) Synchronous(ctx context.Context, req *Request) (*Response, error) {
	for _, mw := range c.middleware {
		var err error
		req, err = mw.BeforeRequest(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	resp, err := c.client.Synchronous(ctx, req)
	if err != nil {
		for i := len(c.middleware) - 1; i >= 0; i-- {
			err = c.middleware[i].OnError(ctx, req, err)
			if err == nil {
				break
			}
		}
		return nil, err
	}

	for i := len(c.middleware) - 1; i >= 0; i-- {
		var err error
		resp, err = c.middleware[i].AfterResponse(ctx, req, resp)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (c *clientWithMiddleware) Stream(ctx context.Context, req *Request) (Stream, error) {
	for _, mw := range c.middleware {
		if smw, ok := mw.(StreamMiddleware); ok {
			var err error
			req, err = smw.BeforeStream(ctx, req)
			if err != nil {
				return nil, err
			}
		}
	}

	stream, err := c.client.Stream(ctx, req)
	if err != nil {
		for _, mw := range c.middleware {
			if smw, ok := mw.(StreamMiddleware); ok {
				err = smw.OnStreamError(ctx, req, err)
				if err == nil {
					break
				}
			}
		}
		return nil, err
	}

	return &streamWithMiddleware{
		stream:     stream,
		middleware: c.middleware,
		req:        req,
		ctx:        ctx,
	}, nil
}

// streamWithMiddleware runs OnStreamEvent/OnStreamError over an inner
// Stream, one event at a time, without buffering the stream itself.
type streamWithMiddleware struct {
	stream     Stream
	middleware []Middleware
	req        *Request
	ctx        context.Context
	event      *StreamEvent
}

func (s *streamWithMiddleware) Next() bool {
	if !s.stream.Next() {
		return false
	}

	event := s.stream.Event()
	if event == nil {
		return false
	}

	for _, mw := range s.middleware {
		if smw, ok := mw.(StreamMiddleware); ok {
			var err error
			event, err = smw.OnStreamEvent(s.ctx, s.req, event)
			if err != nil || event == nil {
				return false
			}
		}
	}

	s.event = event
	return true
}

func (s *streamWithMiddleware) Event() *StreamEvent {
	return s.event
}

func (s *streamWithMiddleware) Err() error {
	err := s.stream.Err()
	if err != nil {
		for _, mw := range s.middleware {
			if smw, ok := mw.(StreamMiddleware); ok {
				err = smw.OnStreamError(s.ctx, s.req, err)
				if err == nil {
					break
				}
			}
		}
	}
	return err
}

func (s *streamWithMiddleware) Close() error {
	return s.stream.Close()
}

var (
	_ Stream = (*streamWithMiddleware)(nil)
	_ Client = (*clientWithMiddleware)(nil)
)
