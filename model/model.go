// Package model calls text-generation providers through a chain of middleware:
// a concurrency gate, retry policies for rate limits and transient server faults,
// optional request pacing, tracing, and response validation.
//
// The chain is built around the Caller interface. Providers (see the genaimodel,
// openaimodel, anthropicmodel and langchainmodel packages) implement Caller; a
// Client composes them with the middleware in a fixed order:
//
//	Gate -> RetryOnResourceExhausted -> RetryOnServerError -> Pace -> Trace -> RequireContent -> provider
//
// The gate is outermost, so a call keeps its slot while it backs off.
package model

import (
	"context"
	"strings"
)

// Request is a single generation request.
type Request struct {
	// Model is the provider model identifier, e.g. "gemini-1.5-flash".
	Model string

	// SystemPrompt is the instruction the model is given.
	SystemPrompt string

	// Input is the user text the instruction is applied to.
	Input string
}

// Response holds the text parts of a provider response.
type Response struct {
	Parts []string
}

// Text returns the concatenated parts.
func (r *Response) Text() string {
	if r == nil {
		return ""
	}
	return strings.Join(r.Parts, "")
}

// Caller makes one provider call.
type Caller interface {
	Call(ctx context.Context, req *Request) (*Response, error)
}

// CallerFunc adapts a function to the Caller interface.
type CallerFunc func(ctx context.Context, req *Request) (*Response, error)

// Call implements Caller.
func (f CallerFunc) Call(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware wraps a Caller with additional behavior.
type Middleware func(next Caller) Caller

// Chain wraps c with mws so that mws[0] is the outermost layer.
func Chain(c Caller, mws ...Middleware) Caller {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			c = mws[i](c)
		}
	}
	return c
}

// Generator produces text for a system prompt and input. *Client implements it;
// graders and strategies depend on this interface.
type Generator interface {
	Generate(ctx context.Context, modelID, systemPrompt, input string) (string, error)
}

// RequireContent rejects responses with no content parts. The error wraps
// ErrEmptyResponse and is never retried.
func RequireContent() Middleware {
	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next.Call(ctx, req)
			if err != nil {
				return nil, err
			}
			if resp == nil || len(resp.Parts) == 0 {
				return nil, emptyResponse(req.Model)
			}
			return resp, nil
		})
	}
}
