package model

import (
	"context"
	"errors"

	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/braintrustdata/prompteval-go/internal/metrics"
	"github.com/braintrustdata/prompteval-go/logger"
)

var errNoProvider = errors.New("model: provider is required")

// Client is the rate-limited model client. It is safe for concurrent use.
type Client struct {
	caller Caller
	gate   *Gate
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	gate              *Gate
	concurrency       int
	resourceExhausted RetryPolicy
	serverError       RetryPolicy
	requestsPerSecond float64
	sleeper           Sleeper
	logger            logger.Logger
	tracerProvider    oteltrace.TracerProvider
	metrics           *metrics.Metrics
}

// WithGate shares an existing gate. It takes precedence over WithConcurrency.
func WithGate(g *Gate) Option {
	return func(o *clientOptions) {
		o.gate = g
	}
}

// WithConcurrency sets the size of the client's own gate. Defaults to 10.
func WithConcurrency(n int) Option {
	return func(o *clientOptions) {
		o.concurrency = n
	}
}

// WithResourceExhaustedPolicy overrides DefaultResourceExhaustedPolicy.
func WithResourceExhaustedPolicy(p RetryPolicy) Option {
	return func(o *clientOptions) {
		o.resourceExhausted = p
	}
}

// WithServerErrorPolicy overrides DefaultServerErrorPolicy.
func WithServerErrorPolicy(p RetryPolicy) Option {
	return func(o *clientOptions) {
		o.serverError = p
	}
}

// WithRequestsPerSecond paces provider attempts. Zero disables pacing.
func WithRequestsPerSecond(rps float64) Option {
	return func(o *clientOptions) {
		o.requestsPerSecond = rps
	}
}

// WithClientSleeper sets the wait function used by both retry layers.
func WithClientSleeper(s Sleeper) Option {
	return func(o *clientOptions) {
		o.sleeper = s
	}
}

// WithLogger sets the logger used for retry warnings.
func WithLogger(l logger.Logger) Option {
	return func(o *clientOptions) {
		o.logger = l
	}
}

// WithTracerProvider sets the provider for per-attempt spans.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *clientOptions) {
		o.tracerProvider = tp
	}
}

// WithMetrics records retries and provider attempts.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *clientOptions) {
		o.metrics = m
	}
}

// NewClient composes provider with the gate, retry, pacing, tracing and
// validation middleware.
func NewClient(provider Caller, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errNoProvider
	}

	o := &clientOptions{
		concurrency:       10,
		resourceExhausted: DefaultResourceExhaustedPolicy,
		serverError:       DefaultServerErrorPolicy,
		sleeper:           SleepContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	o.logger = logger.OrDiscard(o.logger)

	gate := o.gate
	if gate == nil {
		gate = NewGate(o.concurrency)
	}

	retryOpts := []RetryOption{
		WithSleeper(o.sleeper),
		WithRetryLogger(o.logger),
		WithRetryHook(o.metrics.Retry),
	}

	caller := Chain(provider,
		gate.Middleware(),
		RetryOnResourceExhausted(o.resourceExhausted, retryOpts...),
		RetryOnServerError(o.serverError, retryOpts...),
		Pace(NewLimiter(o.requestsPerSecond)),
		Trace(o.tracerProvider),
		countCalls(o.metrics),
		RequireContent(),
	)

	return &Client{caller: caller, gate: gate}, nil
}

// Gate returns the client's concurrency gate.
func (c *Client) Gate() *Gate {
	return c.gate
}

// Generate sends systemPrompt and input to modelID and returns the response text.
func (c *Client) Generate(ctx context.Context, modelID, systemPrompt, input string) (string, error) {
	resp, err := c.caller.Call(ctx, &Request{
		Model:        modelID,
		SystemPrompt: systemPrompt,
		Input:        input,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func countCalls(m *metrics.Metrics) Middleware {
	if m == nil {
		return nil
	}
	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			resp, err := next.Call(ctx, req)
			m.Call(req.Model, err)
			return resp, err
		})
	}
}
