package model

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/braintrustdata/prompteval-go/logger"
)

// RetryPolicy describes an exponential backoff schedule. The first wait is
// BaseDelay and each following wait doubles.
type RetryPolicy struct {
	// BaseDelay is the wait before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps a single wait. Zero means uncapped.
	MaxDelay time.Duration

	// MaxAttempts is the total number of calls, including the first, before the
	// error is returned. Zero means retry forever.
	MaxAttempts int
}

var (
	// DefaultResourceExhaustedPolicy waits 1s, 2s, 4s ... capped at 300s and never gives up.
	DefaultResourceExhaustedPolicy = RetryPolicy{BaseDelay: time.Second, MaxDelay: 300 * time.Second}

	// DefaultServerErrorPolicy waits 1s, 2s, 4s ... and gives up after the 10th attempt.
	DefaultServerErrorPolicy = RetryPolicy{BaseDelay: time.Second, MaxAttempts: 10}
)

// Backoff returns the wait after the given failed attempt (1-based).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	d := p.BaseDelay
	for i := 1; i < attempt; i++ {
		if p.MaxDelay > 0 && d >= p.MaxDelay {
			break
		}
		d *= 2
	}
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Sleeper waits for d, returning early with ctx.Err() if ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// SleepContext is the default Sleeper.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// RetryOption configures a retry middleware.
type RetryOption func(*retrier)

// WithSleeper replaces the function used to wait between attempts.
func WithSleeper(s Sleeper) RetryOption {
	return func(r *retrier) {
		if s != nil {
			r.sleep = s
		}
	}
}

// WithRetryLogger sets the logger receiving a warning on every retry.
func WithRetryLogger(l logger.Logger) RetryOption {
	return func(r *retrier) {
		r.log = logger.OrDiscard(l)
	}
}

// WithRetryHook registers a function called before every wait with the
// error kind being retried.
func WithRetryHook(fn func(kind string)) RetryOption {
	return func(r *retrier) {
		r.onRetry = fn
	}
}

// RetryOnResourceExhausted retries calls failing with ErrResourceExhausted
// according to policy. Other errors pass through untouched.
func RetryOnResourceExhausted(policy RetryPolicy, opts ...RetryOption) Middleware {
	return newRetrier("resource exhausted, retrying", ErrResourceExhausted, policy, opts).middleware()
}

// RetryOnServerError retries calls failing with ErrServerError according to
// policy. Once policy.MaxAttempts is reached the last error is returned, still
// matching ErrServerError.
func RetryOnServerError(policy RetryPolicy, opts ...RetryOption) Middleware {
	return newRetrier("transient server error, retrying", ErrServerError, policy, opts).middleware()
}

type retrier struct {
	msg     string
	match   error
	policy  RetryPolicy
	sleep   Sleeper
	log     logger.Logger
	onRetry func(kind string)
}

func newRetrier(msg string, match error, policy RetryPolicy, opts []RetryOption) *retrier {
	r := &retrier{
		msg:    msg,
		match:  match,
		policy: policy,
		sleep:  SleepContext,
		log:    logger.Discard(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *retrier) middleware() Middleware {
	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			for attempt := 1; ; attempt++ {
				resp, err := next.Call(ctx, req)
				if err == nil || !errors.Is(err, r.match) {
					return resp, err
				}
				if r.policy.MaxAttempts > 0 && attempt >= r.policy.MaxAttempts {
					return nil, fmt.Errorf("%w after %d attempts: %w", errRetriesExhausted, attempt, err)
				}

				wait := r.policy.Backoff(attempt)
				r.log.Warn(r.msg,
					"model", req.Model,
					"attempt", attempt,
					"wait", wait,
					"error", err)
				if r.onRetry != nil {
					r.onRetry(Kind(err))
				}
				if serr := r.sleep(ctx, wait); serr != nil {
					return nil, fmt.Errorf("retry wait interrupted: %w", errors.Join(serr, err))
				}
			}
		})
	}
}
