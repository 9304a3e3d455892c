package model

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Pace spaces provider attempts with a token bucket. It sits inside the retry
// layers so every retry attempt also waits for a token.
func Pace(limiter *rate.Limiter) Middleware {
	if limiter == nil {
		return nil
	}
	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if err := limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("pace: %w", err)
			}
			return next.Call(ctx, req)
		})
	}
}

// NewLimiter returns a limiter allowing rps requests per second with a burst of
// one, or nil when rps is not positive.
func NewLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}
