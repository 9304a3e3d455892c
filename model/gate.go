package model

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Gate bounds the number of provider calls in flight. A Gate is shared by every
// caller that should count against the same limit; construct one per process
// (or per test) and pass it in.
type Gate struct {
	sem      *semaphore.Weighted
	limit    int
	inFlight atomic.Int64
	peak     atomic.Int64
}

// NewGate returns a gate admitting at most limit concurrent calls. A limit
// below one is treated as one.
func NewGate(limit int) *Gate {
	if limit < 1 {
		limit = 1
	}
	return &Gate{
		sem:   semaphore.NewWeighted(int64(limit)),
		limit: limit,
	}
}

// Limit returns the configured concurrency limit.
func (g *Gate) Limit() int {
	return g.limit
}

// InFlight returns the number of calls currently holding a slot.
func (g *Gate) InFlight() int {
	return int(g.inFlight.Load())
}

// Peak returns the highest InFlight value observed.
func (g *Gate) Peak() int {
	return int(g.peak.Load())
}

// Middleware acquires a slot before calling next and releases it afterwards.
// Waiting for a slot ends early if ctx is done.
func (g *Gate) Middleware() Middleware {
	return func(next Caller) Caller {
		return CallerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			if err := g.sem.Acquire(ctx, 1); err != nil {
				return nil, err
			}
			n := g.inFlight.Add(1)
			for {
				p := g.peak.Load()
				if n <= p || g.peak.CompareAndSwap(p, n) {
					break
				}
			}
			defer func() {
				g.inFlight.Add(-1)
				g.sem.Release(1)
			}()
			return next.Call(ctx, req)
		})
	}
}
