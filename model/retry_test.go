package model

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braintrustdata/prompteval-go/internal/logger"
)

// fakeSleeper records requested waits and returns immediately.
type fakeSleeper struct {
	mu    sync.Mutex
	waits []time.Duration
}

func (s *fakeSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	return ctx.Err()
}

func (s *fakeSleeper) Waits() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]time.Duration(nil), s.waits...)
}

// scriptedProvider returns the scripted errors in order, then succeeds.
type scriptedProvider struct {
	mu    sync.Mutex
	errs  []error
	calls int
}

func (p *scriptedProvider) Call(_ context.Context, req *Request) (*Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.errs) > 0 {
		err := p.errs[0]
		p.errs = p.errs[1:]
		return nil, err
	}
	return &Response{Parts: []string{"answer to ", req.Input}}, nil
}

func (p *scriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func repeatErr(err error, n int) []error {
	errs := make([]error, n)
	for i := range errs {
		errs[i] = err
	}
	return errs
}

func seconds(ns ...int) []time.Duration {
	out := make([]time.Duration, len(ns))
	for i, n := range ns {
		out[i] = time.Duration(n) * time.Second
	}
	return out
}

func TestRetryPolicy_Backoff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		policy RetryPolicy
		want   []time.Duration
	}{
		{
			name:   "resource exhausted caps at 300",
			policy: DefaultResourceExhaustedPolicy,
			want:   seconds(1, 2, 4, 8, 16, 32, 64, 128, 256, 300, 300, 300),
		},
		{
			name:   "server error is uncapped",
			policy: DefaultServerErrorPolicy,
			want:   seconds(1, 2, 4, 8, 16, 32, 64, 128, 256, 512),
		},
		{
			name:   "custom base",
			policy: RetryPolicy{BaseDelay: 10 * time.Millisecond, MaxDelay: 30 * time.Millisecond},
			want:   []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond, 30 * time.Millisecond},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := make([]time.Duration, len(tt.want))
			for i := range got {
				got[i] = tt.policy.Backoff(i + 1)
			}
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Zero(t, DefaultServerErrorPolicy.Backoff(0))
}

func TestRetryOnResourceExhausted_NeverGivesUp(t *testing.T) {
	t.Parallel()

	sleeper := &fakeSleeper{}
	provider := &scriptedProvider{errs: repeatErr(fmt.Errorf("%w: quota", ErrResourceExhausted), 15)}
	caller := Chain(provider, RetryOnResourceExhausted(DefaultResourceExhaustedPolicy, WithSleeper(sleeper.Sleep)))

	resp, err := caller.Call(context.Background(), &Request{Model: "m", Input: "q"})
	require.NoError(t, err)
	assert.Equal(t, "answer to q", resp.Text())
	assert.Equal(t, 16, provider.Calls())
	assert.Equal(t, seconds(1, 2, 4, 8, 16, 32, 64, 128, 256, 300, 300, 300, 300, 300, 300), sleeper.Waits())
}

func TestRetryOnServerError_GivesUpAfterTenAttempts(t *testing.T) {
	t.Parallel()

	sleeper := &fakeSleeper{}
	cause := fmt.Errorf("%w: deadline exceeded", ErrServerError)
	provider := &scriptedProvider{errs: repeatErr(cause, 50)}
	caller := Chain(provider, RetryOnServerError(DefaultServerErrorPolicy, WithSleeper(sleeper.Sleep)))

	_, err := caller.Call(context.Background(), &Request{Model: "m"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServerError)
	assert.ErrorIs(t, err, errRetriesExhausted)
	assert.Contains(t, err.Error(), "after 10 attempts")
	assert.Equal(t, 10, provider.Calls())
	assert.Equal(t, seconds(1, 2, 4, 8, 16, 32, 64, 128, 256), sleeper.Waits())
}

func TestRetryOnServerError_RecoversBeforeLimit(t *testing.T) {
	t.Parallel()

	sleeper := &fakeSleeper{}
	provider := &scriptedProvider{errs: repeatErr(ErrServerError, 9)}
	caller := Chain(provider, RetryOnServerError(DefaultServerErrorPolicy, WithSleeper(sleeper.Sleep)))

	_, err := caller.Call(context.Background(), &Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, 10, provider.Calls())
	assert.Len(t, sleeper.Waits(), 9)
}

func TestRetry_OtherErrorsPassThrough(t *testing.T) {
	t.Parallel()

	sleeper := &fakeSleeper{}
	boom := errors.New("invalid argument")
	provider := &scriptedProvider{errs: []error{boom}}
	caller := Chain(provider,
		RetryOnResourceExhausted(DefaultResourceExhaustedPolicy, WithSleeper(sleeper.Sleep)),
		RetryOnServerError(DefaultServerErrorPolicy, WithSleeper(sleeper.Sleep)),
	)

	_, err := caller.Call(context.Background(), &Request{Model: "m"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, provider.Calls())
	assert.Empty(t, sleeper.Waits())
}

func TestRetry_LogsWarningPerRetry(t *testing.T) {
	t.Parallel()

	rec := logger.NewRecorder()
	sleeper := &fakeSleeper{}
	kinds := make(chan string, 4)
	provider := &scriptedProvider{errs: repeatErr(ErrResourceExhausted, 2)}
	caller := Chain(provider, RetryOnResourceExhausted(DefaultResourceExhaustedPolicy,
		WithSleeper(sleeper.Sleep),
		WithRetryLogger(rec),
		WithRetryHook(func(kind string) { kinds <- kind }),
	))

	_, err := caller.Call(context.Background(), &Request{Model: "gemini-1.5-flash"})
	require.NoError(t, err)

	warns := rec.Entries("warn")
	require.Len(t, warns, 2)
	assert.Equal(t, time.Second, warns[0].Args["wait"])
	assert.Equal(t, 2*time.Second, warns[1].Args["wait"])
	assert.Equal(t, 1, warns[0].Args["attempt"])
	assert.Equal(t, "gemini-1.5-flash", warns[0].Args["model"])

	close(kinds)
	var got []string
	for k := range kinds {
		got = append(got, k)
	}
	assert.Equal(t, []string{"resource_exhausted", "resource_exhausted"}, got)
}

func TestRetry_WaitHonorsContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	provider := &scriptedProvider{errs: repeatErr(ErrResourceExhausted, 100)}
	caller := Chain(provider, RetryOnResourceExhausted(RetryPolicy{BaseDelay: time.Hour}))

	done := make(chan error, 1)
	go func() {
		_, err := caller.Call(ctx, &Request{Model: "m"})
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.ErrorIs(t, err, ErrResourceExhausted)
	case <-time.After(5 * time.Second):
		t.Fatal("retry wait did not observe cancellation")
	}
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	require.NoError(t, SleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
}
