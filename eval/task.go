package eval

import "context"

// TaskFunc evaluates one input. A returned error marks the case failed; it is
// logged and counted but does not stop the run.
type TaskFunc[I, R any] func(ctx context.Context, input I) (R, error)

// Sink receives successful results. Run calls Write from a single goroutine.
type Sink[R any] interface {
	Write(R) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc[R any] func(R) error

// Write calls f(r).
func (f SinkFunc[R]) Write(r R) error {
	return f(r)
}
