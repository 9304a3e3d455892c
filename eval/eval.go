// Package eval runs a task over a stream of cases in fixed-size batches.
// Every case in a batch runs concurrently and the next batch starts only when
// the whole batch has finished. Successful results are handed to a Sink as
// they complete; failures are logged and counted without stopping the run.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/braintrustdata/prompteval-go/internal/metrics"
	"github.com/braintrustdata/prompteval-go/logger"
)

var (
	errEval         = errors.New("eval error")
	errTaskRun      = errors.New("task run error")
	errCaseIterator = errors.New("case iterator error")
	errSink         = errors.New("sink error")
)

// DefaultBatchSize is used when Opts.BatchSize is not positive.
const DefaultBatchSize = 10

const tracerName = "prompteval.eval"

// Opts defines the options for running an evaluation.
// I is the input type and R is the result type.
type Opts[I, R any] struct {
	// Name identifies the run in logs, spans and metrics.
	// Required.
	Name string

	// Cases is an iterator over the inputs to evaluate.
	// Required.
	Cases Cases[I]

	// Task evaluates a single input.
	// Required.
	Task TaskFunc[I, R]

	// Sink receives every successful result, in completion order.
	// Required.
	Sink Sink[R]

	// BatchSize is the number of cases dispatched together.
	// Optional. Defaults to DefaultBatchSize.
	BatchSize int

	// Limit stops the run at the first batch boundary where at least Limit
	// cases have been attempted, so up to BatchSize-1 extra cases may run.
	// Optional. Zero means no limit.
	Limit int

	// Logger receives progress and per-case failures.
	// Optional. Defaults to a discarding logger.
	Logger logger.Logger

	// TracerProvider is used for the run, batch and sample spans.
	// Optional. Defaults to the global TracerProvider.
	TracerProvider oteltrace.TracerProvider

	// Metrics counts completed cases.
	// Optional.
	Metrics *metrics.Metrics
}

// Result summarizes a finished run.
type Result struct {
	RunID   string
	Name    string
	Done    int
	Bad     int
	Batches int
	Elapsed time.Duration
}

// Good returns the number of cases that produced a result.
func (r *Result) Good() int {
	return r.Done - r.Bad
}

// String returns a summary for printing on the console.
//
// The format it prints will change and shouldn't be relied on for programmatic use.
func (r *Result) String() string {
	lines := []string{
		"",
		fmt.Sprintf("=== Eval: %s ===", r.Name),
		fmt.Sprintf("Run: %s", r.RunID),
		fmt.Sprintf("Samples: %d (%d failed)", r.Done, r.Bad),
		fmt.Sprintf("Batches: %d", r.Batches),
		fmt.Sprintf("Duration: %.1fs", r.Elapsed.Seconds()),
		"",
	}
	return strings.Join(lines, "\n")
}

// Run evaluates the cases in opts batch by batch. Case failures never end the
// run; only invalid options, a Sink error or a cancelled context do. The
// Result is returned alongside any error that ends a run already started.
func Run[I, R any](ctx context.Context, opts Opts[I, R]) (*Result, error) {
	if opts.Name == "" {
		return nil, fmt.Errorf("%w: Name is required", errEval)
	}
	if opts.Cases == nil {
		return nil, fmt.Errorf("%w: Cases is required", errEval)
	}
	if opts.Task == nil {
		return nil, fmt.Errorf("%w: Task is required", errEval)
	}
	if opts.Sink == nil {
		return nil, fmt.Errorf("%w: Sink is required", errEval)
	}
	if opts.Limit < 0 {
		return nil, fmt.Errorf("%w: Limit must not be negative", errEval)
	}
	return newEval(opts).run(ctx)
}

// eval is the execution engine behind Run.
type eval[I, R any] struct {
	name      string
	cases     Cases[I]
	task      TaskFunc[I, R]
	sink      Sink[R]
	batchSize int
	limit     int
	logger    logger.Logger
	tracer    oteltrace.Tracer
	metrics   *metrics.Metrics
}

func newEval[I, R any](opts Opts[I, R]) *eval[I, R] {
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &eval[I, R]{
		name:      opts.Name,
		cases:     opts.Cases,
		task:      opts.Task,
		sink:      opts.Sink,
		batchSize: batchSize,
		limit:     opts.Limit,
		logger:    logger.OrDiscard(opts.Logger),
		tracer:    tp.Tracer(tracerName),
		metrics:   opts.Metrics,
	}
}

// nextCase is one pull from the iterator: an input or the error it returned.
type nextCase[I any] struct {
	input   I
	iterErr error
}

// taskResult is what a worker reports back for one case.
type taskResult[I, R any] struct {
	index  int
	input  I
	output R
	err    error
}

// job carries one case to a pool worker.
type job[I, R any] struct {
	ctx     context.Context
	index   int
	next    nextCase[I]
	results chan<- taskResult[I, R]
}

func (e *eval[I, R]) run(ctx context.Context) (*Result, error) {
	start := time.Now()
	res := &Result{RunID: uuid.NewString(), Name: e.name}

	ctx, span := e.tracer.Start(ctx, "run", oteltrace.WithAttributes(
		attribute.String("prompteval.eval", e.name),
		attribute.String("prompteval.run_id", res.RunID),
		attribute.Int("prompteval.batch_size", e.batchSize),
		attribute.Int("prompteval.limit", e.limit),
	))
	defer span.End()

	pool, err := ants.NewPoolWithFunc(e.batchSize, e.work)
	if err != nil {
		werr := fmt.Errorf("%w: create worker pool: %w", errEval, err)
		recordSpanError(span, werr)
		return nil, werr
	}
	defer pool.Release()

	e.logger.Info("eval started",
		"eval", e.name,
		"run_id", res.RunID,
		"batch_size", e.batchSize,
		"limit", e.limit)

	runErr := e.loop(ctx, pool, res)
	res.Elapsed = time.Since(start)

	span.SetAttributes(
		attribute.Int("prompteval.done", res.Done),
		attribute.Int("prompteval.bad", res.Bad),
		attribute.Int("prompteval.batches", res.Batches),
	)
	if runErr != nil {
		recordSpanError(span, runErr)
		e.logger.Error("eval stopped",
			"eval", e.name,
			"done", res.Done,
			"bad", res.Bad,
			"error", runErr)
		return res, runErr
	}

	e.logger.Info("eval complete",
		"eval", e.name,
		"done", res.Done,
		"bad", res.Bad,
		"elapsed", res.Elapsed)
	return res, nil
}

func (e *eval[I, R]) loop(ctx context.Context, pool *ants.PoolWithFunc, res *Result) error {
	for e.limit == 0 || res.Done < e.limit {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", errEval, err)
		}

		batch, exhausted := e.nextBatch()
		if len(batch) > 0 {
			if err := e.runBatch(ctx, pool, res, batch); err != nil {
				return err
			}
		}
		if exhausted {
			return nil
		}
	}
	return nil
}

// nextBatch pulls up to batchSize cases. exhausted reports that the iterator
// returned io.EOF.
func (e *eval[I, R]) nextBatch() (batch []nextCase[I], exhausted bool) {
	batch = make([]nextCase[I], 0, e.batchSize)
	for len(batch) < e.batchSize {
		input, err := e.cases.Next()
		if errors.Is(err, io.EOF) {
			return batch, true
		}
		batch = append(batch, nextCase[I]{input: input, iterErr: err})
	}
	return batch, false
}

// runBatch dispatches every case in batch and returns once all have reported.
func (e *eval[I, R]) runBatch(ctx context.Context, pool *ants.PoolWithFunc, res *Result, batch []nextCase[I]) error {
	res.Batches++
	ctx, span := e.tracer.Start(ctx, "batch", oteltrace.WithAttributes(
		attribute.Int("prompteval.batch", res.Batches),
		attribute.Int("prompteval.batch_len", len(batch)),
	))
	defer span.End()

	first := res.Done
	results := make(chan taskResult[I, R], len(batch))
	for i, next := range batch {
		j := &job[I, R]{ctx: ctx, index: first + i, next: next, results: results}
		if err := pool.Invoke(j); err != nil {
			results <- taskResult[I, R]{
				index: j.index,
				input: next.input,
				err:   fmt.Errorf("%w: dispatch: %w", errTaskRun, err),
			}
		}
	}

	var sinkErr error
	bad := 0
	for range batch {
		r := <-results
		res.Done++

		if r.err != nil {
			bad++
			e.metrics.SampleDone(e.name, true)
			e.logger.Error("sample failed",
				"eval", e.name,
				"index", r.index,
				"sample", r.input,
				"error", r.err)
			continue
		}
		e.metrics.SampleDone(e.name, false)

		if sinkErr != nil {
			continue
		}
		if err := e.sink.Write(r.output); err != nil {
			sinkErr = fmt.Errorf("%w: sample %d: %w", errSink, r.index, err)
		}
	}
	res.Bad += bad

	span.SetAttributes(attribute.Int("prompteval.batch_bad", bad))
	if sinkErr != nil {
		recordSpanError(span, sinkErr)
		return sinkErr
	}

	e.logger.Info("batch complete",
		"eval", e.name,
		"batch", res.Batches,
		"done", res.Done,
		"bad", res.Bad)
	return nil
}

// work is the pool function. It always sends exactly one result.
func (e *eval[I, R]) work(arg any) {
	j, ok := arg.(*job[I, R])
	if !ok {
		panic("eval worker pool args type error")
	}
	j.results <- e.runSample(j.ctx, j.index, j.next)
}

func (e *eval[I, R]) runSample(ctx context.Context, index int, next nextCase[I]) (r taskResult[I, R]) {
	r = taskResult[I, R]{index: index, input: next.input}

	ctx, span := e.tracer.Start(ctx, "sample", oteltrace.WithAttributes(
		attribute.Int("prompteval.index", index),
	))
	defer span.End()

	if next.iterErr != nil {
		r.err = fmt.Errorf("%w: %w", errCaseIterator, next.iterErr)
		recordSpanError(span, r.err)
		return r
	}

	defer func() {
		if p := recover(); p != nil {
			r.err = fmt.Errorf("%w: panic: %v", errTaskRun, p)
			recordSpanError(span, r.err)
		}
	}()

	out, err := e.task(ctx, next.input)
	if err != nil {
		r.err = fmt.Errorf("%w: %w", errTaskRun, err)
		recordSpanError(span, r.err)
		return r
	}
	r.output = out
	return r
}

func recordSpanError(span oteltrace.Span, err error) {
	var errType string
	switch {
	case errors.Is(err, errTaskRun):
		errType = "ErrTaskRun"
	case errors.Is(err, errCaseIterator):
		errType = "ErrCaseIterator"
	case errors.Is(err, errSink):
		errType = "ErrSink"
	case errors.Is(err, errEval):
		errType = "ErrEval"
	default:
		errType = fmt.Sprintf("%T", err)
	}

	span.AddEvent("exception", oteltrace.WithAttributes(
		attribute.String("exception.type", errType),
		attribute.String("exception.message", err.Error()),
	))
	span.SetStatus(codes.Error, err.Error())
}
