package prompteval

import (
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/braintrustdata/prompteval-go/config"
	"github.com/braintrustdata/prompteval-go/internal/metrics"
	"github.com/braintrustdata/prompteval-go/logger"
	"github.com/braintrustdata/prompteval-go/model"
)

// Option is a functional option for configuring a Client
type Option func(*options)

type options struct {
	cfg            *config.Config
	caller         model.Caller
	tracerProvider oteltrace.TracerProvider
	metrics        *metrics.Metrics
	sleeper        model.Sleeper
	hubURL         string
}

// WithConfig replaces the configuration loaded from the environment.
// Options applied after it still take effect.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		c := *cfg
		o.cfg = &c
	}
}

// WithProvider sets the model provider (overrides PROMPTEVAL_PROVIDER)
func WithProvider(provider string) Option {
	return func(o *options) {
		o.cfg.Provider = provider
	}
}

// WithModel sets the model that solves samples (overrides PROMPTEVAL_MODEL)
func WithModel(modelID string) Option {
	return func(o *options) {
		o.cfg.Model = modelID
	}
}

// WithGraderModel sets the model that grades answers (overrides PROMPTEVAL_GRADER_MODEL)
func WithGraderModel(modelID string) Option {
	return func(o *options) {
		o.cfg.GraderModel = modelID
	}
}

// WithConcurrency sets the maximum number of in-flight model calls
func WithConcurrency(n int) Option {
	return func(o *options) {
		o.cfg.Concurrency = n
	}
}

// WithBatchSize sets how many samples are evaluated together
func WithBatchSize(n int) Option {
	return func(o *options) {
		o.cfg.BatchSize = n
	}
}

// WithLimit stops a run at the first batch boundary past n samples
func WithLimit(n int) Option {
	return func(o *options) {
		o.cfg.Limit = n
	}
}

// WithOutputDir sets the directory result files are written to
func WithOutputDir(dir string) Option {
	return func(o *options) {
		o.cfg.OutputDir = dir
	}
}

// WithDatasetPath reads samples from a local JSON lines file instead of the Hub
func WithDatasetPath(path string) Option {
	return func(o *options) {
		o.cfg.DatasetPath = path
	}
}

// WithLogger sets a custom logger.
// If not provided, a zap logger at the configured level is used.
func WithLogger(l logger.Logger) Option {
	return func(o *options) {
		o.cfg.Logger = l
	}
}

// WithCaller uses c as the model provider instead of building one from the
// configured provider name and API key.
func WithCaller(c model.Caller) Option {
	return func(o *options) {
		o.caller = c
	}
}

// WithTracerProvider sets the provider for engine and model spans.
// If not provided, the global TracerProvider is used.
func WithTracerProvider(tp oteltrace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

// WithMetrics records run counters into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithSleeper replaces the wait used between model retries.
// This is primarily useful for tests.
func WithSleeper(s model.Sleeper) Option {
	return func(o *options) {
		o.sleeper = s
	}
}

// WithHubURL overrides the datasets server used when no dataset path is set.
func WithHubURL(u string) Option {
	return func(o *options) {
		o.hubURL = u
	}
}
