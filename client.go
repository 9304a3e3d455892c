package prompteval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/openai/openai-go/option"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/braintrustdata/prompteval-go/analysis"
	"github.com/braintrustdata/prompteval-go/config"
	"github.com/braintrustdata/prompteval-go/dataset"
	"github.com/braintrustdata/prompteval-go/eval"
	"github.com/braintrustdata/prompteval-go/experiment"
	"github.com/braintrustdata/prompteval-go/grader"
	"github.com/braintrustdata/prompteval-go/internal/metrics"
	"github.com/braintrustdata/prompteval-go/logger"
	"github.com/braintrustdata/prompteval-go/model"
	"github.com/braintrustdata/prompteval-go/model/anthropicmodel"
	"github.com/braintrustdata/prompteval-go/model/genaimodel"
	"github.com/braintrustdata/prompteval-go/model/langchainmodel"
	"github.com/braintrustdata/prompteval-go/model/openaimodel"
	"github.com/braintrustdata/prompteval-go/store"
	"github.com/braintrustdata/prompteval-go/strategy"
)

var errMissingAPIKey = errors.New("missing API key")

// Client runs strategies against one configured model.
type Client struct {
	config         *config.Config
	logger         logger.Logger
	tracerProvider oteltrace.TracerProvider
	metrics        *metrics.Metrics
	model          *model.Client
	grader         *grader.Grader
	evaluator      *strategy.Evaluator
	hubURL         string
}

// New creates a Client.
//
// Configuration is loaded from environment variables first, then explicit
// options are applied (options take precedence). Unless WithCaller is given,
// the provider named by the configuration is built with its API key.
//
// Example:
//
//	pe, err := prompteval.New(ctx,
//	    prompteval.WithProvider(config.ProviderGemini),
//	    prompteval.WithModel("gemini-1.5-flash"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := pe.RunStrategy(ctx, strategy.Baseline, samples)
func New(ctx context.Context, opts ...Option) (*Client, error) {
	o := &options{cfg: config.FromEnv()}
	for _, opt := range opts {
		opt(o)
	}
	cfg := o.cfg
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := cfg.Logger
	if log == nil {
		log = logger.New(logger.Options{Level: cfg.LogLevel})
	}

	m := o.metrics
	if m == nil {
		m = metrics.New()
	}

	log.Debug("initializing prompteval client",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"grader_model", cfg.GraderModel,
		"concurrency", cfg.Concurrency,
		"batch_size", cfg.BatchSize)

	caller := o.caller
	if caller == nil {
		var err error
		caller, err = newProvider(ctx, cfg, log)
		if err != nil {
			log.Error("failed to create provider", "provider", cfg.Provider, "error", err)
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
	}

	modelOpts := []model.Option{
		model.WithConcurrency(cfg.Concurrency),
		model.WithResourceExhaustedPolicy(model.RetryPolicy{
			BaseDelay: cfg.RetryBaseDelay,
			MaxDelay:  cfg.RetryMaxDelay,
		}),
		model.WithServerErrorPolicy(model.RetryPolicy{
			BaseDelay:   cfg.RetryBaseDelay,
			MaxAttempts: cfg.ServerErrorAttempts,
		}),
		model.WithRequestsPerSecond(cfg.RequestsPerSecond),
		model.WithLogger(log),
		model.WithTracerProvider(o.tracerProvider),
		model.WithMetrics(m),
	}
	if o.sleeper != nil {
		modelOpts = append(modelOpts, model.WithClientSleeper(o.sleeper))
	}
	mc, err := model.NewClient(caller, modelOpts...)
	if err != nil {
		return nil, err
	}

	g := grader.New(mc, cfg.GraderModel)
	return &Client{
		config:         cfg,
		logger:         log,
		tracerProvider: o.tracerProvider,
		metrics:        m,
		model:          mc,
		grader:         g,
		evaluator:      strategy.NewEvaluator(mc, g, log),
		hubURL:         o.hubURL,
	}, nil
}

func newProvider(ctx context.Context, cfg *config.Config, log logger.Logger) (model.Caller, error) {
	key := cfg.APIKey()
	if key == "" && cfg.Provider != config.ProviderOllama {
		return nil, fmt.Errorf("%w for provider %s", errMissingAPIKey, cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		p, err := genaimodel.NewFromAPIKey(ctx, key, nil)
		if err != nil {
			return nil, err
		}
		return p, nil
	case config.ProviderOpenAI:
		var opts []option.RequestOption
		if cfg.LogLevel == "debug" {
			opts = append(opts, option.WithMiddleware(openaimodel.LoggingMiddleware(log)))
		}
		return openaimodel.NewFromAPIKey(key, cfg.BaseURL, opts...), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewFromAPIKey(key, cfg.BaseURL), nil
	case config.ProviderOllama:
		p, err := langchainmodel.NewOllama(cfg.Model, cfg.BaseURL)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
}

// Config returns a copy of the client's configuration.
func (c *Client) Config() config.Config {
	return *c.config
}

// Metrics returns the counters recorded by the client's runs.
func (c *Client) Metrics() *metrics.Metrics {
	return c.metrics
}

// Gate returns the concurrency gate shared by every model call.
func (c *Client) Gate() *model.Gate {
	return c.model.Gate()
}

// String returns a string representation of the client
func (c *Client) String() string {
	return fmt.Sprintf(`Prompteval Client:
  Provider: %s
  Model: %s
  Grader Model: %s
  Concurrency: %d
  Batch Size: %d
  Output Dir: %s`,
		c.config.Provider,
		c.config.Model,
		c.grader.Model(),
		c.config.Concurrency,
		c.config.BatchSize,
		c.config.OutputDir,
	)
}

// LoadDataset reads samples from the configured local file, or from the
// datasets server when no path is set. With a limit configured only as many
// whole batches as the run can use are fetched.
func (c *Client) LoadDataset(ctx context.Context) ([]dataset.Sample, error) {
	limit := c.datasetLimit()
	if c.config.DatasetPath != "" {
		return dataset.LoadJSONL(c.config.DatasetPath, limit)
	}

	hubOpts := []dataset.HubOption{
		dataset.WithHubToken(c.config.HubToken),
		dataset.WithHubLogger(c.logger),
	}
	if c.hubURL != "" {
		hubOpts = append(hubOpts, dataset.WithHubURL(c.hubURL))
	}
	hub, err := dataset.NewHubClient(hubOpts...)
	if err != nil {
		return nil, err
	}
	return hub.Load(ctx, dataset.HubQuery{
		Dataset: c.config.Dataset,
		Config:  c.config.DatasetConfig,
		Split:   c.config.DatasetSplit,
		Limit:   limit,
	})
}

// datasetLimit rounds the run limit up to a whole number of batches, the most
// samples the engine will attempt.
func (c *Client) datasetLimit() int {
	limit, batch := c.config.Limit, c.config.BatchSize
	if limit <= 0 {
		return 0
	}
	return (limit + batch - 1) / batch * batch
}

// RunStrategy evaluates the named strategy over samples and writes each
// outcome to <OutputDir>/<name>.json as it completes.
func (c *Client) RunStrategy(ctx context.Context, name string, samples []dataset.Sample) (*eval.Result, error) {
	st, err := strategy.Lookup(name)
	if err != nil {
		return nil, err
	}
	path, err := c.outputPath(name + ".json")
	if err != nil {
		return nil, err
	}
	w, err := store.CreateJSONL[experiment.Outcome](path)
	if err != nil {
		return nil, err
	}

	c.logger.Info("running strategy", "strategy", name, "samples", len(samples), "output", path)
	res, err := eval.Run(ctx, eval.Opts[dataset.Sample, experiment.Outcome]{
		Name:           name,
		Cases:          eval.NewCases(samples),
		Task:           c.evaluator.Task(st, c.config.Model),
		Sink:           w,
		BatchSize:      c.config.BatchSize,
		Limit:          c.config.Limit,
		Logger:         c.logger,
		TracerProvider: c.tracerProvider,
		Metrics:        c.metrics,
	})
	return res, errors.Join(err, w.Close())
}

// RunAll runs the consolidated strategy over samples and writes one CSV row
// per sample to <OutputDir>/eval_all.csv.
func (c *Client) RunAll(ctx context.Context, samples []dataset.Sample) (*eval.Result, error) {
	path, err := c.outputPath(strategy.ConsolidatedName + ".csv")
	if err != nil {
		return nil, err
	}
	w, err := store.CreateCSV(path, strategy.ConsolidatedSchema())
	if err != nil {
		return nil, err
	}

	c.logger.Info("running consolidated strategies", "samples", len(samples), "output", path)
	res, err := eval.Run(ctx, eval.Opts[dataset.Sample, *experiment.WideRecord]{
		Name:           strategy.ConsolidatedName,
		Cases:          eval.NewCases(samples),
		Task:           c.evaluator.ConsolidatedTask(c.config.Model),
		Sink:           w,
		BatchSize:      c.config.BatchSize,
		Limit:          c.config.Limit,
		Logger:         c.logger,
		TracerProvider: c.tracerProvider,
		Metrics:        c.metrics,
	})
	return res, errors.Join(err, w.Close())
}

// Analyze joins the per-strategy result files in the output directory and
// writes an accuracy report comparing each strategy with baseline.
func (c *Client) Analyze(w io.Writer, baseline string) error {
	table, err := analysis.Load(c.config.OutputDir, strategy.Names())
	if err != nil {
		return err
	}
	return table.WriteReport(w, baseline)
}

// AnalyzeConsolidated writes the same report for the eval_all CSV file.
func (c *Client) AnalyzeConsolidated(w io.Writer, baseline string) error {
	table, err := analysis.LoadConsolidated(
		filepath.Join(c.config.OutputDir, strategy.ConsolidatedName+".csv"),
		strategy.ConsolidatedSchema(),
		strategy.ConsolidatedGradeColumns(),
	)
	if err != nil {
		return err
	}
	return table.WriteReport(w, baseline)
}

func (c *Client) outputPath(file string) (string, error) {
	if err := os.MkdirAll(c.config.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	return filepath.Join(c.config.OutputDir, file), nil
}
