package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	prompteval "github.com/braintrustdata/prompteval-go"
	"github.com/braintrustdata/prompteval-go/config"
	"github.com/braintrustdata/prompteval-go/logger"
)

// app holds the state shared by every subcommand.
type app struct {
	out    io.Writer
	errOut io.Writer

	configFile string
	flags      config.Config

	// extra options appended when the client is built
	clientOpts []prompteval.Option
}

func newApp(out, errOut io.Writer) *app {
	return &app{out: out, errOut: errOut}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "prompteval",
		Short: "Evaluate prompting strategies on grade-school math problems",
		Long: `Runs prompting strategies (baseline chain of thought, self-reflection,
self-consistency, ...) over a math word problem dataset, grades every answer
with a second model call and reports accuracy per strategy.

Configuration comes from PROMPTEVAL_* environment variables, then the file
given by --config, then flags.

Examples:
  prompteval strategies
  prompteval run --strategy eval_baseline --limit 100
  prompteval run-all --dataset-path gsm8k_train.jsonl
  prompteval analyze --baseline eval_baseline`,
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML config file")
	pf.StringVar(&a.flags.Provider, "provider", "", "model provider: gemini, openai, anthropic or ollama")
	pf.StringVar(&a.flags.Model, "model", "", "model that solves samples")
	pf.StringVar(&a.flags.GraderModel, "grader-model", "", "model that grades answers")
	pf.StringVar(&a.flags.BaseURL, "base-url", "", "provider base URL override")
	pf.IntVar(&a.flags.Concurrency, "concurrency", 0, "maximum in-flight model calls")
	pf.IntVar(&a.flags.BatchSize, "batch-size", 0, "samples evaluated together")
	pf.IntVar(&a.flags.Limit, "limit", 0, "stop after this many samples (rounded up to a whole batch)")
	pf.Float64Var(&a.flags.RequestsPerSecond, "rps", 0, "pace provider requests, 0 disables")
	pf.StringVar(&a.flags.OutputDir, "output-dir", "", "directory for result files")
	pf.StringVar(&a.flags.DatasetPath, "dataset-path", "", "local JSON lines dataset; the Hub is used when empty")
	pf.StringVar(&a.flags.LogLevel, "log-level", "", "debug, info, warn or error")
	pf.StringVar(&a.flags.LogFile, "log-file", "", "write logs to this file instead of stderr")
	pf.StringVar(&a.flags.TraceExporter, "trace-exporter", "", "none, stdout or otlp")
	pf.StringVar(&a.flags.MetricsFile, "metrics-file", "", "write Prometheus counters to this file after a run")

	root.AddCommand(
		newRunCmd(a),
		newRunAllCmd(a),
		newAnalyzeCmd(a),
		newStrategiesCmd(a),
	)
	return root
}

// loadConfig layers the environment, the config file and the flags that were
// set explicitly.
func (a *app) loadConfig(flags *pflag.FlagSet) (*config.Config, error) {
	env := config.FromEnv()
	// The grader follows the solving model unless it was set on its own.
	graderFollows := env.GraderModel == env.Model

	cfg := env
	if a.configFile != "" {
		var err error
		if cfg, err = config.LoadFile(a.configFile, env); err != nil {
			return nil, err
		}
		if cfg.GraderModel != env.GraderModel {
			graderFollows = false
		}
	}

	overrides := map[string]func(){
		"provider":       func() { cfg.Provider = a.flags.Provider },
		"model":          func() { cfg.Model = a.flags.Model },
		"grader-model":   func() { cfg.GraderModel = a.flags.GraderModel },
		"base-url":       func() { cfg.BaseURL = a.flags.BaseURL },
		"concurrency":    func() { cfg.Concurrency = a.flags.Concurrency },
		"batch-size":     func() { cfg.BatchSize = a.flags.BatchSize },
		"limit":          func() { cfg.Limit = a.flags.Limit },
		"rps":            func() { cfg.RequestsPerSecond = a.flags.RequestsPerSecond },
		"output-dir":     func() { cfg.OutputDir = a.flags.OutputDir },
		"dataset-path":   func() { cfg.DatasetPath = a.flags.DatasetPath },
		"log-level":      func() { cfg.LogLevel = a.flags.LogLevel },
		"log-file":       func() { cfg.LogFile = a.flags.LogFile },
		"trace-exporter": func() { cfg.TraceExporter = a.flags.TraceExporter },
		"metrics-file":   func() { cfg.MetricsFile = a.flags.MetricsFile },
	}
	flags.Visit(func(f *pflag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply()
		}
	})
	if graderFollows && !flags.Changed("grader-model") {
		cfg.GraderModel = cfg.Model
	}
	return cfg, nil
}

// session is a configured client plus the resources a run must release.
type session struct {
	client *prompteval.Client
	cfg    *config.Config
	log    logger.Logger
	tp     *sdktrace.TracerProvider
	closer io.Closer
}

func (a *app) openSession(cmd *cobra.Command) (*session, error) {
	cfg, err := a.loadConfig(cmd.Flags())
	if err != nil {
		return nil, err
	}

	s := &session{cfg: cfg}
	out := a.errOut
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		out, s.closer = f, f
	}
	s.log = cfg.Logger
	if s.log == nil {
		s.log = logger.New(logger.Options{Level: cfg.LogLevel, Output: out})
		cfg.Logger = s.log
	}

	s.tp, err = prompteval.NewTracerProvider(cmd.Context(), cfg, a.errOut)
	if err != nil {
		_ = s.close(context.Background())
		return nil, err
	}

	opts := append([]prompteval.Option{
		prompteval.WithConfig(cfg),
		prompteval.WithTracerProvider(s.tp),
	}, a.clientOpts...)
	s.client, err = prompteval.New(cmd.Context(), opts...)
	if err != nil {
		_ = s.close(context.Background())
		return nil, err
	}
	return s, nil
}

// close flushes spans, writes the metrics file and closes the log file.
func (s *session) close(ctx context.Context) error {
	var errs []error
	if s.tp != nil {
		errs = append(errs, s.tp.Shutdown(ctx))
	}
	if s.client != nil {
		if err := s.client.Metrics().WriteTextfile(s.cfg.MetricsFile); err != nil {
			errs = append(errs, fmt.Errorf("write metrics: %w", err))
		}
	}
	if s.closer != nil {
		errs = append(errs, s.closer.Close())
	}
	return errors.Join(errs...)
}
