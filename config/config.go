// Package config provides configuration management for prompteval.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/braintrustdata/prompteval-go/logger"
)

// Provider names accepted by Config.Provider.
const (
	ProviderGemini    = "gemini"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Trace exporter names accepted by Config.TraceExporter.
const (
	TraceExporterNone   = "none"
	TraceExporterStdout = "stdout"
	TraceExporterOTLP   = "otlp"
)

var errInvalidConfig = errors.New("invalid config")

// Config holds configuration for an evaluation run.
// Values are loaded from the environment, then a YAML file, then explicit options.
type Config struct {
	// Model provider
	Provider    string `yaml:"provider"`
	Model       string `yaml:"model"`
	GraderModel string `yaml:"grader_model"`
	BaseURL     string `yaml:"base_url"`

	GoogleAPIKey    string `yaml:"-"`
	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`

	// Model client limits
	Concurrency         int           `yaml:"concurrency"`
	RetryBaseDelay      time.Duration `yaml:"retry_base_delay"`
	RetryMaxDelay       time.Duration `yaml:"retry_max_delay"`
	ServerErrorAttempts int           `yaml:"server_error_attempts"`
	RequestsPerSecond   float64       `yaml:"requests_per_second"`

	// Engine
	BatchSize int    `yaml:"batch_size"`
	Limit     int    `yaml:"limit"`
	OutputDir string `yaml:"output_dir"`

	// Dataset
	DatasetPath   string `yaml:"dataset_path"`
	Dataset       string `yaml:"dataset"`
	DatasetConfig string `yaml:"dataset_config"`
	DatasetSplit  string `yaml:"dataset_split"`
	HubToken      string `yaml:"-"`

	// Observability
	LogLevel      string `yaml:"log_level"`
	LogFile       string `yaml:"log_file"`
	TraceExporter string `yaml:"trace_exporter"`
	OTLPEndpoint  string `yaml:"otlp_endpoint"`
	MetricsFile   string `yaml:"metrics_file"`

	// Logger overrides the logger built from LogLevel/LogFile.
	Logger logger.Logger `yaml:"-"`
}

// FromEnv loads configuration from environment variables with defaults.
//
// Supported environment variables:
//   - PROMPTEVAL_PROVIDER: gemini, openai, anthropic or ollama (default: "gemini")
//   - PROMPTEVAL_MODEL: model used to solve samples (default: "gemini-1.5-flash")
//   - PROMPTEVAL_GRADER_MODEL: model used to grade answers (default: same as PROMPTEVAL_MODEL)
//   - PROMPTEVAL_BASE_URL: provider base URL override
//   - PROMPTEVAL_CONCURRENCY: max in-flight model calls (default: 10)
//   - PROMPTEVAL_RETRY_BASE_DELAY: first retry wait (default: "1s")
//   - PROMPTEVAL_RETRY_MAX_DELAY: cap for resource-exhausted waits (default: "300s")
//   - PROMPTEVAL_SERVER_ERROR_ATTEMPTS: attempts before a server error is returned (default: 10)
//   - PROMPTEVAL_REQUESTS_PER_SECOND: optional request pacing, 0 disables (default: 0)
//   - PROMPTEVAL_BATCH_SIZE: samples evaluated concurrently per batch (default: 10)
//   - PROMPTEVAL_LIMIT: stop after this many samples, 0 means all (default: 0)
//   - PROMPTEVAL_OUTPUT_DIR: directory for result files (default: ".")
//   - PROMPTEVAL_DATASET_PATH: local JSON lines dataset; when empty the Hub is used
//   - PROMPTEVAL_DATASET, PROMPTEVAL_DATASET_CONFIG, PROMPTEVAL_DATASET_SPLIT (default: "openai/gsm8k", "main", "train")
//   - PROMPTEVAL_LOG_LEVEL, PROMPTEVAL_LOG_FILE
//   - PROMPTEVAL_TRACE_EXPORTER: none, stdout or otlp (default: "none")
//   - PROMPTEVAL_OTLP_ENDPOINT, PROMPTEVAL_METRICS_FILE
//   - GOOGLE_API_KEY (or GEMINI_API_KEY), OPENAI_API_KEY, ANTHROPIC_API_KEY, HUGGINGFACE_TOKEN
func FromEnv() *Config {
	model := getEnvString("PROMPTEVAL_MODEL", "gemini-1.5-flash")
	return &Config{
		Provider:            getEnvString("PROMPTEVAL_PROVIDER", ProviderGemini),
		Model:               model,
		GraderModel:         getEnvString("PROMPTEVAL_GRADER_MODEL", model),
		BaseURL:             getEnvString("PROMPTEVAL_BASE_URL", ""),
		GoogleAPIKey:        getEnvString("GOOGLE_API_KEY", getEnvString("GEMINI_API_KEY", "")),
		OpenAIAPIKey:        getEnvString("OPENAI_API_KEY", ""),
		AnthropicAPIKey:     getEnvString("ANTHROPIC_API_KEY", ""),
		Concurrency:         getEnvInt("PROMPTEVAL_CONCURRENCY", 10),
		RetryBaseDelay:      getEnvDuration("PROMPTEVAL_RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:       getEnvDuration("PROMPTEVAL_RETRY_MAX_DELAY", 300*time.Second),
		ServerErrorAttempts: getEnvInt("PROMPTEVAL_SERVER_ERROR_ATTEMPTS", 10),
		RequestsPerSecond:   getEnvFloat("PROMPTEVAL_REQUESTS_PER_SECOND", 0),
		BatchSize:           getEnvInt("PROMPTEVAL_BATCH_SIZE", 10),
		Limit:               getEnvInt("PROMPTEVAL_LIMIT", 0),
		OutputDir:           getEnvString("PROMPTEVAL_OUTPUT_DIR", "."),
		DatasetPath:         getEnvString("PROMPTEVAL_DATASET_PATH", ""),
		Dataset:             getEnvString("PROMPTEVAL_DATASET", "openai/gsm8k"),
		DatasetConfig:       getEnvString("PROMPTEVAL_DATASET_CONFIG", "main"),
		DatasetSplit:        getEnvString("PROMPTEVAL_DATASET_SPLIT", "train"),
		HubToken:            getEnvString("HUGGINGFACE_TOKEN", ""),
		LogLevel:            getEnvString("PROMPTEVAL_LOG_LEVEL", "info"),
		LogFile:             getEnvString("PROMPTEVAL_LOG_FILE", ""),
		TraceExporter:       getEnvString("PROMPTEVAL_TRACE_EXPORTER", TraceExporterNone),
		OTLPEndpoint:        getEnvString("PROMPTEVAL_OTLP_ENDPOINT", ""),
		MetricsFile:         getEnvString("PROMPTEVAL_METRICS_FILE", ""),
	}
}

// LoadFile overlays the YAML file at path onto a copy of base.
// Keys absent from the file keep their value from base.
func LoadFile(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if base != nil {
		*cfg = *base
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", errInvalidConfig, path, err)
	}
	return cfg, nil
}

// Validate reports configuration values that cannot drive a run.
func (c *Config) Validate() error {
	var errs []error
	switch c.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderAnthropic, ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown provider %q", c.Provider))
	}
	if c.Model == "" {
		errs = append(errs, errors.New("model is required"))
	}
	if c.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("concurrency must be positive, got %d", c.Concurrency))
	}
	if c.BatchSize < 1 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d", c.BatchSize))
	}
	if c.Limit < 0 {
		errs = append(errs, fmt.Errorf("limit must not be negative, got %d", c.Limit))
	}
	if c.RetryBaseDelay <= 0 {
		errs = append(errs, fmt.Errorf("retry base delay must be positive, got %v", c.RetryBaseDelay))
	}
	if c.RetryMaxDelay < c.RetryBaseDelay {
		errs = append(errs, fmt.Errorf("retry max delay %v is below base delay %v", c.RetryMaxDelay, c.RetryBaseDelay))
	}
	if c.ServerErrorAttempts < 1 {
		errs = append(errs, fmt.Errorf("server error attempts must be positive, got %d", c.ServerErrorAttempts))
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests per second must not be negative, got %v", c.RequestsPerSecond))
	}
	switch c.TraceExporter {
	case "", TraceExporterNone, TraceExporterStdout, TraceExporterOTLP:
	default:
		errs = append(errs, fmt.Errorf("unknown trace exporter %q", c.TraceExporter))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", errInvalidConfig, errors.Join(errs...))
}

// APIKey returns the credential for the configured provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case ProviderGemini:
		return c.GoogleAPIKey
	case ProviderOpenAI:
		return c.OpenAIAPIKey
	case ProviderAnthropic:
		return c.AnthropicAPIKey
	}
	return ""
}

// getEnvString returns the trimmed environment variable value or the default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return strings.TrimSpace(value)
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}
