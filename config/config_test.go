package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{
		"PROMPTEVAL_PROVIDER", "PROMPTEVAL_MODEL", "PROMPTEVAL_GRADER_MODEL",
		"PROMPTEVAL_CONCURRENCY", "PROMPTEVAL_BATCH_SIZE", "PROMPTEVAL_LIMIT",
		"PROMPTEVAL_RETRY_BASE_DELAY", "PROMPTEVAL_RETRY_MAX_DELAY",
		"PROMPTEVAL_SERVER_ERROR_ATTEMPTS", "PROMPTEVAL_TRACE_EXPORTER",
	} {
		t.Setenv(key, "")
	}

	cfg := FromEnv()
	assert.Equal(t, ProviderGemini, cfg.Provider)
	assert.Equal(t, "gemini-1.5-flash", cfg.Model)
	assert.Equal(t, "gemini-1.5-flash", cfg.GraderModel)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 0, cfg.Limit)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
	assert.Equal(t, 300*time.Second, cfg.RetryMaxDelay)
	assert.Equal(t, 10, cfg.ServerErrorAttempts)
	assert.Equal(t, "openai/gsm8k", cfg.Dataset)
	assert.Equal(t, TraceExporterNone, cfg.TraceExporter)
	require.NoError(t, cfg.Validate())
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PROMPTEVAL_PROVIDER", " openai ")
	t.Setenv("PROMPTEVAL_MODEL", "gpt-4o-mini")
	t.Setenv("PROMPTEVAL_GRADER_MODEL", "")
	t.Setenv("PROMPTEVAL_CONCURRENCY", "20")
	t.Setenv("PROMPTEVAL_LIMIT", "15")
	t.Setenv("PROMPTEVAL_RETRY_BASE_DELAY", "250ms")
	t.Setenv("PROMPTEVAL_RETRY_MAX_DELAY", "60")
	t.Setenv("PROMPTEVAL_REQUESTS_PER_SECOND", "2.5")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg := FromEnv()
	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.Model)
	assert.Equal(t, "gpt-4o-mini", cfg.GraderModel)
	assert.Equal(t, 20, cfg.Concurrency)
	assert.Equal(t, 15, cfg.Limit)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBaseDelay)
	assert.Equal(t, 60*time.Second, cfg.RetryMaxDelay)
	assert.InDelta(t, 2.5, cfg.RequestsPerSecond, 1e-9)
	assert.Equal(t, "sk-test", cfg.APIKey())
}

func TestFromEnv_BadNumbersKeepDefaults(t *testing.T) {
	t.Setenv("PROMPTEVAL_BATCH_SIZE", "ten")
	t.Setenv("PROMPTEVAL_RETRY_BASE_DELAY", "soon")

	cfg := FromEnv()
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, time.Second, cfg.RetryBaseDelay)
}

func TestLoadFile_OverlaysBase(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "prompteval.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
provider: anthropic
model: claude-3-5-haiku-latest
batch_size: 25
retry_max_delay: 2m
trace_exporter: stdout
`), 0o600))

	base := &Config{
		Provider:            ProviderGemini,
		Model:               "gemini-1.5-flash",
		GraderModel:         "gemini-1.5-flash",
		Concurrency:         10,
		BatchSize:           10,
		RetryBaseDelay:      time.Second,
		RetryMaxDelay:       300 * time.Second,
		ServerErrorAttempts: 10,
		AnthropicAPIKey:     "key",
	}

	cfg, err := LoadFile(path, base)
	require.NoError(t, err)

	assert.Equal(t, ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-3-5-haiku-latest", cfg.Model)
	assert.Equal(t, "gemini-1.5-flash", cfg.GraderModel)
	assert.Equal(t, 25, cfg.BatchSize)
	assert.Equal(t, 10, cfg.Concurrency)
	assert.Equal(t, 2*time.Minute, cfg.RetryMaxDelay)
	assert.Equal(t, TraceExporterStdout, cfg.TraceExporter)
	assert.Equal(t, "key", cfg.APIKey())

	// base is untouched
	assert.Equal(t, ProviderGemini, base.Provider)
	require.NoError(t, cfg.Validate())
}

func TestLoadFile_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_size: [1, 2"), 0o600))
	_, err = LoadFile(path, nil)
	require.ErrorIs(t, err, errInvalidConfig)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		return &Config{
			Provider:            ProviderGemini,
			Model:               "m",
			Concurrency:         1,
			BatchSize:           1,
			RetryBaseDelay:      time.Second,
			RetryMaxDelay:       time.Second,
			ServerErrorAttempts: 1,
		}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.Provider = "palm" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"zero batch size", func(c *Config) { c.BatchSize = 0 }},
		{"negative limit", func(c *Config) { c.Limit = -1 }},
		{"zero base delay", func(c *Config) { c.RetryBaseDelay = 0 }},
		{"max below base", func(c *Config) { c.RetryMaxDelay = time.Millisecond }},
		{"zero attempts", func(c *Config) { c.ServerErrorAttempts = 0 }},
		{"negative rps", func(c *Config) { c.RequestsPerSecond = -1 }},
		{"unknown exporter", func(c *Config) { c.TraceExporter = "jaeger" }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), errInvalidConfig)
		})
	}
}
