package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	prompteval "github.com/braintrustdata/prompteval-go"
	"github.com/braintrustdata/prompteval-go/dataset"
	"github.com/braintrustdata/prompteval-go/model"
	"github.com/braintrustdata/prompteval-go/strategy"
)

// fakeModel solves every question with "#### 4" and grades an answer correct
// unless the question mentions "hard".
func fakeModel() model.Caller {
	return model.CallerFunc(func(ctx context.Context, req *model.Request) (*model.Response, error) {
		if strings.HasPrefix(req.Input, "Question: ") && strings.Contains(req.Input, "\nReference Answer: ") {
			if strings.Contains(req.Input, "hard") {
				return &model.Response{Parts: []string{"0"}}, nil
			}
			return &model.Response{Parts: []string{"1"}}, nil
		}
		return &model.Response{Parts: []string{"#### 4"}}, nil
	})
}

func writeDataset(t *testing.T, questions ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "train.jsonl")
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, q := range questions {
		require.NoError(t, enc.Encode(dataset.Sample{Question: q, Answer: "#### 4"}))
	}
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

type harness struct {
	out, errOut bytes.Buffer
	outputDir   string
	datasetPath string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return &harness{
		outputDir:   t.TempDir(),
		datasetPath: writeDataset(t, "What is 2+2?", "A hard one: what is 2+2?", "Is 4 even?"),
	}
}

func (h *harness) command(args ...string) *cobra.Command {
	a := newApp(&h.out, &h.errOut)
	a.clientOpts = []prompteval.Option{prompteval.WithCaller(fakeModel())}
	cmd := newRootCmd(a)
	cmd.SetOut(&h.out)
	cmd.SetErr(&h.errOut)
	cmd.SetArgs(append(args,
		"--provider", "gemini",
		"--model", "fake-model",
		"--output-dir", h.outputDir,
		"--dataset-path", h.datasetPath,
		"--batch-size", "2",
		"--log-level", "error",
		"--trace-exporter", "none",
	))
	return cmd
}

func (h *harness) run(t *testing.T, args ...string) {
	t.Helper()
	require.NoError(t, h.command(args...).ExecuteContext(context.Background()), h.errOut.String())
}

func TestStrategiesCmd(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.run(t, "strategies")

	for _, name := range strategy.Names() {
		assert.Contains(t, h.out.String(), name)
	}
	assert.Contains(t, h.out.String(), "eval_all")
	assert.Contains(t, h.out.String(), "initial_model_answer, reflection, final_model_answer")
}

func TestRunCmd(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	metricsFile := filepath.Join(t.TempDir(), "prompteval.prom")
	h.run(t, "run", "--strategy", strategy.NoCoT, "--metrics-file", metricsFile)

	out := h.out.String()
	assert.Contains(t, out, "=== Eval: eval_no_cot ===")
	assert.Contains(t, out, "Samples: 3 (0 failed)")
	assert.Contains(t, out, "Batches: 2")

	data, err := os.ReadFile(filepath.Join(h.outputDir, "eval_no_cot.json"))
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(string(data)), "\n"), 3)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `prompteval_samples_total{eval="eval_no_cot",status="ok"} 3`)
}

func TestRunCmd_Limit(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.run(t, "run", "--limit", "1")

	// The limit is checked between batches, so the first batch of two runs whole.
	assert.Contains(t, h.out.String(), "Samples: 2 (0 failed)")
}

func TestRunCmd_UnknownStrategy(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.command("run", "--strategy", "eval_magic").ExecuteContext(context.Background())
	require.ErrorIs(t, err, strategy.ErrUnknownStrategy)
	assert.NoFileExists(t, filepath.Join(h.outputDir, "eval_magic.json"))
}

func TestRunCmd_BadConfig(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	err := h.command("run", "--concurrency", "0").ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "concurrency must be positive")
}

func TestRunThenAnalyze(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.run(t, "run", "--strategy", strategy.Baseline)
	h.run(t, "run", "--strategy", strategy.OnePromptReflection)
	h.out.Reset()

	h.run(t, "analyze")

	lines := strings.Split(h.out.String(), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, []string{"STRATEGY", "CORRECT", "INCORRECT", "ACCURACY", "IMPROVED", "REGRESSED"}, strings.Fields(lines[0]))
	assert.Contains(t, h.out.String(), "66.67%")
	assert.NotContains(t, h.out.String(), "improved over")
}

func TestRunAllThenAnalyzeConsolidated(t *testing.T) {
	t.Parallel()

	h := newHarness(t)
	h.run(t, "run-all")
	assert.Contains(t, h.out.String(), "=== Eval: eval_all ===")
	assert.FileExists(t, filepath.Join(h.outputDir, "eval_all.csv"))
	h.out.Reset()

	h.run(t, "analyze", "--consolidated")
	for _, name := range []string{strategy.Baseline, strategy.OnePromptReflection, strategy.NPromptsReflection} {
		assert.Contains(t, h.out.String(), name)
	}
}

func TestLoadConfig_Layers(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "prompteval.yaml")
	require.NoError(t, os.WriteFile(file, []byte("model: file-model\nbatch_size: 3\nlimit: 9\n"), 0o644))

	a := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	cmd := newRootCmd(a)
	require.NoError(t, cmd.ParseFlags([]string{"--config", file, "--batch-size", "7"}))

	cfg, err := a.loadConfig(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, "file-model", cfg.Model)
	assert.Equal(t, "file-model", cfg.GraderModel)
	assert.Equal(t, 7, cfg.BatchSize)
	assert.Equal(t, 9, cfg.Limit)
}

func TestLoadConfig_GraderModelFlag(t *testing.T) {
	t.Parallel()

	a := newApp(&bytes.Buffer{}, &bytes.Buffer{})
	cmd := newRootCmd(a)
	require.NoError(t, cmd.ParseFlags([]string{"--model", "solver", "--grader-model", "judge"}))

	cfg, err := a.loadConfig(cmd.Flags())
	require.NoError(t, err)
	assert.Equal(t, "solver", cfg.Model)
	assert.Equal(t, "judge", cfg.GraderModel)
}
