package strategy

import (
	"context"
	"fmt"

	"github.com/braintrustdata/prompteval-go/dataset"
	"github.com/braintrustdata/prompteval-go/experiment"
)

// ConsolidatedName names the run that merges several strategies into one
// record per sample.
const ConsolidatedName = "eval_all"

type consolidatedPart struct {
	strategy string
	columns  map[string]string // strategy field -> column
	grade    string
}

var consolidatedParts = []consolidatedPart{
	{
		strategy: Baseline,
		columns:  map[string]string{"model_answer": "baseline_answer"},
		grade:    "grade_baseline",
	},
	{
		strategy: OnePromptReflection,
		columns:  map[string]string{"llm_answer": "one_prompt_answer"},
		grade:    "grade_1_prompt",
	},
	{
		strategy: NPromptsReflection,
		columns: map[string]string{
			"initial_model_answer": "n_prompts_initial_answer",
			"reflection":           "n_prompts_reflection",
			"final_model_answer":   "n_prompts_final_answer",
		},
		grade: "grade_n_prompts",
	},
}

var consolidatedSchema = experiment.NewSchema(
	experiment.Column{Name: "baseline_answer"},
	experiment.Column{Name: "grade_baseline", Grade: true},
	experiment.Column{Name: "one_prompt_answer"},
	experiment.Column{Name: "grade_1_prompt", Grade: true},
	experiment.Column{Name: "n_prompts_initial_answer"},
	experiment.Column{Name: "n_prompts_reflection"},
	experiment.Column{Name: "n_prompts_final_answer"},
	experiment.Column{Name: "grade_n_prompts", Grade: true},
)

// ConsolidatedSchema returns the column layout of EvaluateAll records.
func ConsolidatedSchema() *experiment.Schema {
	return consolidatedSchema
}

// EvaluateAll runs the baseline, single-prompt reflection and multi-prompt
// reflection strategies in turn. A failing strategy is logged and leaves its
// columns null. An error is returned only when ctx is done.
func (e *Evaluator) EvaluateAll(ctx context.Context, modelID string, sample dataset.Sample) (*experiment.WideRecord, error) {
	rec := experiment.NewWideRecord(consolidatedSchema, sample.Question, sample.Answer)

	for _, part := range consolidatedParts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		st, err := Lookup(part.strategy)
		if err != nil {
			return nil, err
		}

		out, err := e.Evaluate(ctx, st, modelID, sample)
		if err != nil {
			e.logger.Error("strategy failed in consolidated run",
				"strategy", part.strategy,
				"question", sample.Question,
				"error", err)
			continue
		}
		if err := fill(rec, part, out); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// ConsolidatedTask adapts EvaluateAll for the evaluation engine.
func (e *Evaluator) ConsolidatedTask(modelID string) func(context.Context, dataset.Sample) (*experiment.WideRecord, error) {
	return func(ctx context.Context, sample dataset.Sample) (*experiment.WideRecord, error) {
		return e.EvaluateAll(ctx, modelID, sample)
	}
}

func fill(rec *experiment.WideRecord, part consolidatedPart, out experiment.Outcome) error {
	for _, f := range out.Fields() {
		col, ok := part.columns[f.Name]
		if !ok {
			return fmt.Errorf("%s: no column for field %q", part.strategy, f.Name)
		}
		if err := rec.Set(col, f.Text); err != nil {
			return err
		}
	}
	return rec.SetGrade(part.grade, out.Grade())
}

// ConsolidatedGradeColumns maps each strategy merged by EvaluateAll to the
// column holding its grade.
func ConsolidatedGradeColumns() map[string]string {
	cols := make(map[string]string, len(consolidatedParts))
	for _, part := range consolidatedParts {
		cols[part.strategy] = part.grade
	}
	return cols
}
