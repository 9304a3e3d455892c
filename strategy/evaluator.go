package strategy

import (
	"context"
	"fmt"

	"github.com/braintrustdata/prompteval-go/dataset"
	"github.com/braintrustdata/prompteval-go/experiment"
	"github.com/braintrustdata/prompteval-go/logger"
	"github.com/braintrustdata/prompteval-go/model"
)

// Grader issues a 0/1 grade for a model answer.
type Grader interface {
	Grade(ctx context.Context, question, humanAnswer, modelAnswer string) (int, error)
}

// Evaluator runs strategies and grades their final answers. It is safe for
// concurrent use.
type Evaluator struct {
	gen    model.Generator
	grader Grader
	logger logger.Logger
}

// NewEvaluator returns an evaluator generating with gen and grading with g.
// A nil logger discards output.
func NewEvaluator(gen model.Generator, g Grader, l logger.Logger) *Evaluator {
	return &Evaluator{gen: gen, grader: g, logger: logger.OrDiscard(l)}
}

// Evaluate runs st on sample with modelID. The Outcome exists only if every
// generation and the grading call succeed.
func (e *Evaluator) Evaluate(ctx context.Context, st Strategy, modelID string, sample dataset.Sample) (experiment.Outcome, error) {
	texts, err := st.Solve(ctx, e.gen, modelID, sample)
	if err != nil {
		return experiment.Outcome{}, fmt.Errorf("%s: %w", st.Name, err)
	}
	if len(texts) != len(st.Fields) {
		return experiment.Outcome{}, fmt.Errorf("%s: produced %d texts for %d fields", st.Name, len(texts), len(st.Fields))
	}

	grade, err := e.grader.Grade(ctx, sample.Question, sample.Answer, texts[len(texts)-1])
	if err != nil {
		return experiment.Outcome{}, fmt.Errorf("%s: %w", st.Name, err)
	}

	fields := make([]experiment.Field, len(texts))
	for i, text := range texts {
		fields[i] = experiment.Field{Name: st.Fields[i], Text: text}
	}
	e.logger.Debug("sample evaluated", "strategy", st.Name, "grade", grade)
	return experiment.NewOutcome(sample.Question, sample.Answer, fields, grade)
}

// Task binds st and modelID into a function suitable for the evaluation engine.
func (e *Evaluator) Task(st Strategy, modelID string) func(context.Context, dataset.Sample) (experiment.Outcome, error) {
	return func(ctx context.Context, sample dataset.Sample) (experiment.Outcome, error) {
		return e.Evaluate(ctx, st, modelID, sample)
	}
}
