// Package strategy implements the prompting strategies under evaluation.
//
// A Strategy issues one or more generations for a sample and names each text it
// keeps. An Evaluator runs a strategy, grades its last text exactly once and
// builds the experiment.Outcome.
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/braintrustdata/prompteval-go/dataset"
	"github.com/braintrustdata/prompteval-go/model"
)

// Registered strategy names.
const (
	Baseline             = "eval_baseline"
	NoCoT                = "eval_no_cot"
	OnePromptReflection  = "eval_1_prompt_reflection"
	NPromptsReflection   = "eval_n_prompts_reflection"
	OnePromptConsistency = "eval_1_prompt_consistency"
	NPromptsConsistency  = "eval_n_prompts_consistency"
	ThreeSolvers         = "eval_3_solvers_consistency"
)

// ErrUnknownStrategy is returned by Lookup for unregistered names.
var ErrUnknownStrategy = errors.New("unknown strategy")

// SolveFunc issues a strategy's generations and returns one text per declared
// field, in order.
type SolveFunc func(ctx context.Context, gen model.Generator, modelID string, sample dataset.Sample) ([]string, error)

// Strategy is a named prompting procedure. The last of Fields is graded.
type Strategy struct {
	Name   string
	Fields []string
	Solve  SolveFunc
}

var registry = map[string]Strategy{}

func register(s Strategy) {
	if _, dup := registry[s.Name]; dup {
		panic("strategy: duplicate registration of " + s.Name)
	}
	registry[s.Name] = s
}

func init() {
	register(Strategy{Name: Baseline, Fields: []string{"model_answer"}, Solve: single(solvePrompt)})
	register(Strategy{Name: NoCoT, Fields: []string{"llm_answer"}, Solve: single(answerOnlyPrompt)})
	register(Strategy{Name: OnePromptReflection, Fields: []string{"llm_answer"}, Solve: single(selfReflectPrompt)})
	register(Strategy{
		Name:   NPromptsReflection,
		Fields: []string{"initial_model_answer", "reflection", "final_model_answer"},
		Solve:  solveCritiqueRevise,
	})
	register(Strategy{Name: OnePromptConsistency, Fields: []string{"llm_answer"}, Solve: single(perspectivesPrompt)})
	register(Strategy{
		Name:   NPromptsConsistency,
		Fields: []string{"candidate_1", "candidate_2", "candidate_3", "llm_answer"},
		Solve:  sampleAndReconcile,
	})
	register(Strategy{Name: ThreeSolvers, Fields: []string{"llm_answer"}, Solve: single(threeSolversPrompt)})
}

// Lookup returns the registered strategy with the given name.
func Lookup(name string) (Strategy, error) {
	s, ok := registry[name]
	if !ok {
		return Strategy{}, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
	return s, nil
}

// Names returns every registered strategy name, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered strategy, sorted by name.
func All() []Strategy {
	names := Names()
	out := make([]Strategy, len(names))
	for i, name := range names {
		out[i] = registry[name]
	}
	return out
}

func stageError(stage string, err error) error {
	return fmt.Errorf("stage %s: %w", stage, err)
}

// single sends the question once with the given instruction.
func single(prompt string) SolveFunc {
	return func(ctx context.Context, gen model.Generator, modelID string, sample dataset.Sample) ([]string, error) {
		answer, err := gen.Generate(ctx, modelID, prompt, sample.Question)
		if err != nil {
			return nil, stageError("solve", err)
		}
		return []string{answer}, nil
	}
}

func solveCritiqueRevise(ctx context.Context, gen model.Generator, modelID string, sample dataset.Sample) ([]string, error) {
	initial, err := gen.Generate(ctx, modelID, solvePrompt, sample.Question)
	if err != nil {
		return nil, stageError("solve", err)
	}

	critique, err := gen.Generate(ctx, modelID, critiquePrompt, critiqueInput(sample.Question, initial))
	if err != nil {
		return nil, stageError("critique", err)
	}

	final, err := gen.Generate(ctx, modelID, revisePrompt, reviseInput(sample.Question, initial, critique))
	if err != nil {
		return nil, stageError("revise", err)
	}
	return []string{initial, critique, final}, nil
}

// sampleAndReconcile draws three independent candidates concurrently, then asks
// the model to reconcile them. No vote is taken; the reconciliation is graded.
func sampleAndReconcile(ctx context.Context, gen model.Generator, modelID string, sample dataset.Sample) ([]string, error) {
	var candidates [3]string
	g, gctx := errgroup.WithContext(ctx)
	for i := range candidates {
		g.Go(func() error {
			out, err := gen.Generate(gctx, modelID, candidatePrompt, sample.Question)
			if err != nil {
				return stageError(fmt.Sprintf("candidate %d", i+1), err)
			}
			candidates[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	answer, err := gen.Generate(ctx, modelID, reconcilePrompt, reconcileInput(sample.Question, candidates[:]))
	if err != nil {
		return nil, stageError("reconcile", err)
	}
	return []string{candidates[0], candidates[1], candidates[2], answer}, nil
}

func critiqueInput(question, answer string) string {
	return fmt.Sprintf("Question: %s\nAnswer: %s", question, answer)
}

func reviseInput(question, answer, critique string) string {
	return fmt.Sprintf("Question: %s\nAnswer: %s\nCritique: %s", question, answer, critique)
}

func reconcileInput(question string, candidates []string) string {
	s := question
	for i, c := range candidates {
		s += fmt.Sprintf("\n\nCandidate %d: %s", i+1, c)
	}
	return s
}
