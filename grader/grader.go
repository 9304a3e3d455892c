// Package grader judges a model answer against a reference answer with a
// second model call.
package grader

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/braintrustdata/prompteval-go/model"
)

// DefaultModel is the grading model used when none is configured.
const DefaultModel = "gemini-1.5-flash"

var (
	// ErrGrade marks a grading call that failed.
	ErrGrade = errors.New("grading failed")

	// ErrVerdict marks a grader reply that is not exactly 0 or 1.
	ErrVerdict = errors.New("invalid grade")
)

var answerBoundary = regexp.MustCompile(`(?m)^####\s`)

// ExtractAnswer returns the trimmed text after the last line starting with
// "#### ". Text without such a line is returned trimmed.
func ExtractAnswer(text string) string {
	pieces := answerBoundary.Split(text, -1)
	return strings.TrimSpace(pieces[len(pieces)-1])
}

// Input renders the grading input for one sample. Both answers are reduced
// with ExtractAnswer first.
func Input(question, humanAnswer, modelAnswer string) string {
	return fmt.Sprintf("Question: %s\nReference Answer: %s\nModel Answer: %s",
		question, ExtractAnswer(humanAnswer), ExtractAnswer(modelAnswer))
}

// Grader issues 0/1 grades. It is safe for concurrent use.
type Grader struct {
	gen     model.Generator
	modelID string
}

// New returns a grader calling modelID through gen. An empty modelID selects
// DefaultModel.
func New(gen model.Generator, modelID string) *Grader {
	if modelID == "" {
		modelID = DefaultModel
	}
	return &Grader{gen: gen, modelID: modelID}
}

// Model returns the grading model id.
func (g *Grader) Model() string {
	return g.modelID
}

// Grade returns 1 when modelAnswer matches humanAnswer and 0 otherwise.
func (g *Grader) Grade(ctx context.Context, question, humanAnswer, modelAnswer string) (int, error) {
	reply, err := g.gen.Generate(ctx, g.modelID, gradePrompt, Input(question, humanAnswer, modelAnswer))
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrGrade, err)
	}
	return ParseVerdict(reply)
}

// ParseVerdict parses a trimmed grader reply.
func ParseVerdict(reply string) (int, error) {
	grade, err := strconv.Atoi(strings.TrimSpace(reply))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrVerdict, reply)
	}
	if grade != 0 && grade != 1 {
		return 0, fmt.Errorf("%w: %d is outside {0, 1}", ErrVerdict, grade)
	}
	return grade, nil
}

const gradePrompt = "Given a word problem, two responses are provided.\n" +
	"The first one is the reference answer, which is correct.\n" +
	"The second one is the model's answer, which may or may not be correct.\n" +
	"Your job is to judge if the model's answer is the same as the reference answer.\n" +
	"If the model's answer is the same as the reference answer, respond with \"1\".\n" +
	"Otherwise, respond with \"0\".\n" +
	"Do not respond with any other text.\n" +
	"\n" +
	"For example, suppose you are given this:\n" +
	"\n" +
	"```\n" +
	"Question: A train leaves New York for Boston, 200 miles away, at 3:00 PM. " +
	"Another train leaves Boston for New York at the same time. " +
	"The first train travels at 60 mph, and the second train travels at 80 mph. " +
	"At what time do the two trains pass each other?\n" +
	"Reference Answer: 4:00 PM\n" +
	"Model Answer: 4:00 PM\n" +
	"```\n" +
	"\n" +
	"Your reply should be a single character:\n" +
	"1\n"
