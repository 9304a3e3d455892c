package grader

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	reply string
	err   error

	gotModel, gotSystem, gotInput string
}

func (s *stubGenerator) Generate(_ context.Context, modelID, systemPrompt, input string) (string, error) {
	s.gotModel, s.gotSystem, s.gotInput = modelID, systemPrompt, input
	return s.reply, s.err
}

func TestExtractAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name, in, want string
	}{
		{"single marker", "Natalia sold 48/2 = 24 clips in May.\n#### 72", "72"},
		{"last marker wins", "#### 1\nmore work\n#### 2 ", "2"},
		{"no marker", "  just text \n", "just text"},
		{"marker mid line ignored", "total #### 5", "total #### 5"},
		{"marker needs whitespace", "####5", "####5"},
		{"multi line tail", "work\n#### 3 apples\nand pears\n", "3 apples\nand pears"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ExtractAnswer(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, ExtractAnswer(got), "extraction is idempotent")
		})
	}
}

func TestInput(t *testing.T) {
	t.Parallel()
	got := Input("How many?", "reasoning\n#### 72", "I think\n#### 72\n")
	assert.Equal(t, "Question: How many?\nReference Answer: 72\nModel Answer: 72", got)
}

func TestGrade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		reply   string
		want    int
		wantErr error
	}{
		{"one", "1", 1, nil},
		{"zero with whitespace", " 0\n", 0, nil},
		{"non numeric", "yes", 0, ErrVerdict},
		{"out of range", "2", 0, ErrVerdict},
		{"negative", "-1", 0, ErrVerdict},
		{"explanation", "1 because the answers match", 0, ErrVerdict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			gen := &stubGenerator{reply: tt.reply}
			got, err := New(gen, "").Grade(context.Background(), "q", "#### 4", "#### 4")
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGrade_UsesGradingModelAndPrompt(t *testing.T) {
	t.Parallel()

	gen := &stubGenerator{reply: "1"}
	g := New(gen, "grader-model")
	assert.Equal(t, "grader-model", g.Model())

	_, err := g.Grade(context.Background(), "What is 2+2?", "2+2=4\n#### 4", "#### 4")
	require.NoError(t, err)
	assert.Equal(t, "grader-model", gen.gotModel)
	assert.Equal(t, gradePrompt, gen.gotSystem)
	assert.Equal(t, "Question: What is 2+2?\nReference Answer: 4\nModel Answer: 4", gen.gotInput)

	assert.Equal(t, DefaultModel, New(gen, "").Model())
}

func TestGrade_GenerationFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("quota")
	_, err := New(&stubGenerator{err: boom}, "").Grade(context.Background(), "q", "a", "b")
	assert.ErrorIs(t, err, ErrGrade)
	assert.ErrorIs(t, err, boom)
}
