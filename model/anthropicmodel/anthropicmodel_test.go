package anthropicmodel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/braintrustdata/prompteval-go/model"
)

type fakeMessages struct {
	got  anthropic.MessageNewParams
	resp *anthropic.Message
	err  error
}

func (f *fakeMessages) New(_ context.Context, body anthropic.MessageNewParams, _ ...option.RequestOption) (*anthropic.Message, error) {
	f.got = body
	return f.resp, f.err
}

func TestProvider_Call(t *testing.T) {
	t.Parallel()

	fake := &fakeMessages{resp: &anthropic.Message{
		Content: []anthropic.ContentBlockUnion{
			{Type: "thinking"},
			{Type: "text", Text: "Step one.\n"},
			{Type: "text", Text: "#### 12"},
		},
	}}

	resp, err := New(fake).Call(context.Background(), &model.Request{
		Model:        "claude-3-5-haiku-latest",
		SystemPrompt: "Solve it.",
		Input:        "6+6",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Step one.\n", "#### 12"}, resp.Parts)
	assert.Equal(t, anthropic.Model("claude-3-5-haiku-latest"), fake.got.Model)
	assert.EqualValues(t, DefaultMaxTokens, fake.got.MaxTokens)
	require.Len(t, fake.got.System, 1)
	assert.Equal(t, "Solve it.", fake.got.System[0].Text)
	assert.Len(t, fake.got.Messages, 1)
}

func TestProvider_Overloaded(t *testing.T) {
	t.Parallel()

	for status, kind := range map[int]string{
		529:                            "server_error",
		http.StatusTooManyRequests:     "resource_exhausted",
		http.StatusInternalServerError: "server_error",
		http.StatusNotFound:            "other",
	} {
		fake := &fakeMessages{err: &anthropic.Error{
			StatusCode: status,
			Request:    httptest.NewRequest(http.MethodPost, "https://api.anthropic.com/v1/messages", nil),
			Response:   &http.Response{StatusCode: status},
		}}
		_, err := New(fake).Call(context.Background(), &model.Request{Model: "m"})
		require.Error(t, err)
		assert.Equal(t, kind, model.Kind(err), "status %d", status)
	}
}
