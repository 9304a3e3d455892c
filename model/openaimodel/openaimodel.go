// Package openaimodel calls OpenAI chat completion models.
package openaimodel

import (
	"context"
	"errors"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/braintrustdata/prompteval-go/model"
)

// Completions is the part of openai.ChatCompletionService used here.
type Completions interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// Provider implements model.Caller for OpenAI chat completions.
type Provider struct {
	completions Completions
}

// New wraps completions.
func New(completions Completions) *Provider {
	return &Provider{completions: completions}
}

// NewFromAPIKey creates an OpenAI client. SDK retries are disabled since the
// model client owns retry policy. baseURL may be empty.
func NewFromAPIKey(apiKey, baseURL string, opts ...option.RequestOption) *Provider {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return New(&client.Chat.Completions)
}

// Call implements model.Caller.
func (p *Provider) Call(ctx context.Context, req *model.Request) (*model.Response, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.SystemPrompt != "" {
		messages = append(messages, openai.SystemMessage(req.SystemPrompt))
	}
	messages = append(messages, openai.UserMessage(req.Input))

	completion, err := p.completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: messages,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, model.ClassifyHTTPStatus(apiErr.StatusCode, err)
		}
		return nil, err
	}

	// n defaults to 1, so only the first choice is read.
	var parts []string
	if len(completion.Choices) > 0 && completion.Choices[0].Message.Content != "" {
		parts = append(parts, completion.Choices[0].Message.Content)
	}
	return &model.Response{Parts: parts}, nil
}
