// Package anthropicmodel calls Claude models through the Anthropic messages API.
package anthropicmodel

import (
	"context"
	"errors"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/braintrustdata/prompteval-go/model"
)

// DefaultMaxTokens bounds a single response.
const DefaultMaxTokens = 2048

// Messages is the part of anthropic.MessageService used here.
type Messages interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Provider implements model.Caller for the Anthropic messages API.
type Provider struct {
	messages  Messages
	maxTokens int64
}

// New wraps messages.
func New(messages Messages) *Provider {
	return &Provider{messages: messages, maxTokens: DefaultMaxTokens}
}

// NewFromAPIKey creates an Anthropic client with SDK retries disabled.
// baseURL may be empty.
func NewFromAPIKey(apiKey, baseURL string, opts ...option.RequestOption) *Provider {
	opts = append([]option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}, opts...)
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(opts...)
	return New(&client.Messages)
}

// Call implements model.Caller. Overloaded (529) responses count as server errors.
func (p *Provider) Call(ctx context.Context, req *model.Request) (*model.Response, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: p.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	msg, err := p.messages.New(ctx, params)
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, model.ClassifyHTTPStatus(apiErr.StatusCode, err)
		}
		return nil, err
	}

	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			parts = append(parts, block.Text)
		}
	}
	return &model.Response{Parts: parts}, nil
}
