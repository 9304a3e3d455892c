// Package langchainmodel adapts any langchaingo llms.Model, such as a local
// Ollama server, to model.Caller.
package langchainmodel

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/braintrustdata/prompteval-go/model"
)

// Provider implements model.Caller on top of an llms.Model.
type Provider struct {
	llm llms.Model
}

// New wraps llm.
func New(llm llms.Model) *Provider {
	return &Provider{llm: llm}
}

// NewOllama connects to an Ollama server. serverURL may be empty for the
// default local address.
func NewOllama(modelID, serverURL string) (*Provider, error) {
	opts := []ollama.Option{ollama.WithModel(modelID)}
	if serverURL != "" {
		opts = append(opts, ollama.WithServerURL(serverURL))
	}
	llm, err := ollama.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("ollama: %w", err)
	}
	return New(llm), nil
}

// Call implements model.Caller. langchaingo does not expose provider status
// codes uniformly, so errors are returned unclassified.
func (p *Provider) Call(ctx context.Context, req *model.Request) (*model.Response, error) {
	var messages []llms.MessageContent
	if req.SystemPrompt != "" {
		messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, req.SystemPrompt))
	}
	messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, req.Input))

	resp, err := p.llm.GenerateContent(ctx, messages, llms.WithModel(req.Model))
	if err != nil {
		return nil, err
	}

	var parts []string
	if resp != nil && len(resp.Choices) > 0 && resp.Choices[0] != nil && resp.Choices[0].Content != "" {
		parts = append(parts, resp.Choices[0].Content)
	}
	return &model.Response{Parts: parts}, nil
}
