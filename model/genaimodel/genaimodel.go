// Package genaimodel calls Gemini models through google.golang.org/genai.
package genaimodel

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/genai"

	"github.com/braintrustdata/prompteval-go/model"
)

// Models is the part of *genai.Models used here.
type Models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider implements model.Caller for the Gemini API.
type Provider struct {
	models Models
}

// New wraps models.
func New(models Models) *Provider {
	return &Provider{models: models}
}

// NewFromAPIKey creates a Gemini API client. httpClient may be nil.
func NewFromAPIKey(ctx context.Context, apiKey string, httpClient *http.Client) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     apiKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpClient,
	})
	if err != nil {
		return nil, fmt.Errorf("genai client: %w", err)
	}
	return New(client.Models), nil
}

// Call implements model.Caller. The system prompt is sent as the system
// instruction and the input as a single user turn.
func (p *Provider) Call(ctx context.Context, req *model.Request) (*model.Response, error) {
	var cfg *genai.GenerateContentConfig
	if req.SystemPrompt != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.SystemPrompt, genai.RoleUser),
		}
	}

	resp, err := p.models.GenerateContent(ctx, req.Model, genai.Text(req.Input), cfg)
	if err != nil {
		return nil, classify(err)
	}
	return &model.Response{Parts: textParts(resp)}, nil
}

func textParts(resp *genai.GenerateContentResponse) []string {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil
	}
	content := resp.Candidates[0].Content
	if content == nil {
		return nil
	}
	var parts []string
	for _, part := range content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		parts = append(parts, part.Text)
	}
	return parts
}

// classify maps Gemini API errors onto the model error taxonomy.
func classify(err error) error {
	var code int
	var status string

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code, status = apiErr.Code, apiErr.Status
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code, status = apiErrPtr.Code, apiErrPtr.Status
	default:
		return err
	}

	switch status {
	case "RESOURCE_EXHAUSTED":
		return fmt.Errorf("%w: %w", model.ErrResourceExhausted, err)
	case "INTERNAL", "UNAVAILABLE", "DEADLINE_EXCEEDED":
		return fmt.Errorf("%w: %w", model.ErrServerError, err)
	}
	return model.ClassifyHTTPStatus(code, err)
}
