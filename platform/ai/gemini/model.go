// Package gemini adapts the Gemini API to the ADK model.LLM interface.
package gemini

import (
	"context"
	"fmt"
	"iter"

	"google.golang.org/adk/model"
	"google.golang.org/genai"
)

// Config for the Gemini model adapter.
type Config struct {
	APIKey string
	Model  string
}

// Model adapts the genai SDK to the ADK model.LLM interface. ADK requests
// already carry genai content and config types, so the adapter passes them
// through without translation.
type Model struct {
	config Config
	client *genai.Client
}

func NewModel(ctx context.Context, cfg Config) (*Model, error) {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &Model{config: cfg, client: client}, nil
}

func (m *Model) Name() string {
	return m.config.Model
}

// Client exposes the underlying genai client for callers that need raw
// generation outside the agent loop, such as audio transcription.
func (m *Model) Client() *genai.Client {
	return m.client
}

// GenerateContent satisfies model.LLM. Streaming is not used by our
// agents; the full response is yielded once.
func (m *Model) GenerateContent(ctx context.Context, req *model.LLMRequest, stream bool) iter.Seq2[*model.LLMResponse, error] {
	return func(yield func(*model.LLMResponse, error) bool) {
		resp, err := m.generate(ctx, req)
		yield(resp, err)
	}
}

func (m *Model) generate(ctx context.Context, req *model.LLMRequest) (*model.LLMResponse, error) {
	var config *genai.GenerateContentConfig
	if req != nil {
		config = req.Config
	}
	var contents []*genai.Content
	if req != nil {
		contents = req.Contents
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.config.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini generate failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	return &model.LLMResponse{
		Content: resp.Candidates[0].Content,
	}, nil
}
