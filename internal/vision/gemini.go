package vision

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// GeminiModel implements Model with the Google GenAI API. One client can
// back both the primary and fallback models with different model names.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates the shared GenAI client.
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return client, nil
}

// NewGeminiModel wraps one model name over a shared client.
func NewGeminiModel(client *genai.Client, model string) *GeminiModel {
	return &GeminiModel{client: client, model: model}
}

// Name returns the model identifier.
func (g *GeminiModel) Name() string { return g.model }

// Analyze sends the screenshot and prompt to the model and returns the
// raw text response.
func (g *GeminiModel) Analyze(ctx context.Context, prompt string, pngBytes []byte) (string, error) {
	parts := []*genai.Part{
		genai.NewPartFromBytes(pngBytes, "image/png"),
		genai.NewPartFromText(prompt),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}

	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("model %s returned an empty response", g.model)
	}
	return text, nil
}

var _ Model = (*GeminiModel)(nil)
