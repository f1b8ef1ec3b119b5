package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"google.golang.org/genai"
)

// GeminiProvider calls Google Gemini through the genai SDK.
type GeminiProvider struct {
	Model       string
	client      *genai.Client
	temperature float32
}

// NewGeminiProvider creates a Gemini provider. The API key is read from the
// named environment variable; without one the provider reports itself as
// not configured.
func NewGeminiProvider(ctx context.Context, model, apiKeyEnv string, temperature float32) (*GeminiProvider, error) {
	p := &GeminiProvider{Model: model, temperature: temperature}
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return p, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	p.client = client
	return p, nil
}

func (g *GeminiProvider) Name() string { return "gemini:" + g.Model }

// IsConfigured checks if a client was created.
func (g *GeminiProvider) IsConfigured() bool {
	return g.client != nil
}

// Generate sends a prompt to Gemini and returns the text of the first
// candidate that has any.
func (g *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if g.client == nil {
		return "", errors.New("Gemini API key not configured")
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(g.temperature),
		MaxOutputTokens:  int32(maxTokens),
		ResponseMIMEType: "application/json",
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.Model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	var out strings.Builder
	if resp != nil {
		for _, candidate := range resp.Candidates {
			if candidate.Content == nil {
				continue
			}
			for _, part := range candidate.Content.Parts {
				out.WriteString(part.Text)
			}
			if out.Len() > 0 {
				break
			}
		}
	}
	if out.Len() == 0 {
		return "", errors.New("no text in Gemini response")
	}
	return out.String(), nil
}
