package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// OllamaProvider is a local Ollama LLM provider.
type OllamaProvider struct {
	Model       string
	client      *api.Client
	temperature float32
}

// NewOllamaProvider creates a new Ollama provider.
func NewOllamaProvider(model, baseURL string, temperature float32) (*OllamaProvider, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}
	return &OllamaProvider{
		Model:       model,
		client:      api.NewClient(u, &http.Client{Timeout: 120 * time.Second}),
		temperature: temperature,
	}, nil
}

func (o *OllamaProvider) Name() string { return "ollama:" + o.Model }

// IsConfigured checks if Ollama is running and the model is pulled.
func (o *OllamaProvider) IsConfigured() bool {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := o.client.List(ctx)
	if err != nil {
		return false
	}
	modelBase := strings.SplitN(o.Model, ":", 2)[0]
	for _, m := range resp.Models {
		if strings.Contains(m.Name, modelBase) {
			return true
		}
	}
	return false
}

// Generate sends a prompt to Ollama and returns the response.
func (o *OllamaProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	req := &api.GenerateRequest{
		Model:  o.Model,
		Prompt: prompt,
		Stream: new(bool),
		Format: json.RawMessage(`"json"`),
		Options: map[string]any{
			"num_predict": maxTokens,
			"temperature": o.temperature,
		},
	}

	var out strings.Builder
	err := o.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama API error: %w", err)
	}
	return out.String(), nil
}
