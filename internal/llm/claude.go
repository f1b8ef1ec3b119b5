package llm

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// ClaudeProvider calls the Anthropic Messages API.
type ClaudeProvider struct {
	Model       string
	client      anthropic.Client
	configured  bool
	temperature float32
}

// NewClaudeProvider creates a Claude provider keyed from the named
// environment variable.
func NewClaudeProvider(model, apiKeyEnv string, temperature float32) *ClaudeProvider {
	p := &ClaudeProvider{Model: model, temperature: temperature}
	if apiKey := os.Getenv(apiKeyEnv); apiKey != "" {
		p.client = anthropic.NewClient(option.WithAPIKey(apiKey))
		p.configured = true
	}
	return p
}

func (c *ClaudeProvider) Name() string { return "claude:" + c.Model }

// IsConfigured checks if the API key is set.
func (c *ClaudeProvider) IsConfigured() bool {
	return c.configured
}

// Generate sends a prompt to Claude and concatenates the text blocks.
func (c *ClaudeProvider) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if !c.configured {
		return "", errors.New("Anthropic API key not configured")
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.Model),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(float64(c.temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("Claude API error: %w", err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	if out.Len() == 0 {
		return "", errors.New("no text in Claude response")
	}
	return out.String(), nil
}
