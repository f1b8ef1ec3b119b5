// Package llm wraps the language model backends behind one small interface.
package llm

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/config"
)

// Provider is the interface for LLM providers.
type Provider interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
	IsConfigured() bool
	Name() string
}

// CreateProvider returns the configured provider, falling back through the
// remaining backends in a fixed order. It returns nil when none is usable.
func CreateProvider(ctx context.Context, cfg config.LLM, logger *zap.Logger) Provider {
	logger = logger.Named("llm")

	build := map[string]func() (Provider, error){
		"gemini": func() (Provider, error) {
			return NewGeminiProvider(ctx, cfg.Model, cfg.APIKeyEnv, cfg.Temperature)
		},
		"openai": func() (Provider, error) {
			return NewOpenAIProvider(cfg.OpenAIModel, cfg.OpenAIKey, cfg.Temperature), nil
		},
		"claude": func() (Provider, error) {
			return NewClaudeProvider(cfg.ClaudeModel, cfg.ClaudeKey, cfg.Temperature), nil
		},
		"ollama": func() (Provider, error) {
			return NewOllamaProvider(cfg.OllamaModel, cfg.OllamaURL, cfg.Temperature)
		},
	}

	order := []string{strings.ToLower(cfg.Provider)}
	for _, name := range []string{"gemini", "openai", "claude", "ollama"} {
		if name != order[0] {
			order = append(order, name)
		}
	}

	for _, name := range order {
		fn, ok := build[name]
		if !ok {
			logger.Warn("unknown LLM provider", zap.String("provider", name))
			continue
		}
		p, err := fn()
		if err != nil {
			logger.Warn("LLM provider unavailable", zap.String("provider", name), zap.Error(err))
			continue
		}
		if p.IsConfigured() {
			logger.Info("using LLM provider", zap.String("provider", p.Name()))
			return p
		}
		logger.Debug("LLM provider not configured", zap.String("provider", name))
	}

	logger.Warn("no LLM provider available; set GOOGLE_API_KEY, OPENAI_API_KEY or ANTHROPIC_API_KEY, or start Ollama")
	return nil
}
