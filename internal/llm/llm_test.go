package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TobiSchelling/welfarelens/internal/config"
)

func TestDecodeJSONPlain(t *testing.T) {
	var result map[string]any
	require.NoError(t, DecodeJSON(`{"key": "value", "num": 42}`, &result))
	assert.Equal(t, "value", result["key"])
	assert.Equal(t, float64(42), result["num"])
}

func TestDecodeJSONWithCodeFence(t *testing.T) {
	var result map[string]any
	require.NoError(t, DecodeJSON("```json\n{\"key\": \"value\"}\n```", &result))
	assert.Equal(t, "value", result["key"])
}

func TestDecodeJSONWithPlainFence(t *testing.T) {
	var result map[string]any
	require.NoError(t, DecodeJSON("```\n{\"key\": \"value\"}\n```", &result))
	assert.Equal(t, "value", result["key"])
}

func TestDecodeJSONWithSurroundingProse(t *testing.T) {
	var result struct {
		Key string `json:"key"`
	}
	require.NoError(t, DecodeJSON("Here is the analysis:\n{\"key\": \"value\"}\nLet me know.", &result))
	assert.Equal(t, "value", result.Key)
}

func TestDecodeJSONInvalid(t *testing.T) {
	var result map[string]any
	assert.Error(t, DecodeJSON("not json at all", &result))
}

func TestDecodeJSONEmpty(t *testing.T) {
	var result map[string]any
	assert.ErrorIs(t, DecodeJSON("  \n ", &result), ErrEmptyResponse)
}

func TestKeyedProvidersWithoutKeys(t *testing.T) {
	t.Setenv("WL_TEST_MISSING_KEY", "")

	g, err := NewGeminiProvider(context.Background(), "gemini-2.0-flash", "WL_TEST_MISSING_KEY", 0.3)
	require.NoError(t, err)
	assert.False(t, g.IsConfigured())
	_, err = g.Generate(context.Background(), "hi", 10)
	assert.Error(t, err)

	o := NewOpenAIProvider("gpt-4o-mini", "WL_TEST_MISSING_KEY", 0.3)
	assert.False(t, o.IsConfigured())
	_, err = o.Generate(context.Background(), "hi", 10)
	assert.Error(t, err)

	c := NewClaudeProvider("claude-3-5-haiku-latest", "WL_TEST_MISSING_KEY", 0.3)
	assert.False(t, c.IsConfigured())
	_, err = c.Generate(context.Background(), "hi", 10)
	assert.Error(t, err)
}

func TestKeyedProvidersWithKeys(t *testing.T) {
	t.Setenv("WL_TEST_KEY", "sk-test")

	assert.True(t, NewOpenAIProvider("gpt-4o-mini", "WL_TEST_KEY", 0.3).IsConfigured())
	assert.True(t, NewClaudeProvider("claude-3-5-haiku-latest", "WL_TEST_KEY", 0.3).IsConfigured())
	assert.Equal(t, "openai:gpt-4o-mini", NewOpenAIProvider("gpt-4o-mini", "WL_TEST_KEY", 0.3).Name())
}

func TestCreateProviderPrefersConfigured(t *testing.T) {
	t.Setenv("WL_TEST_GEMINI", "")
	t.Setenv("WL_TEST_OPENAI", "sk-test")
	t.Setenv("WL_TEST_CLAUDE", "sk-ant")

	cfg := config.LLM{
		Provider:    "claude",
		Model:       "gemini-2.0-flash",
		APIKeyEnv:   "WL_TEST_GEMINI",
		OpenAIModel: "gpt-4o-mini",
		OpenAIKey:   "WL_TEST_OPENAI",
		ClaudeModel: "claude-3-5-haiku-latest",
		ClaudeKey:   "WL_TEST_CLAUDE",
		OllamaURL:   "http://127.0.0.1:1",
		OllamaModel: "qwen2.5:7b",
	}
	p := CreateProvider(context.Background(), cfg, zap.NewNop())
	require.NotNil(t, p)
	assert.Equal(t, "claude:claude-3-5-haiku-latest", p.Name())

	cfg.Provider = "gemini"
	p = CreateProvider(context.Background(), cfg, zap.NewNop())
	require.NotNil(t, p)
	assert.Equal(t, "openai:gpt-4o-mini", p.Name())
}
