package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultConfig(t *testing.T) {
	cfg, err := parse(DefaultConfigYAML)
	require.NoError(t, err)

	assert.Equal(t, "GHA", cfg.Sources.DefaultRegion)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Analysis.Timeout)
	assert.Equal(t, 50, cfg.Analysis.MaxPendingPerUser)
	assert.Equal(t, 5, cfg.Reports.MaxGeneratingPerUser)
	assert.Len(t, cfg.Sources.Bulletins, 2)
}

func TestParseMinimalConfig(t *testing.T) {
	data := []byte(`
llm:
  provider: openai
server:
  port: 9000
analysis:
  timeout: 10s
`)
	cfg, err := parse(data)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Analysis.Timeout)
	// Unspecified fields keep their defaults
	assert.Equal(t, "http://localhost:11434", cfg.LLM.OllamaURL)
	assert.Equal(t, 50, cfg.Analysis.MaxPendingPerUser)
	assert.Equal(t, "https://api.worldbank.org/v2", cfg.Sources.WorldBank.BaseURL)
}

func TestParseInvalidYAML(t *testing.T) {
	_, err := parse([]byte("server: [unclosed"))
	assert.Error(t, err)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://www.who.int/rss-feeds/news-english.xml", cfg.BulletinURL("WHO"))
	assert.Empty(t, cfg.BulletinURL("WORLDBANK"))
}

func TestLoadAppliesEnvironmentOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, DefaultConfigYAML, 0o644))

	t.Setenv("WELFARELENS_PORT", "9100")
	t.Setenv("WELFARELENS_LLM_PROVIDER", "ollama")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "ollama", cfg.LLM.Provider)
}

func TestResolveConfigPathExplicitMissing(t *testing.T) {
	_, err := ResolveConfigPath(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestGetDataDir(t *testing.T) {
	cfg := &Config{}
	assert.NotEmpty(t, cfg.GetDataDir())

	cfg.Output.DataDir = "/custom/path"
	assert.Equal(t, "/custom/path", cfg.GetDataDir())
	assert.Equal(t, filepath.Join("/custom/path", "welfarelens.db"), cfg.DBPath())
}

func TestJWTSecretFromEnv(t *testing.T) {
	cfg, err := parse(nil)
	require.NoError(t, err)

	t.Setenv("WELFARELENS_JWT_SECRET", "s3cret")
	assert.Equal(t, []byte("s3cret"), cfg.JWTSecret())
}
