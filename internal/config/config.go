package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Sources  Sources  `yaml:"sources"`
	Analysis Analysis `yaml:"analysis"`
	Reports  Reports  `yaml:"reports"`
	LLM      LLM      `yaml:"llm"`
	Auth     Auth     `yaml:"auth"`
	Output   Output   `yaml:"output"`
	Server   Server   `yaml:"server"`
	Logging  Logging  `yaml:"logging"`
}

type Sources struct {
	DefaultRegion   string          `yaml:"default_region" env:"WELFARELENS_REGION"`
	RefreshSchedule string          `yaml:"refresh_schedule" env:"WELFARELENS_REFRESH_SCHEDULE"`
	WorldBank       WorldBankConfig `yaml:"worldbank"`
	Bulletins       []Bulletin      `yaml:"bulletins"`
}

type WorldBankConfig struct {
	BaseURL   string        `yaml:"base_url" env:"WELFARELENS_WORLDBANK_URL"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"`
}

// Bulletin is a release feed published by a data provider.
type Bulletin struct {
	Source string `yaml:"source"`
	URL    string `yaml:"url"`
}

type Analysis struct {
	Timeout           time.Duration `yaml:"timeout"`
	MaxPendingPerUser int           `yaml:"max_pending_per_user"`
}

type Reports struct {
	PolicyTimeout        time.Duration `yaml:"policy_timeout"`
	MaxGeneratingPerUser int           `yaml:"max_generating_per_user"`
}

type LLM struct {
	Provider    string  `yaml:"provider" env:"WELFARELENS_LLM_PROVIDER"`
	Model       string  `yaml:"model" env:"WELFARELENS_LLM_MODEL"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	OpenAIModel string  `yaml:"openai_model"`
	OpenAIKey   string  `yaml:"openai_api_key_env"`
	ClaudeModel string  `yaml:"claude_model"`
	ClaudeKey   string  `yaml:"claude_api_key_env"`
	OllamaURL   string  `yaml:"ollama_url" env:"OLLAMA_HOST"`
	OllamaModel string  `yaml:"ollama_model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float32 `yaml:"temperature"`
}

type Auth struct {
	SecretEnv string        `yaml:"secret_env"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type Output struct {
	DataDir string `yaml:"data_dir" env:"WELFARELENS_DATA_DIR"`
}

type Server struct {
	BindAddr string `yaml:"bind_addr" env:"WELFARELENS_BIND_ADDR"`
	Port     int    `yaml:"port" env:"WELFARELENS_PORT"`
}

type Logging struct {
	Level  string `yaml:"level" env:"WELFARELENS_LOG_LEVEL"`
	Format string `yaml:"format" env:"WELFARELENS_LOG_FORMAT"`
}

// ConfigDir returns the XDG config directory for welfarelens.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "welfarelens")
}

// DataDir returns the XDG data directory for welfarelens.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "welfarelens")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/welfarelens/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'welfarelens init' to create a default config",
		xdgConfig,
	)
}

// Load reads a config YAML file and applies environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := parse(data)
	if err != nil {
		return nil, err
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment overrides: %w", err)
	}
	return cfg, nil
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := &Config{
		Sources: Sources{
			DefaultRegion: "GHA",
			WorldBank: WorldBankConfig{
				BaseURL:   "https://api.worldbank.org/v2",
				Timeout:   30 * time.Second,
				RateLimit: 5,
			},
		},
		Analysis: Analysis{
			Timeout:           30 * time.Second,
			MaxPendingPerUser: 50,
		},
		Reports: Reports{
			PolicyTimeout:        30 * time.Second,
			MaxGeneratingPerUser: 5,
		},
		LLM: LLM{
			Provider:    "gemini",
			Model:       "gemini-2.0-flash",
			APIKeyEnv:   "GOOGLE_API_KEY",
			OpenAIModel: "gpt-4o-mini",
			OpenAIKey:   "OPENAI_API_KEY",
			ClaudeModel: "claude-3-5-haiku-latest",
			ClaudeKey:   "ANTHROPIC_API_KEY",
			OllamaURL:   "http://localhost:11434",
			OllamaModel: "qwen2.5:7b",
			MaxTokens:   2048,
			Temperature: 0.3,
		},
		Auth: Auth{
			SecretEnv: "WELFARELENS_JWT_SECRET",
			TokenTTL:  24 * time.Hour,
		},
		Server:  Server{BindAddr: "127.0.0.1", Port: 8000},
		Logging: Logging{Level: "info", Format: "console"},
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// GetDataDir returns the effective data directory from config or XDG default.
func (c *Config) GetDataDir() string {
	if c.Output.DataDir != "" {
		return c.Output.DataDir
	}
	return DataDir()
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.GetDataDir(), "welfarelens.db")
}

// BulletinURL returns the release feed configured for a source type, if any.
func (c *Config) BulletinURL(sourceType string) string {
	for _, b := range c.Sources.Bulletins {
		if b.Source == sourceType {
			return b.URL
		}
	}
	return ""
}

// JWTSecret reads the token signing secret from the configured environment variable.
func (c *Config) JWTSecret() []byte {
	return []byte(os.Getenv(c.Auth.SecretEnv))
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
