package config

import (
	"encoding/json"
	"errors"
	"os"

	"github.com/caarlos0/env/v11"
)

// ErrMissingAPIKey is the fatal precondition for any chat request: without a
// model API key the agent loop cannot start.
var ErrMissingAPIKey = errors.New("model API key not configured")

type Config struct {
	Server  ServerConfig  `json:"server"`
	Model   ModelConfig   `json:"model"`
	Agent   AgentConfig   `json:"agent"`
	Dataset DatasetConfig `json:"dataset"`
	Email   EmailConfig   `json:"email"`
	Digest  DigestConfig  `json:"digest"`
	Log     LogConfig     `json:"log"`
}

type ServerConfig struct {
	Host string `json:"host" env:"MARGINGUARD_SERVER_HOST"`
	Port int    `json:"port" env:"MARGINGUARD_SERVER_PORT"`
	// RequestTimeoutSec bounds one whole chat request, all rounds included.
	RequestTimeoutSec int `json:"request_timeout_sec" env:"MARGINGUARD_SERVER_REQUEST_TIMEOUT_SEC"`
	// AllowedOrigins is passed to the CORS middleware for the web frontend.
	AllowedOrigins []string `json:"allowed_origins" env:"MARGINGUARD_SERVER_ALLOWED_ORIGINS"`
}

type ModelConfig struct {
	APIKey      string  `json:"api_key" env:"MARGINGUARD_MODEL_API_KEY"`
	APIBase     string  `json:"api_base" env:"MARGINGUARD_MODEL_API_BASE"`
	Name        string  `json:"name" env:"MARGINGUARD_MODEL_NAME"`
	MaxTokens   int     `json:"max_tokens" env:"MARGINGUARD_MODEL_MAX_TOKENS"`
	Temperature float64 `json:"temperature" env:"MARGINGUARD_MODEL_TEMPERATURE"`
}

type AgentConfig struct {
	// MaxRounds caps the tool-calling conversation; hitting it ends the
	// request with a truncation notice rather than an error.
	MaxRounds int `json:"max_rounds" env:"MARGINGUARD_AGENT_MAX_ROUNDS"`
}

type DatasetConfig struct {
	Dir string `json:"dir" env:"MARGINGUARD_DATASET_DIR"`
}

type EmailConfig struct {
	APIKey    string `json:"api_key" env:"MARGINGUARD_EMAIL_API_KEY"`
	APIBase   string `json:"api_base" env:"MARGINGUARD_EMAIL_API_BASE"`
	From      string `json:"from" env:"MARGINGUARD_EMAIL_FROM"`
	DefaultTo string `json:"default_to" env:"MARGINGUARD_EMAIL_DEFAULT_TO"`
}

type DigestConfig struct {
	// Cron is a standard five-field cron expression; empty disables the digest.
	Cron string `json:"cron" env:"MARGINGUARD_DIGEST_CRON"`
}

type LogConfig struct {
	Level string `json:"level" env:"MARGINGUARD_LOG_LEVEL"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			RequestTimeoutSec: 60,
			AllowedOrigins:    []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Model: ModelConfig{
			APIBase:     "https://generativelanguage.googleapis.com/v1beta/openai",
			Name:        "gemini-2.5-flash",
			MaxTokens:   8192,
			Temperature: 0.7,
		},
		Agent: AgentConfig{
			MaxRounds: 12,
		},
		Dataset: DatasetConfig{
			Dir: "./hvac_construction_dataset",
		},
		Email: EmailConfig{
			From:      "MarginGuard <reports@marginguard.local>",
			DefaultTo: "team@example.com",
		},
		Digest: DigestConfig{
			Cron: "0 7 * * *",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadConfig reads the JSON config file at path (missing file is fine, the
// defaults apply) and then overlays environment variables.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, err
			}
		} else if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ValidateForChat checks the preconditions a chat request needs before the
// agent loop starts.
func (c *Config) ValidateForChat() error {
	if c.Model.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
