package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// UserConfig holds per-user TutorBot configuration from .tutorbot/config.json.
// API keys and model overrides live here rather than in the YAML config so
// that the YAML file can be committed without leaking secrets.
type UserConfig struct {
	// Provider selection (anthropic, openai, gemini)
	Provider string `json:"provider,omitempty"`

	// API keys for each provider
	AnthropicAPIKey string `json:"anthropic_api_key,omitempty"`
	OpenAIAPIKey    string `json:"openai_api_key,omitempty"`
	GeminiAPIKey    string `json:"gemini_api_key,omitempty"`

	// Optional model override
	Model string `json:"model,omitempty"`

	// Embedding engine settings for semantic subject matching
	EmbeddingAPIKey string `json:"embedding_api_key,omitempty"`
	EmbeddingModel  string `json:"embedding_model,omitempty"`

	// Logging configuration
	Logging *LoggingConfig `json:"logging,omitempty"`
}

// DefaultUserConfigPath returns the default path to .tutorbot/config.json.
func DefaultUserConfigPath() string {
	return filepath.Join(".tutorbot", "config.json")
}

// LoadUserConfig loads the user config from a JSON file.
// A missing file yields an empty config, not an error.
func LoadUserConfig(path string) (*UserConfig, error) {
	if path == "" {
		path = DefaultUserConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("failed to read user config %s: %w", path, err)
	}

	var cfg UserConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config %s: %w", path, err)
	}

	return &cfg, nil
}

// GetActiveProvider returns the provider and API key to use.
// Priority: explicit provider setting > first available key.
func (c *UserConfig) GetActiveProvider() (provider string, apiKey string) {
	if c.Provider != "" {
		switch c.Provider {
		case "anthropic":
			if c.AnthropicAPIKey != "" {
				return "anthropic", c.AnthropicAPIKey
			}
		case "openai":
			if c.OpenAIAPIKey != "" {
				return "openai", c.OpenAIAPIKey
			}
		case "gemini":
			if c.GeminiAPIKey != "" {
				return "gemini", c.GeminiAPIKey
			}
		}
	}

	// Check for provider-specific keys in priority order
	if c.AnthropicAPIKey != "" {
		return "anthropic", c.AnthropicAPIKey
	}
	if c.OpenAIAPIKey != "" {
		return "openai", c.OpenAIAPIKey
	}
	if c.GeminiAPIKey != "" {
		return "gemini", c.GeminiAPIKey
	}

	return "", ""
}

// Save writes the user config to a JSON file with restrictive permissions.
func (c *UserConfig) Save(path string) error {
	if path == "" {
		path = DefaultUserConfigPath()
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file holds API keys
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write user config %s: %w", path, err)
	}

	return nil
}
