package perception

import (
	"fmt"
	"os"
	"time"

	"tutorbot/internal/config"
)

// ProviderConfig holds the resolved provider and API key.
type ProviderConfig struct {
	Provider Provider
	APIKey   string
	Model    string        // Optional model override
	BaseURL  string        // Optional endpoint override
	Timeout  time.Duration // Optional request timeout override
}

// DefaultConfigPath returns the default path to .tutorbot/config.json.
func DefaultConfigPath() string {
	return config.DefaultUserConfigPath()
}

// LoadConfigJSON loads provider configuration from a JSON config file.
func LoadConfigJSON(path string) (*ProviderConfig, error) {
	userCfg, err := config.LoadUserConfig(path)
	if err != nil {
		return nil, err
	}

	providerStr, apiKey := userCfg.GetActiveProvider()
	if apiKey == "" {
		return nil, fmt.Errorf("no API key found in config")
	}

	return &ProviderConfig{
		Provider: Provider(providerStr),
		APIKey:   apiKey,
		Model:    userCfg.Model,
	}, nil
}

// DetectProvider checks .tutorbot/config.json first, then environment variables.
// Priority: config.json > env vars (ANTHROPIC > OPENAI > GEMINI)
func DetectProvider() (*ProviderConfig, error) {
	configPath := DefaultConfigPath()
	if cfg, err := LoadConfigJSON(configPath); err == nil && cfg.APIKey != "" {
		return cfg, nil
	}

	// Fall back to environment variables
	providers := []struct {
		envVar   string
		provider Provider
	}{
		{"ANTHROPIC_API_KEY", ProviderAnthropic},
		{"OPENAI_API_KEY", ProviderOpenAI},
		{"GEMINI_API_KEY", ProviderGemini},
	}

	for _, p := range providers {
		if key := os.Getenv(p.envVar); key != "" {
			return &ProviderConfig{
				Provider: p.provider,
				APIKey:   key,
			}, nil
		}
	}

	return nil, fmt.Errorf("no API key found; configure .tutorbot/config.json or set one of: ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY")
}

// NewClientFromEnv creates an LLM client based on config file or environment variables.
func NewClientFromEnv() (LLMClient, error) {
	cfg, err := DetectProvider()
	if err != nil {
		return nil, err
	}
	return NewClientFromConfig(cfg)
}

// NewClientFromConfig creates an LLM client from a provider config.
// Unset Model/BaseURL/Timeout fields keep the provider defaults.
func NewClientFromConfig(cfg *ProviderConfig) (LLMClient, error) {
	switch cfg.Provider {
	case ProviderAnthropic:
		providerCfg := DefaultAnthropicConfig(cfg.APIKey)
		if cfg.Model != "" {
			providerCfg.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			providerCfg.BaseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			providerCfg.Timeout = cfg.Timeout
		}
		return NewAnthropicClientWithConfig(providerCfg), nil

	case ProviderOpenAI:
		providerCfg := DefaultOpenAIConfig(cfg.APIKey)
		if cfg.Model != "" {
			providerCfg.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			providerCfg.BaseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			providerCfg.Timeout = cfg.Timeout
		}
		return NewOpenAIClientWithConfig(providerCfg), nil

	case ProviderGemini:
		providerCfg := DefaultGeminiConfig(cfg.APIKey)
		if cfg.Model != "" {
			providerCfg.Model = cfg.Model
		}
		if cfg.BaseURL != "" {
			providerCfg.BaseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			providerCfg.Timeout = cfg.Timeout
		}
		return NewGeminiClientWithConfig(providerCfg), nil

	default:
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}
