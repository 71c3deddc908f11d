package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all TutorBot configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM configuration
	LLM LLMConfig `yaml:"llm"`

	// Prompt template configuration
	Templates TemplatesConfig `yaml:"templates"`

	// Session settings
	Session SessionConfig `yaml:"session"`

	// Store settings
	Store StoreConfig `yaml:"store"`

	// Embedding engine for semantic subject matching
	Embedding EmbeddingConfig `yaml:"embedding"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the LLM client.
type LLMConfig struct {
	Provider string `yaml:"provider"` // anthropic, openai, gemini
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	Timeout  string `yaml:"timeout"`
}

// TemplatesConfig configures the prompt template store.
type TemplatesConfig struct {
	// Directory holding .txt/.yaml template files. Empty means built-ins only.
	Directory string `yaml:"directory"`

	// WatchReload enables fsnotify hot reload of the template directory.
	WatchReload bool `yaml:"watch_reload"`
}

// SessionConfig configures tutoring session behavior.
type SessionConfig struct {
	// DefaultGradeLevel used when the CLI does not specify one.
	DefaultGradeLevel string `yaml:"default_grade_level"`

	// MaxExchanges before the escalation handler suggests a human teacher.
	MaxExchanges int `yaml:"max_exchanges"`

	// HistoryWindow is how many recent turns are sent as context to the model.
	HistoryWindow int `yaml:"history_window"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// EmbeddingConfig configures the embedding engine.
type EmbeddingConfig struct {
	Provider string `yaml:"provider"` // "genai" or "" (disabled)
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode"`
	Level      string          `yaml:"level" json:"level"`
	Categories map[string]bool `yaml:"categories" json:"categories"`
	JSONFormat bool            `yaml:"json_format" json:"json_format"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "tutorbot",
		Version: "0.1.0",
		LLM: LLMConfig{
			Provider: "anthropic",
			Timeout:  "120s",
		},
		Templates: TemplatesConfig{
			Directory:   "",
			WatchReload: false,
		},
		Session: SessionConfig{
			DefaultGradeLevel: "middle",
			MaxExchanges:      5,
			HistoryWindow:     6,
		},
		Store: StoreConfig{
			DatabasePath: filepath.Join(".tutorbot", "tutorbot.db"),
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, applying defaults for
// unset fields.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Session.MaxExchanges <= 0 {
		return fmt.Errorf("session.max_exchanges must be positive, got %d", c.Session.MaxExchanges)
	}
	if c.Session.HistoryWindow < 0 {
		return fmt.Errorf("session.history_window must not be negative, got %d", c.Session.HistoryWindow)
	}
	if c.LLM.Timeout != "" {
		if _, err := time.ParseDuration(c.LLM.Timeout); err != nil {
			return fmt.Errorf("llm.timeout is not a valid duration: %w", err)
		}
	}
	switch c.Session.DefaultGradeLevel {
	case "", "elementary", "middle", "high", "college":
	default:
		return fmt.Errorf("session.default_grade_level must be one of elementary|middle|high|college, got %q", c.Session.DefaultGradeLevel)
	}
	return nil
}

// EmbeddingSettings merges the YAML embedding section with the user
// config fallbacks. An embedding key in the user config enables the
// genai provider when the YAML section leaves it unset.
func (c *Config) EmbeddingSettings(user *UserConfig) (provider, apiKey, model string) {
	provider = c.Embedding.Provider
	apiKey = c.Embedding.APIKey
	model = c.Embedding.Model

	if user != nil {
		if apiKey == "" {
			apiKey = user.EmbeddingAPIKey
		}
		if model == "" {
			model = user.EmbeddingModel
		}
		if provider == "" && apiKey != "" {
			provider = "genai"
		}
	}
	return provider, apiKey, model
}

// LLMTimeout returns the parsed LLM timeout, or the default when unset.
func (c *Config) LLMTimeout() time.Duration {
	if c.LLM.Timeout == "" {
		return 120 * time.Second
	}
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 120 * time.Second
	}
	return d
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}

	return nil
}
