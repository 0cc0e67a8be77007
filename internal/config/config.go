package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// Config represents the main quill configuration. It is built once at
// startup and handed to the components that need it; nothing mutates it
// afterwards.
type Config struct {
	// Auth holds the bearer secret shared with the calling agent
	Auth AuthConfig `json:"auth" mapstructure:"auth"`

	// Identity is returned by the reserved validate tool
	Identity IdentityConfig `json:"identity" mapstructure:"identity"`

	// Server
	Server ServerConfig `json:"server" mapstructure:"server"`

	// Provider selects and configures the completion backend
	Provider ProviderConfig `json:"provider" mapstructure:"provider"`

	// Queue bounds concurrent provider calls
	Queue QueueConfig `json:"queue" mapstructure:"queue"`

	// Logging
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// AuthConfig holds the static bearer token.
type AuthConfig struct {
	Token string `json:"token" mapstructure:"token"`
}

// IdentityConfig holds the operator identity string (a phone number).
type IdentityConfig struct {
	Number string `json:"number" mapstructure:"number"`
}

// ServerConfig holds transport settings
type ServerConfig struct {
	Host            string        `json:"host" mapstructure:"host"`
	Port            int           `json:"port" mapstructure:"port"`
	ReadTimeout     time.Duration `json:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `json:"write_timeout" mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `json:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	// WSRequestsPerMinute limits JSON-RPC messages per WebSocket connection
	WSRequestsPerMinute int `json:"ws_requests_per_minute" mapstructure:"ws_requests_per_minute"`
	// WSMaxConcurrent limits in-flight calls per WebSocket connection
	WSMaxConcurrent int `json:"ws_max_concurrent" mapstructure:"ws_max_concurrent"`
}

// ProviderConfig configures the single active completion provider
type ProviderConfig struct {
	Name        string        `json:"name" mapstructure:"name"` // gemini, anthropic, openai, ollama
	APIKey      string        `json:"api_key" mapstructure:"api_key"`
	Model       string        `json:"model" mapstructure:"model"`
	BaseURL     string        `json:"base_url" mapstructure:"base_url"`
	MaxTokens   int           `json:"max_tokens" mapstructure:"max_tokens"`
	Temperature float64       `json:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `json:"timeout" mapstructure:"timeout"`
}

// QueueConfig holds worker queue settings
type QueueConfig struct {
	Concurrency int `json:"concurrency" mapstructure:"concurrency"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level     string `json:"level" mapstructure:"level"`
	Pretty    bool   `json:"pretty" mapstructure:"pretty"`
	Redaction bool   `json:"redaction" mapstructure:"redaction"`
}

// Address returns host:port for the HTTP listener.
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DefaultModels maps provider names to the model used when none is configured.
var DefaultModels = map[string]string{
	"gemini":    "gemini-1.5-flash",
	"anthropic": "claude-sonnet-4-20250514",
	"openai":    "gpt-4o-mini",
	"ollama":    "llama3.1",
}

// DefaultConfig returns a config with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:                "0.0.0.0",
			Port:                8088,
			ReadTimeout:         30 * time.Second,
			WriteTimeout:        90 * time.Second,
			ShutdownTimeout:     15 * time.Second,
			WSRequestsPerMinute: 60,
			WSMaxConcurrent:     4,
		},
		Provider: ProviderConfig{
			Name:        "gemini",
			MaxTokens:   1024,
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Queue: QueueConfig{
			Concurrency: 8,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Redaction: true,
		},
	}
}

// String returns a JSON representation of the config with secrets masked
func (c *Config) String() string {
	masked := *c
	masked.Auth.Token = mask(masked.Auth.Token)
	masked.Provider.APIKey = mask(masked.Provider.APIKey)
	data, _ := json.MarshalIndent(masked, "", "  ")
	return string(data)
}

// Secrets returns every configured secret value, for log redaction.
func (c *Config) Secrets() []string {
	var out []string
	for _, s := range []string{c.Auth.Token, c.Provider.APIKey} {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks if the configuration is usable; the server refuses to
// start otherwise.
func (c *Config) Validate() error {
	errs := NewValidator().ValidateConfig(c)
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid configuration: %w", joinErrors(errs))
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
