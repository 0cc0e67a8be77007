package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// DefaultEnvFile is read before the environment is consulted, if present.
const DefaultEnvFile = ".env"

// envBindings maps config keys to the environment names accepted for them.
// The QUILL_ prefixed name always wins over the bare one.
var envBindings = map[string][]string{
	"auth.token":                    {"QUILL_AUTH_TOKEN", "AUTH_TOKEN"},
	"identity.number":               {"QUILL_IDENTITY_NUMBER", "MY_NUMBER"},
	"server.host":                   {"QUILL_SERVER_HOST", "HOST"},
	"server.port":                   {"QUILL_SERVER_PORT", "PORT"},
	"server.read_timeout":           {"QUILL_SERVER_READ_TIMEOUT"},
	"server.write_timeout":          {"QUILL_SERVER_WRITE_TIMEOUT"},
	"server.shutdown_timeout":       {"QUILL_SERVER_SHUTDOWN_TIMEOUT"},
	"server.ws_requests_per_minute": {"QUILL_SERVER_WS_REQUESTS_PER_MINUTE"},
	"server.ws_max_concurrent":      {"QUILL_SERVER_WS_MAX_CONCURRENT"},
	"provider.name":                 {"QUILL_PROVIDER_NAME"},
	"provider.api_key":              {"QUILL_PROVIDER_API_KEY"},
	"provider.model":                {"QUILL_PROVIDER_MODEL"},
	"provider.base_url":             {"QUILL_PROVIDER_BASE_URL"},
	"provider.max_tokens":           {"QUILL_PROVIDER_MAX_TOKENS"},
	"provider.temperature":          {"QUILL_PROVIDER_TEMPERATURE"},
	"provider.timeout":              {"QUILL_PROVIDER_TIMEOUT"},
	"queue.concurrency":             {"QUILL_QUEUE_CONCURRENCY"},
	"logging.level":                 {"QUILL_LOGGING_LEVEL", "LOG_LEVEL"},
	"logging.pretty":                {"QUILL_LOGGING_PRETTY"},
	"logging.redaction":             {"QUILL_LOGGING_REDACTION"},
}

// providerKeyEnv lists the vendor-native API key variable per provider.
var providerKeyEnv = map[string]string{
	"gemini":    "GOOGLE_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
}

// Loader handles configuration loading
type Loader struct {
	configPath string
	envFile    string
}

// NewLoader creates a new config loader. An empty configPath means
// defaults plus environment only.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		envFile:    DefaultEnvFile,
	}
}

// WithEnvFile overrides the dotenv file location; "" disables it.
func (l *Loader) WithEnvFile(path string) *Loader {
	l.envFile = path
	return l
}

// Load resolves defaults, the optional config file and the environment,
// then validates the result.
func (l *Loader) Load() (*Config, error) {
	cfg, err := l.Resolve()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve is Load without validation.
func (l *Loader) Resolve() (*Config, error) {
	if err := l.loadEnvFile(); err != nil {
		return nil, err
	}

	v := viper.New()
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", key, err)
		}
	}
	for provider, name := range providerKeyEnv {
		if err := v.BindEnv("vendor_keys."+provider, name); err != nil {
			return nil, fmt.Errorf("failed to bind env for %s: %w", name, err)
		}
	}

	if l.configPath != "" {
		if _, err := os.Stat(l.configPath); err != nil {
			return nil, fmt.Errorf("config file not found: %w", err)
		}
		v.SetConfigFile(l.configPath)
		if filepath.Ext(l.configPath) == "" {
			v.SetConfigType("json")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Provider.Name = strings.ToLower(strings.TrimSpace(cfg.Provider.Name))
	if cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v.GetString("vendor_keys." + cfg.Provider.Name)
	}
	if cfg.Provider.Model == "" {
		cfg.Provider.Model = DefaultModels[cfg.Provider.Name]
	}

	return cfg, nil
}

// GetConfigPath returns the config file path
func (l *Loader) GetConfigPath() string {
	return l.configPath
}

func (l *Loader) loadEnvFile() error {
	if l.envFile == "" {
		return nil
	}
	if _, err := os.Stat(l.envFile); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	// gotenv.Load never overrides variables already present
	if err := gotenv.Load(l.envFile); err != nil {
		return fmt.Errorf("failed to load %s: %w", l.envFile, err)
	}
	return nil
}

// Load is a convenience function that creates a loader and loads the config
func Load(configPath string) (*Config, error) {
	loader := NewLoader(configPath)
	return loader.Load()
}
