package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Validator validates configuration values
type Validator struct{}

// NewValidator creates a new validator
func NewValidator() *Validator {
	return &Validator{}
}

var validProviders = []string{"gemini", "anthropic", "openai", "ollama"}

// ValidateProvider validates a provider name
func (v *Validator) ValidateProvider(name string) error {
	for _, p := range validProviders {
		if name == p {
			return nil
		}
	}
	return fmt.Errorf("invalid provider: %q (must be one of: %s)", name, strings.Join(validProviders, ", "))
}

// ValidateAPIKey validates an API key format
func (v *Validator) ValidateAPIKey(key string, provider string) error {
	if provider == "ollama" {
		return nil // local server, no key
	}
	if key == "" {
		return fmt.Errorf("%s API key cannot be empty", provider)
	}

	switch provider {
	case "anthropic":
		if !strings.HasPrefix(key, "sk-ant-") {
			return fmt.Errorf("invalid Anthropic API key format (should start with sk-ant-)")
		}
	case "openai":
		if !strings.HasPrefix(key, "sk-") {
			return fmt.Errorf("invalid OpenAI API key format (should start with sk-)")
		}
	}

	return nil
}

// ValidatePort validates a TCP port
func (v *Validator) ValidatePort(port int) error {
	if port <= 0 || port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", port)
	}
	return nil
}

// ValidateTemperature validates temperature value against the range the
// provider accepts
func (v *Validator) ValidateTemperature(temp float64, provider string) error {
	limit := 2.0
	if provider == "anthropic" {
		limit = 1
	}
	if temp < 0 || temp > limit {
		return fmt.Errorf("temperature for %s must be between 0 and %g, got %g", provider, limit, temp)
	}
	return nil
}

// ValidateMaxTokens validates max tokens value
func (v *Validator) ValidateMaxTokens(tokens int) error {
	if tokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", tokens)
	}
	if tokens > 200000 {
		return fmt.Errorf("max tokens too large (max 200000), got %d", tokens)
	}
	return nil
}

// ValidateLogLevel validates log level
func (v *Validator) ValidateLogLevel(level string) error {
	validLevels := []string{"debug", "info", "warn", "error"}
	for _, valid := range validLevels {
		if level == valid {
			return nil
		}
	}
	return fmt.Errorf("invalid log level: %s (must be one of: %s)", level, strings.Join(validLevels, ", "))
}

// ValidateConfig performs comprehensive validation and reports every problem
func (v *Validator) ValidateConfig(cfg *Config) []error {
	var errs []error

	if strings.TrimSpace(cfg.Auth.Token) == "" {
		errs = append(errs, fmt.Errorf("auth token is required (set AUTH_TOKEN)"))
	}

	if err := v.ValidateProvider(cfg.Provider.Name); err != nil {
		errs = append(errs, err)
	} else if err := v.ValidateAPIKey(cfg.Provider.APIKey, cfg.Provider.Name); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateMaxTokens(cfg.Provider.MaxTokens); err != nil {
		errs = append(errs, err)
	}
	if err := v.ValidateTemperature(cfg.Provider.Temperature, cfg.Provider.Name); err != nil {
		errs = append(errs, err)
	}
	if cfg.Provider.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("provider timeout must be positive, got %s", cfg.Provider.Timeout))
	}

	if err := v.ValidatePort(cfg.Server.Port); err != nil {
		errs = append(errs, err)
	}
	if cfg.Server.ShutdownTimeout < time.Second {
		errs = append(errs, fmt.Errorf("shutdown timeout must be at least 1s, got %s", cfg.Server.ShutdownTimeout))
	}
	if cfg.Server.WSRequestsPerMinute <= 0 {
		errs = append(errs, fmt.Errorf("server.ws_requests_per_minute must be > 0"))
	}
	if cfg.Server.WSMaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("server.ws_max_concurrent must be > 0"))
	}

	if cfg.Queue.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("queue.concurrency must be > 0"))
	}

	if err := v.ValidateLogLevel(cfg.Logging.Level); err != nil {
		errs = append(errs, err)
	}

	return errs
}

func joinErrors(errs []error) error {
	return errors.Join(errs...)
}
