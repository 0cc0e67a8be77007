package provider

import (
	"context"
	"fmt"
)

// Settings selects and configures a backend
type Settings struct {
	Name    string // gemini, anthropic, openai, ollama
	APIKey  string
	BaseURL string
}

// New creates the provider named by s.Name.
func New(ctx context.Context, s Settings) (Provider, error) {
	switch s.Name {
	case "gemini":
		return NewGeminiProvider(ctx, s.APIKey, s.BaseURL)
	case "anthropic":
		return NewAnthropicProvider(s.APIKey, s.BaseURL), nil
	case "openai":
		return NewOpenAIProvider(s.APIKey, s.BaseURL), nil
	case "ollama":
		return NewOllamaProvider(s.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", s.Name)
	}
}
