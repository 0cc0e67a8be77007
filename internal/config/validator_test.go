package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateAPIKey(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name     string
		key      string
		provider string
		wantErr  bool
	}{
		{"valid anthropic key", "sk-ant-test123", "anthropic", false},
		{"invalid anthropic key", "invalid-key", "anthropic", true},
		{"valid openai key", "sk-test123", "openai", false},
		{"invalid openai key", "invalid-key", "openai", true},
		{"gemini key", "AIza123", "gemini", false},
		{"empty key", "", "gemini", true},
		{"ollama without key", "", "ollama", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAPIKey(tt.key, tt.provider)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProvider(t *testing.T) {
	v := NewValidator()
	for _, p := range []string{"gemini", "anthropic", "openai", "ollama"} {
		assert.NoError(t, v.ValidateProvider(p))
	}
	assert.Error(t, v.ValidateProvider(""))
	assert.Error(t, v.ValidateProvider("bard"))
}

func TestValidatePort(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidatePort(8088))
	assert.Error(t, v.ValidatePort(0))
	assert.Error(t, v.ValidatePort(70000))
}

func TestValidateTemperature(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateTemperature(0, "openai"))
	assert.NoError(t, v.ValidateTemperature(0.7, "gemini"))
	assert.NoError(t, v.ValidateTemperature(1.5, "openai"))
	assert.NoError(t, v.ValidateTemperature(1, "anthropic"))
	assert.Error(t, v.ValidateTemperature(1.5, "anthropic"))
	assert.Error(t, v.ValidateTemperature(-0.1, "ollama"))
	assert.Error(t, v.ValidateTemperature(2.5, "openai"))
}

func TestValidateMaxTokens(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateMaxTokens(1024))
	assert.Error(t, v.ValidateMaxTokens(0))
	assert.Error(t, v.ValidateMaxTokens(300000))
}

func TestValidateLogLevel(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateLogLevel("debug"))
	assert.Error(t, v.ValidateLogLevel("verbose"))
}
