package model

import (
	"fmt"
	"strings"
)

// Provider names accepted by New.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

const defaultMaxTokens = 1024

// Config selects and configures a provider adapter.
type Config struct {
	Provider    string
	Model       string
	APIKey      string
	BaseURL     string
	MaxTokens   int
	Temperature float32
}

// New builds the Generator for cfg.Provider.
func New(cfg Config) (Generator, error) {
	if cfg.Model == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI, "openai-compatible", "":
		return NewOpenAI(cfg)
	case ProviderAnthropic, "claude":
		return NewAnthropic(cfg)
	default:
		return nil, fmt.Errorf("unknown model provider %q (want %s or %s)", cfg.Provider, ProviderOpenAI, ProviderAnthropic)
	}
}
