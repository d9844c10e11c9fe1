package config

import (
	"fmt"
	"time"

	llmanthropic "github.com/jkhoffman/cogni/llm/anthropic"
	llmollama "github.com/jkhoffman/cogni/llm/ollama"
	llmopenai "github.com/jkhoffman/cogni/llm/openai"
	"github.com/rs/zerolog"
)

// NewAnthropicClient builds an Anthropic adapter client from pc.
func NewAnthropicClient(pc ProviderConfig, logger zerolog.Logger) (*llmanthropic.Client, error) {
	if pc.APIKey == "" {
		return nil, fmt.Errorf("config: anthropic api key not configured")
	}
	return llmanthropic.New(pc.APIKey, pc.DefaultModel, logger)
}

// NewOpenAIClient builds an OpenAI (or OpenAI-compatible) adapter client
// from pc.
func NewOpenAIClient(pc ProviderConfig) (*llmopenai.Client, error) {
	if pc.APIKey == "" {
		return nil, fmt.Errorf("config: openai api key not configured")
	}
	return llmopenai.New(pc.APIKey, pc.BaseURL, pc.DefaultModel, pc.Organization)
}

// NewOllamaClient builds an Ollama adapter client from pc.
func NewOllamaClient(pc ProviderConfig) (*llmollama.Client, error) {
	return llmollama.New(pc.BaseURL, pc.DefaultModel)
}

// HTTPClientTimeoutOrDefault returns pc's configured timeout, or def if
// unset.
func (pc ProviderConfig) HTTPClientTimeoutOrDefault(def time.Duration) time.Duration {
	if pc.HTTPClientTimeout <= 0 {
		return def
	}
	return pc.HTTPClientTimeout
}
