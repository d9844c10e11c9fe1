// Package config hosts the loadable configuration surface for every
// pluggable layer of the runtime: provider adapters, the middleware
// pipeline, the context manager, and the state store. Structs carry yaml
// tags and are loaded with gopkg.in/yaml.v3, with defaults applied via
// dario.cat/mergo.
package config

import (
	"fmt"
	"os"
	"time"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"
)

// ProviderConfig holds the connection details for a single provider
// adapter: Anthropic, OpenAI, Ollama, or an OpenAI-compatible
// third party reached through BaseURL.
type ProviderConfig struct {
	BaseURL           string            `yaml:"base_url,omitempty"`
	APIKey            string            `yaml:"api_key,omitempty"`
	DefaultModel      string            `yaml:"default_model,omitempty"`
	ExtraHeaders      map[string]string `yaml:"extra_headers,omitempty"`
	Organization      string            `yaml:"organization,omitempty"`
	HTTPClientTimeout time.Duration     `yaml:"http_client_timeout,omitempty"`
}

// RetryConfig tunes the retry middleware layer.
type RetryConfig struct {
	MaxAttempts     uint64        `yaml:"max_attempts"`
	InitialDelay    time.Duration `yaml:"initial_delay"`
	MaxDelay        time.Duration `yaml:"max_delay"`
	ExponentialBase float64       `yaml:"exponential_base"`
	JitterFraction  float64       `yaml:"jitter_fraction"`
}

// RateLimitConfig tunes the rate-limit middleware layer: a token
// bucket of Capacity tokens, refilling RefillPerPeriod tokens every
// Period.
type RateLimitConfig struct {
	Capacity        int           `yaml:"capacity"`
	RefillPerPeriod int           `yaml:"refill_per_period"`
	Period          time.Duration `yaml:"period"`
}

// CacheConfig tunes the response-cache middleware layer.
type CacheConfig struct {
	Capacity int           `yaml:"capacity"`
	TTL      time.Duration `yaml:"ttl"`
}

// LogLevel enumerates the logging layer's verbosity settings.
type LogLevel string

const (
	LogLevelOff   LogLevel = "off"
	LogLevelError LogLevel = "error"
	LogLevelWarn  LogLevel = "warn"
	LogLevelInfo  LogLevel = "info"
	LogLevelDebug LogLevel = "debug"
	LogLevelTrace LogLevel = "trace"
)

// LoggingConfig tunes the logging middleware layer.
type LoggingConfig struct {
	Level          LogLevel `yaml:"level"`
	IncludeContent bool     `yaml:"include_content"`
}

// ContextStrategy enumerates the context manager's pluggable pruning
// strategies.
type ContextStrategy string

const (
	ContextStrategySlidingWindow ContextStrategy = "sliding_window"
	ContextStrategyImportance    ContextStrategy = "importance"
	ContextStrategySummarization ContextStrategy = "summarization"
)

// ContextConfig tunes the context manager.
type ContextConfig struct {
	MaxTokens           int             `yaml:"max_tokens"`
	ReserveOutputTokens int             `yaml:"reserve_output_tokens"`
	Strategy            ContextStrategy `yaml:"strategy"`
}

// StateConfig selects the state store backend: in-memory (the
// zero value) or file-backed, rooted at Directory.
type StateConfig struct {
	Backend   string `yaml:"backend,omitempty"` // "memory" (default) or "file"
	Directory string `yaml:"directory,omitempty"`
}

// IsFileBacked reports whether this config selects the file-backed store.
func (s StateConfig) IsFileBacked() bool {
	return s.Backend == "file"
}

// RuntimeConfig is the top-level document loaded from a cogni config file:
// one provider entry per built-in adapter plus the shared middleware,
// context, and state settings.
type RuntimeConfig struct {
	Providers map[string]ProviderConfig `yaml:"providers,omitempty"`
	Retry     RetryConfig               `yaml:"retry,omitempty"`
	RateLimit RateLimitConfig           `yaml:"rate_limit,omitempty"`
	Cache     CacheConfig               `yaml:"cache,omitempty"`
	Logging   LoggingConfig             `yaml:"logging,omitempty"`
	Context   ContextConfig             `yaml:"context,omitempty"`
	State     StateConfig               `yaml:"state,omitempty"`
}

// DefaultRuntimeConfig returns the fallback tuning applied to every layer
// of the runtime before a config file (if any) is merged over it.
func DefaultRuntimeConfig() RuntimeConfig {
	return RuntimeConfig{
		Retry: RetryConfig{
			MaxAttempts:     5,
			InitialDelay:    time.Second,
			MaxDelay:        5 * time.Minute,
			ExponentialBase: 2.0,
			JitterFraction:  0.2,
		},
		RateLimit: RateLimitConfig{
			Capacity:        10,
			RefillPerPeriod: 10,
			Period:          time.Second,
		},
		Cache: CacheConfig{
			Capacity: 256,
			TTL:      5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:          LogLevelInfo,
			IncludeContent: false,
		},
		Context: ContextConfig{
			MaxTokens:           128_000,
			ReserveOutputTokens: 4_096,
			Strategy:            ContextStrategySlidingWindow,
		},
		State: StateConfig{
			Backend: "memory",
		},
	}
}

// Load reads a RuntimeConfig from the YAML file at path, merging it over
// DefaultRuntimeConfig so unset fields keep their default. A missing file
// is not an error: the defaults are returned as-is.
func Load(path string) (RuntimeConfig, error) {
	cfg := DefaultRuntimeConfig()

	data, err := os.ReadFile(expandPath(path)) //#nosec 304 -- intentional file read for config
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config file %q: %w", path, err)
	}

	var loaded RuntimeConfig
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return cfg, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if err := mergo.Merge(&cfg, loaded, mergo.WithOverride); err != nil {
		return cfg, fmt.Errorf("merge config file %q: %w", path, err)
	}
	return cfg, nil
}

// Provider resolves a named provider's config, applying its environment
// variable fallback chain on top of whatever the file specified.
func (c RuntimeConfig) Provider(name string) ProviderConfig {
	pc := c.Providers[name]
	applyProviderEnvFallback(name, &pc)
	return pc
}
