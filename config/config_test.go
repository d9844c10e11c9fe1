package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	def := DefaultRuntimeConfig()
	if cfg.Retry.MaxAttempts != def.Retry.MaxAttempts {
		t.Errorf("expected default retry config, got %+v", cfg.Retry)
	}
	if cfg.Context.Strategy != ContextStrategySlidingWindow {
		t.Errorf("expected default strategy, got %s", cfg.Context.Strategy)
	}
}

func TestLoadMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cogni.yaml")
	contents := `
retry:
  max_attempts: 2
context:
  max_tokens: 8000
  strategy: importance
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Retry.MaxAttempts != 2 {
		t.Errorf("expected overridden max_attempts=2, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.ExponentialBase != DefaultRuntimeConfig().Retry.ExponentialBase {
		t.Errorf("expected default ExponentialBase to survive merge, got %v", cfg.Retry.ExponentialBase)
	}
	if cfg.Context.MaxTokens != 8000 {
		t.Errorf("expected overridden max_tokens, got %d", cfg.Context.MaxTokens)
	}
	if cfg.Context.Strategy != ContextStrategyImportance {
		t.Errorf("expected overridden strategy, got %s", cfg.Context.Strategy)
	}
}

func TestProviderAppliesEnvFallback(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "env-key")
	cfg := DefaultRuntimeConfig()
	pc := cfg.Provider("anthropic")
	if pc.APIKey != "env-key" {
		t.Errorf("expected env fallback api key, got %q", pc.APIKey)
	}
}

func TestProviderFileValueWinsOverEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "env-key")
	cfg := DefaultRuntimeConfig()
	cfg.Providers = map[string]ProviderConfig{
		"openai": {APIKey: "file-key"},
	}
	pc := cfg.Provider("openai")
	if pc.APIKey != "file-key" {
		t.Errorf("expected file value to win, got %q", pc.APIKey)
	}
}

func TestOllamaDefaultsBaseURL(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	pc := cfg.Provider("ollama")
	if pc.BaseURL != "http://localhost:11434" {
		t.Errorf("expected default ollama base url, got %q", pc.BaseURL)
	}
}

func TestStateConfigIsFileBacked(t *testing.T) {
	if (StateConfig{}).IsFileBacked() {
		t.Error("expected zero-value StateConfig to default to in-memory")
	}
	if !(StateConfig{Backend: "file", Directory: "/tmp"}).IsFileBacked() {
		t.Error("expected backend=file to report file-backed")
	}
}

func TestHTTPClientTimeoutOrDefault(t *testing.T) {
	pc := ProviderConfig{}
	if got := pc.HTTPClientTimeoutOrDefault(30 * time.Second); got != 30*time.Second {
		t.Errorf("expected fallback default, got %v", got)
	}
	pc.HTTPClientTimeout = 5 * time.Second
	if got := pc.HTTPClientTimeoutOrDefault(30 * time.Second); got != 5*time.Second {
		t.Errorf("expected configured value, got %v", got)
	}
}
