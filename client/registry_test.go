package client

import "testing"

func TestRegistryIsProviderEnabled(t *testing.T) {
	r := NewRegistry(&ProviderConfig{}, []string{"anthropic", "ollama"})

	if !r.IsProviderEnabled("anthropic") {
		t.Error("anthropic should be enabled")
	}
	if !r.IsProviderEnabled("ollama") {
		t.Error("ollama should be enabled")
	}
	if r.IsProviderEnabled("openai") {
		t.Error("openai should not be enabled")
	}
}

func TestRegistryIsProviderConfigured(t *testing.T) {
	r := NewRegistry(&ProviderConfig{}, []string{"anthropic"})
	if r.IsProviderConfigured("anthropic") {
		t.Error("anthropic should not be configured without an api key")
	}

	r2 := NewRegistry(&ProviderConfig{AnthropicAPIKey: "test-key"}, []string{"anthropic"})
	if !r2.IsProviderConfigured("anthropic") {
		t.Error("anthropic should be configured with an api key")
	}

	r3 := NewRegistry(&ProviderConfig{}, []string{"ollama"})
	if !r3.IsProviderConfigured("ollama") {
		t.Error("ollama should always be configured")
	}

	r4 := NewRegistry(&ProviderConfig{}, []string{"openai"})
	if r4.IsProviderConfigured("openai") {
		t.Error("openai should not be configured without an api key")
	}
}

func TestRegistryResolveWithPreferences(t *testing.T) {
	r := NewRegistry(&ProviderConfig{
		AnthropicAPIKey: "test-key",
		OllamaHost:      "http://localhost:11434",
		OllamaModel:     "mistral:20b",
	}, []string{"anthropic", "ollama"})

	key, err := r.Resolve("caller", []Preference{
		{Provider: ProviderAnthropic, Model: "claude-sonnet-4-20250514"},
		{Provider: ProviderOllama, Model: "mistral:20b"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Provider != ProviderAnthropic {
		t.Errorf("expected anthropic, got %s", key.Provider)
	}
	if key.Model != "claude-sonnet-4-20250514" {
		t.Errorf("expected claude-sonnet-4-20250514, got %s", key.Model)
	}
}

func TestRegistryResolveWithoutPreferences(t *testing.T) {
	r := NewRegistry(&ProviderConfig{AnthropicAPIKey: "test-key"}, []string{ProviderAnthropic})

	key, err := r.Resolve("caller", nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Provider != "anthropic" {
		t.Errorf("expected anthropic, got %s", key.Provider)
	}
	if key.Model != "claude-haiku-4-5" {
		t.Errorf("expected provider default model, got %s", key.Model)
	}
}

func TestRegistryResolveFallback(t *testing.T) {
	r := NewRegistry(&ProviderConfig{AnthropicAPIKey: "test-key"}, []string{"anthropic"})

	key, err := r.Resolve("caller", []Preference{
		{Provider: "ollama", Model: "mistral:20b"},
		{Provider: "anthropic", Model: "claude-haiku-4-5"},
	})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if key.Provider != "anthropic" {
		t.Errorf("expected fallback to anthropic, got %s", key.Provider)
	}
}

func TestRegistryResolveNoAvailableProvider(t *testing.T) {
	r := NewRegistry(&ProviderConfig{}, []string{})

	if _, err := r.Resolve("caller", nil); err == nil {
		t.Error("expected error when no providers are enabled")
	}
}
