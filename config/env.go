package config

import (
	"os"
	"strings"
)

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return home + strings.TrimPrefix(path, "~")
}

// applyProviderEnvFallback fills in pc's empty fields from the named
// provider's well-known environment variables. A value already set from
// the config file always takes precedence over its environment fallback.
func applyProviderEnvFallback(name string, pc *ProviderConfig) {
	switch name {
	case "anthropic":
		if pc.APIKey == "" {
			pc.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	case "openai":
		if pc.APIKey == "" {
			pc.APIKey = os.Getenv("OPENAI_API_KEY")
		}
		if pc.BaseURL == "" {
			pc.BaseURL = os.Getenv("OPENAI_BASE_URL")
		}
		if pc.DefaultModel == "" {
			pc.DefaultModel = os.Getenv("OPENAI_MODEL")
		}
		if pc.Organization == "" {
			pc.Organization = os.Getenv("OPENAI_ORG_ID")
		}
	case "ollama":
		if pc.BaseURL == "" {
			pc.BaseURL = os.Getenv("OLLAMA_HOST")
		}
		if pc.BaseURL == "" {
			pc.BaseURL = "http://localhost:11434"
		}
		if pc.DefaultModel == "" {
			pc.DefaultModel = os.Getenv("OLLAMA_MODEL")
		}
	}
}
