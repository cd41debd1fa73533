package models

import (
	"fmt"
	"os"
	"strings"

	"github.com/dohr-michael/tasker/internal/config"
)

// AuthKind distinguishes between API key and Bearer token auth.
type AuthKind int

const (
	AuthAPIKey AuthKind = iota
	AuthBearerToken
)

// ResolvedAuth holds the resolved credentials and their kind.
type ResolvedAuth struct {
	Kind  AuthKind
	Value string
}

// driverEnvKeys lists the fallback env var per driver.
var driverEnvKeys = map[string]string{
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
	"gemini":    "GEMINI_API_KEY",
	"mistral":   "MISTRAL_API_KEY",
}

// expandSecret returns the value of ${VAR} references, or the trimmed literal.
func expandSecret(s string) string {
	trimmed := strings.TrimSpace(s)
	if strings.HasPrefix(trimmed, "${") && strings.HasSuffix(trimmed, "}") {
		return os.Getenv(trimmed[2 : len(trimmed)-1])
	}
	return trimmed
}

// ResolveAuth resolves the credentials for a provider.
// Resolution order: direct token → direct api_key → driver default env.
func ResolveAuth(cfg config.ProviderConfig) (ResolvedAuth, error) {
	if token := expandSecret(cfg.Auth.Token); token != "" {
		return ResolvedAuth{Kind: AuthBearerToken, Value: token}, nil
	}
	if apiKey := expandSecret(cfg.Auth.APIKey); apiKey != "" {
		return ResolvedAuth{Kind: AuthAPIKey, Value: apiKey}, nil
	}

	envKey, ok := driverEnvKeys[strings.ToLower(cfg.Driver)]
	if !ok {
		return ResolvedAuth{}, fmt.Errorf("unknown driver %q: cannot resolve auth", cfg.Driver)
	}
	if key := os.Getenv(envKey); key != "" {
		return ResolvedAuth{Kind: AuthAPIKey, Value: key}, nil
	}
	return ResolvedAuth{}, fmt.Errorf("%s not set", envKey)
}
