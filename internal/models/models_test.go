package models

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/dohr-michael/tasker/internal/config"
)

func TestResolveAuth_DirectAPIKey(t *testing.T) {
	cfg := config.ProviderConfig{
		Driver: "openai",
		Auth:   config.AuthConfig{APIKey: "sk-test-123"},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Kind != AuthAPIKey {
		t.Fatalf("expected AuthAPIKey, got %d", auth.Kind)
	}
	if auth.Value != "sk-test-123" {
		t.Fatalf("expected value %q, got %q", "sk-test-123", auth.Value)
	}
}

func TestResolveAuth_DirectBearerToken(t *testing.T) {
	cfg := config.ProviderConfig{
		Driver: "anthropic",
		Auth: config.AuthConfig{
			APIKey: "sk-ant-test-123",
			Token:  "bearer-token-xyz",
		},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Kind != AuthBearerToken {
		t.Fatalf("expected AuthBearerToken, got %d", auth.Kind)
	}
	if auth.Value != "bearer-token-xyz" {
		t.Fatalf("expected value %q, got %q", "bearer-token-xyz", auth.Value)
	}
}

func TestResolveAuth_EnvVarSyntax(t *testing.T) {
	t.Setenv("AIPROXY_TOKEN", "proxy-token-value")

	cfg := config.ProviderConfig{
		Driver: "openai",
		Auth:   config.AuthConfig{APIKey: "${AIPROXY_TOKEN}"},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Value != "proxy-token-value" {
		t.Fatalf("expected value %q, got %q", "proxy-token-value", auth.Value)
	}
}

func TestResolveAuth_EmptyEnvFallsBackToDriverEnv(t *testing.T) {
	t.Setenv("AIPROXY_TOKEN", "")
	t.Setenv("OPENAI_API_KEY", "env-openai-key")

	cfg := config.ProviderConfig{
		Driver: "openai",
		Auth:   config.AuthConfig{APIKey: "${AIPROXY_TOKEN}"},
	}
	auth, err := ResolveAuth(cfg)
	if err != nil {
		t.Fatalf("ResolveAuth: %v", err)
	}
	if auth.Value != "env-openai-key" {
		t.Fatalf("expected value %q, got %q", "env-openai-key", auth.Value)
	}
}

func TestResolveAuth_DriverEnv(t *testing.T) {
	tests := []struct {
		driver, env string
	}{
		{"anthropic", "ANTHROPIC_API_KEY"},
		{"claude", "ANTHROPIC_API_KEY"},
		{"gemini", "GEMINI_API_KEY"},
		{"mistral", "MISTRAL_API_KEY"},
	}
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			t.Setenv(tt.env, "key-for-"+tt.driver)
			auth, err := ResolveAuth(config.ProviderConfig{Driver: tt.driver})
			if err != nil {
				t.Fatalf("ResolveAuth: %v", err)
			}
			if auth.Value != "key-for-"+tt.driver {
				t.Fatalf("got %q", auth.Value)
			}
		})
	}
}

func TestResolveAuth_UnknownDriver(t *testing.T) {
	_, err := ResolveAuth(config.ProviderConfig{Driver: "bedrock"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "unknown driver") {
		t.Fatalf("expected 'unknown driver' error, got %v", err)
	}
}

func TestResolveAuth_NothingSet(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	os.Unsetenv("GEMINI_API_KEY")

	_, err := ResolveAuth(config.ProviderConfig{Driver: "gemini"})
	if err == nil {
		t.Fatal("expected error when no auth is available")
	}
	if !strings.Contains(err.Error(), "GEMINI_API_KEY not set") {
		t.Fatalf("expected 'GEMINI_API_KEY not set' error, got %v", err)
	}
}

type stubModel struct{ name string }

func (s *stubModel) Generate(context.Context, []*schema.Message, ...model.Option) (*schema.Message, error) {
	return schema.AssistantMessage(s.name, nil), nil
}

func (s *stubModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

func TestRegistry_LazyInitOnce(t *testing.T) {
	reg := NewRegistry(config.ModelsConfig{
		Default: "main",
		Providers: map[string]config.ProviderConfig{
			"main":  {Driver: "openai", Model: "gpt-4o-mini"},
			"other": {Driver: "ollama", Model: "llama3.2"},
		},
	})
	var calls atomic.Int32
	reg.create = func(_ context.Context, cfg config.ProviderConfig) (model.BaseChatModel, error) {
		calls.Add(1)
		return &stubModel{name: cfg.Model}, nil
	}

	for i := 0; i < 3; i++ {
		m, err := reg.Get(context.Background(), "")
		if err != nil {
			t.Fatalf("Get: %v", err)
		}
		if m.(*stubModel).name != "gpt-4o-mini" {
			t.Fatalf("expected default model, got %q", m.(*stubModel).name)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single model construction, got %d", calls.Load())
	}

	if got := reg.Names(); len(got) != 2 || got[0] != "main" || got[1] != "other" {
		t.Fatalf("unexpected names %v", got)
	}
}

func TestRegistry_GetUnknown(t *testing.T) {
	reg := NewRegistry(config.ModelsConfig{Default: "main"})

	_, err := reg.Get(context.Background(), "nonexistent")
	if err == nil {
		t.Fatal("expected error for unknown provider")
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected 'not found' error, got %v", err)
	}
}

func TestRegistry_NoDefault(t *testing.T) {
	reg := NewRegistry(config.ModelsConfig{})
	if _, err := reg.Default(context.Background()); err == nil {
		t.Fatal("expected error without default provider")
	}
}

func TestCreateModel_UnknownDriver(t *testing.T) {
	_, err := CreateModel(context.Background(), config.ProviderConfig{Driver: "unknown-driver"})
	if err == nil {
		t.Fatal("expected error for unknown driver")
	}
	if !strings.Contains(err.Error(), "unknown driver") {
		t.Fatalf("expected 'unknown driver' error, got %v", err)
	}
}

func TestCreateModel_MissingAuth(t *testing.T) {
	t.Setenv("MISTRAL_API_KEY", "")
	os.Unsetenv("MISTRAL_API_KEY")

	_, err := CreateModel(context.Background(), config.ProviderConfig{Driver: "mistral"})
	if err == nil || !strings.Contains(err.Error(), "resolve auth") {
		t.Fatalf("expected resolve auth error, got %v", err)
	}
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"status 401: invalid api key", "authentication failed"},
		{"429 Too Many Requests", "rate limited"},
		{"maximum context length exceeded", "context too long"},
		{"model not found", "model not found"},
		{"dial tcp: connection refused", "connection error"},
	}
	for _, tt := range tests {
		err := HandleError(errors.New(tt.in))
		if !strings.HasPrefix(err.Error(), tt.want) {
			t.Errorf("HandleError(%q) = %q, want prefix %q", tt.in, err, tt.want)
		}
	}

	plain := errors.New("something odd")
	if HandleError(plain) != plain {
		t.Error("unclassified errors should pass through unchanged")
	}
	if HandleError(nil) != nil {
		t.Error("nil should stay nil")
	}
}

func TestNewEmbedder_UnknownDriver(t *testing.T) {
	_, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Driver: "cohere"})
	if err == nil || !strings.Contains(err.Error(), "unsupported embedding driver") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}
}

func TestNewEmbedder_OpenAIMissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	os.Unsetenv("OPENAI_API_KEY")
	t.Setenv("AIPROXY_TOKEN", "")

	_, err := NewEmbedder(context.Background(), config.EmbeddingConfig{
		Driver: "openai",
		Model:  "text-embedding-3-small",
		Auth:   config.AuthConfig{APIKey: "${AIPROXY_TOKEN}"},
	})
	if err == nil || !strings.Contains(err.Error(), "API key not configured") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}
