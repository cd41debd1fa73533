package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	content := `{
	// local gateway
	"gateway": {
		"host": "0.0.0.0",
		"port": 9999,
	},
	"data": {"dir": "/srv/data"},
	"models": {
		"default": "proxy",
		"providers": {
			"proxy": {
				"driver": "openai",
				"model": "gpt-4o-mini",
				"auth": {
					"api_key": "${{ .Env.AIPROXY_TOKEN }}"
				},
				"timeout": "45s"
			}
		}
	},
	"tasks": {"classify_timeout": "10s"}
}`
	path := writeConfig(t, "config.jsonc", content)
	t.Setenv("AIPROXY_TOKEN", "test-token-123")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "0.0.0.0" {
		t.Errorf("expected host 0.0.0.0, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 9999 {
		t.Errorf("expected port 9999, got %d", cfg.Gateway.Port)
	}
	if cfg.Data.Dir != "/srv/data" {
		t.Errorf("expected data dir /srv/data, got %s", cfg.Data.Dir)
	}

	p, ok := cfg.Models.Providers["proxy"]
	if !ok {
		t.Fatal("expected proxy provider")
	}
	if p.Auth.APIKey != "test-token-123" {
		t.Errorf("expected api_key test-token-123, got %s", p.Auth.APIKey)
	}
	if p.Timeout.Duration() != 45*time.Second {
		t.Errorf("expected timeout 45s, got %s", p.Timeout.Duration())
	}
	if cfg.Tasks.ClassifyTimeout.Duration() != 10*time.Second {
		t.Errorf("expected classify_timeout 10s, got %s", cfg.Tasks.ClassifyTimeout.Duration())
	}
}

func TestLoadYAML(t *testing.T) {
	content := `
gateway:
  port: 8123
models:
  default: local
  providers:
    local:
      driver: ollama
      model: llama3.2
      base_url: http://localhost:11434
tools:
  command_timeout: 5s
  prettier: /usr/local/bin/prettier
`
	path := writeConfig(t, "config.yaml", content)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Port != 8123 {
		t.Errorf("expected port 8123, got %d", cfg.Gateway.Port)
	}
	p := cfg.Models.Providers["local"]
	if p.Driver != "ollama" || p.BaseURL != "http://localhost:11434" {
		t.Errorf("unexpected provider %+v", p)
	}
	if cfg.Tools.CommandTimeout.Duration() != 5*time.Second {
		t.Errorf("expected command_timeout 5s, got %s", cfg.Tools.CommandTimeout.Duration())
	}
	if cfg.Tools.Prettier != "/usr/local/bin/prettier" {
		t.Errorf("expected prettier path, got %q", cfg.Tools.Prettier)
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("USER_EMAIL", "someone@example.com")
	path := writeConfig(t, "config.jsonc", `{}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Gateway.Host != "127.0.0.1" {
		t.Errorf("expected default host 127.0.0.1, got %s", cfg.Gateway.Host)
	}
	if cfg.Gateway.Port != 8000 {
		t.Errorf("expected default port 8000, got %d", cfg.Gateway.Port)
	}
	if cfg.Data.Prefix != "/data" {
		t.Errorf("expected default prefix /data, got %s", cfg.Data.Prefix)
	}
	if cfg.Models.Default != "aiproxy" {
		t.Errorf("expected default provider aiproxy, got %q", cfg.Models.Default)
	}
	if p := cfg.Models.Providers["aiproxy"]; p.Auth.APIKey != "${AIPROXY_TOKEN}" {
		t.Errorf("expected deferred AIPROXY_TOKEN auth, got %q", p.Auth.APIKey)
	}
	if cfg.Tasks.UserEmail != "someone@example.com" {
		t.Errorf("expected user email from env, got %q", cfg.Tasks.UserEmail)
	}
	if cfg.Tasks.TicketType != "Gold" {
		t.Errorf("expected ticket type Gold, got %q", cfg.Tasks.TicketType)
	}
	if cfg.Tools.PrettierVersion != "3.4.2" {
		t.Errorf("expected prettier 3.4.2, got %q", cfg.Tools.PrettierVersion)
	}
}

func TestLoadDefaults_SingleProviderBecomesDefault(t *testing.T) {
	path := writeConfig(t, "config.json", `{"models": {"providers": {"only": {"driver": "ollama", "model": "m"}}}}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Models.Default != "only" {
		t.Errorf("expected default provider 'only', got %q", cfg.Models.Default)
	}
}

func TestLoad_InvalidDuration(t *testing.T) {
	path := writeConfig(t, "config.jsonc", `{"tasks": {"handler_timeout": "soon"}}`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for invalid duration")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.jsonc")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestExpandEnvTemplates(t *testing.T) {
	t.Setenv("TEST_KEY", "my-secret")
	result := expandEnvTemplates(`{"key": "${{ .Env.TEST_KEY }}"}`)
	expected := `{"key": "my-secret"}`
	if result != expected {
		t.Errorf("expected %s, got %s", expected, result)
	}
}
