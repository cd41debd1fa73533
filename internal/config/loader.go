package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

var envTemplateRe = regexp.MustCompile(`\$\{\{\s*\.Env\.(\w+)\s*\}\}`)

const (
	defaultHost       = "127.0.0.1"
	defaultPort       = 8000
	defaultDataPrefix = "/data"
	defaultProvider   = "aiproxy"
	defaultProxyURL   = "http://aiproxy.sanand.workers.dev/openai/v1"
	defaultDatagenURL = "https://raw.githubusercontent.com/sanand0/tools-in-data-science-public/tds-2025-01/project-1/datagen.py"
)

// Load reads a JSONC or YAML config file, expands ${{ .Env.VAR }} templates,
// unmarshals it into Config, and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	// Expand environment variable templates (before parsing, since templates are in strings)
	expanded := []byte(expandEnvTemplates(string(data)))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(expanded, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	default:
		std, err := hujson.Standardize(expanded)
		if err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
		if err := json.Unmarshal(std, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	applyDefaults(&cfg)
	return &cfg, nil
}

// Default returns the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// expandEnvTemplates replaces ${{ .Env.VAR }} with the env var value.
func expandEnvTemplates(s string) string {
	return envTemplateRe.ReplaceAllStringFunc(s, func(match string) string {
		parts := envTemplateRe.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		return os.Getenv(parts[1])
	})
}

// applyDefaults fills in zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.Gateway.Host == "" {
		cfg.Gateway.Host = defaultHost
	}
	if cfg.Gateway.Port == 0 {
		cfg.Gateway.Port = defaultPort
	}

	if cfg.Data.Dir == "" {
		cfg.Data.Dir = "data"
	}
	if cfg.Data.Prefix == "" {
		cfg.Data.Prefix = defaultDataPrefix
	}

	// Without providers, talk to the AI proxy with $AIPROXY_TOKEN.
	if len(cfg.Models.Providers) == 0 {
		cfg.Models.Providers = map[string]ProviderConfig{
			defaultProvider: {
				Driver:  "openai",
				Model:   "gpt-4o-mini",
				BaseURL: defaultProxyURL,
				Auth:    AuthConfig{APIKey: "${AIPROXY_TOKEN}"},
			},
		}
		if cfg.Models.Default == "" {
			cfg.Models.Default = defaultProvider
		}
	}
	if cfg.Models.Default == "" && len(cfg.Models.Providers) == 1 {
		for name := range cfg.Models.Providers {
			cfg.Models.Default = name
		}
	}

	if cfg.Embedding.Driver == "" {
		cfg.Embedding.Driver = "openai"
		if cfg.Embedding.BaseURL == "" {
			cfg.Embedding.BaseURL = defaultProxyURL
		}
		if cfg.Embedding.Auth.APIKey == "" {
			cfg.Embedding.Auth.APIKey = "${AIPROXY_TOKEN}"
		}
	}
	if cfg.Embedding.Model == "" && cfg.Embedding.Driver == "openai" {
		cfg.Embedding.Model = "text-embedding-3-small"
	}

	if cfg.Tasks.ClassifyTimeout == 0 {
		cfg.Tasks.ClassifyTimeout = Duration(30 * time.Second)
	}
	if cfg.Tasks.HandlerTimeout == 0 {
		cfg.Tasks.HandlerTimeout = Duration(2 * time.Minute)
	}
	if cfg.Tasks.UserEmail == "" {
		cfg.Tasks.UserEmail = os.Getenv("USER_EMAIL")
	}
	if cfg.Tasks.TicketType == "" {
		cfg.Tasks.TicketType = "Gold"
	}

	if cfg.Tools.PrettierVersion == "" {
		cfg.Tools.PrettierVersion = "3.4.2"
	}
	if cfg.Tools.Pip == "" {
		cfg.Tools.Pip = "pip"
	}
	if cfg.Tools.Python == "" {
		cfg.Tools.Python = "python"
	}
	if cfg.Tools.DatagenURL == "" {
		cfg.Tools.DatagenURL = defaultDatagenURL
	}
	if cfg.Tools.CommandTimeout == 0 {
		cfg.Tools.CommandTimeout = Duration(2 * time.Minute)
	}
	if cfg.Tools.DownloadTimeout == 0 {
		cfg.Tools.DownloadTimeout = Duration(30 * time.Second)
	}
	// Auth resolution is deferred to models.ResolveAuth() at model init time.
}
