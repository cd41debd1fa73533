package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for tasker.
type Config struct {
	Gateway   GatewayConfig   `json:"gateway" yaml:"gateway"`
	Data      DataConfig      `json:"data" yaml:"data"`
	Models    ModelsConfig    `json:"models" yaml:"models"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding"`
	Tasks     TasksConfig     `json:"tasks" yaml:"tasks"`
	Tools     ToolsConfig     `json:"tools" yaml:"tools"`
}

// GatewayConfig holds the gateway server settings.
type GatewayConfig struct {
	Host      string `json:"host" yaml:"host"`
	Port      int    `json:"port" yaml:"port"`
	RateLimit int    `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"` // requests per minute per IP on /run (0 = off)
}

// DataConfig locates the sandboxed data directory.
type DataConfig struct {
	Dir    string `json:"dir" yaml:"dir"`       // local directory (default: ./data)
	Prefix string `json:"prefix" yaml:"prefix"` // external prefix accepted by /read (default: /data)
}

// ModelsConfig holds model provider configuration.
type ModelsConfig struct {
	Default   string                    `json:"default" yaml:"default"`
	Providers map[string]ProviderConfig `json:"providers" yaml:"providers"`
}

// ProviderConfig configures a single LLM provider.
type ProviderConfig struct {
	Driver    string         `json:"driver" yaml:"driver"` // "openai", "ollama", "anthropic", "gemini", "mistral"
	Model     string         `json:"model" yaml:"model"`
	BaseURL   string         `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Auth      AuthConfig     `json:"auth" yaml:"auth"`
	MaxTokens int            `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty"`
	Timeout   Duration       `json:"timeout,omitempty" yaml:"timeout,omitempty"`
	Options   map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
}

// AuthConfig configures API key resolution.
type AuthConfig struct {
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"` // Direct API key or ${VAR}
	Token  string `json:"token,omitempty" yaml:"token,omitempty"`     // Bearer token
}

// EmbeddingConfig configures the embedder used for comment similarity.
type EmbeddingConfig struct {
	Driver  string     `json:"driver" yaml:"driver"` // "openai", "ollama"
	Model   string     `json:"model" yaml:"model"`
	BaseURL string     `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Auth    AuthConfig `json:"auth" yaml:"auth"`
	Dims    int        `json:"dims,omitempty" yaml:"dims,omitempty"`
	Timeout Duration   `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// TasksConfig tunes classification and handler execution.
type TasksConfig struct {
	ClassifierModel string   `json:"classifier_model,omitempty" yaml:"classifier_model,omitempty"` // provider name (empty = default)
	ExtractorModel  string   `json:"extractor_model,omitempty" yaml:"extractor_model,omitempty"`   // provider name (empty = default)
	ClassifyTimeout Duration `json:"classify_timeout,omitempty" yaml:"classify_timeout,omitempty"`
	HandlerTimeout  Duration `json:"handler_timeout,omitempty" yaml:"handler_timeout,omitempty"`
	UserEmail       string   `json:"user_email,omitempty" yaml:"user_email,omitempty"`   // falls back to $USER_EMAIL
	TicketType      string   `json:"ticket_type,omitempty" yaml:"ticket_type,omitempty"` // default: Gold
}

// ToolsConfig locates the external executables some handlers shell out to.
type ToolsConfig struct {
	Prettier        string   `json:"prettier,omitempty" yaml:"prettier,omitempty"`
	Npx             string   `json:"npx,omitempty" yaml:"npx,omitempty"`
	PrettierVersion string   `json:"prettier_version,omitempty" yaml:"prettier_version,omitempty"`
	Pip             string   `json:"pip,omitempty" yaml:"pip,omitempty"`
	Python          string   `json:"python,omitempty" yaml:"python,omitempty"`
	DatagenURL      string   `json:"datagen_url,omitempty" yaml:"datagen_url,omitempty"`
	CommandTimeout  Duration `json:"command_timeout,omitempty" yaml:"command_timeout,omitempty"`
	DownloadTimeout Duration `json:"download_timeout,omitempty" yaml:"download_timeout,omitempty"`
}

// Duration wraps time.Duration for JSON and YAML unmarshaling.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Duration(d).String() + `"`), nil
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("duration: expected a scalar, got %v", node.Tag)
	}
	dur, err := time.ParseDuration(node.Value)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}
