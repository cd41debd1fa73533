package models

import (
	"context"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/tasker/internal/config"
)

const defaultRequestTimeout = 60 * time.Second

// NewOpenAI creates an OpenAI-compatible ChatModel. This is also the driver
// for the AI proxy, which speaks the OpenAI wire format.
func NewOpenAI(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.BaseChatModel, error) {
	modelConfig := &einoopenai.ChatModelConfig{
		APIKey:  auth.Value,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Timeout: timeoutOr(cfg, defaultRequestTimeout),
	}

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}
	if temp, ok := floatOption(cfg, "temperature"); ok {
		t := float32(temp)
		modelConfig.Temperature = &t
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}

func timeoutOr(cfg config.ProviderConfig, fallback time.Duration) time.Duration {
	if d := cfg.Timeout.Duration(); d > 0 {
		return d
	}
	return fallback
}

// floatOption reads a numeric provider option. JSON decodes numbers as
// float64, YAML may hand back an int.
func floatOption(cfg config.ProviderConfig, key string) (float64, bool) {
	switch v := cfg.Options[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
