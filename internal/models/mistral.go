package models

import (
	"context"
	"time"

	einoopenai "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/tasker/internal/config"
)

const (
	defaultMistralBaseURL = "https://api.mistral.ai/v1"
	defaultMistralModel   = "mistral-small-latest"
)

// NewMistral creates a Mistral AI ChatModel via the OpenAI-compatible API.
// pixtral models accept the image parts used for card extraction.
func NewMistral(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.BaseChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultMistralModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultMistralBaseURL
	}

	modelConfig := &einoopenai.ChatModelConfig{
		APIKey:  auth.Value,
		Model:   modelName,
		BaseURL: baseURL,
		Timeout: timeoutOr(cfg, 5*time.Minute),
	}

	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxCompletionTokens = &maxTokens
	}
	if temp, ok := floatOption(cfg, "temperature"); ok {
		t := float32(temp)
		modelConfig.Temperature = &t
	}
	if topP, ok := floatOption(cfg, "top_p"); ok {
		p := float32(topP)
		modelConfig.TopP = &p
	}

	return einoopenai.NewChatModel(ctx, modelConfig)
}
