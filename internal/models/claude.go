package models

import (
	"context"

	"github.com/cloudwego/eino-ext/components/model/claude"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/tasker/internal/config"
)

const (
	defaultClaudeModel     = "claude-sonnet-4-6"
	defaultClaudeMaxTokens = 1024
)

// NewClaude creates an Anthropic ChatModel through eino-ext. Request
// deadlines come from the caller context.
func NewClaude(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.BaseChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultClaudeModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultClaudeMaxTokens
	}

	modelConfig := &claude.Config{
		APIKey:    auth.Value,
		Model:     modelName,
		MaxTokens: maxTokens,
	}
	if cfg.BaseURL != "" {
		baseURL := cfg.BaseURL
		modelConfig.BaseURL = &baseURL
	}
	if temp, ok := floatOption(cfg, "temperature"); ok {
		t := float32(temp)
		modelConfig.Temperature = &t
	}

	return claude.NewChatModel(ctx, modelConfig)
}
