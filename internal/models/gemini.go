package models

import (
	"context"
	"fmt"
	"net/http"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	"github.com/cloudwego/eino/components/model"
	"google.golang.org/genai"

	"github.com/dohr-michael/tasker/internal/config"
)

const defaultGeminiModel = "gemini-2.5-flash"

// NewGemini creates a Google Gemini ChatModel backed by a genai client.
func NewGemini(ctx context.Context, cfg config.ProviderConfig, auth ResolvedAuth) (model.BaseChatModel, error) {
	modelName := cfg.Model
	if modelName == "" {
		modelName = defaultGeminiModel
	}

	clientCfg := &genai.ClientConfig{
		APIKey:     auth.Value,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeoutOr(cfg, defaultRequestTimeout)},
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	modelConfig := &gemini.Config{
		Client: client,
		Model:  modelName,
	}
	if cfg.MaxTokens > 0 {
		maxTokens := cfg.MaxTokens
		modelConfig.MaxTokens = &maxTokens
	}
	if temp, ok := floatOption(cfg, "temperature"); ok {
		t := float32(temp)
		modelConfig.Temperature = &t
	}

	return gemini.NewChatModel(ctx, modelConfig)
}
