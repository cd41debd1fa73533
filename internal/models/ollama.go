package models

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	einoollama "github.com/cloudwego/eino-ext/components/model/ollama"
	"github.com/cloudwego/eino/components/model"

	"github.com/dohr-michael/tasker/internal/config"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// NewOllama creates a local Ollama ChatModel. No credentials are needed.
func NewOllama(ctx context.Context, cfg config.ProviderConfig) (model.BaseChatModel, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}

	modelConfig := &einoollama.ChatModelConfig{
		BaseURL: baseURL,
		Model:   cfg.Model,
		Timeout: timeoutOr(cfg, 300*time.Second),
	}

	opts := &einoollama.Options{}
	if cfg.MaxTokens > 0 {
		opts.NumPredict = cfg.MaxTokens
	}
	if temp, ok := floatOption(cfg, "temperature"); ok {
		opts.Temperature = float32(temp)
	}
	if numCtx, ok := floatOption(cfg, "num_ctx"); ok {
		opts.NumCtx = int(numCtx)
	}
	modelConfig.Options = opts

	modelConfig.HTTPClient = &http.Client{
		Timeout:   modelConfig.Timeout,
		Transport: &ollamaTransport{inner: http.DefaultTransport, provider: "ollama"},
	}

	return einoollama.NewChatModel(ctx, modelConfig)
}

// ollamaTransport turns non-JSON answers (a reverse proxy printing
// "no available server", an HTML error page) into ErrModelUnavailable
// instead of letting the client fail on a decode error.
type ollamaTransport struct {
	inner    http.RoundTripper
	provider string
}

func (t *ollamaTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		return nil, &ErrModelUnavailable{Provider: t.provider, Cause: err}
	}

	ct := resp.Header.Get("Content-Type")
	if resp.StatusCode >= 400 || (ct != "" && !strings.Contains(ct, "json")) {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		resp.Body.Close()
		return nil, &ErrModelUnavailable{
			Provider: t.provider,
			Body:     strings.TrimSpace(string(body)),
		}
	}

	return resp, nil
}
