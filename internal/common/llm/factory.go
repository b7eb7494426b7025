package llm

import (
	"fmt"

	"analytics-chat/internal/common/config"
	apphttp "analytics-chat/internal/common/http"
)

// NewBackend builds the configured chat backend. The embedder is non-nil only
// when an Ollama endpoint is available for embeddings.
func NewBackend(cfg config.LLMConfig) (Backend, Embedder, error) {
	client := apphttp.NewClient(0)

	var embedder Embedder
	embedURL := cfg.EmbedBaseURL
	if embedURL == "" && cfg.Provider == "ollama" {
		embedURL = cfg.BaseURL
	}
	if embedURL != "" {
		embedder = NewOllamaBackend(embedURL, cfg.Model, cfg.EmbedModel, client)
	}

	switch cfg.Provider {
	case "ollama":
		return NewOllamaBackend(cfg.BaseURL, cfg.Model, cfg.EmbedModel, client), embedder, nil
	case "anthropic":
		return NewAnthropicBackend(cfg.APIKey, cfg.Model), embedder, nil
	case "openai":
		return NewOpenAIBackend(cfg.APIKey, cfg.BaseURL, cfg.Model), embedder, nil
	default:
		return nil, nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}

func GatewayConfigFrom(cfg config.LLMConfig) GatewayConfig {
	return GatewayConfig{
		Timeout:    config.GetDuration(cfg.Timeout),
		RetryDelay: config.GetDuration(cfg.RetryDelay),
		MaxRetries: cfg.MaxRetries,
	}
}
