package llm

import (
	"fmt"
	"time"
)

type ProviderConfig struct {
	Provider   string
	APIKey     string
	Model      string
	BaseURL    string
	Shape      string // chat or responses; only the openai provider uses it
	Timeout    time.Duration
	MaxRetries int
}

func NewClient(cfg ProviderConfig) (Client, error) {
	switch cfg.Provider {
	case "openai":
		if cfg.Shape != ShapeChat && cfg.Shape != ShapeResponses && cfg.Shape != "" {
			return nil, fmt.Errorf("unknown API shape: %s", cfg.Shape)
		}
		return NewHTTPClient(HTTPOptions{
			APIKey:     cfg.APIKey,
			Model:      cfg.Model,
			BaseURL:    cfg.BaseURL,
			Shape:      cfg.Shape,
			Timeout:    cfg.Timeout,
			MaxRetries: cfg.MaxRetries,
		}), nil
	case "openai-sdk":
		return NewOpenAIClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout, cfg.MaxRetries), nil
	case "anthropic":
		return NewAnthropicClient(cfg.APIKey, cfg.Model, cfg.BaseURL, cfg.Timeout, cfg.MaxRetries), nil
	case "ollama":
		if cfg.Model == "" {
			cfg.Model = "llama3.1"
		}
		if cfg.BaseURL == "" {
			cfg.BaseURL = "http://localhost:11434/v1"
		}
		return NewOpenAIClient("ollama", cfg.Model, cfg.BaseURL, cfg.Timeout, cfg.MaxRetries), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %s", cfg.Provider)
	}
}
