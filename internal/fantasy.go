package internal

import (
	"context"
	"fmt"
	"strings"

	"charm.land/fantasy"
	"charm.land/fantasy/providers/anthropic"
	"charm.land/fantasy/providers/google"
	"charm.land/fantasy/providers/openai"
	"charm.land/fantasy/providers/openaicompat"
	"charm.land/fantasy/providers/openrouter"
)

type FantasyConfig struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
}

var _ Provider = (*FantasyProvider)(nil)

type FantasyProvider struct {
	model fantasy.LanguageModel
	name  string
}

// NewFantasyProvider resolves a language model for cfg. An empty APIKey is
// only accepted for openaicompat endpoints, which are often local servers.
func NewFantasyProvider(ctx context.Context, cfg FantasyConfig) (*FantasyProvider, error) {
	if cfg.APIKey == "" && cfg.Provider != "openaicompat" {
		return nil, fmt.Errorf("%w: %s", ErrMissingCredential, cfg.Provider)
	}

	var provider fantasy.Provider
	var err error

	switch cfg.Provider {
	case "openai":
		opts := []openai.Option{openai.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
		}
		provider, err = openai.New(opts...)

	case "anthropic":
		opts := []anthropic.Option{anthropic.WithAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
		}
		provider, err = anthropic.New(opts...)

	case "openrouter":
		opts := []openrouter.Option{openrouter.WithAPIKey(cfg.APIKey)}
		provider, err = openrouter.New(opts...)

	case "google", "gemini":
		opts := []google.Option{google.WithGeminiAPIKey(cfg.APIKey)}
		if cfg.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(cfg.BaseURL))
		}
		provider, err = google.New(opts...)

	case "openaicompat":
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("openaicompat provider requires a base URL")
		}
		opts := []openaicompat.Option{openaicompat.WithBaseURL(cfg.BaseURL)}
		if cfg.APIKey != "" {
			opts = append(opts, openaicompat.WithAPIKey(cfg.APIKey))
		}
		provider, err = openaicompat.New(opts...)

	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	model, err := provider.LanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("get language model: %w", err)
	}

	return &FantasyProvider{
		model: model,
		name:  cfg.Provider,
	}, nil
}

func (p *FantasyProvider) Name() string {
	return p.name
}

func (p *FantasyProvider) Complete(ctx context.Context, prompt string) (string, error) {
	agent := fantasy.NewAgent(p.model)

	result, err := agent.Generate(ctx, fantasy.AgentCall{
		Prompt: prompt,
	})
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	text := strings.TrimSpace(result.Response.Content.Text())
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}
