package internal

import (
	"context"
	"fmt"
	"log/slog"
)

type EmbedderFactory func(cfg EmbeddingsConfig) (Embedder, error)

type ProviderFactory func(ctx context.Context, cfg FantasyConfig) (Provider, error)

type WorkspaceOption func(*Workspace)

// WithEmbedderFactory replaces the config-driven embedder construction.
func WithEmbedderFactory(f EmbedderFactory) WorkspaceOption {
	return func(w *Workspace) { w.embedderFor = f }
}

// WithProviderFactory replaces the fantasy-backed provider construction.
func WithProviderFactory(f ProviderFactory) WorkspaceOption {
	return func(w *Workspace) { w.providerFor = f }
}

// Workspace resolves scopes and their configuration and assembles pipelines.
type Workspace struct {
	resolver    *ScopeResolver
	logger      *slog.Logger
	embedderFor EmbedderFactory
	providerFor ProviderFactory
}

func NewWorkspace(resolver *ScopeResolver, logger *slog.Logger, opts ...WorkspaceOption) *Workspace {
	w := &Workspace{
		resolver:    resolver,
		logger:      orDiscard(logger),
		embedderFor: NewEmbedder,
		providerFor: func(ctx context.Context, cfg FantasyConfig) (Provider, error) {
			return NewFantasyProvider(ctx, cfg)
		},
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) Resolver() *ScopeResolver {
	return w.resolver
}

func (w *Workspace) Logger() *slog.Logger {
	return w.logger
}

// Load resolves the scope and reads its configuration.
func (w *Workspace) Load(scopeHint string) (Scope, *Config, error) {
	scope := w.resolver.Resolve(scopeHint)
	cfg, err := LoadConfig(scope)
	if err != nil {
		return scope, nil, err
	}
	return scope, cfg, nil
}

type OpenOptions struct {
	// Provider names the generation provider; empty means the default.
	Provider string
	// NeedProvider makes a missing provider or credential an error.
	NeedProvider bool
	Rebuild      bool
}

// Open builds a pipeline for the scope. Provider problems are reported
// before any parsing or embedding happens.
func (w *Workspace) Open(ctx context.Context, scopeHint string, opts OpenOptions) (*Pipeline, *Config, error) {
	scope, cfg, err := w.Load(scopeHint)
	if err != nil {
		return nil, nil, err
	}

	var provider Provider
	if opts.NeedProvider {
		settings, err := cfg.ProviderSettings(opts.Provider)
		if err != nil {
			return nil, nil, err
		}
		provider, err = w.providerFor(ctx, settings)
		if err != nil {
			return nil, nil, fmt.Errorf("create provider: %w", err)
		}
	}

	embedder, err := w.embedderFor(cfg.Embeddings)
	if err != nil {
		return nil, nil, fmt.Errorf("create embedder: %w", err)
	}

	cache, err := OpenCacheStore(scope, cfg)
	if err != nil {
		embedder.Close()
		return nil, nil, fmt.Errorf("open cache: %w", err)
	}

	pipeline, err := OpenPipeline(ctx, PipelineConfig{
		LogPath:        cfg.LogPath(scope),
		Embedder:       embedder,
		Cache:          cache,
		Provider:       provider,
		BatchSize:      cfg.Embeddings.BatchSize,
		MaxPromptChars: cfg.Prompt.MaxChars,
		EmbedTimeout:   cfg.Embeddings.Timeout,
		Rebuild:        opts.Rebuild,
		Logger:         w.logger,
	})
	if err != nil {
		embedder.Close()
		cache.Close()
		return nil, nil, err
	}
	return pipeline, cfg, nil
}
