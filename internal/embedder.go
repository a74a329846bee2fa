package internal

import (
	"fmt"
	"os"
)

// NewEmbedder builds the embedding backend named by cfg.Backend.
func NewEmbedder(cfg EmbeddingsConfig) (Embedder, error) {
	switch cfg.Backend {
	case EmbeddingsTFIDF, "":
		return NewTFIDFEmbedder(cfg.MaxTerms), nil

	case EmbeddingsOpenAI:
		env := cfg.APIKeyEnv
		if env == "" {
			env = DefaultOpenAIKeyEnv
		}
		key := os.Getenv(env)
		if key == "" {
			return nil, fmt.Errorf("%w: embeddings (set %s)", ErrMissingCredential, env)
		}
		return NewOpenAIEmbedder(OpenAIEmbedderConfig{
			APIKey:    key,
			BaseURL:   cfg.BaseURL,
			Model:     cfg.Model,
			Dimension: cfg.Dimension,
		}), nil

	case EmbeddingsOllama:
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = DefaultOllamaBaseURL
		}
		model := cfg.Model
		if model == "" {
			model = DefaultOllamaEmbeddingModel
		}
		return NewOpenAIEmbedder(OpenAIEmbedderConfig{
			APIKey:  "ollama",
			BaseURL: baseURL,
			Model:   model,
		}), nil

	default:
		return nil, fmt.Errorf("%w: embeddings %q", ErrUnknownBackend, cfg.Backend)
	}
}

// OpenCacheStore opens the cache backend named by cfg.Cache.Backend.
func OpenCacheStore(scope Scope, cfg *Config) (CacheStore, error) {
	path := cfg.CachePath(scope)
	switch cfg.Cache.Backend {
	case CacheBackendFile, "":
		return NewFileCache(path), nil
	case CacheBackendSQLite:
		return OpenSQLiteCache(path)
	default:
		return nil, fmt.Errorf("%w: cache %q", ErrUnknownBackend, cfg.Cache.Backend)
	}
}
