package v1

import (
	"log/slog"

	"github.com/4thel00z/gitrag/internal"
)

// Option configures a Client.
type Option func(*clientConfig)

type clientConfig struct {
	logPath   string
	cachePath string
	embedder  internal.Embedder
	provider  internal.Provider
	topK      int
	logger    *slog.Logger
}

// WithLogPath sets the commit log to load. Defaults to diffs.log in the
// working directory.
func WithLogPath(path string) Option {
	return func(c *clientConfig) {
		c.logPath = path
	}
}

// WithCachePath persists embeddings to a zstd-compressed file at path.
// Without it vectors are recomputed on every New.
func WithCachePath(path string) Option {
	return func(c *clientConfig) {
		c.cachePath = path
	}
}

// WithEmbedder replaces the offline TF-IDF embedder.
func WithEmbedder(e internal.Embedder) Option {
	return func(c *clientConfig) {
		c.embedder = e
	}
}

// WithProvider sets the model used by Ask.
func WithProvider(p internal.Provider) Option {
	return func(c *clientConfig) {
		c.provider = p
	}
}

// WithTopK sets the number of commits used when a call passes k <= 0.
func WithTopK(k int) Option {
	return func(c *clientConfig) {
		c.topK = k
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) {
		c.logger = logger
	}
}
