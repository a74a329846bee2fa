package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
)

const DefaultBatchSize = 64

type IndexOptions struct {
	BatchSize int
	// Rebuild skips the cache and always recomputes.
	Rebuild bool
	Logger  *slog.Logger
}

// EmbeddingIndex holds one vector per corpus position. It is immutable once
// built.
type EmbeddingIndex struct {
	corpus    *Corpus
	vectors   [][]float32
	norms     []float64
	dimension int
	fromCache bool
}

// BuildIndex loads vectors from store when the stored sequence has exactly
// one vector per corpus entry, and otherwise embeds the whole corpus and
// overwrites the store. A failed save is logged and does not fail the build.
func BuildIndex(ctx context.Context, corpus *Corpus, embedder Embedder, store CacheStore, opts IndexOptions) (*EmbeddingIndex, error) {
	logger := orDiscard(opts.Logger)

	if corpus == nil || corpus.Len() == 0 {
		return nil, ErrEmptyCorpus
	}

	if p, ok := embedder.(Preparer); ok {
		if err := p.Prepare(ctx, corpus.Units); err != nil {
			return nil, fmt.Errorf("prepare embedder: %w", err)
		}
	}

	if !opts.Rebuild && store != nil {
		vectors, err := store.Load(ctx)
		if err == nil {
			err = validateCache(vectors, corpus.Len(), embedder.Dimension())
		}
		if err == nil {
			logger.Info("embedding cache valid", "vectors", len(vectors))
			return newEmbeddingIndex(corpus, vectors, true), nil
		}
		logger.Info("embedding cache miss, recomputing", "reason", err, "commits", corpus.Len())
	}

	vectors, err := embedAll(ctx, embedder, corpus.Units, opts.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}

	if store != nil {
		if err := store.Save(ctx, vectors); err != nil {
			logger.Warn("could not persist embedding cache", "err", err)
		}
	}

	return newEmbeddingIndex(corpus, vectors, false), nil
}

func newEmbeddingIndex(corpus *Corpus, vectors [][]float32, fromCache bool) *EmbeddingIndex {
	norms := make([]float64, len(vectors))
	for i, v := range vectors {
		norms[i] = vectorNorm(v)
	}
	return &EmbeddingIndex{
		corpus:    corpus,
		vectors:   vectors,
		norms:     norms,
		dimension: len(vectors[0]),
		fromCache: fromCache,
	}
}

func embedAll(ctx context.Context, embedder Embedder, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		batch, err := embedder.EmbedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, err
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embedder returned %d vectors for %d texts", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	if err := validateCache(vectors, len(texts), 0); err != nil {
		return nil, err
	}
	return vectors, nil
}

// validateCache checks the positional length rule and that every vector has
// the same non-zero dimension, matching want when want is known.
func validateCache(vectors [][]float32, n, want int) error {
	if len(vectors) != n {
		return fmt.Errorf("cache has %d vectors for %d commits", len(vectors), n)
	}
	if n == 0 {
		return errors.New("no vectors")
	}
	dim := len(vectors[0])
	if dim == 0 {
		return errors.New("zero-length vector at position 0")
	}
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: position %d has %d, want %d", ErrDimensionMismatch, i, len(v), dim)
		}
	}
	if want > 0 && dim != want {
		return fmt.Errorf("%w: cache has %d, embedder has %d", ErrDimensionMismatch, dim, want)
	}
	return nil
}

func (idx *EmbeddingIndex) Corpus() *Corpus {
	return idx.corpus
}

func (idx *EmbeddingIndex) Len() int {
	return len(idx.vectors)
}

func (idx *EmbeddingIndex) Dimension() int {
	return idx.dimension
}

// FromCache reports whether the vectors were loaded instead of computed.
func (idx *EmbeddingIndex) FromCache() bool {
	return idx.fromCache
}

// Vector returns the vector at corpus position i. Callers must not modify it.
func (idx *EmbeddingIndex) Vector(i int) []float32 {
	return idx.vectors[i]
}

// IndexStatus describes the stored cache relative to a corpus.
type IndexStatus struct {
	Commits   int    `json:"commits"`
	Cached    int    `json:"cached"`
	Dimension int    `json:"dimension"`
	Valid     bool   `json:"valid"`
	Reason    string `json:"reason,omitempty"`
}

// InspectCache reports on the store without embedding anything.
func InspectCache(ctx context.Context, corpus *Corpus, store CacheStore) IndexStatus {
	status := IndexStatus{Commits: corpus.Len()}

	vectors, err := store.Load(ctx)
	if err != nil {
		status.Reason = err.Error()
		return status
	}

	status.Cached = len(vectors)
	if len(vectors) > 0 {
		status.Dimension = len(vectors[0])
	}
	if err := validateCache(vectors, corpus.Len(), 0); err != nil {
		status.Reason = err.Error()
		return status
	}
	status.Valid = true
	return status
}

func vectorNorm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
