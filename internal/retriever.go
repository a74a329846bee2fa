package internal

import (
	"context"
	"fmt"
	"sort"
)

// RetrievalResult pairs a record with its cosine similarity to the query.
type RetrievalResult struct {
	Score    float64      `json:"score"`
	Position int          `json:"position"`
	Record   CommitRecord `json:"record"`
}

type Retriever struct {
	index    *EmbeddingIndex
	embedder Embedder
}

func NewRetriever(index *EmbeddingIndex, embedder Embedder) *Retriever {
	return &Retriever{index: index, embedder: embedder}
}

// Retrieve embeds query and returns the min(k, corpus size) most similar
// records, best first. Equal scores keep corpus order. No threshold is
// applied.
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]RetrievalResult, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}

	qvec, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	if len(qvec) != r.index.Dimension() {
		return nil, fmt.Errorf("%w: query has %d, corpus has %d", ErrDimensionMismatch, len(qvec), r.index.Dimension())
	}

	scores := r.score(qvec)

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	n := min(k, len(order))
	records := r.index.Corpus().Records
	results := make([]RetrievalResult, n)
	for i := 0; i < n; i++ {
		pos := order[i]
		results[i] = RetrievalResult{
			Score:    scores[pos],
			Position: pos,
			Record:   records[pos],
		}
	}
	return results, nil
}

func (r *Retriever) score(qvec []float32) []float64 {
	qnorm := vectorNorm(qvec)
	scores := make([]float64, r.index.Len())
	for i := range scores {
		scores[i] = cosine(qvec, qnorm, r.index.vectors[i], r.index.norms[i])
	}
	return scores
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, anorm float64, b []float32, bnorm float64) float64 {
	if anorm == 0 || bnorm == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	s := dot / (anorm * bnorm)
	switch {
	case s > 1:
		return 1
	case s < -1:
		return -1
	}
	return s
}
