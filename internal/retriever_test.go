package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRetriever(t *testing.T, records []CommitRecord, vectors [][]float32, embedder Embedder) *Retriever {
	t.Helper()
	idx, err := BuildIndex(context.Background(), BuildCorpus(records), embedder, &memoryCache{vectors: vectors}, IndexOptions{})
	require.NoError(t, err)
	return NewRetriever(idx, embedder)
}

func TestRetrieveRanksByCosine(t *testing.T) {
	embedder := newKeywordEmbedder("login", "cach", "retry")
	r := newTestRetriever(t, sampleRecords(), nil, embedder)

	results, err := r.Retrieve(context.Background(), "timeout retry logic", 1)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "c3", results[0].Record.Hash)
	assert.Equal(t, 2, results[0].Position)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestRetrieveTiesKeepCorpusOrder(t *testing.T) {
	embedder := newKeywordEmbedder("x", "y")
	vectors := [][]float32{{0, 1}, {1, 0}, {2, 0}, {1, 0}}
	records := []CommitRecord{{Hash: "p0"}, {Hash: "p1"}, {Hash: "p2"}, {Hash: "p3"}}
	r := newTestRetriever(t, records, vectors, embedder)

	results, err := r.Retrieve(context.Background(), "x", 4)
	require.NoError(t, err)
	require.Len(t, results, 4)

	got := make([]int, len(results))
	for i, res := range results {
		got[i] = res.Position
	}
	assert.Equal(t, []int{1, 2, 3, 0}, got)
	assert.Equal(t, results[0].Score, results[1].Score)
	assert.Equal(t, 0.0, results[3].Score)
}

func TestRetrieveClampsK(t *testing.T) {
	r := newTestRetriever(t, sampleRecords(), nil, newKeywordEmbedder("login", "cach", "retry"))

	results, err := r.Retrieve(context.Background(), "login", 50)
	require.NoError(t, err)
	assert.Len(t, results, 3)
	for i := 1; i < len(results); i++ {
		assert.GreaterOrEqual(t, results[i-1].Score, results[i].Score)
	}
}

func TestRetrieveInvalidK(t *testing.T) {
	embedder := newKeywordEmbedder("login", "cach", "retry")
	r := newTestRetriever(t, sampleRecords(), nil, embedder)
	before := embedder.count()

	for _, k := range []int{0, -1} {
		_, err := r.Retrieve(context.Background(), "login", k)
		assert.ErrorIs(t, err, ErrInvalidK)
	}
	assert.Equal(t, before, embedder.count())
}

func TestRetrieveZeroQueryVector(t *testing.T) {
	r := newTestRetriever(t, sampleRecords(), nil, newKeywordEmbedder("login", "cach", "retry"))

	results, err := r.Retrieve(context.Background(), "nothing matches", 3)
	require.NoError(t, err)
	for i, res := range results {
		assert.Equal(t, 0.0, res.Score)
		assert.Equal(t, i, res.Position)
	}
}

func TestRetrieveDimensionMismatch(t *testing.T) {
	embedder := newKeywordEmbedder("login", "cach", "retry")
	vectors := [][]float32{{1, 0}, {0, 1}, {1, 1}}
	idx := newEmbeddingIndex(BuildCorpus(sampleRecords()), vectors, true)

	_, err := NewRetriever(idx, embedder).Retrieve(context.Background(), "login", 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestRetrieveEmbedFailure(t *testing.T) {
	embedder := newKeywordEmbedder("login", "cach", "retry")
	r := newTestRetriever(t, sampleRecords(), nil, embedder)
	embedder.fail(errors.New("quota exceeded"))

	_, err := r.Retrieve(context.Background(), "login", 1)
	assert.ErrorContains(t, err, "quota exceeded")
}

func TestCosine(t *testing.T) {
	a := []float32{1, 0}
	assert.InDelta(t, 1.0, cosine(a, 1, a, 1), 1e-12)
	assert.InDelta(t, -1.0, cosine(a, 1, []float32{-1, 0}, 1), 1e-12)
	assert.Equal(t, 0.0, cosine(a, 1, []float32{0, 0}, 0))
}
