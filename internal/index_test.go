package internal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildIndexComputesAndSaves(t *testing.T) {
	ctx := context.Background()
	corpus := BuildCorpus(sampleRecords())
	embedder := newKeywordEmbedder("login", "cach", "retry")
	store := &memoryCache{}

	idx, err := BuildIndex(ctx, corpus, embedder, store, IndexOptions{BatchSize: 2})
	require.NoError(t, err)

	assert.False(t, idx.FromCache())
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 3, idx.Dimension())
	assert.Equal(t, 3, embedder.count())
	assert.Equal(t, 2, embedder.calls)
	assert.Equal(t, 1, store.saves)
	assert.Len(t, store.vectors, 3)
}

func TestBuildIndexUsesValidCache(t *testing.T) {
	ctx := context.Background()
	corpus := BuildCorpus(sampleRecords())
	store := &memoryCache{vectors: [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
	embedder := newKeywordEmbedder("login", "cach", "retry")

	idx, err := BuildIndex(ctx, corpus, embedder, store, IndexOptions{})
	require.NoError(t, err)

	assert.True(t, idx.FromCache())
	assert.Equal(t, 0, embedder.count())
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, []float32{0, 1, 0}, idx.Vector(1))
}

func TestBuildIndexLengthMismatchRecomputes(t *testing.T) {
	ctx := context.Background()
	corpus := BuildCorpus(sampleRecords())
	store := &memoryCache{vectors: [][]float32{{1, 0, 0}, {0, 1, 0}}}
	embedder := newKeywordEmbedder("login", "cach", "retry")

	idx, err := BuildIndex(ctx, corpus, embedder, store, IndexOptions{})
	require.NoError(t, err)

	assert.False(t, idx.FromCache())
	assert.Equal(t, 3, embedder.count())
	assert.Len(t, store.vectors, 3)
}

func TestBuildIndexSameLengthCacheIsTrusted(t *testing.T) {
	ctx := context.Background()
	store := &memoryCache{}
	embedder := newKeywordEmbedder("login", "cach", "retry")

	_, err := BuildIndex(ctx, BuildCorpus(sampleRecords()), embedder, store, IndexOptions{})
	require.NoError(t, err)
	stale := store.vectors

	changed := sampleRecords()
	changed[0].Message = "something else entirely"
	idx, err := BuildIndex(ctx, BuildCorpus(changed), embedder, store, IndexOptions{})
	require.NoError(t, err)

	assert.True(t, idx.FromCache())
	assert.Equal(t, stale[0], idx.Vector(0))
	assert.Equal(t, 3, embedder.count())
}

func TestBuildIndexRejectsBadCacheDimensions(t *testing.T) {
	ctx := context.Background()
	corpus := BuildCorpus(sampleRecords())

	for name, vectors := range map[string][][]float32{
		"ragged":   {{1, 0, 0}, {0, 1}, {0, 0, 1}},
		"wrong":    {{1, 0}, {0, 1}, {1, 1}},
		"zero dim": {{}, {}, {}},
	} {
		t.Run(name, func(t *testing.T) {
			store := &memoryCache{vectors: vectors}
			embedder := newKeywordEmbedder("login", "cach", "retry")

			idx, err := BuildIndex(ctx, corpus, embedder, store, IndexOptions{})
			require.NoError(t, err)
			assert.False(t, idx.FromCache())
			assert.Equal(t, 3, embedder.count())
		})
	}
}

func TestBuildIndexRebuildIgnoresCache(t *testing.T) {
	ctx := context.Background()
	store := &memoryCache{vectors: [][]float32{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}}
	embedder := newKeywordEmbedder("login", "cach", "retry")

	idx, err := BuildIndex(ctx, BuildCorpus(sampleRecords()), embedder, store, IndexOptions{Rebuild: true})
	require.NoError(t, err)
	assert.False(t, idx.FromCache())
	assert.Equal(t, 3, embedder.count())
}

func TestBuildIndexSaveFailureIsNotFatal(t *testing.T) {
	store := &memoryCache{saveErr: errors.New("disk full")}
	embedder := newKeywordEmbedder("login")

	idx, err := BuildIndex(context.Background(), BuildCorpus(sampleRecords()), embedder, store, IndexOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, 1, store.saves)
}

func TestBuildIndexEmbedderFailure(t *testing.T) {
	embedder := newKeywordEmbedder("login")
	embedder.fail(errors.New("backend down"))
	store := &memoryCache{}

	_, err := BuildIndex(context.Background(), BuildCorpus(sampleRecords()), embedder, store, IndexOptions{})
	assert.ErrorContains(t, err, "backend down")
	assert.Equal(t, 0, store.saves)
}

func TestBuildIndexEmptyCorpus(t *testing.T) {
	_, err := BuildIndex(context.Background(), BuildCorpus(nil), newKeywordEmbedder("x"), nil, IndexOptions{})
	assert.ErrorIs(t, err, ErrEmptyCorpus)
}

func TestBuildIndexPreparesEmbedder(t *testing.T) {
	ctx := context.Background()
	embedder := NewTFIDFEmbedder(0)

	idx, err := BuildIndex(ctx, BuildCorpus(sampleRecords()), embedder, nil, IndexOptions{})
	require.NoError(t, err)
	assert.Equal(t, embedder.Dimension(), idx.Dimension())
}

func TestInspectCache(t *testing.T) {
	ctx := context.Background()
	corpus := BuildCorpus(sampleRecords())

	status := InspectCache(ctx, corpus, &memoryCache{})
	assert.False(t, status.Valid)
	assert.Equal(t, 3, status.Commits)
	assert.NotEmpty(t, status.Reason)

	status = InspectCache(ctx, corpus, &memoryCache{vectors: [][]float32{{1, 2}, {3, 4}}})
	assert.False(t, status.Valid)
	assert.Equal(t, 2, status.Cached)
	assert.Equal(t, 2, status.Dimension)

	status = InspectCache(ctx, corpus, &memoryCache{vectors: [][]float32{{1}, {2}, {3}}})
	assert.True(t, status.Valid)
	assert.Empty(t, status.Reason)
}
