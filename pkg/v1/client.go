package v1

import (
	"context"
	"fmt"

	"github.com/4thel00z/gitrag/internal"
)

// Client answers questions about a commit log. The log is parsed and
// indexed once in New; all methods are read-only afterwards.
type Client struct {
	pipeline *internal.Pipeline
	topK     int
}

// New parses the log and builds or loads its embedding index.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		logPath: internal.DefaultLogFile,
		topK:    internal.DefaultTopK,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.embedder == nil {
		cfg.embedder = internal.NewTFIDFEmbedder(0)
	}

	pcfg := internal.PipelineConfig{
		LogPath:        cfg.logPath,
		Embedder:       cfg.embedder,
		Provider:       cfg.provider,
		BatchSize:      internal.DefaultBatchSize,
		MaxPromptChars: internal.DefaultMaxPromptChars,
		Logger:         cfg.logger,
	}
	if cfg.cachePath != "" {
		pcfg.Cache = internal.NewFileCache(cfg.cachePath)
	}

	pipeline, err := internal.OpenPipeline(ctx, pcfg)
	if err != nil {
		_ = cfg.embedder.Close()
		return nil, err
	}

	return &Client{pipeline: pipeline, topK: cfg.topK}, nil
}

// Commits returns the parsed commits in log order.
func (c *Client) Commits() []Commit {
	records := c.pipeline.Records()
	out := make([]Commit, len(records))
	for i, r := range records {
		out[i] = toCommit(r)
	}
	return out
}

// Search returns the k commits most similar to query. k <= 0 uses the
// client's default.
func (c *Client) Search(ctx context.Context, query string, k int) ([]SearchResult, error) {
	results, err := c.pipeline.Search(ctx, query, c.k(k))
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return toSearchResults(results), nil
}

// Ask answers question from the retrieved commits. Only retrieval errors are
// returned; a failed model call is reported through Answer.Failed.
func (c *Client) Ask(ctx context.Context, question string, k int) (*Answer, error) {
	answer, err := c.pipeline.Ask(ctx, question, c.k(k))
	if err != nil {
		return nil, fmt.Errorf("ask: %w", err)
	}
	return &Answer{
		Text:    answer.Text,
		Failed:  answer.Failed,
		Results: toSearchResults(answer.Results),
	}, nil
}

// Close releases the embedder and cache.
func (c *Client) Close() error {
	return c.pipeline.Close()
}

func (c *Client) k(k int) int {
	if k > 0 {
		return k
	}
	return c.topK
}

func toCommit(r internal.CommitRecord) Commit {
	return Commit{Hash: r.Hash, Author: r.Author, Date: r.Date, Message: r.Message, Diff: r.Diff}
}

func toSearchResults(results []internal.RetrievalResult) []SearchResult {
	out := make([]SearchResult, len(results))
	for i, r := range results {
		out[i] = SearchResult{Commit: toCommit(r.Record), Score: r.Score, Position: r.Position}
	}
	return out
}
