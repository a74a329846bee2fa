package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

type PipelineConfig struct {
	LogPath  string
	Embedder Embedder
	Cache    CacheStore
	// Provider may be nil; answers then report the missing provider.
	Provider       Provider
	BatchSize      int
	MaxPromptChars int
	// EmbedTimeout bounds corpus indexing and each query embedding.
	EmbedTimeout time.Duration
	Rebuild      bool
	Logger       *slog.Logger
}

// Pipeline owns everything built at startup: the parsed log, the corpus,
// its vectors and the retrieval and generation stages. It is read-only
// after OpenPipeline returns.
type Pipeline struct {
	parsed    *ParseResult
	corpus    *Corpus
	index     *EmbeddingIndex
	retriever *Retriever
	generator *AnswerGenerator
	embedder  Embedder
	cache     CacheStore
	timeout   time.Duration
	logger    *slog.Logger
}

// OpenPipeline parses the log, builds or loads the index and wires the
// retriever and generator. Zero parsable commits and embedding failures are
// returned as errors.
func OpenPipeline(ctx context.Context, cfg PipelineConfig) (*Pipeline, error) {
	logger := orDiscard(cfg.Logger)

	parsed, err := NewLogParser(logger).ParseFile(cfg.LogPath)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", cfg.LogPath, err)
	}
	logger.Info("parsed commit log", "path", cfg.LogPath, "commits", len(parsed.Records), "skipped", parsed.Skipped)

	corpus := BuildCorpus(parsed.Records)

	indexCtx, cancel := withOptionalTimeout(ctx, cfg.EmbedTimeout)
	defer cancel()

	index, err := BuildIndex(indexCtx, corpus, cfg.Embedder, cfg.Cache, IndexOptions{
		BatchSize: cfg.BatchSize,
		Rebuild:   cfg.Rebuild,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}

	return &Pipeline{
		parsed:    parsed,
		corpus:    corpus,
		index:     index,
		retriever: NewRetriever(index, cfg.Embedder),
		generator: NewAnswerGenerator(cfg.Provider, cfg.MaxPromptChars, logger),
		embedder:  cfg.Embedder,
		cache:     cfg.Cache,
		timeout:   cfg.EmbedTimeout,
		logger:    logger,
	}, nil
}

func (p *Pipeline) Records() []CommitRecord {
	return p.corpus.Records
}

// Skipped is the number of malformed log blocks left out of the corpus.
func (p *Pipeline) Skipped() int {
	return p.parsed.Skipped
}

func (p *Pipeline) Index() *EmbeddingIndex {
	return p.index
}

// Search rejects blank queries before anything is embedded.
func (p *Pipeline) Search(ctx context.Context, query string, k int) ([]RetrievalResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	qctx, cancel := withOptionalTimeout(ctx, p.timeout)
	defer cancel()
	return p.retriever.Retrieve(qctx, query, k)
}

// Ask retrieves context for query and generates an answer. Only retrieval
// errors are returned; generation failures are reported in Answer.Text.
func (p *Pipeline) Ask(ctx context.Context, query string, k int) (*Answer, error) {
	results, err := p.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}

	text, ok := p.generator.Generate(ctx, query, results)
	return &Answer{
		Query:   query,
		Results: results,
		Text:    text,
		Failed:  !ok,
	}, nil
}

// Generate runs only the generation stage for already retrieved results.
func (p *Pipeline) Generate(ctx context.Context, query string, results []RetrievalResult) (string, bool) {
	return p.generator.Generate(ctx, query, results)
}

func (p *Pipeline) Close() error {
	var errs []error
	if p.embedder != nil {
		errs = append(errs, p.embedder.Close())
	}
	if p.cache != nil {
		errs = append(errs, p.cache.Close())
	}
	return errors.Join(errs...)
}

func withOptionalTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}
