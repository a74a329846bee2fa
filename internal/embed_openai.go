package internal

import (
	"context"
	"fmt"
	"sort"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const (
	DefaultOpenAIEmbeddingModel = "text-embedding-3-small"
	DefaultOllamaBaseURL        = "http://localhost:11434/v1"
	DefaultOllamaEmbeddingModel = "nomic-embed-text"
)

type OpenAIEmbedderConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	// Dimension asks the backend for shortened vectors when non-zero.
	Dimension  int
	MaxRetries int
}

var _ Embedder = (*OpenAIEmbedder)(nil)

// OpenAIEmbedder calls an OpenAI-compatible /embeddings endpoint. Retries
// with backoff are handled by the client.
type OpenAIEmbedder struct {
	client    openai.Client
	model     string
	requested int
	dimension int
}

func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) *OpenAIEmbedder {
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIEmbeddingModel
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 5
	}

	opts := []option.RequestOption{option.WithMaxRetries(cfg.MaxRetries)}
	if cfg.APIKey != "" {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIEmbedder{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		requested: cfg.Dimension,
		dimension: cfg.Dimension,
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *OpenAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	}
	if e.requested > 0 {
		params.Dimensions = openai.Int(int64(e.requested))
	}

	resp, err := e.client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("create embeddings: got %d vectors for %d inputs", len(resp.Data), len(texts))
	}

	data := resp.Data
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	out := make([][]float32, len(data))
	for i, d := range data {
		if len(d.Embedding) == 0 {
			return nil, fmt.Errorf("create embeddings: empty vector at index %d", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for j, v := range d.Embedding {
			vec[j] = float32(v)
		}
		out[i] = vec
	}

	if e.dimension == 0 {
		e.dimension = len(out[0])
	}
	return out, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) Close() error {
	return nil
}
