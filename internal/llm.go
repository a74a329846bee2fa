package internal

import "context"

// Embedder turns text into fixed-dimension vectors. Calls block until the
// backend answers; timeouts come from ctx.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is 0 until the backend has produced a vector.
	Dimension() int
	Close() error
}

// Preparer is implemented by embedders that must see the corpus before
// they can embed anything.
type Preparer interface {
	Prepare(ctx context.Context, corpus []string) error
}

// Provider generates text from a single prompt.
type Provider interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
