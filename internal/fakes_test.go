package internal

import (
	"context"
	"strings"
	"sync"
)

// keywordEmbedder maps text onto one axis per keyword it contains. It counts
// every text it is asked to embed.
type keywordEmbedder struct {
	mu       sync.Mutex
	keywords []string
	embedded int
	calls    int
	failWith error
}

func newKeywordEmbedder(keywords ...string) *keywordEmbedder {
	return &keywordEmbedder{keywords: keywords}
}

func (e *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (e *keywordEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	if e.failWith != nil {
		return nil, e.failWith
	}
	e.embedded += len(texts)

	out := make([][]float32, len(texts))
	for i, text := range texts {
		lower := strings.ToLower(text)
		vec := make([]float32, len(e.keywords))
		for j, kw := range e.keywords {
			vec[j] = float32(strings.Count(lower, kw))
		}
		out[i] = vec
	}
	return out, nil
}

func (e *keywordEmbedder) Dimension() int {
	return len(e.keywords)
}

func (e *keywordEmbedder) Close() error {
	return nil
}

func (e *keywordEmbedder) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.embedded
}

func (e *keywordEmbedder) fail(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failWith = err
}

type fakeProvider struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (p *fakeProvider) Complete(_ context.Context, prompt string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prompts = append(p.prompts, prompt)
	if p.err != nil {
		return "", p.err
	}
	return p.reply, nil
}

func (p *fakeProvider) lastPrompt() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.prompts) == 0 {
		return ""
	}
	return p.prompts[len(p.prompts)-1]
}

type memoryCache struct {
	vectors [][]float32
	saves   int
	saveErr error
}

func (c *memoryCache) Load(context.Context) ([][]float32, error) {
	if c.vectors == nil {
		return nil, ErrCacheEmpty
	}
	return c.vectors, nil
}

func (c *memoryCache) Save(_ context.Context, vectors [][]float32) error {
	c.saves++
	if c.saveErr != nil {
		return c.saveErr
	}
	c.vectors = vectors
	return nil
}

func (c *memoryCache) Close() error {
	return nil
}

func sampleRecords() []CommitRecord {
	return []CommitRecord{
		{Hash: "a1", Author: "Ann <ann@x.io>", Date: "2024-01-02 10:00:00+00:00", Message: "fix login bug", Diff: "+check token"},
		{Hash: "b2", Author: "Bob <bob@x.io>", Date: "2024-01-03 10:00:00+00:00", Message: "add caching layer", Diff: "+cache"},
		{Hash: "c3", Author: "Cid <cid@x.io>", Date: "2024-01-04 10:00:00+00:00", Message: "add timeout retry logic", Diff: "+retry"},
	}
}
