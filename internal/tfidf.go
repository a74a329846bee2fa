package internal

import (
	"context"
	"errors"
	"math"
	"regexp"
	"sort"
	"strings"
)

const DefaultTFIDFMaxTerms = 8192

var (
	_ Embedder = (*TFIDFEmbedder)(nil)
	_ Preparer = (*TFIDFEmbedder)(nil)
)

var tfidfToken = regexp.MustCompile(`\p{L}[\p{L}\p{N}_]*`)

// TFIDFEmbedder is an offline embedder. Its vocabulary and IDF weights come
// from the corpus passed to Prepare; vectors are L2-normalized.
type TFIDFEmbedder struct {
	maxTerms   int
	vocabulary map[string]int
	idf        []float64
	stopwords  map[string]struct{}
}

func NewTFIDFEmbedder(maxTerms int) *TFIDFEmbedder {
	if maxTerms <= 0 {
		maxTerms = DefaultTFIDFMaxTerms
	}
	return &TFIDFEmbedder{
		maxTerms:  maxTerms,
		stopwords: defaultStopwords(),
	}
}

// Prepare builds the vocabulary from corpus. When there are more distinct
// terms than maxTerms, the terms with the highest document frequency win.
func (e *TFIDFEmbedder) Prepare(_ context.Context, corpus []string) error {
	if len(corpus) == 0 {
		return ErrEmptyCorpus
	}

	df := make(map[string]int)
	for _, text := range corpus {
		seen := make(map[string]struct{})
		for _, tok := range e.tokenize(text) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}
	if len(df) == 0 {
		return errors.New("tfidf: corpus contains no tokens")
	}

	terms := make([]string, 0, len(df))
	for term := range df {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	if len(terms) > e.maxTerms {
		sort.SliceStable(terms, func(i, j int) bool { return df[terms[i]] > df[terms[j]] })
		terms = terms[:e.maxTerms]
		sort.Strings(terms)
	}

	n := float64(len(corpus))
	e.vocabulary = make(map[string]int, len(terms))
	e.idf = make([]float64, len(terms))
	for i, term := range terms {
		e.vocabulary[term] = i
		e.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1.0
	}
	return nil
}

func (e *TFIDFEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if e.vocabulary == nil {
		return nil, errors.New("tfidf embedder not prepared")
	}

	vec := make([]float32, len(e.idf))
	tf := make(map[int]int)
	total := 0
	for _, tok := range e.tokenize(text) {
		if idx, ok := e.vocabulary[tok]; ok {
			tf[idx]++
			total++
		}
	}
	if total == 0 {
		return vec, nil
	}

	weights := make([]float64, len(e.idf))
	var norm float64
	for idx, count := range tf {
		w := float64(count) / float64(total) * e.idf[idx]
		weights[idx] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for idx := range tf {
		vec[idx] = float32(weights[idx] / norm)
	}
	return vec, nil
}

func (e *TFIDFEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *TFIDFEmbedder) Dimension() int {
	return len(e.idf)
}

func (e *TFIDFEmbedder) Close() error {
	return nil
}

func (e *TFIDFEmbedder) tokenize(text string) []string {
	raw := tfidfToken.FindAllString(strings.ToLower(text), -1)
	out := raw[:0]
	for _, t := range raw {
		if _, stop := e.stopwords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	words := []string{
		"a", "an", "the", "and", "or", "but", "if", "then", "else", "for", "to", "of", "in", "on",
		"at", "by", "with", "as", "is", "are", "was", "were", "be", "been", "being", "it", "this",
		"that", "these", "those", "from", "up", "down", "over", "under", "again", "further", "than",
		"so", "such", "into", "about", "between", "through", "during", "before", "after", "above",
		"below", "out", "off", "own", "same", "too", "very", "can", "will", "just", "should", "now",
		"which", "what", "who", "when", "where", "how", "did", "does", "do",
	}
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}
