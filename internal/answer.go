package internal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"
)

const (
	DefaultMaxPromptChars = 24000
	diffTruncatedMarker   = "\n[diff truncated]"
	answerErrorPrefix     = "Error generating answer: "
)

// Answer is the outcome of one question. Failed is set when Text carries a
// generation error instead of a model answer.
type Answer struct {
	Query   string            `json:"query"`
	Results []RetrievalResult `json:"results"`
	Text    string            `json:"answer"`
	Failed  bool              `json:"failed,omitempty"`
}

type AnswerGenerator struct {
	provider Provider
	maxChars int
	logger   *slog.Logger
}

// NewAnswerGenerator returns a generator that keeps prompts within maxChars
// by shortening diffs. maxChars <= 0 disables the limit.
func NewAnswerGenerator(provider Provider, maxChars int, logger *slog.Logger) *AnswerGenerator {
	return &AnswerGenerator{
		provider: provider,
		maxChars: maxChars,
		logger:   orDiscard(logger),
	}
}

// Generate never fails: provider errors come back as the answer text so a
// session can move on to the next question.
func (g *AnswerGenerator) Generate(ctx context.Context, query string, results []RetrievalResult) (string, bool) {
	if g.provider == nil {
		return answerErrorPrefix + "no generation provider configured", false
	}

	prompt := g.BuildPrompt(query, results)
	text, err := g.provider.Complete(ctx, prompt)
	if err != nil {
		g.logger.Warn("generation failed", "err", err)
		return answerErrorPrefix + err.Error(), false
	}
	return strings.TrimSpace(text), true
}

// BuildPrompt renders the grounded prompt. Header fields are always
// complete; when the prompt would exceed the limit, diffs are cut, sharing
// the remaining room in rank order.
func (g *AnswerGenerator) BuildPrompt(query string, results []RetrievalResult) string {
	diffs := make([]string, len(results))
	if g.maxChars <= 0 {
		for i, r := range results {
			diffs[i] = r.Record.Diff
		}
		return renderPrompt(query, results, diffs)
	}

	remaining := g.maxChars - len(renderPrompt(query, results, diffs))
	for i, r := range results {
		left := len(results) - i
		share := max(remaining, 0) / left
		diff := r.Record.Diff
		if len(diff) > share {
			diff = cutBytes(diff, share-len(diffTruncatedMarker)) + diffTruncatedMarker
			if len(diff) > share {
				diff = ""
			}
		}
		diffs[i] = diff
		remaining -= len(diff)
	}
	return renderPrompt(query, results, diffs)
}

func renderPrompt(query string, results []RetrievalResult, diffs []string) string {
	var sb strings.Builder
	sb.WriteString("You are a software engineering assistant analyzing a git log.\n")
	sb.WriteString("Based ONLY on the provided context, answer the user's question.\n")
	sb.WriteString("If the context does not contain enough information to answer, say so explicitly.\n\n")
	sb.WriteString("If the user asks about a specific date, check the 'Date' fields in the context.\n")
	sb.WriteString("If the user asks about a version (like v2.32.4), check the 'Message' fields.\n\n")
	sb.WriteString("Context:\n")
	sb.WriteString("Here are the most relevant commits found in the log:\n\n")

	for i, r := range results {
		fmt.Fprintf(&sb, "Commit %d (Score: %.2f):\n", i+1, r.Score)
		fmt.Fprintf(&sb, "Hash: %s\n", r.Record.Hash)
		fmt.Fprintf(&sb, "Author: %s\n", r.Record.Author)
		fmt.Fprintf(&sb, "Date: %s\n", r.Record.Date)
		fmt.Fprintf(&sb, "Message: %s\n", r.Record.Message)
		sb.WriteString("Changes:\n")
		sb.WriteString(diffs[i])
		sb.WriteString("\n\n")
	}

	fmt.Fprintf(&sb, "Question:\n\"%s\"\n\nAnswer:\n", query)
	return sb.String()
}

// cutBytes returns the longest prefix of s of at most n bytes that ends on
// a rune boundary.
func cutBytes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
