package internal

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuerier struct {
	calls  int
	gotK   int
	err    error
	answer *Answer
}

func (f *fakeQuerier) Search(_ context.Context, _ string, k int) ([]RetrievalResult, error) {
	f.calls++
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	if k < 1 {
		return nil, ErrInvalidK
	}
	results := resultsFor(sampleRecords())
	return results[:min(k, len(results))], nil
}

func (f *fakeQuerier) Ask(ctx context.Context, query string, k int) (*Answer, error) {
	results, err := f.Search(ctx, query, k)
	if err != nil {
		return nil, err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &Answer{Query: query, Results: results, Text: "grounded answer"}, nil
}

func makeToolRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return text.Text
}

func TestHandleSearch(t *testing.T) {
	q := &fakeQuerier{}
	h := NewMCPHandlers(q, 2)

	result, err := h.HandleSearch(context.Background(), makeToolRequest(map[string]any{"query": "login"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, 2, q.gotK)

	var got []toolResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
	require.Len(t, got, 2)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, "a1", got[0].Hash)
	assert.Equal(t, "fix login bug", got[0].Subject)
}

func TestHandleSearchExplicitK(t *testing.T) {
	q := &fakeQuerier{}
	h := NewMCPHandlers(q, 2)

	result, err := h.HandleSearch(context.Background(), makeToolRequest(map[string]any{"query": "login", "k": float64(10)}))
	require.NoError(t, err)
	assert.False(t, result.IsError)
	assert.Equal(t, 10, q.gotK)

	result, err = h.HandleSearch(context.Background(), makeToolRequest(map[string]any{"query": "login", "k": float64(0)}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), ErrInvalidK.Error())
}

func TestHandleSearchMissingQuery(t *testing.T) {
	h := NewMCPHandlers(&fakeQuerier{}, 0)

	result, err := h.HandleSearch(context.Background(), makeToolRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "query is required")

	result, err = h.HandleSearch(context.Background(), makeToolRequest(map[string]any{"query": 42}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandlersRejectBlankQueries(t *testing.T) {
	engine := &fakeQuerier{}
	h := NewMCPHandlers(engine, 0)

	result, err := h.HandleSearch(context.Background(), makeToolRequest(map[string]any{"query": "  \t\n"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "query is required")

	result, err = h.HandleAsk(context.Background(), makeToolRequest(map[string]any{"question": "   "}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "question is required")

	assert.Zero(t, engine.calls)
}

func TestHandleAsk(t *testing.T) {
	h := NewMCPHandlers(&fakeQuerier{}, 1)

	result, err := h.HandleAsk(context.Background(), makeToolRequest(map[string]any{"question": "who fixed login?"}))
	require.NoError(t, err)
	require.False(t, result.IsError)

	var got toolAnswer
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
	assert.Equal(t, "grounded answer", got.Answer)
	assert.False(t, got.Failed)
	assert.Len(t, got.Commits, 1)
}

func TestHandleAskGenerationFailureIsNotToolError(t *testing.T) {
	q := &fakeQuerier{answer: &Answer{Text: "Error generating answer: timeout", Failed: true}}
	h := NewMCPHandlers(q, 1)

	result, err := h.HandleAsk(context.Background(), makeToolRequest(map[string]any{"question": "why?"}))
	require.NoError(t, err)
	assert.False(t, result.IsError)

	var got toolAnswer
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &got))
	assert.True(t, got.Failed)
}

func TestHandleAskRetrievalFailure(t *testing.T) {
	h := NewMCPHandlers(&fakeQuerier{err: errors.New("index unavailable")}, 1)

	result, err := h.HandleAsk(context.Background(), makeToolRequest(map[string]any{"question": "why?"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, resultText(t, result), "index unavailable")
}

func TestNewMCPServerRegistersTools(t *testing.T) {
	s := NewMCPServer(&fakeQuerier{}, "test", 3)
	require.NotNil(t, s)
	assert.Len(t, toolRegistry, 2)
	assert.Equal(t, "search_commits", searchCommitsTool.Name)
	assert.Equal(t, "ask_commits", askCommitsTool.Name)
}
