package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// CommitQuerier is the part of a Pipeline the MCP tools call.
type CommitQuerier interface {
	Search(ctx context.Context, query string, k int) ([]RetrievalResult, error)
	Ask(ctx context.Context, query string, k int) (*Answer, error)
}

var searchCommitsTool = mcp.NewTool("search_commits",
	mcp.WithDescription("Find the commits most similar to a natural-language query."),
	mcp.WithString("query", mcp.Required(), mcp.Description("What to look for in the commit history")),
	mcp.WithNumber("k", mcp.Description("Number of commits to return")),
)

var askCommitsTool = mcp.NewTool("ask_commits",
	mcp.WithDescription("Answer a question about the commit history using only the retrieved commits."),
	mcp.WithString("question", mcp.Required(), mcp.Description("Question about the repository history")),
	mcp.WithNumber("k", mcp.Description("Number of commits used as context")),
)

type toolEntry struct {
	def     mcp.Tool
	handler func(*MCPHandlers) server.ToolHandlerFunc
}

var toolRegistry = map[string]toolEntry{
	"search_commits": {
		def:     searchCommitsTool,
		handler: func(h *MCPHandlers) server.ToolHandlerFunc { return h.HandleSearch },
	},
	"ask_commits": {
		def:     askCommitsTool,
		handler: func(h *MCPHandlers) server.ToolHandlerFunc { return h.HandleAsk },
	},
}

type MCPHandlers struct {
	engine   CommitQuerier
	defaultK int
}

func NewMCPHandlers(engine CommitQuerier, defaultK int) *MCPHandlers {
	if defaultK < 1 {
		defaultK = DefaultTopK
	}
	return &MCPHandlers{engine: engine, defaultK: defaultK}
}

// NewMCPServer registers the commit tools on a new MCP server.
func NewMCPServer(engine CommitQuerier, version string, defaultK int) *server.MCPServer {
	s := server.NewMCPServer("gitrag", version, server.WithToolCapabilities(true))

	h := NewMCPHandlers(engine, defaultK)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// ServeMCP serves the commit tools over stdio until the client disconnects.
func ServeMCP(engine CommitQuerier, version string, defaultK int) error {
	return server.ServeStdio(NewMCPServer(engine, version, defaultK))
}

type searchArgs struct {
	Query string `json:"query"`
	K     *int   `json:"k"`
}

type askArgs struct {
	Question string `json:"question"`
	K        *int   `json:"k"`
}

type toolResult struct {
	Rank     int     `json:"rank"`
	Score    float64 `json:"score"`
	Position int     `json:"position"`
	Hash     string  `json:"hash"`
	Author   string  `json:"author"`
	Date     string  `json:"date"`
	Subject  string  `json:"subject"`
}

type toolAnswer struct {
	Answer  string       `json:"answer"`
	Failed  bool         `json:"failed"`
	Commits []toolResult `json:"commits"`
}

func (h *MCPHandlers) HandleSearch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArgs[searchArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(args.Query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}

	results, err := h.engine.Search(ctx, args.Query, h.k(args.K))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("search failed", err), nil
	}
	return jsonResult(toToolResults(results))
}

func (h *MCPHandlers) HandleAsk(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := decodeArgs[askArgs](req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if strings.TrimSpace(args.Question) == "" {
		return mcp.NewToolResultError("question is required"), nil
	}

	answer, err := h.engine.Ask(ctx, args.Question, h.k(args.K))
	if err != nil {
		return mcp.NewToolResultErrorFromErr("retrieval failed", err), nil
	}
	return jsonResult(toolAnswer{
		Answer:  answer.Text,
		Failed:  answer.Failed,
		Commits: toToolResults(answer.Results),
	})
}

// k keeps an explicit value, including invalid ones, so the retriever
// reports them.
func (h *MCPHandlers) k(v *int) int {
	if v == nil {
		return h.defaultK
	}
	return *v
}

func toToolResults(results []RetrievalResult) []toolResult {
	out := make([]toolResult, len(results))
	for i, r := range results {
		out[i] = toolResult{
			Rank:     i + 1,
			Score:    r.Score,
			Position: r.Position,
			Hash:     r.Record.Hash,
			Author:   r.Record.Author,
			Date:     r.Record.Date,
			Subject:  r.Record.Subject(),
		}
	}
	return out
}

func decodeArgs[T any](req mcp.CallToolRequest) (T, error) {
	var result T
	b, err := json.Marshal(req.GetArguments())
	if err != nil {
		return result, fmt.Errorf("marshal args: %w", err)
	}
	if err := json.Unmarshal(b, &result); err != nil {
		return result, fmt.Errorf("unmarshal args: %w", err)
	}
	return result, nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return mcp.NewToolResultText(string(b)), nil
}
