package mcpserver

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) handleAskPapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	question, err := request.RequireString("question")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: question"), nil
	}

	answer, err := s.agent.Chat(ctx, question)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("question failed: %v", err)), nil
	}
	return mcp.NewToolResultText(answer), nil
}

func (s *Server) handleListPapers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	papers := s.builder.Papers()
	if len(papers) == 0 {
		return mcp.NewToolResultText("No papers are indexed yet. Run `paperchat build <topic>` first."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%d papers indexed:\n\n", len(papers))
	for _, p := range papers {
		fmt.Fprintf(&sb, "- %s\n  Authors: %s\n", p.Title, p.AuthorLine())
		if !p.Published.IsZero() {
			fmt.Fprintf(&sb, "  Published: %s\n", p.Published.Format("2006-01-02"))
		}
		fmt.Fprintf(&sb, "  URL: %s\n", p.URL)
	}
	return mcp.NewToolResultText(sb.String()), nil
}

func (s *Server) handleSearchCorpus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: query"), nil
	}
	limit := request.GetInt("limit", 5)

	results, err := s.builder.SearchChunks(ctx, query, limit)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("search failed: %v", err)), nil
	}
	if len(results) == 0 {
		return mcp.NewToolResultText("No matching passages found."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d passage(s):\n\n", len(results))
	for i, r := range results {
		fmt.Fprintf(&sb, "--- Passage %d (similarity: %.4f, paper: %s) ---\n%s\n\n",
			i+1, r.Similarity, r.Metadata["title"], r.Content)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
