package mcpserver

import "github.com/mark3labs/mcp-go/mcp"

// askPapersTool routes a question through the full tool-retrieval agent.
var askPapersTool = mcp.NewTool("ask_papers",
	mcp.WithDescription("Ask a natural language question about the indexed research papers. Routes the question through per-paper, comparison, and whole-corpus tools."),
	mcp.WithString("question",
		mcp.Required(),
		mcp.Description("The question to answer from the paper corpus"),
	),
)

// listPapersTool returns the corpus catalog.
var listPapersTool = mcp.NewTool("list_papers",
	mcp.WithDescription("List the papers currently indexed in the corpus with title, authors, date, and URL."),
)

// searchCorpusTool runs a raw similarity search over all paper chunks.
var searchCorpusTool = mcp.NewTool("search_corpus",
	mcp.WithDescription("Semantically search all paper content and return the most similar passages."),
	mcp.WithString("query",
		mcp.Required(),
		mcp.Description("Natural language search query"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of passages to return (default 5)"),
	),
)
