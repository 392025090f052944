// Package mcpserver exposes the paper corpus to AI agents over the Model
// Context Protocol on stdio.
package mcpserver

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/paperchat/paperchat/internal/agent"
	"github.com/paperchat/paperchat/internal/corpus"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server exposing paper question-answering tools.
type Server struct {
	agent   *agent.Agent
	builder *corpus.Builder
	mcp     *server.MCPServer
}

// NewServer creates an MCP server over the given chat agent and corpus session.
func NewServer(chatAgent *agent.Agent, builder *corpus.Builder) *Server {
	s := &Server{
		agent:   chatAgent,
		builder: builder,
	}

	s.mcp = server.NewMCPServer(
		"paperchat",
		Version,
		server.WithToolCapabilities(false),
	)

	s.mcp.AddTool(askPapersTool, s.handleAskPapers)
	s.mcp.AddTool(listPapersTool, s.handleListPapers)
	s.mcp.AddTool(searchCorpusTool, s.handleSearchCorpus)

	return s
}

// Serve starts the MCP server on stdio. Stdout carries MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
