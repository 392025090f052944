// Package tools defines the callable query surfaces the reasoning agent
// selects between: per-paper agents, the comparison tool, and the
// whole-corpus tool.
package tools

import "context"

// QueryEngine answers a free-text query over some slice of the corpus.
type QueryEngine interface {
	Query(ctx context.Context, query string) (string, error)
}

// Tool is a named, described callable query surface. Name must be unique
// within a retrieval turn; Description is the key the tool retriever ranks on.
type Tool struct {
	Name        string
	Description string

	run func(ctx context.Context, query string) (string, error)
}

// New creates a Tool backed by the given run function.
func New(name, description string, run func(ctx context.Context, query string) (string, error)) *Tool {
	return &Tool{Name: name, Description: description, run: run}
}

// FromEngine creates a Tool that delegates to a QueryEngine.
func FromEngine(name, description string, engine QueryEngine) *Tool {
	return New(name, description, engine.Query)
}

// Run invokes the tool with the given query.
func (t *Tool) Run(ctx context.Context, query string) (string, error) {
	return t.run(ctx, query)
}
