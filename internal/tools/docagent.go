package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paperchat/paperchat/internal/llm"
)

// DocumentAgent wraps one paper's two query surfaces, a fact-lookup engine
// and a summarization engine, behind a single tool. A small routing call
// picks the engine for each incoming query.
type DocumentAgent struct {
	docID    string
	title    string
	provider llm.Provider
	fact     QueryEngine
	summary  QueryEngine
}

// NewDocumentAgent builds the per-paper agent tool. The tool's name is
// "tool_<docID>" and its description is the paper's cached summary, which
// the tool retriever uses as the ranking key.
func NewDocumentAgent(docID, title, summary string, provider llm.Provider, factEngine, summaryEngine QueryEngine) *Tool {
	a := &DocumentAgent{
		docID:    docID,
		title:    title,
		provider: provider,
		fact:     factEngine,
		summary:  summaryEngine,
	}
	return New("tool_"+docID, summary, a.Answer)
}

type engineChoice struct {
	Engine string `json:"engine"`
}

// Answer routes the query to the fact or summarization engine and returns
// that engine's answer.
func (a *DocumentAgent) Answer(ctx context.Context, query string) (string, error) {
	engine, err := a.chooseEngine(ctx, query)
	if err != nil {
		return "", err
	}

	switch engine {
	case "summary":
		return a.summary.Query(ctx, query)
	default:
		return a.fact.Query(ctx, query)
	}
}

func (a *DocumentAgent) chooseEngine(ctx context.Context, query string) (string, error) {
	prompt := fmt.Sprintf(`You are a specialized agent answering queries about the paper %q.
Two engines are available:
- "fact": answers specific factual questions from relevant passages.
- "summary": answers summarization questions using the whole document.
You must always use one of the two engines; do not rely on prior knowledge.

Query: %s

Respond with JSON: {"engine": "fact"} or {"engine": "summary"}`, a.title, query)

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		JSONMode: true,
	})
	if err != nil {
		return "", fmt.Errorf("route query for %s: %w", a.docID, err)
	}

	var choice engineChoice
	if err := json.Unmarshal([]byte(resp.Content), &choice); err != nil {
		// An unparseable routing response falls back to fact lookup.
		return "fact", nil
	}
	if strings.EqualFold(choice.Engine, "summary") {
		return "summary", nil
	}
	return "fact", nil
}
