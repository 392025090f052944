// Package subquery implements the comparison query surface: it decomposes a
// question into sub-questions, routes each to a per-paper tool, and
// synthesizes a combined answer.
package subquery

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/paperchat/paperchat/internal/llm"
	"github.com/paperchat/paperchat/internal/tools"
)

// CompareToolName is the fixed name of the synthesized comparison tool.
const CompareToolName = "compare_tool"

// compareDescription instructs the reasoning agent on when to prefer the
// comparison tool over per-paper tools.
const compareDescription = `Useful for any queries that involve comparing multiple documents. ALWAYS use this tool for comparison queries - make sure to call this tool with the original query. Do NOT use the other tools for any queries involving multiple documents.`

// Engine spans a specific set of per-paper tools for one query turn.
type Engine struct {
	provider llm.Provider
	tools    []*tools.Tool
}

// NewEngine creates a comparison engine over exactly the given tools.
func NewEngine(provider llm.Provider, toolSet []*tools.Tool) *Engine {
	return &Engine{provider: provider, tools: toolSet}
}

// NewComparisonTool wraps a fresh Engine as a Tool. Comparison tools are
// rebuilt on every retrieval turn and never persisted.
func NewComparisonTool(provider llm.Provider, toolSet []*tools.Tool) *tools.Tool {
	return tools.FromEngine(CompareToolName, compareDescription, NewEngine(provider, toolSet))
}

type subQuestion struct {
	Tool     string `json:"tool"`
	Question string `json:"question"`
}

type decomposition struct {
	SubQuestions []subQuestion `json:"sub_questions"`
}

type subAnswer struct {
	Tool     string
	Question string
	Answer   string
}

// Query decomposes the question, dispatches each sub-question to its tool,
// and synthesizes a combined answer. With no tools available, dispatch
// degenerates to zero sub-answers and the synthesized answer says so.
func (e *Engine) Query(ctx context.Context, query string) (string, error) {
	if len(e.tools) == 0 {
		return "No documents were available to compare for this question.", nil
	}

	subs, err := e.decompose(ctx, query)
	if err != nil {
		return "", err
	}

	byName := make(map[string]*tools.Tool, len(e.tools))
	for _, t := range e.tools {
		byName[t.Name] = t
	}

	var answers []subAnswer
	for _, sq := range subs {
		tool, ok := byName[sq.Tool]
		if !ok {
			continue
		}
		answer, err := tool.Run(ctx, sq.Question)
		if err != nil {
			return "", fmt.Errorf("sub-question %q via %s: %w", sq.Question, sq.Tool, err)
		}
		answers = append(answers, subAnswer{Tool: sq.Tool, Question: sq.Question, Answer: answer})
	}

	return e.synthesize(ctx, query, answers)
}

func (e *Engine) decompose(ctx context.Context, query string) ([]subQuestion, error) {
	var toolList strings.Builder
	for _, t := range e.tools {
		fmt.Fprintf(&toolList, "- %s: %s\n", t.Name, firstLine(t.Description))
	}

	prompt := fmt.Sprintf(`Break the user question into sub-questions, each answerable by one of the tools below. Use only the listed tool names.

Tools:
%s
Question: %s

Respond with JSON: {"sub_questions": [{"tool": "<tool name>", "question": "<sub-question>"}]}`, toolList.String(), query)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("decompose query: %w", err)
	}

	var d decomposition
	if err := json.Unmarshal([]byte(resp.Content), &d); err != nil {
		return nil, fmt.Errorf("parse decomposition: %w", err)
	}
	return d.SubQuestions, nil
}

func (e *Engine) synthesize(ctx context.Context, query string, answers []subAnswer) (string, error) {
	if len(answers) == 0 {
		return "None of the available documents could answer this question.", nil
	}

	var pairs strings.Builder
	for _, a := range answers {
		fmt.Fprintf(&pairs, "Sub-question (%s): %s\nAnswer: %s\n\n", a.Tool, a.Question, a.Answer)
	}

	prompt := fmt.Sprintf(`Combine the sub-answers below into one answer to the original question. Ground the answer only in the sub-answers.

%s
Original question: %s`, pairs.String(), query)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("synthesize comparison answer: %w", err)
	}
	return resp.Content, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
