// Package agent drives the conversation loop: each turn it asks the tool
// retriever for a fresh tool set, lets the model pick tools to invoke, and
// returns a final grounded answer.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/paperchat/paperchat/internal/llm"
	"github.com/paperchat/paperchat/internal/tools"
)

const systemPrompt = `You are a research consultant answering queries about a corpus of papers.
ALWAYS use ONLY the available tools to answer a question; do not rely on any prior knowledge.
If the tools cannot answer, respond with a note such as:
"The query looks like it is not in my knowledge. It might either be novel or my knowledge is limited."
Strictly adhere to the provided knowledge.`

// Retriever produces the tool set for one query turn.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]*tools.Tool, error)
}

// Agent is the top-level reasoning loop over dynamically retrieved tools.
// The Agent itself holds no conversation state; each Conversation owns its
// own history, so parallel conversations never see each other's turns.
type Agent struct {
	retriever Retriever
	provider  llm.Provider
	maxSteps  int

	// base backs the single-conversation front-ends (CLI, MCP).
	base *Conversation
}

// New creates an Agent. maxSteps bounds tool invocations per turn.
func New(retriever Retriever, provider llm.Provider, maxSteps int) *Agent {
	if maxSteps < 1 {
		maxSteps = 10
	}
	a := &Agent{
		retriever: retriever,
		provider:  provider,
		maxSteps:  maxSteps,
	}
	a.base = a.NewConversation()
	return a
}

// Conversation is one chat thread with its own history. Turns run under the
// conversation lock, so concurrent Chat calls on one conversation serialize
// instead of racing on the history.
type Conversation struct {
	agent   *Agent
	mu      sync.Mutex
	history []llm.Message
}

// NewConversation starts an independent chat thread over the agent's tools.
func (a *Agent) NewConversation() *Conversation {
	return &Conversation{agent: a}
}

// Chat answers one user turn on the agent's default conversation.
func (a *Agent) Chat(ctx context.Context, input string) (string, error) {
	return a.base.Chat(ctx, input)
}

// Reset clears the default conversation's history.
func (a *Agent) Reset() {
	a.base.Reset()
}

// Reset clears the conversation history.
func (c *Conversation) Reset() {
	c.mu.Lock()
	c.history = nil
	c.mu.Unlock()
}

type step struct {
	Action string `json:"action"` // "call_tool" or "final_answer"
	Tool   string `json:"tool,omitempty"`
	Input  string `json:"input,omitempty"`
	Answer string `json:"answer,omitempty"`
}

type observation struct {
	tool   string
	input  string
	output string
}

// Chat answers one user turn. The tool set is computed fresh for every turn
// since tool membership and ranking can change between turns. A failed turn
// leaves the conversation history untouched, so the user can ask again.
func (c *Conversation) Chat(ctx context.Context, input string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a := c.agent
	turnTools, err := a.retriever.Retrieve(ctx, input)
	if err != nil {
		return "", err
	}

	byName := make(map[string]*tools.Tool, len(turnTools))
	for _, t := range turnTools {
		byName[t.Name] = t
	}

	var observations []observation
	for i := 0; i < a.maxSteps; i++ {
		decision, err := a.decide(ctx, input, turnTools, observations, c.history, false)
		if err != nil {
			return "", err
		}

		if decision.Action == "final_answer" {
			c.commit(input, decision.Answer)
			return decision.Answer, nil
		}

		tool, ok := byName[decision.Tool]
		if !ok {
			observations = append(observations, observation{
				tool:   decision.Tool,
				input:  decision.Input,
				output: fmt.Sprintf("error: no tool named %q is available this turn", decision.Tool),
			})
			continue
		}

		output, err := tool.Run(ctx, decision.Input)
		if err != nil {
			return "", fmt.Errorf("tool %s: %w", tool.Name, err)
		}
		observations = append(observations, observation{
			tool:   tool.Name,
			input:  decision.Input,
			output: output,
		})
	}

	// Step budget exhausted: force a final answer from what was gathered.
	// A model that keeps asking for tools fails the turn rather than
	// committing an empty answer.
	decision, err := a.decide(ctx, input, turnTools, observations, c.history, true)
	if err != nil {
		return "", err
	}
	if decision.Action != "final_answer" || decision.Answer == "" {
		return "", fmt.Errorf("agent: no final answer after %d tool calls", a.maxSteps)
	}
	c.commit(input, decision.Answer)
	return decision.Answer, nil
}

func (c *Conversation) commit(input, answer string) {
	c.history = append(c.history,
		llm.Message{Role: llm.RoleUser, Content: input},
		llm.Message{Role: llm.RoleAssistant, Content: answer},
	)
}

func (a *Agent) decide(ctx context.Context, input string, turnTools []*tools.Tool, observations []observation, history []llm.Message, force bool) (*step, error) {
	var toolList strings.Builder
	for _, t := range turnTools {
		fmt.Fprintf(&toolList, "- %s: %s\n", t.Name, firstLine(t.Description))
	}

	var obs strings.Builder
	for _, o := range observations {
		fmt.Fprintf(&obs, "Called %s with %q, result:\n%s\n\n", o.tool, o.input, o.output)
	}

	var instruction string
	if force {
		instruction = `You have used all available tool calls. Respond with JSON: {"action": "final_answer", "answer": "<answer from the observations above>"}`
	} else {
		instruction = `Decide the next step. Respond with JSON, either
{"action": "call_tool", "tool": "<tool name>", "input": "<query for the tool>"}
or {"action": "final_answer", "answer": "<final answer>"}`
	}

	prompt := fmt.Sprintf(`Available tools this turn:
%s
%sQuestion: %s

%s`, toolList.String(), observationBlock(obs.String()), input, instruction)

	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	messages = append(messages, history...)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	resp, err := a.provider.Complete(ctx, llm.CompletionRequest{
		Messages: messages,
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("agent step: %w", err)
	}

	var decision step
	if err := json.Unmarshal([]byte(resp.Content), &decision); err != nil {
		return nil, fmt.Errorf("parse agent step: %w", err)
	}
	return &decision, nil
}

func observationBlock(s string) string {
	if s == "" {
		return ""
	}
	return "Observations so far:\n" + s
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
