package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/paperchat/paperchat/internal/llm"
)

// LLMReranker scores each candidate's relevance to the query with a single
// JSON-mode completion and reorders by score. Ties keep the original
// retrieval order (stable sort over Position-ordered input). Provider
// failures propagate; there is no fallback to the unranked order, since
// ranking quality is part of the retrieval contract.
type LLMReranker struct {
	provider llm.Provider
	topN     int
}

// NewLLMReranker creates a reranker truncating to topN results.
func NewLLMReranker(provider llm.Provider, topN int) *LLMReranker {
	if topN < 1 {
		topN = 1
	}
	return &LLMReranker{provider: provider, topN: topN}
}

type rerankResponse struct {
	Scores []rerankScore `json:"scores"`
}

type rerankScore struct {
	Index int     `json:"index"`
	Score float64 `json:"score"`
}

func (r *LLMReranker) Rerank(ctx context.Context, query string, candidates []Candidate) ([]Candidate, error) {
	if len(candidates) == 0 {
		return nil, nil
	}

	var listing strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&listing, "[%d] %s\n", i, truncate(c.Description, 400))
	}

	prompt := fmt.Sprintf(`Score the relevance of each document description to the query on a 0-10 scale.

Query: %s

Documents:
%s
Respond with JSON: {"scores": [{"index": 0, "score": 7.5}, ...]} including every index exactly once.`, query, listing.String())

	resp, err := r.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		JSONMode: true,
	})
	if err != nil {
		return nil, fmt.Errorf("rerank scoring: %w", err)
	}

	var parsed rerankResponse
	if err := json.Unmarshal([]byte(resp.Content), &parsed); err != nil {
		return nil, fmt.Errorf("parse rerank scores: %w", err)
	}

	scores := make(map[int]float64, len(parsed.Scores))
	for _, s := range parsed.Scores {
		if s.Index >= 0 && s.Index < len(candidates) {
			scores[s.Index] = s.Score
		}
	}

	ranked := append([]Candidate(nil), candidates...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return scores[ranked[i].Position] > scores[ranked[j].Position]
	})

	if len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}
	return ranked, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
