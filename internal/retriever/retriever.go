// Package retriever selects, for each query turn, the subset of per-paper
// tools to hand the reasoning agent: an embedding search over tool
// descriptions, a reranking pass, and two synthesized tools appended to
// every turn's result.
package retriever

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/paperchat/paperchat/internal/corpus"
	"github.com/paperchat/paperchat/internal/embeddings"
	"github.com/paperchat/paperchat/internal/llm"
	"github.com/paperchat/paperchat/internal/subquery"
	"github.com/paperchat/paperchat/internal/tools"
)

const toolIndexCollection = "tool_index"

// CorpusToolName is the fixed name of the synthesized whole-corpus tool.
const CorpusToolName = "base_query_engine"

const corpusToolDescription = "Contains the information of all the related documents in one tool"

// ErrNoDocuments is returned when retrieval is attempted against an empty
// corpus. Callers must register documents and rebuild the index first.
var ErrNoDocuments = errors.New("retriever: no documents registered")

// errStaleIndex reports a tool index that does not reflect the current
// document set.
var errStaleIndex = errors.New("retriever: tool index out of date, call Rebuild")

// Candidate is one per-paper tool entry surfaced by the embedding search.
// Position records the original retrieval order and is the tie-break key
// during reranking.
type Candidate struct {
	DocID       string
	Description string
	Similarity  float32
	Position    int
}

// Reranker reorders candidates by estimated relevance to the query and
// truncates to its configured final count. Implementations must keep the
// original candidate order for equal scores.
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []Candidate) ([]Candidate, error)
}

// ToolRetriever maintains an embedding index over all cached per-paper tool
// descriptions and produces the dynamic tool set for each query turn.
// The index is mutated only by Rebuild and read-only during Retrieve;
// the two are never invoked concurrently for one session.
type ToolRetriever struct {
	builder  *corpus.Builder
	provider llm.Provider
	reranker Reranker
	breadth  int
	topN     int

	vdb       *chromem.DB
	embedFunc chromem.EmbeddingFunc
	index     *chromem.Collection
	indexed   int
}

// New creates a ToolRetriever. breadth is the top-K candidate count fetched
// before reranking; topN is the final per-paper tool count per turn.
func New(builder *corpus.Builder, provider llm.Provider, embedder embeddings.Embedder, reranker Reranker, breadth, topN int) *ToolRetriever {
	if topN < 1 {
		topN = 1
	}
	if breadth < topN {
		breadth = topN
	}
	return &ToolRetriever{
		builder:   builder,
		provider:  provider,
		reranker:  reranker,
		breadth:   breadth,
		topN:      topN,
		vdb:       chromem.NewDB(),
		embedFunc: embeddings.ToChromemFunc(embedder),
	}
}

// Rebuild reconstructs the tool index from the current document set. It is
// a wholesale rebuild, required after every registration; incremental
// insertion is a known scalability limit of this design.
func (r *ToolRetriever) Rebuild(ctx context.Context) error {
	if err := r.vdb.DeleteCollection(toolIndexCollection); err != nil {
		return fmt.Errorf("reset tool index: %w", err)
	}
	col, err := r.vdb.GetOrCreateCollection(toolIndexCollection, nil, r.embedFunc)
	if err != nil {
		return fmt.Errorf("create tool index: %w", err)
	}

	papers := r.builder.Papers()
	entries := make([]chromem.Document, 0, len(papers))
	for _, doc := range papers {
		entry, ok := r.builder.Entry(doc.ID)
		if !ok {
			continue
		}
		entries = append(entries, chromem.Document{
			ID:       doc.ID,
			Content:  entry.Tool.Description,
			Metadata: map[string]string{"title": doc.Title},
		})
	}
	if len(entries) > 0 {
		if err := col.AddDocuments(ctx, entries, 1); err != nil {
			return fmt.Errorf("index tools: %w", err)
		}
	}

	r.index = col
	r.indexed = len(entries)
	return nil
}

// Retrieve returns the ordered turn tool set for the query: up to topN
// per-paper tools in reranked order, then the comparison tool, then the
// whole-corpus tool. Embedding or reranking provider failures propagate;
// fewer than topN surviving candidates is not an error.
func (r *ToolRetriever) Retrieve(ctx context.Context, query string) ([]*tools.Tool, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("retriever: empty query")
	}
	if r.builder.Len() == 0 {
		return nil, ErrNoDocuments
	}
	if r.index == nil || r.indexed != r.builder.Len() {
		return nil, errStaleIndex
	}

	candidates, err := r.searchCandidates(ctx, query)
	if err != nil {
		return nil, err
	}

	ranked, err := r.reranker.Rerank(ctx, query, candidates)
	if err != nil {
		return nil, fmt.Errorf("rerank: %w", err)
	}
	if len(ranked) > r.topN {
		ranked = ranked[:r.topN]
	}

	selected := make([]*tools.Tool, 0, len(ranked)+2)
	for _, c := range ranked {
		tool, ok := r.builder.Tool(c.DocID)
		if !ok {
			return nil, fmt.Errorf("retriever: candidate %s has no registered tool", c.DocID)
		}
		selected = append(selected, tool)
	}

	// Both synthesized tools are rebuilt every turn: the comparison tool
	// spans exactly the selected per-paper tools, the corpus tool spans all
	// chunks of every registered document.
	compare := subquery.NewComparisonTool(r.provider, selected)
	corpusTool := tools.FromEngine(CorpusToolName, corpusToolDescription, r.builder.CorpusEngine())

	return append(selected, compare, corpusTool), nil
}

func (r *ToolRetriever) searchCandidates(ctx context.Context, query string) ([]Candidate, error) {
	k := r.breadth
	if count := r.index.Count(); k > count {
		k = count
	}
	if k == 0 {
		return nil, nil
	}

	results, err := r.index.Query(ctx, query, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("tool index search: %w", err)
	}

	candidates := make([]Candidate, len(results))
	for i, res := range results {
		candidates[i] = Candidate{
			DocID:       res.ID,
			Description: res.Content,
			Similarity:  res.Similarity,
			Position:    i,
		}
	}
	return candidates, nil
}
