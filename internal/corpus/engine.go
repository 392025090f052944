package corpus

import (
	"context"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"

	"github.com/paperchat/paperchat/internal/llm"
)

// FactEngine answers specific factual questions by retrieving the most
// similar chunks from a vector collection and grounding an LLM answer in
// those passages only.
type FactEngine struct {
	collection *chromem.Collection
	provider   llm.Provider
	topK       int
}

// NewFactEngine creates a fact-lookup engine over the given collection.
func NewFactEngine(collection *chromem.Collection, provider llm.Provider, topK int) *FactEngine {
	if topK < 1 {
		topK = 4
	}
	return &FactEngine{collection: collection, provider: provider, topK: topK}
}

func (e *FactEngine) Query(ctx context.Context, query string) (string, error) {
	n := e.topK
	if count := e.collection.Count(); n > count {
		n = count
	}
	if n == 0 {
		return "", fmt.Errorf("fact engine: collection is empty")
	}

	results, err := e.collection.Query(ctx, query, n, nil, nil)
	if err != nil {
		return "", fmt.Errorf("fact engine search: %w", err)
	}

	var passages strings.Builder
	for i, r := range results {
		fmt.Fprintf(&passages, "[Passage %d]\n%s\n\n", i+1, r.Content)
	}

	prompt := fmt.Sprintf(`Answer the question using only the passages below. If the passages do not contain the answer, say so.

%s
Question: %s`, passages.String(), query)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("fact engine answer: %w", err)
	}
	return resp.Content, nil
}

// summaryBatchChars bounds how much chunk text goes into one summarization call.
const summaryBatchChars = 12000

// SummaryEngine answers summarization questions over a whole document by
// summarizing chunk batches and then combining the partial summaries.
type SummaryEngine struct {
	title    string
	chunks   []Chunk
	provider llm.Provider
}

// NewSummaryEngine creates a summarization engine over the document's chunks.
func NewSummaryEngine(title string, chunks []Chunk, provider llm.Provider) *SummaryEngine {
	return &SummaryEngine{title: title, chunks: chunks, provider: provider}
}

func (e *SummaryEngine) Query(ctx context.Context, query string) (string, error) {
	if len(e.chunks) == 0 {
		return "", fmt.Errorf("summary engine: document has no chunks")
	}

	// First pass: summarize each batch of chunks with respect to the query.
	var partials []string
	var batch strings.Builder
	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		partial, err := e.summarize(ctx, batch.String(), query)
		if err != nil {
			return err
		}
		partials = append(partials, partial)
		batch.Reset()
		return nil
	}

	for _, c := range e.chunks {
		if batch.Len() > 0 && batch.Len()+len(c.Text) > summaryBatchChars {
			if err := flush(); err != nil {
				return "", err
			}
		}
		batch.WriteString(c.Text)
		batch.WriteString("\n")
	}
	if err := flush(); err != nil {
		return "", err
	}

	if len(partials) == 1 {
		return partials[0], nil
	}

	// Second pass: combine partial summaries into one answer.
	return e.summarize(ctx, strings.Join(partials, "\n\n"), query)
}

func (e *SummaryEngine) summarize(ctx context.Context, text, query string) (string, error) {
	prompt := fmt.Sprintf(`The following is content from the paper %q:

%s

Based on this content, respond to: %s`, e.title, text, query)

	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Messages: []llm.Message{{Role: llm.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("summary engine: %w", err)
	}
	return resp.Content, nil
}
