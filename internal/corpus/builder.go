package corpus

import (
	"context"
	"fmt"
	"strconv"

	chromem "github.com/philippgille/chromem-go"

	"github.com/paperchat/paperchat/internal/embeddings"
	"github.com/paperchat/paperchat/internal/llm"
	"github.com/paperchat/paperchat/internal/tools"
)

const (
	corpusCollection = "corpus"
	summaryPrompt    = "Extract a concise 5-6 line summary of this document."

	// corpusTopK mirrors the broader retrieval the whole-corpus engine uses
	// compared to a single paper's fact engine.
	corpusTopK = 4
	factTopK   = 3
)

// Entry is everything the session knows about one registered paper.
type Entry struct {
	Doc     Document
	Summary string
	Chunks  []Chunk
	Tool    *tools.Tool
}

// Builder owns the mapping from document ID to per-paper tool, cached
// summary, and chunk list. Registration and retrieval are mutually
// exclusive phases; Builder does no internal locking.
type Builder struct {
	provider   llm.Provider
	embedder   embeddings.Embedder
	storageDir string
	splitter   *SentenceSplitter

	vdb       *chromem.DB
	embedFunc chromem.EmbeddingFunc
	corpusCol *chromem.Collection

	entries map[string]*Entry
	order   []string
}

// NewBuilder creates an empty corpus session rooted at storageDir.
func NewBuilder(provider llm.Provider, embedder embeddings.Embedder, storageDir string) (*Builder, error) {
	vdb := chromem.NewDB()
	ef := embeddings.ToChromemFunc(embedder)

	corpusCol, err := vdb.GetOrCreateCollection(corpusCollection, nil, ef)
	if err != nil {
		return nil, fmt.Errorf("create corpus collection: %w", err)
	}

	return &Builder{
		provider:   provider,
		embedder:   embedder,
		storageDir: storageDir,
		splitter:   NewSentenceSplitter(),
		vdb:        vdb,
		embedFunc:  ef,
		corpusCol:  corpusCol,
		entries:    make(map[string]*Entry),
	}, nil
}

// Register builds the per-paper tool for doc and records it in the session.
// Building is idempotent: a persisted summary is loaded instead of
// regenerated, and chunks already present in a loaded vector store are not
// re-embedded.
func (b *Builder) Register(ctx context.Context, doc Document) (*tools.Tool, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("register: document has no ID")
	}
	if existing, ok := b.entries[doc.ID]; ok {
		return existing.Tool, nil
	}

	text := doc.Text
	if text == "" {
		text = doc.Abstract
	}
	chunks := b.splitter.Split(doc.ID, text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("register %s: document produced no chunks", doc.ID)
	}

	// Per-paper fact-lookup index. A non-empty collection means the vector
	// store was loaded from disk and the chunks are already embedded, both
	// here and in the whole-corpus index, which lives in the same store.
	col, err := b.vdb.GetOrCreateCollection("paper_"+doc.ID, nil, b.embedFunc)
	if err != nil {
		return nil, fmt.Errorf("create index for %s: %w", doc.ID, err)
	}
	var fresh []chromem.Document
	if col.Count() == 0 {
		fresh = chunkDocs(doc, chunks)
		if err := col.AddDocuments(ctx, fresh, 1); err != nil {
			return nil, fmt.Errorf("index %s: %w", doc.ID, err)
		}
	}
	// A failed registration must leave no trace of the paper behind:
	// drop the freshly built collection so the whole-corpus index, which
	// is only fed below once the summary exists, never diverges from it.
	discard := func() {
		if fresh != nil {
			_ = b.vdb.DeleteCollection("paper_" + doc.ID)
		}
	}

	summaryEngine := NewSummaryEngine(doc.Title, chunks, b.provider)

	// Cached summary, generated once per paper.
	summary, ok, err := loadSummary(b.storageDir, doc.ID)
	if err != nil {
		discard()
		return nil, err
	}
	if !ok {
		summary, err = summaryEngine.Query(ctx, summaryPrompt)
		if err != nil {
			discard()
			return nil, fmt.Errorf("summarize %s: %w", doc.ID, err)
		}
		if err := saveSummary(b.storageDir, doc.ID, summary); err != nil {
			discard()
			return nil, err
		}
	}

	if fresh != nil {
		if err := b.corpusCol.AddDocuments(ctx, fresh, 1); err != nil {
			discard()
			return nil, fmt.Errorf("corpus index %s: %w", doc.ID, err)
		}
	}

	factEngine := NewFactEngine(col, b.provider, factTopK)
	tool := tools.NewDocumentAgent(doc.ID, doc.Title, summary, b.provider, factEngine, summaryEngine)

	b.entries[doc.ID] = &Entry{
		Doc:     doc,
		Summary: summary,
		Chunks:  chunks,
		Tool:    tool,
	}
	b.order = append(b.order, doc.ID)
	return tool, nil
}

func chunkDocs(doc Document, chunks []Chunk) []chromem.Document {
	out := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		out[i] = chromem.Document{
			ID:       c.DocID + ":" + strconv.Itoa(c.Ordinal),
			Content:  c.Text,
			Metadata: chunkMetadata(doc, c),
		}
	}
	return out
}

// Len returns the number of registered documents.
func (b *Builder) Len() int {
	return len(b.order)
}

// Tools returns all per-paper tools in registration order.
func (b *Builder) Tools() []*tools.Tool {
	out := make([]*tools.Tool, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.entries[id].Tool)
	}
	return out
}

// Tool returns the per-paper tool for the given document ID.
func (b *Builder) Tool(docID string) (*tools.Tool, bool) {
	e, ok := b.entries[docID]
	if !ok {
		return nil, false
	}
	return e.Tool, true
}

// Papers returns metadata of registered documents in registration order.
func (b *Builder) Papers() []Document {
	out := make([]Document, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, b.entries[id].Doc)
	}
	return out
}

// Entry returns the full session entry for a document ID.
func (b *Builder) Entry(docID string) (*Entry, bool) {
	e, ok := b.entries[docID]
	return e, ok
}

// Chunks returns the chunk lists of the given documents, in the given order.
func (b *Builder) Chunks(docIDs []string) []Chunk {
	var out []Chunk
	for _, id := range docIDs {
		if e, ok := b.entries[id]; ok {
			out = append(out, e.Chunks...)
		}
	}
	return out
}

// AllChunks returns every chunk of every registered document.
func (b *Builder) AllChunks() []Chunk {
	return b.Chunks(b.order)
}

// CorpusEngine returns a fact engine spanning all chunks of all registered
// documents. The whole-corpus tool is built over this engine.
func (b *Builder) CorpusEngine() *FactEngine {
	return NewFactEngine(b.corpusCol, b.provider, corpusTopK)
}

// SearchChunks runs a similarity search over the whole-corpus index.
func (b *Builder) SearchChunks(ctx context.Context, query string, limit int) ([]chromem.Result, error) {
	if limit < 1 {
		limit = 5
	}
	if count := b.corpusCol.Count(); limit > count {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}
	return b.corpusCol.Query(ctx, query, limit, nil, nil)
}
