package corpus

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/paperchat/paperchat/internal/llm"
)

// mockEmbedder returns deterministic embeddings based on text content.
type mockEmbedder struct {
	dims int
}

func (m *mockEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	results := make([][]float32, len(texts))
	for i, text := range texts {
		results[i] = m.deterministicVector(text)
	}
	return results, nil
}

func (m *mockEmbedder) Dimensions() int { return m.dims }
func (m *mockEmbedder) Name() string    { return "mock" }

func (m *mockEmbedder) deterministicVector(text string) []float32 {
	vec := make([]float32, m.dims)
	for i, ch := range text {
		idx := (int(ch) + i) % m.dims
		vec[idx] += 1.0
	}
	var norm float64
	for _, v := range vec {
		norm += float64(v * v)
	}
	norm = math.Sqrt(norm)
	if norm > 0 {
		for i := range vec {
			vec[i] = float32(float64(vec[i]) / norm)
		}
	}
	return vec
}

// countingProvider returns a canned response and counts completion calls.
type countingProvider struct {
	mu       sync.Mutex
	count    int
	response string
	err      error
}

func (p *countingProvider) Name() string { return "counting" }

func (p *countingProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.count++
	if p.err != nil {
		return nil, p.err
	}
	resp := p.response
	if resp == "" {
		resp = "canned answer"
	}
	return &llm.CompletionResponse{Content: resp}, nil
}

func (p *countingProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

func sampleDoc() Document {
	return Document{
		ID:       "2101_00001v1",
		Title:    "Attention Models",
		Authors:  []string{"A. Author", "B. Author"},
		Abstract: "Transformers apply self attention. Attention heads learn relations.",
		Text:     "Transformers apply self attention over token sequences. Attention heads learn distinct relations. Positional encodings order tokens.",
	}
}

func TestRegisterBuildsTool(t *testing.T) {
	ctx := context.Background()
	provider := &countingProvider{response: "A paper about attention."}
	builder, err := NewBuilder(provider, &mockEmbedder{dims: 64}, t.TempDir())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	tool, err := builder.Register(ctx, sampleDoc())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	if tool.Name != "tool_2101_00001v1" {
		t.Errorf("tool name = %q", tool.Name)
	}
	if tool.Description != "A paper about attention." {
		t.Errorf("tool description = %q, want the generated summary", tool.Description)
	}
	if builder.Len() != 1 {
		t.Errorf("Len = %d, want 1", builder.Len())
	}
}

func TestRegisterIdempotent(t *testing.T) {
	ctx := context.Background()
	provider := &countingProvider{}
	builder, err := NewBuilder(provider, &mockEmbedder{dims: 64}, t.TempDir())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	first, err := builder.Register(ctx, sampleDoc())
	if err != nil {
		t.Fatalf("first Register: %v", err)
	}
	callsAfterFirst := provider.calls()

	second, err := builder.Register(ctx, sampleDoc())
	if err != nil {
		t.Fatalf("second Register: %v", err)
	}

	if first != second {
		t.Error("second Register returned a different tool")
	}
	if provider.calls() != callsAfterFirst {
		t.Errorf("second Register made %d extra LLM calls", provider.calls()-callsAfterFirst)
	}
	if builder.Len() != 1 {
		t.Errorf("Len = %d, want 1", builder.Len())
	}
}

func TestRegisterUsesCachedSummary(t *testing.T) {
	ctx := context.Background()
	storageDir := t.TempDir()

	provider := &countingProvider{response: "generated summary"}
	builder, err := NewBuilder(provider, &mockEmbedder{dims: 64}, storageDir)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if _, err := builder.Register(ctx, sampleDoc()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// The summary lands on disk next to the document.
	data, err := os.ReadFile(filepath.Join(storageDir, "papers", "2101_00001v1", "summary.txt"))
	if err != nil {
		t.Fatalf("read cached summary: %v", err)
	}
	if string(data) != "generated summary" {
		t.Errorf("cached summary = %q", data)
	}

	// A fresh session over the same storage reuses it without an LLM call.
	provider2 := &countingProvider{response: "should not be asked"}
	builder2, err := NewBuilder(provider2, &mockEmbedder{dims: 64}, storageDir)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	tool, err := builder2.Register(ctx, sampleDoc())
	if err != nil {
		t.Fatalf("Register in new session: %v", err)
	}
	if tool.Description != "generated summary" {
		t.Errorf("tool description = %q, want cached summary", tool.Description)
	}
	if provider2.calls() != 0 {
		t.Errorf("new session made %d LLM calls despite cached summary", provider2.calls())
	}
}

func TestFailedRegisterLeavesNoCorpusChunks(t *testing.T) {
	ctx := context.Background()
	storageDir := t.TempDir()

	provider := &countingProvider{err: errors.New("summarization unavailable")}
	builder, err := NewBuilder(provider, &mockEmbedder{dims: 64}, storageDir)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	if _, err := builder.Register(ctx, sampleDoc()); err == nil {
		t.Fatal("expected Register to fail when summarization fails")
	}
	if builder.Len() != 0 {
		t.Fatalf("Len = %d after failed registration", builder.Len())
	}

	// The whole-corpus index must not answer from a paper the session
	// never registered.
	results, err := builder.SearchChunks(ctx, "self attention over tokens", 3)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("whole-corpus index holds %d chunks of a failed paper: %q", len(results), results[0].Content)
	}

	// The failure is recoverable: the same paper registers cleanly once
	// the provider is back.
	provider.mu.Lock()
	provider.err = nil
	provider.response = "a summary"
	provider.mu.Unlock()

	if _, err := builder.Register(ctx, sampleDoc()); err != nil {
		t.Fatalf("Register after recovery: %v", err)
	}
	results, err = builder.SearchChunks(ctx, "self attention over tokens", 3)
	if err != nil {
		t.Fatalf("SearchChunks after recovery: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected corpus chunks after successful registration")
	}
}

func TestRegisterRejectsEmptyDoc(t *testing.T) {
	ctx := context.Background()
	builder, err := NewBuilder(&countingProvider{}, &mockEmbedder{dims: 64}, t.TempDir())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	if _, err := builder.Register(ctx, Document{Title: "no id"}); err == nil {
		t.Error("expected error for document without ID")
	}
	if _, err := builder.Register(ctx, Document{ID: "x1"}); err == nil {
		t.Error("expected error for document without text")
	}
}

func TestRegistrationOrderPreserved(t *testing.T) {
	ctx := context.Background()
	builder, err := NewBuilder(&countingProvider{}, &mockEmbedder{dims: 64}, t.TempDir())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	ids := []string{"d3", "d1", "d2"}
	for _, id := range ids {
		doc := sampleDoc()
		doc.ID = id
		if _, err := builder.Register(ctx, doc); err != nil {
			t.Fatalf("Register %s: %v", id, err)
		}
	}

	papers := builder.Papers()
	if len(papers) != 3 {
		t.Fatalf("Papers returned %d docs", len(papers))
	}
	for i, id := range ids {
		if papers[i].ID != id {
			t.Errorf("papers[%d].ID = %q, want %q", i, papers[i].ID, id)
		}
	}

	toolSet := builder.Tools()
	for i, id := range ids {
		if toolSet[i].Name != "tool_"+id {
			t.Errorf("tools[%d].Name = %q, want tool_%s", i, toolSet[i].Name, id)
		}
	}
}

func TestChunksByDocID(t *testing.T) {
	ctx := context.Background()
	builder, err := NewBuilder(&countingProvider{}, &mockEmbedder{dims: 64}, t.TempDir())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	for _, id := range []string{"d1", "d2"} {
		doc := sampleDoc()
		doc.ID = id
		if _, err := builder.Register(ctx, doc); err != nil {
			t.Fatalf("Register %s: %v", id, err)
		}
	}

	chunks := builder.Chunks([]string{"d2"})
	if len(chunks) == 0 {
		t.Fatal("expected chunks for d2")
	}
	for _, c := range chunks {
		if c.DocID != "d2" {
			t.Errorf("chunk from wrong doc: %q", c.DocID)
		}
	}

	all := builder.AllChunks()
	if len(all) <= len(chunks) {
		t.Errorf("AllChunks returned %d chunks, want more than %d", len(all), len(chunks))
	}
}

func TestSearchChunksFindsRegisteredContent(t *testing.T) {
	ctx := context.Background()
	builder, err := NewBuilder(&countingProvider{}, &mockEmbedder{dims: 64}, t.TempDir())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if _, err := builder.Register(ctx, sampleDoc()); err != nil {
		t.Fatalf("Register: %v", err)
	}

	results, err := builder.SearchChunks(ctx, "self attention over tokens", 3)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected at least one result")
	}
	if !strings.HasPrefix(results[0].ID, "2101_00001v1:") {
		t.Errorf("result ID = %q", results[0].ID)
	}
}

func TestSearchChunksEmptyCorpus(t *testing.T) {
	builder, err := NewBuilder(&countingProvider{}, &mockEmbedder{dims: 64}, t.TempDir())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	results, err := builder.SearchChunks(context.Background(), "anything", 3)
	if err != nil {
		t.Fatalf("SearchChunks: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results, got %d", len(results))
	}
}

func TestPersistAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	storageDir := t.TempDir()

	builder, err := NewBuilder(&countingProvider{response: "summary"}, &mockEmbedder{dims: 64}, storageDir)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	if _, err := builder.Register(ctx, sampleDoc()); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := builder.Persist(ctx); err != nil {
		t.Fatalf("Persist: %v", err)
	}

	// A fresh session imports the store; registering the same paper skips
	// the embedding pass because its collection is already populated.
	embedder := &mockEmbedder{dims: 64}
	builder2, err := NewBuilder(&countingProvider{}, embedder, storageDir)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	found, err := builder2.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !found {
		t.Fatal("Load did not find the persisted store")
	}
	if _, err := builder2.Register(ctx, sampleDoc()); err != nil {
		t.Fatalf("Register after Load: %v", err)
	}

	results, err := builder2.SearchChunks(ctx, "self attention", 2)
	if err != nil {
		t.Fatalf("SearchChunks after Load: %v", err)
	}
	if len(results) == 0 {
		t.Fatal("expected corpus search hits after Load")
	}
}

func TestLoadMissingStore(t *testing.T) {
	builder, err := NewBuilder(&countingProvider{}, &mockEmbedder{dims: 64}, t.TempDir())
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}
	found, err := builder.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if found {
		t.Fatal("Load reported a store in an empty directory")
	}
}

func TestSaveLoadDocument(t *testing.T) {
	dir := t.TempDir()
	doc := sampleDoc()

	if err := SaveDocument(dir, doc); err != nil {
		t.Fatalf("SaveDocument: %v", err)
	}

	loaded, ok, err := LoadDocument(dir, doc.ID)
	if err != nil {
		t.Fatalf("LoadDocument: %v", err)
	}
	if !ok {
		t.Fatal("LoadDocument did not find the saved document")
	}
	if loaded.Title != doc.Title || loaded.Text != doc.Text {
		t.Errorf("round trip changed document: %+v", loaded)
	}

	_, ok, err = LoadDocument(dir, "missing")
	if err != nil {
		t.Fatalf("LoadDocument missing: %v", err)
	}
	if ok {
		t.Fatal("LoadDocument found a document that was never saved")
	}
}

func TestSanitizeID(t *testing.T) {
	cases := map[string]string{
		"2101.00001v1": "2101_00001v1",
		"abc/def":      "abc_def",
		"plain-id_1":   "plain-id_1",
	}
	for in, want := range cases {
		if got := sanitizeID(in); got != want {
			t.Errorf("sanitizeID(%q) = %q, want %q", in, got, want)
		}
	}
}
