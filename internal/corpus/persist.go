package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Persisted layout under the storage root:
//
//	papers/<id>/doc.json      fetched document and extracted text
//	papers/<id>/summary.txt   cached per-paper summary
//	vectordb.gob.gz           exported vector store (all collections)
//
// Presence of a persisted artifact is the idempotency check that skips
// re-fetching, re-summarizing, or re-embedding a paper.

func paperDir(storageDir, docID string) string {
	return filepath.Join(storageDir, "papers", sanitizeID(docID))
}

// sanitizeID keeps document IDs filesystem-safe.
func sanitizeID(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}

// SaveDocument writes the fetched document to the paper cache.
func SaveDocument(storageDir string, doc Document) error {
	dir := paperDir(storageDir, doc.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create paper dir: %w", err)
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal document %s: %w", doc.ID, err)
	}
	if err := os.WriteFile(filepath.Join(dir, "doc.json"), data, 0o644); err != nil {
		return fmt.Errorf("write document %s: %w", doc.ID, err)
	}
	return nil
}

// LoadDocument reads a previously fetched document from the paper cache.
// The second return value reports whether a cached document exists.
func LoadDocument(storageDir, docID string) (Document, bool, error) {
	data, err := os.ReadFile(filepath.Join(paperDir(storageDir, docID), "doc.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return Document{}, false, nil
		}
		return Document{}, false, fmt.Errorf("read cached document %s: %w", docID, err)
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, false, fmt.Errorf("parse cached document %s: %w", docID, err)
	}
	return doc, true, nil
}

func saveSummary(storageDir, docID, summary string) error {
	dir := paperDir(storageDir, docID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create paper dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "summary.txt"), []byte(summary), 0o644); err != nil {
		return fmt.Errorf("write summary %s: %w", docID, err)
	}
	return nil
}

func loadSummary(storageDir, docID string) (string, bool, error) {
	data, err := os.ReadFile(filepath.Join(paperDir(storageDir, docID), "summary.txt"))
	if err != nil {
		if os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("read summary %s: %w", docID, err)
	}
	return string(data), true, nil
}

func vectorStorePath(storageDir string) string {
	return filepath.Join(storageDir, "vectordb.gob.gz")
}

// Persist exports the session's vector store under the storage root.
func (b *Builder) Persist(ctx context.Context) error {
	if err := os.MkdirAll(b.storageDir, 0o755); err != nil {
		return fmt.Errorf("create storage dir: %w", err)
	}
	if err := b.vdb.ExportToFile(vectorStorePath(b.storageDir), true, ""); err != nil {
		return fmt.Errorf("persist vector store: %w", err)
	}
	return nil
}

// Load imports a previously persisted vector store, if one exists. The
// second return value reports whether a store was found.
func (b *Builder) Load(ctx context.Context) (bool, error) {
	path := vectorStorePath(b.storageDir)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return false, nil
	}
	if err := b.vdb.ImportFromFile(path, ""); err != nil {
		return false, fmt.Errorf("load vector store: %w", err)
	}

	// Re-acquire the corpus collection reference after import.
	col := b.vdb.GetCollection(corpusCollection, b.embedFunc)
	if col == nil {
		return false, fmt.Errorf("corpus collection missing after import")
	}
	b.corpusCol = col
	return true, nil
}
