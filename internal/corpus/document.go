// Package corpus owns the session state of a paper corpus: the documents,
// their chunks, per-paper query engines, and the cached summaries that
// per-paper tools are built from.
package corpus

import (
	"strconv"
	"strings"
	"time"
)

// Document is one fetched paper. Immutable once created.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Authors   []string  `json:"authors"`
	Published time.Time `json:"published"`
	URL       string    `json:"url"`
	Abstract  string    `json:"abstract"`
	Text      string    `json:"text"`
}

// Chunk is a contiguous span of a document's text produced by sentence-aware
// splitting. Chunks of one document concatenated in ordinal order
// approximately reconstruct the source text.
type Chunk struct {
	DocID   string `json:"doc_id"`
	Ordinal int    `json:"ordinal"`
	Text    string `json:"text"`
}

// chunkMetadata flattens chunk attributes for the vector store.
func chunkMetadata(doc Document, c Chunk) map[string]string {
	return map[string]string{
		"doc_id":  c.DocID,
		"ordinal": strconv.Itoa(c.Ordinal),
		"title":   doc.Title,
		"url":     doc.URL,
	}
}

// AuthorLine renders the author list for catalog listings.
func (d Document) AuthorLine() string {
	return strings.Join(d.Authors, ", ")
}
