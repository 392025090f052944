package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/paperchat/paperchat/internal/arxiv"
)

// ProgressFunc receives per-paper progress during a corpus build.
type ProgressFunc func(current, total int, message string)

// IngestOptions control a topic build.
type IngestOptions struct {
	Topic      string
	MaxPapers  int
	PapersDir  string
	KeepPDFs   bool
	OnProgress ProgressFunc
}

// BuildError records a single paper that failed to index.
type BuildError struct {
	DocID string
	Err   error
}

func (e BuildError) Error() string {
	return fmt.Sprintf("%s: %v", e.DocID, e.Err)
}

// BuildResult summarizes a corpus build. One failing paper does not abort
// the batch; failures are isolated per document.
type BuildResult struct {
	Registered []Document
	Failed     []BuildError
}

// BuildFromTopic searches arXiv for the topic, downloads and indexes each
// matching paper, and registers the per-paper tools with the session.
// Zero usable documents is reported through arxiv.ErrNoPapersFound so the
// caller can prompt for a different topic without a half-initialized session.
func (b *Builder) BuildFromTopic(ctx context.Context, client *arxiv.Client, opts IngestOptions) (*BuildResult, error) {
	papers, err := client.Search(ctx, opts.Topic, opts.MaxPapers)
	if err != nil {
		return nil, err
	}

	result := &BuildResult{}
	for i, paper := range papers {
		if opts.OnProgress != nil {
			opts.OnProgress(i+1, len(papers), paper.Title)
		}
		doc, err := b.fetchDocument(ctx, client, paper, opts)
		if err != nil {
			result.Failed = append(result.Failed, BuildError{DocID: paper.ID, Err: err})
			continue
		}
		if _, err := b.Register(ctx, doc); err != nil {
			result.Failed = append(result.Failed, BuildError{DocID: paper.ID, Err: err})
			continue
		}
		result.Registered = append(result.Registered, doc)
	}

	if len(result.Registered) == 0 {
		return nil, fmt.Errorf("%w: all %d papers failed to index", arxiv.ErrNoPapersFound, len(papers))
	}

	if !opts.KeepPDFs {
		b.cleanupPDFs(result.Registered, opts.PapersDir)
	}
	return result, nil
}

// fetchDocument returns the cached document if one is persisted, otherwise
// downloads the PDF and extracts its text.
func (b *Builder) fetchDocument(ctx context.Context, client *arxiv.Client, paper arxiv.Paper, opts IngestOptions) (Document, error) {
	if cached, ok, err := LoadDocument(b.storageDir, paper.ID); err != nil {
		return Document{}, err
	} else if ok {
		return cached, nil
	}

	path, err := client.DownloadPDF(ctx, paper, opts.PapersDir)
	if err != nil {
		return Document{}, fmt.Errorf("download: %w", err)
	}

	text, err := arxiv.ExtractText(path)
	if err != nil || text == "" {
		// Scanned or malformed PDFs still get indexed from the abstract.
		text = paper.Abstract
	}

	doc := Document{
		ID:        paper.ID,
		Title:     paper.Title,
		Authors:   paper.Authors,
		Published: paper.Published,
		URL:       paper.URL,
		Abstract:  paper.Abstract,
		Text:      text,
	}
	if err := SaveDocument(b.storageDir, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}

func (b *Builder) cleanupPDFs(docs []Document, papersDir string) {
	for _, doc := range docs {
		os.Remove(filepath.Join(papersDir, doc.ID+".pdf"))
	}
	// Remove the directory if nothing else is left in it.
	os.Remove(papersDir)
}
