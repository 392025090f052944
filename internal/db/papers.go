package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// PaperRecord is one row of the paper catalog.
type PaperRecord struct {
	ID        string
	Title     string
	Authors   []string
	Published time.Time
	URL       string
	Abstract  string
	Summary   string
	Topic     string
	IndexedAt time.Time
}

// SavePaper inserts or updates a catalog entry.
func (d *DB) SavePaper(ctx context.Context, p PaperRecord) error {
	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return fmt.Errorf("marshal authors: %w", err)
	}

	_, err = d.ExecContext(ctx, `
INSERT INTO papers (id, title, authors, published, url, abstract, summary, topic)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    title = excluded.title,
    authors = excluded.authors,
    published = excluded.published,
    url = excluded.url,
    abstract = excluded.abstract,
    summary = excluded.summary,
    topic = excluded.topic,
    indexed_at = datetime('now')`,
		p.ID, p.Title, string(authors), p.Published, p.URL, p.Abstract, p.Summary, p.Topic)
	if err != nil {
		return fmt.Errorf("save paper %s: %w", p.ID, err)
	}
	return nil
}

// ListPapers returns all catalog entries, most recently indexed first.
func (d *DB) ListPapers(ctx context.Context) ([]PaperRecord, error) {
	rows, err := d.QueryContext(ctx, `
SELECT id, title, authors, published, url, abstract, summary, topic, indexed_at
FROM papers ORDER BY indexed_at DESC, id`)
	if err != nil {
		return nil, fmt.Errorf("list papers: %w", err)
	}
	defer rows.Close()

	var papers []PaperRecord
	for rows.Next() {
		var p PaperRecord
		var authors string
		if err := rows.Scan(&p.ID, &p.Title, &authors, &p.Published, &p.URL, &p.Abstract, &p.Summary, &p.Topic, &p.IndexedAt); err != nil {
			return nil, fmt.Errorf("scan paper: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &p.Authors); err != nil {
			p.Authors = nil
		}
		papers = append(papers, p)
	}
	return papers, rows.Err()
}
