// Package arxiv fetches paper metadata and PDFs from the arXiv Atom API.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultBaseURL = "https://export.arxiv.org/api/query"
	userAgent      = "paperchat/1.0 (research assistant)"
)

// ErrNoPapersFound is returned when a topic search yields zero results.
// Callers treat it as a recoverable condition and prompt for another topic.
var ErrNoPapersFound = errors.New("arxiv: no papers found for topic")

// Paper holds metadata for a single arXiv paper.
type Paper struct {
	// ID is a stable identifier derived from the entry URL,
	// e.g. "2101_00001v1" for arxiv.org/abs/2101.00001v1.
	ID        string
	Title     string
	Authors   []string
	Published time.Time
	URL       string
	PDFURL    string
	Abstract  string
}

// Client queries the arXiv Atom API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Client. baseURL defaults to the public arXiv endpoint.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID        string `xml:"id"`
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
	Links []struct {
		Href  string `xml:"href,attr"`
		Type  string `xml:"type,attr"`
		Title string `xml:"title,attr"`
		Rel   string `xml:"rel,attr"`
	} `xml:"link"`
}

// Search queries arXiv for the given topic, sorted by relevance, returning
// at most maxResults papers. Zero results yield ErrNoPapersFound.
func (c *Client) Search(ctx context.Context, topic string, maxResults int) ([]Paper, error) {
	if maxResults < 1 {
		return nil, fmt.Errorf("arxiv: maxResults must be positive, got %d", maxResults)
	}

	apiURL := fmt.Sprintf(
		"%s?search_query=all:%s&start=0&max_results=%d&sortBy=relevance",
		c.baseURL, url.QueryEscape(topic), maxResults,
	)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read arxiv response: %w", err)
	}

	papers, err := parseFeed(body)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoPapersFound, topic)
	}
	return papers, nil
}

func parseFeed(body []byte) ([]Paper, error) {
	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse arxiv feed: %w", err)
	}

	var papers []Paper
	for _, entry := range feed.Entries {
		var authors []string
		for _, a := range entry.Authors {
			authors = append(authors, a.Name)
		}

		published, _ := time.Parse(time.RFC3339, entry.Published)

		// Entry IDs look like http://arxiv.org/abs/1234.5678v1; the PDF
		// lives at /pdf/ with the same suffix.
		pdfURL := ""
		pageURL := entry.ID
		for _, link := range entry.Links {
			if link.Title == "pdf" || link.Type == "application/pdf" {
				pdfURL = link.Href
			} else if link.Rel == "alternate" {
				pageURL = link.Href
			}
		}
		if pdfURL == "" && strings.Contains(entry.ID, "arxiv.org/abs/") {
			pdfURL = strings.Replace(entry.ID, "/abs/", "/pdf/", 1)
		}

		papers = append(papers, Paper{
			ID:        EntryID(entry.ID),
			Title:     strings.TrimSpace(entry.Title),
			Authors:   authors,
			Published: published,
			URL:       pageURL,
			PDFURL:    pdfURL,
			Abstract:  strings.TrimSpace(entry.Summary),
		})
	}
	return papers, nil
}

// EntryID derives a stable, filesystem-safe identifier from an arXiv entry URL.
func EntryID(entryURL string) string {
	id := entryURL
	if i := strings.LastIndex(id, "/"); i >= 0 {
		id = id[i+1:]
	}
	return strings.ReplaceAll(id, ".", "_")
}

// DownloadPDF saves the paper's PDF into dir and returns the local path.
func (c *Client) DownloadPDF(ctx context.Context, paper Paper, dir string) (string, error) {
	if paper.PDFURL == "" {
		return "", fmt.Errorf("arxiv: paper %s has no PDF URL", paper.ID)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create papers dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, paper.PDFURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download %s: %w", paper.PDFURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download %s: status %d", paper.PDFURL, resp.StatusCode)
	}

	path := filepath.Join(dir, paper.ID+".pdf")
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}
