package db

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "paperchat.db")
	d, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer d.Close()

	// Reopening must tolerate the existing schema.
	d2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	d2.Close()
}

func TestSavePaperUpsert(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	p := PaperRecord{
		ID:        "2101_00001v1",
		Title:     "Attention Models",
		Authors:   []string{"Alice", "Bob"},
		Published: time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC),
		URL:       "http://arxiv.org/abs/2101.00001v1",
		Abstract:  "We revisit attention.",
		Summary:   "A paper about attention.",
		Topic:     "attention",
	}
	if err := d.SavePaper(ctx, p); err != nil {
		t.Fatalf("SavePaper: %v", err)
	}

	// Saving the same ID updates in place instead of duplicating.
	p.Summary = "Updated summary."
	if err := d.SavePaper(ctx, p); err != nil {
		t.Fatalf("SavePaper upsert: %v", err)
	}

	papers, err := d.ListPapers(ctx)
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(papers) != 1 {
		t.Fatalf("got %d papers, want 1", len(papers))
	}
	got := papers[0]
	if got.Summary != "Updated summary." {
		t.Errorf("Summary = %q", got.Summary)
	}
	if len(got.Authors) != 2 || got.Authors[0] != "Alice" {
		t.Errorf("Authors = %v", got.Authors)
	}
	if got.IndexedAt.IsZero() {
		t.Error("IndexedAt not set")
	}
}

func TestListPapersEmpty(t *testing.T) {
	d := openTestDB(t)
	papers, err := d.ListPapers(context.Background())
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(papers) != 0 {
		t.Fatalf("got %d papers, want 0", len(papers))
	}
}

func TestSessionsAndMessages(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	s, err := d.CreateSession(ctx, "cli")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.ID == "" || s.CreatedAt.IsZero() {
		t.Fatalf("incomplete session: %+v", s)
	}

	if err := d.AppendMessage(ctx, s.ID, "user", "what is attention?"); err != nil {
		t.Fatalf("AppendMessage user: %v", err)
	}
	if err := d.AppendMessage(ctx, s.ID, "assistant", "A weighting mechanism."); err != nil {
		t.Fatalf("AppendMessage assistant: %v", err)
	}

	msgs, err := d.ListMessages(ctx, s.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("message order wrong: %q then %q", msgs[0].Role, msgs[1].Role)
	}
}

func TestCreateSessionRejectsUnknownSource(t *testing.T) {
	d := openTestDB(t)
	if _, err := d.CreateSession(context.Background(), "carrier-pigeon"); err == nil {
		t.Fatal("expected CHECK constraint violation")
	}
}

func TestAppendMessageRejectsUnknownRole(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)

	s, err := d.CreateSession(ctx, "web")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if err := d.AppendMessage(ctx, s.ID, "narrator", "meanwhile"); err == nil {
		t.Fatal("expected CHECK constraint violation")
	}
}
