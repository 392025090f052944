package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paperchat/paperchat/internal/agent"
	"github.com/paperchat/paperchat/internal/corpus"
	"github.com/paperchat/paperchat/internal/db"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return New(database)
}

func TestStatusBeforeBuild(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
		Ready  bool   `json:"ready"`
		Papers int    `json:"papers"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if body.Ready {
		t.Error("server reported ready before any build")
	}
	if body.Papers != 0 {
		t.Errorf("papers = %d", body.Papers)
	}
}

func TestStartBuildSuccess(t *testing.T) {
	s := newTestServer(t)

	papers := []corpus.Document{{ID: "d1", Title: "Attention Models"}}
	s.StartBuild(func() (*agent.Agent, []corpus.Document, error) {
		return &agent.Agent{}, papers, nil
	})

	waitReady(t, s, true)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/papers", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("papers status code = %d", rec.Code)
	}
	var got []paperJSON
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode papers: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Attention Models" {
		t.Errorf("papers = %+v", got)
	}
}

func TestStartBuildFailure(t *testing.T) {
	s := newTestServer(t)

	s.StartBuild(func() (*agent.Agent, []corpus.Document, error) {
		return nil, nil, errors.New("no papers found")
	})

	waitStatus(t, s, "build failed")

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.ready {
		t.Error("server ready after failed build")
	}
}

func TestConversationPerSession(t *testing.T) {
	s := newTestServer(t)
	s.StartBuild(func() (*agent.Agent, []corpus.Document, error) {
		return &agent.Agent{}, nil, nil
	})
	waitReady(t, s, true)

	first := s.conversation("session-a")
	if s.conversation("session-a") != first {
		t.Error("same session got a different conversation")
	}
	if s.conversation("session-b") == first {
		t.Error("distinct sessions share a conversation")
	}
}

func TestIndexServesHTML(t *testing.T) {
	s := newTestServer(t)

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<html") {
		t.Error("index response is not a page")
	}
}

func waitReady(t *testing.T, s *Server, want bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.RLock()
		ready := s.ready
		s.mu.RUnlock()
		if ready == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server never reached ready=%v", want)
}

func waitStatus(t *testing.T, s *Server, prefix string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.RLock()
		status := s.status
		s.mu.RUnlock()
		if strings.HasPrefix(status, prefix) {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server never reached status %q", prefix)
}

func TestRenderMarkdown(t *testing.T) {
	out := renderMarkdown("**bold** and `code`")
	if !strings.Contains(out, "<strong>bold</strong>") {
		t.Errorf("markdown not rendered: %q", out)
	}
	if !strings.Contains(out, "<code>code</code>") {
		t.Errorf("inline code not rendered: %q", out)
	}
}
