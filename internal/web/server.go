// Package web serves the browser chat front-end: a single-page chat window
// over a WebSocket, with the corpus build running as a background task.
package web

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/paperchat/paperchat/internal/agent"
	"github.com/paperchat/paperchat/internal/corpus"
	"github.com/paperchat/paperchat/internal/db"
)

// BuildFunc performs the corpus build and returns the ready chat agent and
// the registered papers. It runs on a background goroutine so the web
// interface stays responsive during fetch and indexing.
type BuildFunc func() (*agent.Agent, []corpus.Document, error)

// Server hosts the web chat front-end.
type Server struct {
	router   chi.Router
	database *db.DB

	mu       sync.RWMutex
	agent    *agent.Agent
	sessions map[string]*agent.Conversation
	papers   []corpus.Document
	status   string
	ready    bool
}

// New creates a Server backed by the given chat history database.
func New(database *db.DB) *Server {
	s := &Server{
		router:   chi.NewRouter(),
		database: database,
		sessions: make(map[string]*agent.Conversation),
		status:   "starting",
	}

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	}))

	s.router.Get("/", s.handleIndex)
	s.router.Get("/api/status", s.handleStatus)
	s.router.Get("/api/papers", s.handlePapers)
	s.router.Get("/ws/chat", s.handleWebSocket)

	return s
}

// StartBuild runs build on a background goroutine and flips the server to
// ready when it completes. Queries before completion get a status error.
func (s *Server) StartBuild(build BuildFunc) {
	s.setStatus("building", false)
	go func() {
		a, papers, err := build()
		if err != nil {
			log.Printf("web: corpus build failed: %v", err)
			s.setStatus("build failed: "+err.Error(), false)
			return
		}
		s.mu.Lock()
		s.agent = a
		s.papers = papers
		s.status = "ready"
		s.ready = true
		s.mu.Unlock()
		log.Printf("web: corpus ready, %d papers indexed", len(papers))
	}()
}

// conversation returns the chat thread for a session, creating it on first
// use. Each session carries its own history, so concurrent browser tabs do
// not interleave turns. Callers must check ready first so s.agent is set.
func (s *Server) conversation(sessionID string) *agent.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.sessions[sessionID]
	if !ok {
		c = s.agent.NewConversation()
		s.sessions[sessionID] = c
	}
	return c
}

func (s *Server) setStatus(status string, ready bool) {
	s.mu.Lock()
	s.status = status
	s.ready = ready
	s.mu.Unlock()
}

// ListenAndServe blocks serving HTTP on addr.
func (s *Server) ListenAndServe(addr string) error {
	log.Printf("web: chat interface listening on http://%s", addr)
	return http.ListenAndServe(addr, s.router)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	resp := map[string]any{
		"status": s.status,
		"ready":  s.ready,
		"papers": len(s.papers),
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

type paperJSON struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Authors   string `json:"authors"`
	Published string `json:"published,omitempty"`
	URL       string `json:"url"`
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	out := make([]paperJSON, 0, len(s.papers))
	for _, p := range s.papers {
		published := ""
		if !p.Published.IsZero() {
			published = p.Published.Format("2006-01-02")
		}
		out = append(out, paperJSON{
			ID:        p.ID,
			Title:     p.Title,
			Authors:   p.AuthorLine(),
			Published: published,
			URL:       p.URL,
		})
	}
	s.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
