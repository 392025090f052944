package web

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// chatRequest is the incoming WebSocket message format.
type chatRequest struct {
	Type      string `json:"type"`       // "query"
	SessionID string `json:"session_id"` // empty for new sessions
	Content   string `json:"content"`
}

// chatResponse is the outgoing WebSocket message format.
type chatResponse struct {
	Type      string `json:"type"` // "response" or "error"
	SessionID string `json:"session_id"`
	Content   string `json:"content"`
	HTML      string `json:"html,omitempty"`
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: websocket read: %v", err)
			}
			return
		}

		var req chatRequest
		if err := json.Unmarshal(msg, &req); err != nil {
			s.sendError(conn, "", "invalid message format")
			continue
		}

		if req.Type != "query" {
			s.sendError(conn, req.SessionID, "unknown message type: "+req.Type)
			continue
		}
		if req.Content == "" {
			s.sendError(conn, req.SessionID, "content is required")
			continue
		}

		s.handleQuery(conn, r, req)
	}
}

func (s *Server) handleQuery(conn *websocket.Conn, r *http.Request, req chatRequest) {
	s.mu.RLock()
	ready := s.ready
	status := s.status
	s.mu.RUnlock()

	if !ready {
		s.sendError(conn, req.SessionID, "the paper corpus is not ready yet ("+status+")")
		return
	}

	ctx := r.Context()
	sessionID := req.SessionID
	if sessionID == "" {
		sess, err := s.database.CreateSession(ctx, "web")
		if err != nil {
			s.sendError(conn, "", "failed to create session: "+err.Error())
			return
		}
		sessionID = sess.ID
	}

	answer, err := s.conversation(sessionID).Chat(ctx, req.Content)
	if err != nil {
		// The turn failed; the session stays usable for the next query.
		s.sendError(conn, sessionID, "query failed: "+err.Error())
		return
	}

	if err := s.database.AppendMessage(ctx, sessionID, "user", req.Content); err != nil {
		log.Printf("web: record user message: %v", err)
	}
	if err := s.database.AppendMessage(ctx, sessionID, "assistant", answer); err != nil {
		log.Printf("web: record assistant message: %v", err)
	}

	s.sendResponse(conn, chatResponse{
		Type:      "response",
		SessionID: sessionID,
		Content:   answer,
		HTML:      renderMarkdown(answer),
	})
}

func (s *Server) sendResponse(conn *websocket.Conn, resp chatResponse) {
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("web: websocket write: %v", err)
	}
}

func (s *Server) sendError(conn *websocket.Conn, sessionID, message string) {
	resp := chatResponse{
		Type:      "error",
		SessionID: sessionID,
		Content:   message,
	}
	if err := conn.WriteJSON(resp); err != nil {
		log.Printf("web: websocket write error: %v", err)
	}
}
