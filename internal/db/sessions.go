package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Session is one chat conversation.
type Session struct {
	ID        string
	Source    string
	CreatedAt time.Time
}

// ChatMessage is one message within a session.
type ChatMessage struct {
	ID        int64
	SessionID string
	Role      string
	Content   string
	CreatedAt time.Time
}

// CreateSession starts a new chat session for the given front-end source.
func (d *DB) CreateSession(ctx context.Context, source string) (*Session, error) {
	s := &Session{
		ID:     uuid.NewString(),
		Source: source,
	}
	err := d.QueryRowContext(ctx, `
INSERT INTO sessions (id, source) VALUES (?, ?)
RETURNING created_at`, s.ID, s.Source).Scan(&s.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return s, nil
}

// AppendMessage records one message in a session.
func (d *DB) AppendMessage(ctx context.Context, sessionID, role, content string) error {
	_, err := d.ExecContext(ctx, `
INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)`,
		sessionID, role, content)
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}
	return nil
}

// ListMessages returns a session's messages in chronological order.
func (d *DB) ListMessages(ctx context.Context, sessionID string) ([]ChatMessage, error) {
	rows, err := d.QueryContext(ctx, `
SELECT id, session_id, role, content, created_at
FROM messages WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var msgs []ChatMessage
	for rows.Next() {
		var m ChatMessage
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}
