package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tooldeck/model"
)

// StoredMessage is one locally persisted conversation message.
type StoredMessage struct {
	ID             string
	ConversationID string
	Content        string
	Role           string
	ToolID         string
	Timestamp      time.Time
	Metadata       map[string]any
}

// ConversationMeta is a lightweight listing entry.
type ConversationMeta struct {
	ID           string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	MessageCount int
}

// CreateConversation inserts a new empty conversation and returns its id.
func (s *Store) CreateConversation() (string, error) {
	id := uuid.NewString()
	now := time.Now()
	_, err := s.db.Exec(
		`INSERT INTO conversations (id, created_at, updated_at) VALUES (?, ?, ?)`,
		id, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to create conversation: %w", err)
	}
	return id, nil
}

// AppendMessage stores one message in a conversation and bumps its
// updated_at stamp.
func (s *Store) AppendMessage(conversationID string, msg model.Message, metadata map[string]any) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	encoded := "{}"
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("failed to encode metadata: %w", err)
		}
		encoded = string(data)
	}

	toolID := ""
	if msg.ToolExecutionID != "" {
		toolID = msg.ToolExecutionID
	}

	_, err := s.db.Exec(
		`INSERT INTO messages (id, conversation_id, content, role, tool_id, timestamp, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, conversationID, msg.Content, msg.Role, toolID, msg.Timestamp, encoded,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE conversations SET updated_at = ? WHERE id = ?`,
		time.Now(), conversationID,
	)
	return err
}

// SaveMessage stores a finished turn message. It is the local-store side of
// the orchestrator's persistence collaborator, used when no backend is
// configured.
func (s *Store) SaveMessage(ctx context.Context, conversationID, role, content, toolID string, metadata map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := model.Message{
		Role:            role,
		Content:         content,
		ToolExecutionID: toolID,
	}
	return s.AppendMessage(conversationID, msg, metadata)
}

// Messages returns a conversation's messages in chronological order.
func (s *Store) Messages(conversationID string) ([]StoredMessage, error) {
	rows, err := s.db.Query(
		`SELECT id, conversation_id, content, role, tool_id, timestamp, metadata
		 FROM messages WHERE conversation_id = ? ORDER BY timestamp ASC`,
		conversationID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanMessages(rows)
}

// ListConversations returns conversation metadata, most recent first.
func (s *Store) ListConversations() ([]ConversationMeta, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.created_at, c.updated_at, COUNT(m.id)
		FROM conversations c
		LEFT JOIN messages m ON m.conversation_id = c.id
		GROUP BY c.id
		ORDER BY c.updated_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []ConversationMeta
	for rows.Next() {
		var meta ConversationMeta
		if err := rows.Scan(&meta.ID, &meta.CreatedAt, &meta.UpdatedAt, &meta.MessageCount); err != nil {
			continue
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// DeleteConversation removes a conversation and its messages.
func (s *Store) DeleteConversation(id string) error {
	if _, err := s.db.Exec(`DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM conversations WHERE id = ?`, id)
	return err
}

func scanMessages(rows *sql.Rows) ([]StoredMessage, error) {
	var msgs []StoredMessage
	for rows.Next() {
		var (
			msg     StoredMessage
			rawMeta string
		)
		err := rows.Scan(
			&msg.ID,
			&msg.ConversationID,
			&msg.Content,
			&msg.Role,
			&msg.ToolID,
			&msg.Timestamp,
			&rawMeta,
		)
		if err != nil {
			continue
		}
		if rawMeta != "" && rawMeta != "{}" {
			_ = json.Unmarshal([]byte(rawMeta), &msg.Metadata)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
