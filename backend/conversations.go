package backend

import (
	"context"
	"fmt"
	"time"

	"tooldeck/model"
)

// Conversation mirrors the backend's conversation resource.
type Conversation struct {
	ID        string             `json:"id"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
	Messages  []PersistedMessage `json:"messages"`
}

// PersistedMessage is one stored message, with optional tool execution
// metadata for later reconstruction of the execution record.
type PersistedMessage struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Role      string         `json:"role"`
	Timestamp string         `json:"timestamp"`
	ToolID    string         `json:"tool_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// MessageCreate is the append-message request body.
type MessageCreate struct {
	Content  string         `json:"content"`
	Role     string         `json:"role"`
	ToolID   string         `json:"tool_id,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// CreateConversation starts a new conversation and returns its id.
func (c *Client) CreateConversation(ctx context.Context) (string, error) {
	var conv Conversation
	if err := c.postJSON(ctx, "/api/conversations", nil, &conv); err != nil {
		return "", err
	}
	return conv.ID, nil
}

// GetConversation fetches a conversation with its full message history.
func (c *Client) GetConversation(ctx context.Context, id string) (*Conversation, error) {
	var conv Conversation
	if err := c.getJSON(ctx, "/api/conversations/"+id, &conv); err != nil {
		return nil, err
	}
	return &conv, nil
}

// AppendMessage persists one message to a conversation.
func (c *Client) AppendMessage(ctx context.Context, conversationID string, msg MessageCreate) (*PersistedMessage, error) {
	var saved PersistedMessage
	path := fmt.Sprintf("/api/conversations/%s/messages", conversationID)
	if err := c.postJSON(ctx, path, msg, &saved); err != nil {
		return nil, err
	}
	return &saved, nil
}

// ExecutionMetadata encodes an execution record into message metadata so a
// stored conversation can be replayed with its audit trail intact.
func ExecutionMetadata(rec model.ExecutionRecord) map[string]any {
	meta := map[string]any{
		"toolName":  rec.ToolName,
		"input":     rec.Input,
		"output":    rec.Output,
		"startTime": rec.StartTime.Format(time.RFC3339Nano),
		"status":    string(rec.Status),
		"metrics":   rec.Metrics,
	}
	if rec.EndTime != nil {
		meta["endTime"] = rec.EndTime.Format(time.RFC3339Nano)
	}
	return meta
}

// RecordFromMetadata reconstructs an execution record from a stored
// message. The second return is false when the message carries no execution
// metadata.
func RecordFromMetadata(msg PersistedMessage) (model.ExecutionRecord, bool) {
	if msg.ToolID == "" || msg.Metadata == nil {
		return model.ExecutionRecord{}, false
	}

	rec := model.ExecutionRecord{
		ID:     msg.ID,
		ToolID: msg.ToolID,
		Status: model.StatusSuccess,
	}
	if v, ok := msg.Metadata["toolName"].(string); ok {
		rec.ToolName = v
	}
	if v, ok := msg.Metadata["input"].(string); ok {
		rec.Input = v
	}
	if v, ok := msg.Metadata["output"].(string); ok {
		rec.Output = v
	}
	if v, ok := msg.Metadata["status"].(string); ok {
		rec.Status = model.ExecutionStatus(v)
	}
	if v, ok := msg.Metadata["metrics"].(map[string]any); ok {
		rec.Metrics = v
	}
	if v, ok := msg.Metadata["startTime"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.StartTime = t
		}
	}
	if v, ok := msg.Metadata["endTime"].(string); ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			rec.EndTime = &t
		}
	}
	return rec, true
}
