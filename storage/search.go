package storage

import (
	"sort"
	"strings"
	"time"

	"github.com/sahilm/fuzzy"
)

// MessageMatch is one search hit across stored conversations.
type MessageMatch struct {
	ConversationID string
	MessageID      string
	Role           string
	Content        string
	Preview        string
	Timestamp      time.Time
	Score          int
}

const previewRadius = 40

// SearchMessages finds messages whose content matches the query, ranked by
// fuzzy match score. Exact substring hits rank above fuzzy ones.
func (s *Store) SearchMessages(query string) ([]MessageMatch, error) {
	if strings.TrimSpace(query) == "" {
		return []MessageMatch{}, nil
	}

	rows, err := s.db.Query(
		`SELECT id, conversation_id, content, role, tool_id, timestamp, metadata FROM messages`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	msgs, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var matches []MessageMatch
	for _, msg := range msgs {
		contentLower := strings.ToLower(msg.Content)

		if idx := strings.Index(contentLower, queryLower); idx >= 0 {
			matches = append(matches, MessageMatch{
				ConversationID: msg.ConversationID,
				MessageID:      msg.ID,
				Role:           msg.Role,
				Content:        msg.Content,
				Preview:        preview(msg.Content, idx, len(query)),
				Timestamp:      msg.Timestamp,
				// Substring hits outrank any fuzzy score.
				Score: 1000 + len(query),
			})
			continue
		}

		results := fuzzy.Find(queryLower, []string{contentLower})
		if len(results) == 0 {
			continue
		}
		matches = append(matches, MessageMatch{
			ConversationID: msg.ConversationID,
			MessageID:      msg.ID,
			Role:           msg.Role,
			Content:        msg.Content,
			Preview:        preview(msg.Content, results[0].MatchedIndexes[0], len(query)),
			Timestamp:      msg.Timestamp,
			Score:          results[0].Score,
		})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches, nil
}

func preview(content string, index, length int) string {
	start := index - previewRadius
	if start < 0 {
		start = 0
	}
	end := index + length + previewRadius
	if end > len(content) {
		end = len(content)
	}

	p := content[start:end]
	if start > 0 {
		p = "…" + p
	}
	if end < len(content) {
		p += "…"
	}
	return strings.ReplaceAll(p, "\n", " ")
}
