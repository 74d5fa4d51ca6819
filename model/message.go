package model

import "time"

// Message represents a single entry in the conversation timeline.
//
// A message is mutated in place (looked up by ID) while streamed content is
// arriving, and becomes immutable once the turn completes. The timeline is
// the sole owner; messages are never shared between conversations.
type Message struct {
	ID              string
	Role            string // "user" or "assistant"
	Content         string
	Timestamp       time.Time
	ToolExecutionID string         // Links to the ExecutionRecord that produced this message
	ThinkingSteps   []ThinkingStep // Intermediate status lines shown while the turn is in flight
	Provisional     bool           // True while streamed content is still arriving
}

// ThinkingStep is one intermediate status line attached to an in-flight
// assistant message.
type ThinkingStep struct {
	ID        string
	Text      string
	Timestamp time.Time
}

// NoResponseFallback is shown when a stream completes without delivering any
// content. The backend closes the connection without frames in this case, so
// the client substitutes a readable message instead of an empty bubble.
const NoResponseFallback = "No response received from the model."
