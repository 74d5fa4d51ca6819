package ui

import (
	"tooldeck/model"
	"tooldeck/orchestrate"
	"tooldeck/storage"
)

// Orchestrator sink events, forwarded into the bubbletea loop via
// Program.Send. Each carries a full snapshot so Update never reaches back
// into orchestrator state.

// TimelineMsg is a new or updated conversation message.
type TimelineMsg struct {
	Message model.Message
}

// PromptMsg asks the user for missing tool parameters.
type PromptMsg struct {
	Prompt orchestrate.Prompt
}

// RecordMsg is an execution ledger change.
type RecordMsg struct {
	Record model.ExecutionRecord
}

// TurnDoneMsg signals that a submitted turn finished (or failed).
type TurnDoneMsg struct {
	Err error
}

// FlashTickMsg clears the transient status flash.
type FlashTickMsg struct{}

// PullProgressMsg reports progress of a model download. Done marks the
// terminal update, with Err set if the pull failed.
type PullProgressMsg struct {
	Name     string
	Progress model.PullProgress
	Done     bool
	Err      error
}

// SearchResultsMsg carries the outcome of a message search.
type SearchResultsMsg struct {
	Query   string
	Matches []storage.MessageMatch
	Err     error
}
