package model

import "time"

// ExecutionStatus is the lifecycle state of a tool execution attempt.
type ExecutionStatus string

const (
	StatusPending ExecutionStatus = "pending"
	StatusSuccess ExecutionStatus = "success"
	StatusError   ExecutionStatus = "error"
)

// ExecutionRecord is the audit entry for one tool invocation attempt.
//
// A record is created in StatusPending the instant a tool call is dispatched
// and receives exactly one terminal update (success or error). EndTime is set
// if and only if the status is terminal.
type ExecutionRecord struct {
	ID        string
	ToolID    string
	ToolName  string
	Input     string
	Output    string
	StartTime time.Time
	EndTime   *time.Time
	Status    ExecutionStatus
	Metrics   map[string]any
}

// Terminal reports whether the record has reached its final status.
func (r *ExecutionRecord) Terminal() bool {
	return r.Status == StatusSuccess || r.Status == StatusError
}

// ProcessingTime returns the recorded processing time in seconds, or -1 if
// the metric is absent or not numeric.
func (r *ExecutionRecord) ProcessingTime() float64 {
	v, ok := r.Metrics["processingTime"]
	if !ok {
		return -1
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return -1
}
