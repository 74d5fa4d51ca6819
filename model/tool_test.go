package model

import (
	"testing"
	"time"
)

func TestRenderPrompt(t *testing.T) {
	tests := []struct {
		name     string
		tool     Tool
		input    string
		values   map[string]string
		expected string
	}{
		{
			name:     "plain input placeholder",
			tool:     Tool{PromptTemplate: "Summarize the following text:\n{input}"},
			input:    "hello world",
			expected: "Summarize the following text:\nhello world",
		},
		{
			name:  "field placeholders",
			tool:  Tool{PromptTemplate: "Book a flight to {input.destination} on {input.date}."},
			input: "book a flight",
			values: map[string]string{
				"destination": "Lisbon",
				"date":        "2026-09-01",
			},
			expected: "Book a flight to Lisbon on 2026-09-01.",
		},
		{
			name:     "empty template passes input through",
			tool:     Tool{PromptTemplate: ""},
			input:    "raw text",
			expected: "raw text",
		},
		{
			name:  "unmatched field left in place",
			tool:  Tool{PromptTemplate: "{input.city}"},
			input: "x",
			values: map[string]string{
				"country": "Portugal",
			},
			expected: "{input.city}",
		},
		{
			name:  "repeated placeholder substituted everywhere",
			tool:  Tool{PromptTemplate: "{input.name} said: {input.name}"},
			input: "x",
			values: map[string]string{
				"name": "Ada",
			},
			expected: "Ada said: Ada",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderPrompt(tt.tool, tt.input, tt.values)
			if got != tt.expected {
				t.Errorf("RenderPrompt() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestRequiredParams(t *testing.T) {
	tool := Tool{
		Schema: []ToolParam{
			{Name: "destination", Required: true},
			{Name: "date", Required: true},
			{Name: "class", Required: false},
		},
	}

	req := tool.RequiredParams()
	if len(req) != 2 {
		t.Fatalf("expected 2 required params, got %d", len(req))
	}
	if req[0].Name != "destination" || req[1].Name != "date" {
		t.Errorf("required params out of order: %v", req)
	}
}

func TestExecutionRecordTerminal(t *testing.T) {
	now := time.Now()
	rec := ExecutionRecord{ID: "r1", Status: StatusPending, StartTime: now}
	if rec.Terminal() {
		t.Error("pending record reported terminal")
	}

	rec.Status = StatusSuccess
	if !rec.Terminal() {
		t.Error("success record not reported terminal")
	}

	rec.Status = StatusError
	if !rec.Terminal() {
		t.Error("error record not reported terminal")
	}
}

func TestExecutionRecordProcessingTime(t *testing.T) {
	rec := ExecutionRecord{Metrics: map[string]any{"processingTime": 1.5}}
	if got := rec.ProcessingTime(); got != 1.5 {
		t.Errorf("ProcessingTime() = %v, want 1.5", got)
	}

	rec = ExecutionRecord{Metrics: map[string]any{}}
	if got := rec.ProcessingTime(); got != -1 {
		t.Errorf("ProcessingTime() with no metric = %v, want -1", got)
	}

	rec = ExecutionRecord{Metrics: map[string]any{"processingTime": "fast"}}
	if got := rec.ProcessingTime(); got != -1 {
		t.Errorf("ProcessingTime() with non-numeric metric = %v, want -1", got)
	}
}
