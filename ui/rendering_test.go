package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"tooldeck/model"
)

func TestPadCell(t *testing.T) {
	if got := padCell("abc", 6); got != "abc   " {
		t.Errorf("padCell short = %q", got)
	}
	if got := padCell("abcdefgh", 6); got != "abc..." {
		t.Errorf("padCell long = %q", got)
	}
	// Wide runes count double.
	if got := padCell("日本語です", 6); got != "日本..." && got != "日..." {
		t.Errorf("padCell wide = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{250 * time.Millisecond, "250ms"},
		{1500 * time.Millisecond, "1.5s"},
		{90 * time.Second, "1m30s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestUpsertMessageReplacesByID(t *testing.T) {
	a := &AppView{}
	a.upsertMessage(model.Message{ID: "m1", Role: "assistant", Content: "Hel"})
	a.upsertMessage(model.Message{ID: "m1", Role: "assistant", Content: "Hello"})
	a.upsertMessage(model.Message{ID: "m2", Role: "user", Content: "hi"})

	if len(a.messages) != 2 {
		t.Fatalf("messages = %d", len(a.messages))
	}
	if a.messages[0].Content != "Hello" {
		t.Errorf("streamed update not applied: %q", a.messages[0].Content)
	}
}

func TestUpsertRecordNewestFirst(t *testing.T) {
	a := &AppView{}
	a.upsertRecord(model.ExecutionRecord{ID: "r1", Status: model.StatusPending})
	a.upsertRecord(model.ExecutionRecord{ID: "r2", Status: model.StatusPending})
	a.upsertRecord(model.ExecutionRecord{ID: "r1", Status: model.StatusSuccess})

	if len(a.records) != 2 {
		t.Fatalf("records = %d", len(a.records))
	}
	if a.records[0].ID != "r2" {
		t.Errorf("order = %s first", a.records[0].ID)
	}
	if a.records[1].Status != model.StatusSuccess {
		t.Errorf("terminal update not applied")
	}
}

func TestRenderTimelineShowsThinkingSteps(t *testing.T) {
	a := NewAppView(nil, "llama3.1")
	a.messages = []model.Message{{
		ID:          "m1",
		Role:        "assistant",
		Provisional: true,
		ThinkingSteps: []model.ThinkingStep{
			{ID: "s1", Text: "Running Summarize...", Timestamp: time.Now()},
		},
	}}

	out := stripANSI(a.renderTimeline())
	if !strings.Contains(out, "Running Summarize...") {
		t.Errorf("timeline missing in-flight step:\n%s", out)
	}

	// Finished messages drop the scaffolding.
	a.messages[0].Provisional = false
	a.messages[0].Content = "Done."
	out = stripANSI(a.renderTimeline())
	if strings.Contains(out, "Running Summarize...") {
		t.Errorf("finished timeline still shows step:\n%s", out)
	}
}

func TestCopyFlashReportsFailure(t *testing.T) {
	if got := copyFlash(nil); got != "Copied to clipboard" {
		t.Errorf("copyFlash(nil) = %q", got)
	}
	got := copyFlash(errors.New("no clipboard utilities found"))
	if !strings.Contains(got, "Copy failed") || !strings.Contains(got, "no clipboard utilities found") {
		t.Errorf("copyFlash(err) = %q", got)
	}
}

func TestRecordSummaryPrefersErrorMetric(t *testing.T) {
	rec := model.ExecutionRecord{
		Status:  model.StatusError,
		Output:  "partial",
		Metrics: map[string]any{"error": "backend returned status 500"},
	}
	if got := recordSummary(rec); got != "backend returned status 500" {
		t.Errorf("summary = %q", got)
	}

	rec.Status = model.StatusSuccess
	rec.Output = "line1\nline2"
	if got := recordSummary(rec); got != "line1 line2" {
		t.Errorf("summary = %q", got)
	}
}
