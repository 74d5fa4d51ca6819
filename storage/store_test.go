package storage

import (
	"context"
	"testing"
	"time"

	"tooldeck/model"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleTool() model.Tool {
	return model.Tool{
		ID:             "flight-booker",
		Name:           "Flight Booker",
		Description:    "Books flights",
		Provider:       "ollama",
		Model:          "llama3.1:latest",
		PromptTemplate: "Book a flight to {input.destination} on {input.date}.",
		Parameters:     map[string]any{"temperature": 0.2},
		Activations:    []string{"book a flight", "book flight"},
		Schema: []model.ToolParam{
			{Name: "destination", Description: "Where to fly", Type: "string", Required: true},
			{Name: "date", Description: "Departure date", Type: "date", Required: true},
		},
	}
}

func TestToolRoundTrip(t *testing.T) {
	s := testStore(t)

	if err := s.SaveTool(sampleTool()); err != nil {
		t.Fatalf("SaveTool() error: %v", err)
	}

	got, err := s.GetTool("flight-booker")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("tool not found after save")
	}
	if got.Name != "Flight Booker" || got.Provider != "ollama" {
		t.Errorf("tool = %+v", got)
	}
	if len(got.Activations) != 2 || got.Activations[0] != "book a flight" {
		t.Errorf("activations = %v", got.Activations)
	}
	if len(got.Schema) != 2 || !got.Schema[0].Required {
		t.Errorf("schema = %v", got.Schema)
	}
	if got.Parameters["temperature"] != 0.2 {
		t.Errorf("parameters = %v", got.Parameters)
	}
}

func TestGetToolMissing(t *testing.T) {
	s := testStore(t)
	got, err := s.GetTool("nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Errorf("expected nil for missing tool, got %+v", got)
	}
}

func TestListAndDeleteTools(t *testing.T) {
	s := testStore(t)

	first := sampleTool()
	second := sampleTool()
	second.ID = "summarizer"
	second.Name = "Summarize"

	if err := s.SaveTool(first); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveTool(second); err != nil {
		t.Fatal(err)
	}

	tools, err := s.ListTools()
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 {
		t.Fatalf("got %d tools, want 2", len(tools))
	}

	if err := s.DeleteTool("summarizer"); err != nil {
		t.Fatal(err)
	}
	tools, _ = s.ListTools()
	if len(tools) != 1 || tools[0].ID != "flight-booker" {
		t.Errorf("tools after delete = %v", tools)
	}
}

func TestConversationMessages(t *testing.T) {
	s := testStore(t)

	convID, err := s.CreateConversation()
	if err != nil {
		t.Fatal(err)
	}

	userMsg := model.Message{Role: "user", Content: "book a flight", Timestamp: time.Now()}
	if err := s.AppendMessage(convID, userMsg, nil); err != nil {
		t.Fatal(err)
	}

	assistantMsg := model.Message{
		Role:            "assistant",
		Content:         "Booked.",
		Timestamp:       time.Now().Add(time.Second),
		ToolExecutionID: "exec-1",
	}
	meta := map[string]any{"toolName": "Flight Booker", "status": "success"}
	if err := s.AppendMessage(convID, assistantMsg, meta); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.Messages(convID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("messages out of order: %v, %v", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Metadata["toolName"] != "Flight Booker" {
		t.Errorf("metadata = %v", msgs[1].Metadata)
	}

	metas, err := s.ListConversations()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].MessageCount != 2 {
		t.Errorf("conversation metas = %+v", metas)
	}
}

func TestDeleteConversation(t *testing.T) {
	s := testStore(t)

	convID, _ := s.CreateConversation()
	_ = s.AppendMessage(convID, model.Message{Role: "user", Content: "hi"}, nil)

	if err := s.DeleteConversation(convID); err != nil {
		t.Fatal(err)
	}
	msgs, _ := s.Messages(convID)
	if len(msgs) != 0 {
		t.Error("messages survive conversation deletion")
	}
}

func TestExecutionMirrorRoundTrip(t *testing.T) {
	s := testStore(t)
	mirror := s.ExecutionMirror(10)

	end := time.Now()
	records := []model.ExecutionRecord{
		{
			ID:        "r2",
			ToolID:    "flight-booker",
			ToolName:  "Flight Booker",
			Input:     "book a flight",
			Output:    "Booked.",
			StartTime: end.Add(-time.Second),
			EndTime:   &end,
			Status:    model.StatusSuccess,
			Metrics:   map[string]any{"processingTime": 0.9},
		},
		{
			ID:        "r1",
			ToolID:    "summarizer",
			StartTime: end.Add(-time.Minute),
			Status:    model.StatusError,
			Metrics:   map[string]any{"error": "backend returned 500"},
		},
	}

	if err := mirror.Replace(records); err != nil {
		t.Fatalf("Replace() error: %v", err)
	}

	loaded, err := mirror.Load()
	if err != nil {
		t.Fatal(err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d records, want 2", len(loaded))
	}

	// Newest-first order preserved; identity fields survive the round trip.
	if loaded[0].ID != "r2" || loaded[1].ID != "r1" {
		t.Errorf("order = [%s %s], want [r2 r1]", loaded[0].ID, loaded[1].ID)
	}
	if loaded[0].ToolID != "flight-booker" || loaded[0].Status != model.StatusSuccess {
		t.Errorf("loaded[0] = %+v", loaded[0])
	}
	if loaded[0].Metrics["processingTime"] != 0.9 {
		t.Errorf("metrics = %v", loaded[0].Metrics)
	}
	if loaded[0].EndTime == nil {
		t.Error("EndTime lost in round trip")
	}
	if loaded[1].EndTime != nil {
		t.Error("pending-style record grew an EndTime")
	}
	if loaded[1].Metrics["error"] != "backend returned 500" {
		t.Errorf("error metric = %v", loaded[1].Metrics)
	}
}

func TestExecutionMirrorReplaceIsTotal(t *testing.T) {
	s := testStore(t)
	mirror := s.ExecutionMirror(10)

	now := time.Now()
	_ = mirror.Replace([]model.ExecutionRecord{
		{ID: "old", StartTime: now, Status: model.StatusSuccess},
	})
	_ = mirror.Replace([]model.ExecutionRecord{
		{ID: "new", StartTime: now, Status: model.StatusSuccess},
	})

	loaded, _ := mirror.Load()
	if len(loaded) != 1 || loaded[0].ID != "new" {
		t.Errorf("Replace did not fully rewrite: %v", loaded)
	}
}

func TestExecutionMirrorCap(t *testing.T) {
	s := testStore(t)
	mirror := s.ExecutionMirror(2)

	now := time.Now()
	records := []model.ExecutionRecord{
		{ID: "r3", StartTime: now, Status: model.StatusSuccess},
		{ID: "r2", StartTime: now, Status: model.StatusSuccess},
		{ID: "r1", StartTime: now, Status: model.StatusSuccess},
	}
	if err := mirror.Replace(records); err != nil {
		t.Fatal(err)
	}

	loaded, _ := mirror.Load()
	if len(loaded) != 2 {
		t.Fatalf("loaded %d records, want cap of 2", len(loaded))
	}
	if loaded[0].ID != "r3" {
		t.Errorf("newest record missing after cap: %v", loaded)
	}
}

func TestSearchMessages(t *testing.T) {
	s := testStore(t)
	convID, _ := s.CreateConversation()

	_ = s.AppendMessage(convID, model.Message{Role: "user", Content: "please book a flight to Lisbon"}, nil)
	_ = s.AppendMessage(convID, model.Message{Role: "assistant", Content: "Your flight is booked."}, nil)
	_ = s.AppendMessage(convID, model.Message{Role: "user", Content: "what is the weather like"}, nil)

	matches, err := s.SearchMessages("flight")
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) < 2 {
		t.Fatalf("got %d matches, want at least 2", len(matches))
	}
	for _, m := range matches[:2] {
		if m.Preview == "" {
			t.Error("match missing preview")
		}
	}

	empty, err := s.SearchMessages("   ")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("blank query returned %d matches", len(empty))
	}
}

func TestSaveMessage(t *testing.T) {
	s := testStore(t)

	conv, err := s.CreateConversation()
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SaveMessage(context.Background(), conv, "user", "hello there", "", nil); err != nil {
		t.Fatal(err)
	}
	meta := map[string]any{"status": "success"}
	if err := s.SaveMessage(context.Background(), conv, "assistant", "hi", "rec-1", meta); err != nil {
		t.Fatal(err)
	}

	msgs, err := s.Messages(conv)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 {
		t.Fatalf("len(msgs) = %d, want 2", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("roles = %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].ToolID != "rec-1" {
		t.Errorf("tool id = %q", msgs[1].ToolID)
	}
	if msgs[1].Metadata["status"] != "success" {
		t.Errorf("metadata = %v", msgs[1].Metadata)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.SaveMessage(ctx, conv, "user", "late", "", nil); err == nil {
		t.Error("cancelled context did not stop the write")
	}
}

func TestSeedToolsKeepsExistingRows(t *testing.T) {
	s := testStore(t)

	existing := sampleTool()
	existing.Description = "edited in app"
	if err := s.SaveTool(existing); err != nil {
		t.Fatal(err)
	}

	seed := sampleTool()
	seed.Description = "from config"
	fresh := model.Tool{ID: "summarizer", Name: "Summarize", Provider: "ollama"}
	noID := model.Tool{Name: "anonymous"}

	if err := s.SeedTools([]model.Tool{seed, fresh, noID}); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetTool("flight-booker")
	if err != nil {
		t.Fatal(err)
	}
	if got.Description != "edited in app" {
		t.Errorf("description = %q, seeding overwrote an existing row", got.Description)
	}

	if seeded, _ := s.GetTool("summarizer"); seeded == nil {
		t.Error("new tool was not seeded")
	}

	tools, err := s.ListTools()
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 {
		t.Errorf("len(tools) = %d, want 2 (id-less entries skipped)", len(tools))
	}
}
