package orchestrate

import (
	"context"
	"strings"
	"testing"

	"tooldeck/model"
	"tooldeck/provider/testutil"
)

type fakeToolCaller struct {
	calls []struct {
		Name string
		Args map[string]any
	}
	output string
	err    error
}

func (f *fakeToolCaller) CallTool(ctx context.Context, toolName string, args map[string]any) (string, error) {
	f.calls = append(f.calls, struct {
		Name string
		Args map[string]any
	}{toolName, args})
	if f.err != nil {
		return "", f.err
	}
	return f.output, nil
}

func TestPluginToolDispatch(t *testing.T) {
	caller := &fakeToolCaller{output: "72F and sunny"}
	tools := []model.Tool{{
		ID:          "weather.get_forecast",
		Name:        "get forecast",
		Provider:    "mcp",
		Activations: []string{"get forecast"},
		Schema: []model.ToolParam{
			{Name: "location", Type: "string", Required: true},
		},
	}}

	orch := New(Config{
		ToolCaller:   caller,
		ChatProvider: testutil.NewMockProvider("m"),
		Tools:        func() []model.Tool { return tools },
	})

	if err := orch.Submit(context.Background(), "get forecast location: Lisbon"); err != nil {
		t.Fatal(err)
	}

	if len(caller.calls) != 1 {
		t.Fatalf("calls = %d", len(caller.calls))
	}
	if caller.calls[0].Name != "weather.get_forecast" {
		t.Errorf("tool name = %s", caller.calls[0].Name)
	}
	if caller.calls[0].Args["location"] != "Lisbon" {
		t.Errorf("args = %v", caller.calls[0].Args)
	}

	recs := orch.Records().All()
	if len(recs) != 1 || recs[0].Status != model.StatusSuccess || recs[0].Output != "72F and sunny" {
		t.Errorf("records = %+v", recs)
	}
}

func TestProviderToolDispatch(t *testing.T) {
	mock := testutil.NewMockProvider("llama3.1:latest")
	var gotPrompt string
	mock.GenerateFunc = func(ctx context.Context, req model.GenerateRequest, cb model.StreamCallback) error {
		gotPrompt = req.Prompt
		if err := cb("rendered "); err != nil {
			return err
		}
		return cb("output")
	}

	tools := []model.Tool{{
		ID:             "summarizer",
		Name:           "Summarize",
		Provider:       "ollama",
		Model:          "llama3.1:latest",
		PromptTemplate: "Summarize: {input}",
		Activations:    []string{"summarize"},
	}}

	orch := New(Config{
		Providers: map[string]model.Provider{"ollama": mock},
		Tools:     func() []model.Tool { return tools },
	})

	if err := orch.Submit(context.Background(), "summarize this paragraph"); err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(gotPrompt, "Summarize: ") {
		t.Errorf("prompt = %q, template not rendered", gotPrompt)
	}

	recs := orch.Records().All()
	if len(recs) != 1 || recs[0].Output != "rendered output" {
		t.Errorf("records = %+v", recs)
	}
}

func TestProviderChatFallback(t *testing.T) {
	mock := testutil.NewMockProvider("m")

	orch := New(Config{
		ChatProvider: mock,
		Tools:        func() []model.Tool { return nil },
	})

	if err := orch.Submit(context.Background(), "hello there"); err != nil {
		t.Fatal(err)
	}

	msgs := orch.Messages()
	last := msgs[len(msgs)-1]
	if last.Content != "Mock response" || last.Provisional {
		t.Errorf("assistant message = %+v", last)
	}
}

type persistedEntry struct {
	ConversationID, Role, Content, ToolID string
}

type fakePersister struct {
	saved []persistedEntry
}

func (f *fakePersister) SaveMessage(ctx context.Context, conversationID, role, content, toolID string, metadata map[string]any) error {
	f.saved = append(f.saved, persistedEntry{conversationID, role, content, toolID})
	return nil
}

func TestLocalPersisterServesDirectProviderMode(t *testing.T) {
	p := &fakePersister{}

	orch := New(Config{
		ChatProvider:   testutil.NewMockProvider("m"),
		Persister:      p,
		ConversationID: "conv-local",
	})

	if err := orch.Submit(context.Background(), "hello there"); err != nil {
		t.Fatal(err)
	}

	if len(p.saved) != 2 {
		t.Fatalf("persisted %d messages, want user+assistant", len(p.saved))
	}
	if p.saved[0].Role != "user" || p.saved[0].Content != "hello there" {
		t.Errorf("user entry = %+v", p.saved[0])
	}
	if p.saved[1].Role != "assistant" || p.saved[1].Content != "Mock response" {
		t.Errorf("assistant entry = %+v", p.saved[1])
	}
	if p.saved[0].ConversationID != "conv-local" {
		t.Errorf("conversation id = %q", p.saved[0].ConversationID)
	}
}
