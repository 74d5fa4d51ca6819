package backend

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGetTools(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tools" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[
			{
				"id": "summarizer",
				"name": "Summarize",
				"description": "Summarizes text",
				"provider": "ollama",
				"model": "llama3.1:latest",
				"prompt_template": "Summarize: {input}",
				"parameters": {"temperature": 0.3},
				"activation_phrases": ["summarize"],
				"schema": [
					{"name": "style", "type": "string", "required": true}
				],
				"created_at": "2026-08-01T10:00:00Z"
			},
			{
				"id": "translator",
				"name": "Translate",
				"description": "",
				"provider": "openai",
				"model": "gpt-4o",
				"prompt_template": "Translate: {input}"
			}
		]`)
	}))
	defer server.Close()

	c, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}

	tools, err := c.GetTools(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tools) != 2 {
		t.Fatalf("len(tools) = %d, want 2", len(tools))
	}

	first := tools[0]
	if first.ID != "summarizer" || first.Provider != "ollama" {
		t.Errorf("tool = %+v", first)
	}
	if first.PromptTemplate != "Summarize: {input}" {
		t.Errorf("prompt template = %q", first.PromptTemplate)
	}
	if first.Parameters["temperature"] != 0.3 {
		t.Errorf("parameters = %v", first.Parameters)
	}
	if len(first.Activations) != 1 || first.Activations[0] != "summarize" {
		t.Errorf("activations = %v", first.Activations)
	}
	if len(first.Schema) != 1 || first.Schema[0].Name != "style" || !first.Schema[0].Required {
		t.Errorf("schema = %+v", first.Schema)
	}
	if first.CreatedAt.IsZero() {
		t.Error("created_at not parsed")
	}

	// A minimal resource still yields a usable tool.
	second := tools[1]
	if second.ID != "translator" || len(second.Activations) != 0 || len(second.Schema) != 0 {
		t.Errorf("tool = %+v", second)
	}
	if !second.CreatedAt.IsZero() {
		t.Errorf("created_at = %v, want zero", second.CreatedAt)
	}
}

func TestGetToolsNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		io.WriteString(w, `{"detail":"boom"}`)
	}))
	defer server.Close()

	c, _ := NewClient(server.URL, nil)
	if _, err := c.GetTools(context.Background()); err == nil {
		t.Fatal("expected error on 500")
	}
}
