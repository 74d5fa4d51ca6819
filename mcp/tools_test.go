package mcp

import (
	"testing"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

func TestToolsAsModelTools(t *testing.T) {
	tools := []mcptypes.Tool{
		{
			Name:        "weather.get_forecast",
			Description: "Get the weather forecast for a location",
			InputSchema: mcptypes.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"location": map[string]any{
						"type":        "string",
						"description": "City name",
					},
					"days": map[string]any{
						"type":        "number",
						"description": "Forecast horizon in days",
					},
				},
				Required: []string{"location"},
			},
		},
		{
			Name:        "calc.evaluate",
			Description: "Evaluate an expression",
		},
	}

	converted := ToolsAsModelTools(tools)
	if len(converted) != 2 {
		t.Fatalf("got %d tools, want 2", len(converted))
	}

	forecast := converted[0]
	if forecast.ID != "weather.get_forecast" {
		t.Errorf("ID = %q", forecast.ID)
	}
	if forecast.Name != "get forecast" {
		t.Errorf("Name = %q", forecast.Name)
	}
	if forecast.Provider != "mcp" {
		t.Errorf("Provider = %q", forecast.Provider)
	}
	if len(forecast.Activations) != 1 || forecast.Activations[0] != "get forecast" {
		t.Errorf("Activations = %v", forecast.Activations)
	}

	// Sorted by name: days, location.
	if len(forecast.Schema) != 2 {
		t.Fatalf("schema = %v", forecast.Schema)
	}
	if forecast.Schema[0].Name != "days" || forecast.Schema[0].Required {
		t.Errorf("schema[0] = %+v", forecast.Schema[0])
	}
	if forecast.Schema[1].Name != "location" || !forecast.Schema[1].Required {
		t.Errorf("schema[1] = %+v", forecast.Schema[1])
	}
	if forecast.Schema[1].Type != "string" || forecast.Schema[1].Description != "City name" {
		t.Errorf("schema[1] = %+v", forecast.Schema[1])
	}

	if converted[1].Schema != nil {
		t.Errorf("schema for tool without properties = %v", converted[1].Schema)
	}
}

func TestParseToolName(t *testing.T) {
	tests := []struct {
		in         string
		wantPlugin string
		wantTool   string
	}{
		{"weather.get_forecast", "weather", "get_forecast"},
		{"bare_tool", "", "bare_tool"},
		{"a.b.c", "a", "b.c"},
	}

	for _, tt := range tests {
		plugin, tool := parseToolName(tt.in)
		if plugin != tt.wantPlugin || tool != tt.wantTool {
			t.Errorf("parseToolName(%q) = (%q, %q), want (%q, %q)",
				tt.in, plugin, tool, tt.wantPlugin, tt.wantTool)
		}
	}
}

func TestResultText(t *testing.T) {
	result := &mcptypes.CallToolResult{
		Content: []mcptypes.Content{
			mcptypes.TextContent{Type: "text", Text: "line one"},
			mcptypes.TextContent{Type: "text", Text: "line two"},
		},
	}

	if got := resultText(result); got != "line one\nline two" {
		t.Errorf("resultText() = %q", got)
	}
}
