package model

import (
	"fmt"
	"strings"
	"time"
)

// Tool is a named, parameterized binding of a prompt template to a
// provider/model pair. Tools are configured in the dashboard backend (or via
// MCP plugins) and invoked from chat by activation phrase.
type Tool struct {
	ID             string
	Name           string
	Description    string
	Provider       string // "ollama", "anthropic", "openai", "openrouter", "mcp"
	Model          string
	PromptTemplate string
	Parameters     map[string]any // Model parameters (temperature, etc.)
	Activations    []string       // Phrases that trigger this tool from chat
	Schema         []ToolParam    // Declared input parameters
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ToolParam describes one declared input parameter of a tool.
type ToolParam struct {
	Name        string
	Description string
	Type        string // "string", "number", "date", ...
	Required    bool
}

// RequiredParams returns only the required entries of the schema, in order.
func (t *Tool) RequiredParams() []ToolParam {
	var req []ToolParam
	for _, p := range t.Schema {
		if p.Required {
			req = append(req, p)
		}
	}
	return req
}

// RenderPrompt substitutes collected input values into the tool's prompt
// template. A plain "{input}" placeholder receives the raw input string;
// "{input.field}" placeholders receive the matching named value.
func RenderPrompt(tool Tool, input string, values map[string]string) string {
	prompt := tool.PromptTemplate
	if prompt == "" {
		return input
	}

	prompt = strings.ReplaceAll(prompt, "{input}", input)
	for name, value := range values {
		prompt = strings.ReplaceAll(prompt, fmt.Sprintf("{input.%s}", name), value)
	}
	return prompt
}
