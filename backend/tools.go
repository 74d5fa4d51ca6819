package backend

import (
	"context"
	"fmt"
	"time"

	"tooldeck/model"
)

// ToolResource mirrors the backend's tool configuration resource.
// Activation phrases and the parameter schema are optional: older backends
// serve tools without them, and such tools are still invocable by name.
type ToolResource struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Description    string              `json:"description"`
	Provider       string              `json:"provider"`
	Model          string              `json:"model"`
	PromptTemplate string              `json:"prompt_template"`
	Parameters     map[string]any      `json:"parameters,omitempty"`
	Activations    []string            `json:"activation_phrases,omitempty"`
	Schema         []ToolParamResource `json:"schema,omitempty"`
	CreatedAt      string              `json:"created_at,omitempty"`
	UpdatedAt      string              `json:"updated_at,omitempty"`
}

// ToolParamResource is one declared input parameter of a backend tool.
type ToolParamResource struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Type        string `json:"type,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// GetTools fetches the backend's tool registry.
func (c *Client) GetTools(ctx context.Context) ([]model.Tool, error) {
	var resources []ToolResource
	if err := c.getJSON(ctx, "/api/tools", &resources); err != nil {
		return nil, fmt.Errorf("failed to list tools: %w", err)
	}

	tools := make([]model.Tool, len(resources))
	for i, r := range resources {
		tools[i] = r.toModel()
	}
	return tools, nil
}

func (r ToolResource) toModel() model.Tool {
	tool := model.Tool{
		ID:             r.ID,
		Name:           r.Name,
		Description:    r.Description,
		Provider:       r.Provider,
		Model:          r.Model,
		PromptTemplate: r.PromptTemplate,
		Parameters:     r.Parameters,
		Activations:    r.Activations,
		CreatedAt:      parseTimestamp(r.CreatedAt),
		UpdatedAt:      parseTimestamp(r.UpdatedAt),
	}
	for _, p := range r.Schema {
		tool.Schema = append(tool.Schema, model.ToolParam{
			Name:        p.Name,
			Description: p.Description,
			Type:        p.Type,
			Required:    p.Required,
		})
	}
	return tool
}

// parseTimestamp tolerates missing or non-RFC3339 timestamps; the zero time
// just means the backend didn't say.
func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
