package mcp

import (
	"sort"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"

	"tooldeck/model"
)

// ToolsAsModelTools converts plugin tool definitions into registry tools so
// they join classification alongside prompt-template tools. The Provider is
// "mcp" and the tool ID is the namespaced plugin tool name, which routes
// dispatch back through Client.CallTool.
func ToolsAsModelTools(tools []mcptypes.Tool) []model.Tool {
	result := make([]model.Tool, 0, len(tools))
	for _, tool := range tools {
		result = append(result, model.Tool{
			ID:          tool.Name,
			Name:        displayName(tool.Name),
			Description: tool.Description,
			Provider:    "mcp",
			Activations: activationPhrases(tool.Name),
			Schema:      schemaFromInput(tool.InputSchema),
		})
	}
	return result
}

// displayName strips the plugin namespace and separator characters:
// "weather.get_forecast" → "get forecast".
func displayName(namespacedName string) string {
	_, name := parseToolName(namespacedName)
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}

func activationPhrases(namespacedName string) []string {
	phrase := strings.ToLower(displayName(namespacedName))
	if phrase == "" {
		return nil
	}
	return []string{phrase}
}

// schemaFromInput flattens a JSON-schema input definition into parameter
// descriptors, sorted by name for deterministic ordering.
func schemaFromInput(schema mcptypes.ToolInputSchema) []model.ToolParam {
	if len(schema.Properties) == 0 {
		return nil
	}

	required := make(map[string]bool, len(schema.Required))
	for _, name := range schema.Required {
		required[name] = true
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	params := make([]model.ToolParam, 0, len(names))
	for _, name := range names {
		param := model.ToolParam{
			Name:     name,
			Type:     "string",
			Required: required[name],
		}
		if propMap, ok := schema.Properties[name].(map[string]any); ok {
			if t, ok := propMap["type"].(string); ok {
				param.Type = t
			}
			if desc, ok := propMap["description"].(string); ok {
				param.Description = desc
			}
		}
		params = append(params, param)
	}
	return params
}
