// Package mcp runs stdio plugin processes and exposes their tools to the
// tool registry. Plugin tools are namespaced as "<pluginID>.<toolName>".
package mcp

import (
	"context"
	"fmt"
	"log"
	"strings"

	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

type Client struct {
	runner *Runner
}

func NewClient(logger *log.Logger) *Client {
	return &Client{runner: NewRunner(logger)}
}

func (c *Client) Start(ctx context.Context, cfg PluginConfig) error {
	return c.runner.Start(ctx, cfg)
}

func (c *Client) Stop(ctx context.Context, pluginID string) error {
	return c.runner.Stop(ctx, pluginID)
}

// Tools returns the namespaced tool lists of the given plugins. Plugins
// that are not running are skipped.
func (c *Client) Tools(ctx context.Context, pluginIDs []string) []mcptypes.Tool {
	var all []mcptypes.Tool
	for _, pluginID := range pluginIDs {
		tools, err := c.runner.Tools(pluginID)
		if err != nil {
			continue
		}
		for _, tool := range tools {
			namespaced := tool
			namespaced.Name = pluginID + "." + tool.Name
			all = append(all, namespaced)
		}
	}
	return all
}

// CallTool dispatches a namespaced tool call to its plugin and returns the
// text content of the result.
func (c *Client) CallTool(ctx context.Context, toolName string, args map[string]any) (string, error) {
	pluginID, actualName := parseToolName(toolName)

	mcpClient, err := c.runner.Client(pluginID)
	if err != nil {
		return "", err
	}

	result, err := mcpClient.CallTool(ctx, mcptypes.CallToolRequest{
		Params: mcptypes.CallToolParams{
			Name:      actualName,
			Arguments: args,
		},
	})
	if err != nil {
		return "", err
	}

	text := resultText(result)
	if result.IsError {
		return "", fmt.Errorf("tool %s failed: %s", toolName, text)
	}
	return text, nil
}

func (c *Client) Shutdown(ctx context.Context) error {
	return c.runner.Shutdown(ctx)
}

func parseToolName(namespacedName string) (string, string) {
	idx := strings.Index(namespacedName, ".")
	if idx == -1 {
		return "", namespacedName
	}
	return namespacedName[:idx], namespacedName[idx+1:]
}

// resultText flattens a tool result's text blocks into one string.
func resultText(result *mcptypes.CallToolResult) string {
	var parts []string
	for _, block := range result.Content {
		switch c := block.(type) {
		case mcptypes.TextContent:
			parts = append(parts, c.Text)
		case *mcptypes.TextContent:
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}
