package mcp

import (
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// PluginConfig describes one stdio plugin process to launch.
type PluginConfig struct {
	ID      string
	Command string
	Args    []string
	Env     map[string]string
}

// pluginProcess tracks one running plugin.
type pluginProcess struct {
	ID      string
	Process *exec.Cmd
	Client  *client.Client
	Tools   []mcptypes.Tool
	Running bool
}
