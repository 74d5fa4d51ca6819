package mcp

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcptypes "github.com/mark3labs/mcp-go/mcp"
)

// Runner starts and stops stdio plugin processes and tracks the tools each
// one advertises.
type Runner struct {
	processes map[string]*pluginProcess
	logger    *log.Logger
	mu        sync.RWMutex
}

func NewRunner(logger *log.Logger) *Runner {
	return &Runner{
		processes: make(map[string]*pluginProcess),
		logger:    logger,
	}
}

// Start launches a plugin process, initializes the MCP session and caches
// its tool list. Errors if the plugin is already running.
func (r *Runner) Start(ctx context.Context, cfg PluginConfig) error {
	r.mu.Lock()
	if proc := r.processes[cfg.ID]; proc != nil && proc.Running {
		r.mu.Unlock()
		return fmt.Errorf("plugin %s already running", cfg.ID)
	}
	r.mu.Unlock()

	var capturedCmd *exec.Cmd
	cmdFunc := func(ctx context.Context, command string, env []string, args []string) (*exec.Cmd, error) {
		cmd := exec.CommandContext(ctx, command, args...)
		cmd.Env = env
		capturedCmd = cmd
		return cmd, nil
	}

	mcpClient, err := client.NewStdioMCPClientWithOptions(
		cfg.Command,
		pluginEnv(cfg.Env),
		cfg.Args,
		transport.WithCommandFunc(cmdFunc),
	)
	if err != nil {
		return fmt.Errorf("failed to start plugin %s: %w", cfg.ID, err)
	}

	initReq := mcptypes.InitializeRequest{
		Params: mcptypes.InitializeParams{
			ProtocolVersion: "2025-06-18",
			Capabilities:    mcptypes.ClientCapabilities{},
			ClientInfo: mcptypes.Implementation{
				Name:    "tooldeck",
				Version: "1.0.0",
			},
		},
	}
	if _, err := mcpClient.Initialize(ctx, initReq); err != nil {
		return fmt.Errorf("failed to initialize plugin %s: %w", cfg.ID, err)
	}

	toolsResult, err := mcpClient.ListTools(ctx, mcptypes.ListToolsRequest{})
	if err != nil {
		return fmt.Errorf("failed to list tools for %s: %w", cfg.ID, err)
	}

	if r.logger != nil {
		r.logger.Printf("[MCP] Started plugin '%s' with %d tools", cfg.ID, len(toolsResult.Tools))
	}

	r.mu.Lock()
	r.processes[cfg.ID] = &pluginProcess{
		ID:      cfg.ID,
		Process: capturedCmd,
		Client:  mcpClient,
		Tools:   toolsResult.Tools,
		Running: true,
	}
	r.mu.Unlock()

	return nil
}

// Stop closes a plugin's session and kills its process if the close hangs.
func (r *Runner) Stop(ctx context.Context, pluginID string) error {
	r.mu.Lock()
	proc, exists := r.processes[pluginID]
	if !exists {
		r.mu.Unlock()
		return fmt.Errorf("plugin %s not found", pluginID)
	}
	proc.Running = false
	delete(r.processes, pluginID)
	r.mu.Unlock()

	clientClosed := false
	if proc.Client != nil {
		closeCtx, cancel := context.WithTimeout(ctx, 1*time.Second)
		defer cancel()

		closeDone := make(chan error, 1)
		go func() {
			closeDone <- proc.Client.Close()
		}()

		select {
		case err := <-closeDone:
			clientClosed = err == nil
		case <-closeCtx.Done():
			// Close is hanging, fall through to kill
		}
	}

	if !clientClosed && proc.Process != nil && proc.Process.Process != nil {
		if r.logger != nil {
			r.logger.Printf("[MCP] Killing plugin '%s' (PID %d)", pluginID, proc.Process.Process.Pid)
		}
		if err := proc.Process.Process.Kill(); err != nil && r.logger != nil {
			r.logger.Printf("[MCP] Error killing plugin '%s': %v", pluginID, err)
		}
	}

	return nil
}

// Client returns the MCP client for a running plugin.
func (r *Runner) Client(pluginID string) (*client.Client, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proc, exists := r.processes[pluginID]
	if !exists || !proc.Running {
		return nil, fmt.Errorf("plugin %s not running", pluginID)
	}
	return proc.Client, nil
}

// Tools returns the cached tool list for a running plugin.
func (r *Runner) Tools(pluginID string) ([]mcptypes.Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	proc, exists := r.processes[pluginID]
	if !exists || !proc.Running {
		return nil, fmt.Errorf("plugin %s not running", pluginID)
	}
	return proc.Tools, nil
}

// Running lists the IDs of currently running plugins.
func (r *Runner) Running() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.processes))
	for id := range r.processes {
		ids = append(ids, id)
	}
	return ids
}

// Shutdown stops all plugins in parallel.
func (r *Runner) Shutdown(ctx context.Context) error {
	ids := r.Running()

	var wg sync.WaitGroup
	errChan := make(chan error, len(ids))

	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if err := r.Stop(ctx, id); err != nil {
				errChan <- err
			}
		}(id)
	}

	wg.Wait()
	close(errChan)

	var errs []error
	for err := range errChan {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}
	return nil
}

// pluginEnv builds the child environment, preserving the parent environment
// so PATH and friends survive.
func pluginEnv(extra map[string]string) []string {
	env := os.Environ()
	for k, v := range extra {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	return env
}
