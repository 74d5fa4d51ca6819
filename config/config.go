// Package config loads tooldeck's layered configuration: a small system
// file pointing at the data directory, a user config inside it, and
// TOOLDECK_* environment overrides on top. It also owns the credential
// store and the shared debug logger.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
)

const defaultRecordCapacity = 100

// ProviderConfig is one entry of the user config's providers list.
type ProviderConfig struct {
	ID      string `toml:"id"`
	Name    string `toml:"name"`
	BaseURL string `toml:"base_url,omitempty"`
	Enabled bool   `toml:"enabled"`
}

// PluginSpec declares one MCP plugin process to launch at startup.
type PluginSpec struct {
	ID      string            `toml:"id"`
	Command string            `toml:"command"`
	Args    []string          `toml:"args,omitempty"`
	Env     map[string]string `toml:"env,omitempty"`
}

// ToolSpec declares one locally defined tool in the user config. These are
// seeded into the local tool store at startup, so tools work without a
// dashboard backend.
type ToolSpec struct {
	ID             string          `toml:"id"`
	Name           string          `toml:"name"`
	Description    string          `toml:"description,omitempty"`
	Provider       string          `toml:"provider"`
	Model          string          `toml:"model,omitempty"`
	PromptTemplate string          `toml:"prompt_template,omitempty"`
	Activations    []string        `toml:"activation_phrases,omitempty"`
	Schema         []ToolParamSpec `toml:"schema,omitempty"`
}

// ToolParamSpec is one declared input parameter of a configured tool.
type ToolParamSpec struct {
	Name        string `toml:"name"`
	Description string `toml:"description,omitempty"`
	Type        string `toml:"type,omitempty"`
	Required    bool   `toml:"required"`
}

// SecurityConfig selects how API credentials are stored.
type SecurityConfig struct {
	CredentialStorage string `toml:"credential_storage"` // "plaintext" or "ssh_key"
	SSHKeyPath        string `toml:"ssh_key_path,omitempty"`
}

// Config is the resolved runtime configuration.
type Config struct {
	DataDirectory string

	BackendHost string // dashboard REST backend; empty means direct provider mode
	OllamaHost  string
	Model       string

	DefaultSystemPrompt string
	RecordCap           int
	StrictStreams       bool

	Providers []ProviderConfig
	Plugins   []PluginSpec
	Tools     []ToolSpec
	Security  SecurityConfig

	CredentialStore *CredentialStore
}

var Debug = false
var DebugLog *log.Logger

func (c *Config) OllamaURL() string {
	return c.OllamaHost
}

func (c *Config) DefaultModel() string {
	return c.Model
}

func (c *Config) BackendURL() string {
	return c.BackendHost
}

func (c *Config) SystemPrompt() string {
	return c.DefaultSystemPrompt
}

// RecordCapacity is the execution ledger cap. Zero or negative values in
// the config fall back to the default.
func (c *Config) RecordCapacity() int {
	if c.RecordCap <= 0 {
		return defaultRecordCapacity
	}
	return c.RecordCap
}

// EmptyStreamIsError reports whether a stream that produced no content
// should fail the turn instead of substituting the fallback text.
func (c *Config) EmptyStreamIsError() bool {
	return c.StrictStreams
}

func (c *Config) DataDir() string {
	return ExpandPath(c.DataDirectory)
}

func (c *Config) applyEnvOverrides() {
	if host := os.Getenv("TOOLDECK_OLLAMA_HOST"); host != "" {
		c.OllamaHost = host
	}
	if model := os.Getenv("TOOLDECK_OLLAMA_MODEL"); model != "" {
		c.Model = model
	}
	if backend := os.Getenv("TOOLDECK_BACKEND_URL"); backend != "" {
		c.BackendHost = backend
	}
	if dataDir := os.Getenv("TOOLDECK_DATA_DIR"); dataDir != "" {
		c.DataDirectory = dataDir
	}
	if cap := os.Getenv("TOOLDECK_RECORD_CAP"); cap != "" {
		if n, err := strconv.Atoi(cap); err == nil {
			c.RecordCap = n
		}
	}
}

func CheckDebug() bool {
	debug := os.Getenv("TOOLDECK_DEBUG")
	return debug == "true" || debug == "1"
}

func InitDebugLog(dataDir string) {
	if !CheckDebug() {
		return
	}

	Debug = true
	logPath := filepath.Join(dataDir, "debug.log")

	// 0600: debug output can include prompts and tool arguments
	f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open debug log at %s: %v\n", logPath, err)
		return
	}

	DebugLog = log.New(f, "", log.Ldate|log.Ltime|log.Lmicroseconds|log.Lshortfile)
	DebugLog.Printf("=== Debug logging started (TOOLDECK_DEBUG=%s) ===", os.Getenv("TOOLDECK_DEBUG"))
}

// Load resolves the full configuration: system config for the data
// directory, user config inside it, then environment overrides. First run
// writes commented default files.
func Load() (*Config, error) {
	systemCfg, err := LoadSystemConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load system config: %w", err)
	}

	cfg := &Config{DataDirectory: systemCfg.DataDirectory}
	if env := os.Getenv("TOOLDECK_DATA_DIR"); env != "" {
		cfg.DataDirectory = env
	}

	dataDir := cfg.DataDir()
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := EnsureDataDirPermissions(dataDir); err != nil {
		return nil, fmt.Errorf("failed to set data directory permissions: %w", err)
	}

	userCfg, err := LoadUserConfig(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load user config: %w", err)
	}
	cfg.applyUserConfig(userCfg)
	cfg.applyEnvOverrides()

	method := SecurityMethod(cfg.Security.CredentialStorage)
	if method == "" {
		method = SecurityPlainText
	}
	store := NewCredentialStore(method, ExpandPath(cfg.Security.SSHKeyPath))
	if err := store.Load(dataDir); err != nil {
		return nil, fmt.Errorf("failed to load credentials: %w", err)
	}
	cfg.CredentialStore = store

	return cfg, nil
}

func (c *Config) applyUserConfig(user *UserConfig) {
	c.BackendHost = user.Backend.URL
	c.OllamaHost = user.Ollama.Host
	c.Model = user.Ollama.DefaultModel
	c.DefaultSystemPrompt = user.DefaultSystemPrompt
	c.RecordCap = user.RecordCapacity
	c.StrictStreams = user.EmptyStreamIsError
	c.Providers = user.Providers
	c.Plugins = user.Plugins
	c.Tools = user.Tools
	c.Security = user.Security
}
