package config

func DefaultSystemConfig() *SystemConfig {
	return &SystemConfig{
		DataDirectory: "~/.local/share/tooldeck",
	}
}

func DefaultUserConfig() *UserConfig {
	return &UserConfig{
		Ollama: OllamaConfig{
			Host:         "http://localhost:11434",
			DefaultModel: "llama3.1:latest",
		},
		Security: SecurityConfig{
			CredentialStorage: string(SecurityPlainText),
		},
	}
}

func GenerateSystemConfigTemplate() string {
	return `# tooldeck system configuration
# Location: ~/.config/tooldeck/settings.toml
# This file uses TOML format: https://toml.io

# Directory where conversations, credentials and user config are stored
data_directory = "~/.local/share/tooldeck"
`
}

func GenerateUserConfigTemplate() string {
	return `# tooldeck user configuration
# Location: <data_directory>/config.toml
# This file uses TOML format: https://toml.io

# Default system prompt for chat turns (optional)
# Example: "You are a helpful assistant."
default_system_prompt = ""

# How many execution records the ledger keeps (oldest dropped first)
record_capacity = 100

# Treat a stream that produced no content as an error instead of
# substituting the fallback reply
empty_stream_is_error = false

[backend]
# Dashboard backend URL. Leave empty to talk to providers directly.
url = ""

[ollama]
# Ollama server URL
host = "http://localhost:11434"

# Default model for chat turns and tools that don't name one
default_model = "llama3.1:latest"

[security]
# How API keys are stored: "plaintext" (credentials.toml) or
# "ssh_key" (credentials.enc, AES-256-GCM keyed from an SSH key)
credential_storage = "plaintext"
# ssh_key_path = "~/.ssh/tooldeck_ed25519"

# Cloud providers (API keys live in the credential store, not here)
# [[providers]]
# id = "anthropic"
# name = "Anthropic"
# enabled = true

# MCP plugins launched at startup
# [[plugins]]
# id = "weather"
# command = "weather-mcp-server"
# args = ["--stdio"]

# Locally defined tools, seeded into the tool store at startup. Useful in
# direct provider mode, where no backend serves a tool registry.
# [[tools]]
# id = "summarizer"
# name = "Summarize"
# provider = "ollama"
# model = "llama3.1:latest"
# prompt_template = "Summarize the following text concisely:\n\n{input}"
# activation_phrases = ["summarize"]
#
# [[tools.schema]]
# name = "style"
# description = "Summary style, e.g. bullets or prose"
# type = "string"
# required = false
`
}
