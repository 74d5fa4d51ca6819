// Package provider implements direct LLM provider access.
//
// Tools are bound to a provider/model pair, so the engine stays
// provider-agnostic behind the model.Provider interface while this package
// owns the provider-specific wire formats (Ollama, OpenAI, OpenRouter,
// Anthropic). The interface itself lives in the model package to avoid
// import cycles; this package implements it.
//
// Usage:
//
//	cfg := provider.Config{
//	    Type:    provider.ProviderTypeOllama,
//	    BaseURL: "http://localhost:11434",
//	    Model:   "llama3.1",
//	}
//	p, err := provider.NewProvider(cfg)
//	if err != nil {
//	    // handle error
//	}
//	err = p.Generate(ctx, req, callback)
package provider

// ProviderType identifies the provider implementation.
type ProviderType string

const (
	ProviderTypeOllama     ProviderType = "ollama"
	ProviderTypeOpenRouter ProviderType = "openrouter"
	ProviderTypeOpenAI     ProviderType = "openai"
	ProviderTypeAnthropic  ProviderType = "anthropic"
)

// Config holds provider-specific configuration.
type Config struct {
	Type    ProviderType
	BaseURL string
	Model   string
	APIKey  string // For OpenAI/OpenRouter/Anthropic (unused for Ollama)
}
