package model

import "context"

// Provider abstracts direct LLM provider implementations (Ollama, OpenAI,
// OpenRouter, Anthropic).
//
// This interface lives in the model package (not provider) so implementations
// can import model without creating an import cycle.
type Provider interface {
	// Generate sends a prompt and streams the response back through the
	// callback, one content delta per call.
	Generate(ctx context.Context, req GenerateRequest, callback StreamCallback) error

	// ListModels returns the models available from this provider.
	ListModels(ctx context.Context) ([]ModelInfo, error)

	// GetModel returns the currently selected model name.
	GetModel() string

	// SetModel changes the active model.
	SetModel(model string)

	// Ping checks whether the provider is reachable.
	Ping(ctx context.Context) error
}

// GenerateRequest carries one prompt to a provider.
type GenerateRequest struct {
	Prompt     string
	System     string
	Parameters map[string]any // Provider-specific options (temperature, ...)
}

// StreamCallback receives one content delta per invocation. Returning an
// error aborts the stream.
type StreamCallback func(delta string) error

// ModelInfo describes one model offered by a provider.
type ModelInfo struct {
	Name     string
	Size     int64
	Provider string // Provider ID the model belongs to
}

// ModelPuller is an optional capability: providers that can download models
// locally (Ollama) implement it in addition to Provider.
type ModelPuller interface {
	Pull(ctx context.Context, name string, progress func(PullProgress)) error
}

// PullProgress reports incremental progress of a model pull.
type PullProgress struct {
	Status    string
	Total     int64
	Completed int64
}
