package provider

import (
	"context"
	"fmt"

	"tooldeck/model"
	"tooldeck/ollama"
)

// OllamaProvider wraps ollama.Client to implement model.Provider.
type OllamaProvider struct {
	client *ollama.Client
}

// NewOllamaProvider creates an Ollama provider instance.
//
// baseURL defaults to "http://localhost:11434" and modelName to
// "llama3.1:latest" when empty. Returns an error if the URL is invalid.
func NewOllamaProvider(baseURL, modelName string) (*OllamaProvider, error) {
	client, err := ollama.NewClient(baseURL, modelName)
	if err != nil {
		return nil, fmt.Errorf("failed to create Ollama client: %w", err)
	}

	return &OllamaProvider{client: client}, nil
}

// Generate implements model.Provider by streaming one completion.
func (p *OllamaProvider) Generate(ctx context.Context, req model.GenerateRequest, callback model.StreamCallback) error {
	return p.client.Generate(ctx, req.Prompt, req.System, req.Parameters, callback)
}

// ListModels returns the models installed on the Ollama server.
func (p *OllamaProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return p.client.ListModels(ctx)
}

// Pull implements model.ModelPuller.
func (p *OllamaProvider) Pull(ctx context.Context, name string, progress func(model.PullProgress)) error {
	return p.client.Pull(ctx, name, progress)
}

func (p *OllamaProvider) GetModel() string {
	return p.client.GetModel()
}

func (p *OllamaProvider) SetModel(modelName string) {
	p.client.SetModel(modelName)
}

func (p *OllamaProvider) Ping(ctx context.Context) error {
	return p.client.Ping(ctx)
}
