package ollama

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"

	"tooldeck/model"
)

type Client struct {
	client  *api.Client
	model   string
	baseURL string
}

func NewClient(baseURL, modelName string) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if modelName == "" {
		modelName = "llama3.1:latest"
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Ollama URL: %w", err)
	}

	client := api.NewClient(parsedURL, http.DefaultClient)

	return &Client{
		client:  client,
		model:   modelName,
		baseURL: baseURL,
	}, nil
}

// Generate streams a completion for one prompt. The callback receives each
// content delta as it arrives.
func (c *Client) Generate(ctx context.Context, prompt, system string, options map[string]any, callback model.StreamCallback) error {
	req := &api.GenerateRequest{
		Model:   c.model,
		Prompt:  prompt,
		System:  system,
		Options: options,
		Stream:  func(b bool) *bool { return &b }(true),
	}

	respFunc := func(resp api.GenerateResponse) error {
		if callback != nil && resp.Response != "" {
			return callback(resp.Response)
		}
		return nil
	}

	return c.client.Generate(ctx, req, respFunc)
}

func (c *Client) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	resp, err := c.client.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}

	models := make([]model.ModelInfo, len(resp.Models))
	for i, m := range resp.Models {
		models[i] = model.ModelInfo{
			Name:     m.Name,
			Size:     m.Size,
			Provider: "ollama",
		}
	}

	return models, nil
}

// Pull downloads a model from the Ollama library, reporting layer progress
// through the callback.
func (c *Client) Pull(ctx context.Context, name string, progress func(model.PullProgress)) error {
	req := &api.PullRequest{Model: name}

	return c.client.Pull(ctx, req, func(resp api.ProgressResponse) error {
		if progress != nil {
			progress(model.PullProgress{
				Status:    resp.Status,
				Total:     resp.Total,
				Completed: resp.Completed,
			})
		}
		return nil
	})
}

func (c *Client) SetModel(modelName string) {
	c.model = modelName
}

func (c *Client) GetModel() string {
	return c.model
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := c.client.List(ctx)
	return err
}
