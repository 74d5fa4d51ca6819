package provider

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"tooldeck/model"
)

// OpenRouterProvider implements model.Provider using the OpenAI SDK, since
// OpenRouter's API is OpenAI-compatible.
type OpenRouterProvider struct {
	client  openai.Client
	model   string
	baseURL string
	apiKey  string
}

// NewOpenRouterProvider creates an OpenRouter provider instance.
//
// baseURL defaults to "https://openrouter.ai/api/v1" when empty. The API
// key is required. Model names carry vendor prefixes, e.g.
// "meta-llama/llama-3.2-90b-instruct".
func NewOpenRouterProvider(baseURL, apiKey, modelName string) (*OpenRouterProvider, error) {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenRouter API key is required")
	}
	if modelName == "" {
		modelName = "meta-llama/llama-3.2-90b-instruct"
	}

	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)

	return &OpenRouterProvider{
		client:  client,
		model:   modelName,
		baseURL: baseURL,
		apiKey:  apiKey,
	}, nil
}

// Generate implements model.Provider with streaming support.
func (p *OpenRouterProvider) Generate(ctx context.Context, req model.GenerateRequest, callback model.StreamCallback) error {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	messages = append(messages, openai.UserMessage(req.Prompt))

	params := openai.ChatCompletionNewParams{
		Messages: messages,
		Model:    openai.ChatModel(p.model),
	}
	if temp, ok := floatParam(req.Parameters, "temperature"); ok {
		params.Temperature = openai.Float(temp)
	}
	if maxTokens, ok := intParam(req.Parameters, "max_tokens"); ok {
		params.MaxTokens = openai.Int(maxTokens)
	}

	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
			if callback != nil {
				if err := callback(chunk.Choices[0].Delta.Content); err != nil {
					return err
				}
			}
		}
	}

	if err := stream.Err(); err != nil {
		return fmt.Errorf("OpenRouter streaming error: %w", err)
	}
	return nil
}

// ListModels implements model.Provider. Names keep their vendor prefix so
// they can be passed straight back to the API.
func (p *OpenRouterProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	modelsPage, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list OpenRouter models: %w", err)
	}

	result := make([]model.ModelInfo, 0, len(modelsPage.Data))
	for _, m := range modelsPage.Data {
		result = append(result, model.ModelInfo{
			Name:     m.ID,
			Size:     0, // OpenRouter doesn't provide size info
			Provider: "openrouter",
		})
	}

	return result, nil
}

func (p *OpenRouterProvider) GetModel() string {
	return p.model
}

func (p *OpenRouterProvider) SetModel(modelName string) {
	p.model = modelName
}

// Ping implements model.Provider by attempting to list models.
func (p *OpenRouterProvider) Ping(ctx context.Context) error {
	_, err := p.client.Models.List(ctx)
	if err != nil {
		return fmt.Errorf("OpenRouter ping failed: %w", err)
	}
	return nil
}

// StripProviderPrefix removes the vendor prefix from an OpenRouter model
// name for display: "meta-llama/llama-3.2-90b-instruct" →
// "llama-3.2-90b-instruct".
func StripProviderPrefix(modelName string) string {
	if idx := strings.Index(modelName, "/"); idx != -1 {
		return modelName[idx+1:]
	}
	return modelName
}
