package testutil

import (
	"context"

	"tooldeck/model"
)

// MockProvider implements model.Provider for testing.
type MockProvider struct {
	// Configurable responses
	GenerateFunc   func(ctx context.Context, req model.GenerateRequest, callback model.StreamCallback) error
	ListModelsFunc func(ctx context.Context) ([]model.ModelInfo, error)
	PingFunc       func(ctx context.Context) error

	// State
	currentModel string
}

// NewMockProvider creates a mock provider with default implementations.
func NewMockProvider(modelName string) *MockProvider {
	mock := &MockProvider{currentModel: modelName}
	mock.GenerateFunc = mock.defaultGenerate
	mock.ListModelsFunc = mock.defaultListModels
	mock.PingFunc = mock.defaultPing
	return mock
}

func (m *MockProvider) defaultGenerate(ctx context.Context, req model.GenerateRequest, callback model.StreamCallback) error {
	if callback != nil {
		return callback("Mock response")
	}
	return nil
}

func (m *MockProvider) defaultListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return []model.ModelInfo{
		{Name: "mock-model-1", Size: 1000, Provider: "mock"},
		{Name: "mock-model-2", Size: 2000, Provider: "mock"},
	}, nil
}

func (m *MockProvider) defaultPing(ctx context.Context) error {
	return nil
}

func (m *MockProvider) Generate(ctx context.Context, req model.GenerateRequest, callback model.StreamCallback) error {
	return m.GenerateFunc(ctx, req, callback)
}

func (m *MockProvider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	return m.ListModelsFunc(ctx)
}

func (m *MockProvider) GetModel() string {
	return m.currentModel
}

func (m *MockProvider) SetModel(modelName string) {
	m.currentModel = modelName
}

func (m *MockProvider) Ping(ctx context.Context) error {
	return m.PingFunc(ctx)
}
