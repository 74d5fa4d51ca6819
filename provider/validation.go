package provider

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"tooldeck/config"
	"tooldeck/model"
)

// PingProviderMsg is sent when a provider ping completes.
type PingProviderMsg struct {
	ProviderID string
	Valid      bool
	Err        error
}

// ProviderModelsMsg is sent when models are fetched from a single provider.
type ProviderModelsMsg struct {
	ProviderID string
	Models     []model.ModelInfo
	Err        error
}

// PingProvider validates a provider's credentials by calling Ping().
// Used when enabling a provider to validate the API key before use.
func PingProvider(providerID, baseURL, apiKey string) tea.Cmd {
	return func() tea.Msg {
		p, err := NewProvider(Config{
			Type:    MapProviderIDToType(providerID),
			BaseURL: baseURL,
			APIKey:  apiKey,
		})
		if err != nil {
			return PingProviderMsg{
				ProviderID: providerID,
				Valid:      false,
				Err:        fmt.Errorf("failed to create provider: %w", err),
			}
		}

		if err := p.Ping(context.Background()); err != nil {
			return PingProviderMsg{
				ProviderID: providerID,
				Valid:      false,
				Err:        fmt.Errorf("connection failed: %w", err),
			}
		}

		if config.Debug {
			config.DebugLog.Printf("[Provider] Provider %s ping successful", providerID)
		}

		return PingProviderMsg{ProviderID: providerID, Valid: true}
	}
}

// FetchProviderModels lists a provider's models asynchronously.
func FetchProviderModels(providerID string, p model.Provider) tea.Cmd {
	return func() tea.Msg {
		if p == nil {
			return ProviderModelsMsg{
				ProviderID: providerID,
				Err:        fmt.Errorf("provider %s not initialized", providerID),
			}
		}

		models, err := p.ListModels(context.Background())
		return ProviderModelsMsg{
			ProviderID: providerID,
			Models:     models,
			Err:        err,
		}
	}
}
