package provider

import (
	"tooldeck/config"
	"tooldeck/model"
)

// InitializeProviders creates all provider instances for the application.
//
// It creates the Ollama provider (always attempted, nil entry is skipped so
// the app can run offline) plus every enabled cloud provider from config,
// with API keys loaded from the credential store. Failures are logged and
// skipped rather than aborting startup.
//
// Returns a map of provider ID to provider instance.
func InitializeProviders(cfg *config.Config) map[string]model.Provider {
	providers := make(map[string]model.Provider)

	ollamaProvider := initializeOllama(cfg)
	if ollamaProvider != nil {
		providers["ollama"] = ollamaProvider
		if config.Debug {
			config.DebugLog.Printf("[Provider] Initialized Ollama provider")
		}
	} else {
		if config.Debug {
			config.DebugLog.Printf("[Provider] Ollama provider initialization failed (offline mode)")
		}
	}

	for _, providerCfg := range cfg.Providers {
		if !providerCfg.Enabled {
			continue
		}

		apiKey := ""
		if cfg.CredentialStore != nil {
			apiKey = cfg.CredentialStore.Get(providerCfg.ID)
		}

		p, err := NewProvider(Config{
			Type:    MapProviderIDToType(providerCfg.ID),
			BaseURL: providerCfg.BaseURL,
			APIKey:  apiKey,
			Model:   "", // Set per tool at dispatch time
		})
		if err != nil {
			// Degrade gracefully: a broken cloud provider should not
			// prevent startup.
			if config.Debug {
				config.DebugLog.Printf("[Provider] Warning: failed to initialize provider %s: %v", providerCfg.ID, err)
			}
			continue
		}

		providers[providerCfg.ID] = p
		if config.Debug {
			config.DebugLog.Printf("[Provider] Initialized provider: %s", providerCfg.ID)
		}
	}

	return providers
}

// initializeOllama creates the Ollama provider instance. Returns nil if
// initialization fails (allows offline mode).
func initializeOllama(cfg *config.Config) model.Provider {
	p, err := NewProvider(Config{
		Type:    ProviderTypeOllama,
		BaseURL: cfg.OllamaURL(),
		Model:   cfg.DefaultModel(),
	})
	if err != nil {
		if config.Debug {
			config.DebugLog.Printf("[Provider] Ollama provider creation failed: %v", err)
		}
		return nil
	}

	return p
}
