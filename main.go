package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"tooldeck/backend"
	"tooldeck/config"
	"tooldeck/mcp"
	"tooldeck/model"
	"tooldeck/orchestrate"
	"tooldeck/provider"
	"tooldeck/record"
	"tooldeck/storage"
	"tooldeck/ui"
)

const (
	Version = "v0.01.00"
	License = "Apache-2.0"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	dataDir := cfg.DataDir()
	config.InitDebugLog(dataDir)

	store, err := storage.NewStore(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening storage: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	providers := provider.InitializeProviders(cfg)

	var backendClient *backend.Client
	if cfg.BackendURL() != "" {
		backendClient, err = backend.NewClient(cfg.BackendURL(), config.DebugLog)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error connecting to backend: %v\n", err)
			os.Exit(1)
		}
	}

	ctx := context.Background()

	mcpClient := mcp.NewClient(config.DebugLog)
	var pluginIDs []string
	for _, spec := range cfg.Plugins {
		pluginCfg := mcp.PluginConfig{
			ID:      spec.ID,
			Command: spec.Command,
			Args:    spec.Args,
			Env:     spec.Env,
		}
		if err := mcpClient.Start(ctx, pluginCfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: plugin %s failed to start: %v\n", spec.ID, err)
			continue
		}
		pluginIDs = append(pluginIDs, spec.ID)
	}
	defer mcpClient.Shutdown(ctx)

	// Seed locally configured tools so direct provider mode has a tool
	// registry without a backend. Existing rows win over config.
	if len(cfg.Tools) > 0 {
		if err := store.SeedTools(toolsFromConfig(cfg.Tools)); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: tool seeding failed: %v\n", err)
		}
	}

	// Conversations persist through the backend when one is configured,
	// otherwise through the local store.
	conversationID := ""
	if backendClient != nil {
		conversationID, err = backendClient.CreateConversation(ctx)
	} else {
		conversationID, err = store.CreateConversation()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create conversation: %v\n", err)
	}

	// Sinks capture the program pointer; it is assigned before Run starts
	// delivering events.
	var program *tea.Program

	records := record.NewStore(
		record.WithCapacity(cfg.RecordCapacity()),
		record.WithMirror(store.ExecutionMirror(cfg.RecordCapacity())),
		record.WithLogger(config.DebugLog),
		record.WithSink(func(rec model.ExecutionRecord) {
			if program != nil {
				program.Send(ui.RecordMsg{Record: rec})
			}
		}),
	)

	toolSource := func() []model.Tool {
		var tools []model.Tool
		if backendClient != nil {
			backendTools, err := backendClient.GetTools(context.Background())
			if err != nil && config.Debug {
				config.DebugLog.Printf("[Main] backend tool listing failed: %v", err)
			}
			tools = append(tools, backendTools...)
		}
		local, err := store.ListTools()
		if err != nil && config.Debug {
			config.DebugLog.Printf("[Main] tool listing failed: %v", err)
		}
		tools = append(tools, local...)
		pluginTools := mcpClient.Tools(context.Background(), pluginIDs)
		return append(tools, mcp.ToolsAsModelTools(pluginTools)...)
	}

	orchCfg := orchestrate.Config{
		ToolCaller:         mcpClient,
		Providers:          providers,
		ChatProvider:       providers["ollama"],
		Tools:              toolSource,
		Records:            records,
		ConversationID:     conversationID,
		Logger:             config.DebugLog,
		EmptyStreamIsError: cfg.EmptyStreamIsError(),
		ChatModel:          cfg.DefaultModel(),
		ChatSystem:         cfg.SystemPrompt(),
		MessageSink: func(msg model.Message) {
			if program != nil {
				program.Send(ui.TimelineMsg{Message: msg})
			}
		},
		PromptSink: func(p orchestrate.Prompt) {
			if program != nil {
				program.Send(ui.PromptMsg{Prompt: p})
			}
		},
	}
	if backendClient != nil {
		orchCfg.Backend = backendClient
	} else {
		orchCfg.Persister = store
	}

	orch := orchestrate.New(orchCfg)

	app := ui.NewAppView(orch, cfg.DefaultModel())
	wireModelSurfaces(app, cfg, orch, providers, backendClient)
	app.Search = func(query string) tea.Cmd {
		return func() tea.Msg {
			matches, err := store.SearchMessages(query)
			return ui.SearchResultsMsg{Query: query, Matches: matches, Err: err}
		}
	}
	app.EnsureModel = ensureModelCmd(cfg, providers, backendClient, func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	})
	program = tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)

	if _, err := program.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// wireModelSurfaces connects the UI's model picker and startup check to
// whichever side serves models: the backend when configured, the Ollama
// provider otherwise.
func wireModelSurfaces(app *ui.AppView, cfg *config.Config, orch *orchestrate.Orchestrator, providers map[string]model.Provider, backendClient *backend.Client) {
	if backendClient != nil {
		app.FetchModels = func() tea.Msg {
			models, err := backendClient.ListModels(context.Background())
			return provider.ProviderModelsMsg{ProviderID: "backend", Models: models, Err: err}
		}
		app.StartupCheck = func() tea.Msg {
			_, err := backendClient.ListModels(context.Background())
			return provider.PingProviderMsg{ProviderID: "backend", Valid: err == nil, Err: err}
		}
	} else {
		app.FetchModels = provider.FetchProviderModels("ollama", providers["ollama"])
		app.StartupCheck = provider.PingProvider("ollama", cfg.OllamaURL(), "")
	}

	app.SelectModel = func(name string) {
		orch.SetChatModel(name)
		if p, ok := providers["ollama"]; ok {
			p.SetModel(name)
		}
	}
}

// ensureModelCmd pulls the configured default model if the serving side
// doesn't have it yet, streaming progress into the UI.
func ensureModelCmd(cfg *config.Config, providers map[string]model.Provider, backendClient *backend.Client, send func(tea.Msg)) tea.Cmd {
	name := cfg.DefaultModel()
	if name == "" {
		return nil
	}

	var (
		list func(context.Context) ([]model.ModelInfo, error)
		pull func(context.Context, string, func(model.PullProgress)) error
	)
	if backendClient != nil {
		list = backendClient.ListModels
		pull = backendClient.PullModel
	} else if p, ok := providers["ollama"]; ok {
		list = p.ListModels
		if puller, ok := p.(model.ModelPuller); ok {
			pull = puller.Pull
		}
	}
	if list == nil || pull == nil {
		return nil
	}

	return func() tea.Msg {
		ctx := context.Background()
		models, err := list(ctx)
		if err != nil {
			// Reachability problems already surface through the startup
			// check; don't pull blind.
			return nil
		}
		for _, m := range models {
			if m.Name == name {
				return nil
			}
		}
		err = pull(ctx, name, func(p model.PullProgress) {
			send(ui.PullProgressMsg{Name: name, Progress: p})
		})
		return ui.PullProgressMsg{Name: name, Done: true, Err: err}
	}
}

func toolsFromConfig(specs []config.ToolSpec) []model.Tool {
	tools := make([]model.Tool, 0, len(specs))
	for _, spec := range specs {
		tool := model.Tool{
			ID:             spec.ID,
			Name:           spec.Name,
			Description:    spec.Description,
			Provider:       spec.Provider,
			Model:          spec.Model,
			PromptTemplate: spec.PromptTemplate,
			Activations:    spec.Activations,
		}
		for _, p := range spec.Schema {
			tool.Schema = append(tool.Schema, model.ToolParam{
				Name:        p.Name,
				Description: p.Description,
				Type:        p.Type,
				Required:    p.Required,
			})
		}
		tools = append(tools, tool)
	}
	return tools
}
