package orchestrate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tooldeck/backend"
	"tooldeck/model"
)

// dispatchTool runs a fully parameterized tool call: pending record first,
// then execution, then the single terminal transition and the final
// assistant message carrying the execution id.
func (o *Orchestrator) dispatchTool(ctx context.Context, gen uint64, provisionalID string, tool model.Tool, input string, params map[string]string) error {
	rec := model.ExecutionRecord{
		ID:        uuid.NewString(),
		ToolID:    tool.ID,
		ToolName:  tool.Name,
		Input:     input,
		StartTime: time.Now(),
		Status:    model.StatusPending,
	}
	o.cfg.Records.Append(rec)

	step := model.ThinkingStep{
		ID:        uuid.NewString(),
		Text:      "Running " + tool.Name + "...",
		Timestamp: time.Now(),
	}
	o.updateMessage(gen, provisionalID, func(m *model.Message) {
		m.ThinkingSteps = append(m.ThinkingSteps, step)
	})

	output, metrics, err := o.executeTool(ctx, tool, input, params)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return o.failTurn(ctx, gen, provisionalID, rec.ID, err.Error())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if output == "" {
		output = model.NoResponseFallback
	}

	if err := o.cfg.Records.Complete(rec.ID, output, metrics); err != nil && o.cfg.Logger != nil {
		o.cfg.Logger.Printf("[Orchestrate] record %s success transition rejected: %v", rec.ID, err)
	}

	finalOutput := output
	o.updateMessage(gen, provisionalID, func(m *model.Message) {
		m.Content = finalOutput
		m.Provisional = false
		m.ToolExecutionID = rec.ID
	})

	if done, ok := o.cfg.Records.Get(rec.ID); ok {
		o.persistMessage(ctx, "assistant", finalOutput, tool.ID, backend.ExecutionMetadata(done))
	}
	return nil
}

// executeTool routes the call: plugin tools go through the tool caller,
// everything else through the backend, falling back to a direct provider
// when no backend is configured.
func (o *Orchestrator) executeTool(ctx context.Context, tool model.Tool, input string, params map[string]string) (string, map[string]any, error) {
	switch {
	case tool.Provider == "mcp":
		return o.executePluginTool(ctx, tool, params)
	case o.cfg.Backend != nil:
		return o.executeBackendTool(ctx, tool, input, params)
	default:
		return o.executeProviderTool(ctx, tool, input, params)
	}
}

func (o *Orchestrator) executePluginTool(ctx context.Context, tool model.Tool, params map[string]string) (string, map[string]any, error) {
	if o.cfg.ToolCaller == nil {
		return "", nil, errors.New("no plugin runner configured")
	}

	args := make(map[string]any, len(params))
	for k, v := range params {
		args[k] = v
	}

	output, err := o.cfg.ToolCaller.CallTool(ctx, tool.ID, args)
	if err != nil {
		return "", nil, err
	}
	return output, nil, nil
}

func (o *Orchestrator) executeBackendTool(ctx context.Context, tool model.Tool, input string, params map[string]string) (string, map[string]any, error) {
	// Model parameters from the tool definition plus the extracted values;
	// the backend substitutes them into the prompt template.
	parameters := make(map[string]any, len(tool.Parameters)+len(params))
	for k, v := range tool.Parameters {
		parameters[k] = v
	}
	for k, v := range params {
		parameters[k] = v
	}

	resp, err := o.cfg.Backend.ExecuteTool(ctx, backend.ExecuteRequest{
		ToolID:         tool.ID,
		Input:          input,
		Parameters:     parameters,
		ConversationID: o.cfg.ConversationID,
	})
	if err != nil {
		return "", nil, err
	}

	var metrics map[string]any
	if pt := resp.ProcessingTime(); pt >= 0 {
		metrics = map[string]any{"processingTime": pt}
	}
	return resp.Output, metrics, nil
}

func (o *Orchestrator) executeProviderTool(ctx context.Context, tool model.Tool, input string, params map[string]string) (string, map[string]any, error) {
	p, ok := o.cfg.Providers[tool.Provider]
	if !ok || p == nil {
		return "", nil, errors.New("provider " + tool.Provider + " not available")
	}

	if tool.Model != "" {
		p.SetModel(tool.Model)
	}

	var builder strings.Builder
	req := model.GenerateRequest{
		Prompt:     model.RenderPrompt(tool, input, params),
		Parameters: tool.Parameters,
	}
	err := p.Generate(ctx, req, func(delta string) error {
		builder.WriteString(delta)
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	return builder.String(), nil, nil
}
