package orchestrate

import (
	"context"
	"strings"

	"tooldeck/classify"
	"tooldeck/model"
)

// cancelPhrases abandon a live negotiation outright.
var cancelPhrases = []string{"cancel", "never mind", "nevermind", "stop", "forget it"}

// beginNegotiation starts collecting parameters for a tool call that
// arrived incomplete. No record is created: nothing has been dispatched.
func (o *Orchestrator) beginNegotiation(gen uint64, provisionalID, text string, result classify.Result, schema []model.ToolParam) error {
	if err := o.cfg.Negotiator.Begin(result.ToolID, result.ToolName, result.Parameters, schema); err != nil {
		return o.failTurnNoRecord(gen, provisionalID, result.ToolID, result.ToolName, text, err.Error())
	}
	o.promptForParameters(gen, provisionalID, result.ToolID, result.ToolName, result.Missing)
	return nil
}

// continueNegotiation feeds a new utterance into the live negotiation.
// A different tool call replaces the negotiation; an explicit cancel
// abandons it; otherwise the utterance supplies parameter values.
func (o *Orchestrator) continueNegotiation(ctx context.Context, gen uint64, provisionalID, text string, result classify.Result, tools []model.Tool) error {
	negotiatingID := o.cfg.Negotiator.ToolID()
	negotiatingName := o.cfg.Negotiator.ToolName()

	if result.Kind != classify.KindChat && result.ToolID != negotiatingID {
		// The user moved on to a different tool: discard the half-collected
		// call, never dispatch it partially.
		o.cfg.Negotiator.Abandon()
		return o.handleResult(ctx, gen, provisionalID, text, result, tools)
	}

	if isCancelUtterance(text) {
		o.cfg.Negotiator.Abandon()
		o.updateMessage(gen, provisionalID, func(m *model.Message) {
			m.Content = "Okay, I won't run " + negotiatingName + "."
			m.Provisional = false
		})
		return nil
	}

	missing := o.cfg.Negotiator.Missing()
	values, _ := o.cfg.Extractor.Extract(text, missing)
	if len(values) == 0 && len(missing) == 1 {
		// A bare reply answers the one outstanding question.
		values = map[string]string{missing[0].Name: strings.TrimSpace(text)}
	}

	outcome, err := o.cfg.Negotiator.Supply(values)
	if err != nil {
		return o.failTurnNoRecord(gen, provisionalID, negotiatingID, negotiatingName, text, err.Error())
	}

	if !outcome.Resolved {
		o.promptForParameters(gen, provisionalID, negotiatingID, negotiatingName, outcome.Missing)
		return nil
	}

	tool, ok := findTool(tools, negotiatingID)
	if !ok {
		return o.failTurnNoRecord(gen, provisionalID, negotiatingID, negotiatingName, text, "tool "+negotiatingID+" is no longer available")
	}
	return o.dispatchTool(ctx, gen, provisionalID, tool, text, outcome.Params)
}

// promptForParameters surfaces a parameter-collection prompt instead of a
// normal assistant message.
func (o *Orchestrator) promptForParameters(gen uint64, provisionalID, toolID, toolName string, missing []model.ToolParam) {
	prompt := Prompt{ToolID: toolID, ToolName: toolName, Missing: missing}

	o.updateMessage(gen, provisionalID, func(m *model.Message) {
		m.Content = promptText(toolName, missing)
		m.Provisional = false
	})

	if o.cfg.PromptSink != nil {
		o.cfg.PromptSink(prompt)
	}
}

func promptText(toolName string, missing []model.ToolParam) string {
	var b strings.Builder
	b.WriteString("To run ")
	b.WriteString(toolName)
	b.WriteString(" I still need:")
	for _, p := range missing {
		b.WriteString("\n  - ")
		b.WriteString(p.Name)
		if p.Description != "" {
			b.WriteString(" (")
			b.WriteString(p.Description)
			b.WriteString(")")
		}
	}
	return b.String()
}

func isCancelUtterance(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, phrase := range cancelPhrases {
		if lower == phrase {
			return true
		}
	}
	return false
}
