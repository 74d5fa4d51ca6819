// Package negotiate holds the multi-turn parameter collection state for a
// tool invocation whose initial utterance left required fields unfilled.
//
// The negotiator is the sole gate between a parameter request and a tool
// dispatch: execution only ever happens with a parameter set that satisfies
// the tool's required-field schema. At most one negotiation is live per
// conversation; the phase is explicit rather than a nullable side channel so
// the "cannot start a second collection" rule is enforced, not implied.
package negotiate

import (
	"fmt"

	"tooldeck/model"
)

// Phase is the negotiator's current state.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCollecting
)

// Outcome reports the result of feeding values into a live negotiation.
type Outcome struct {
	Resolved bool
	Params   map[string]string // Merged parameter set; complete when Resolved
	Missing  []model.ToolParam // Required fields still absent (when not Resolved)
}

// Negotiator collects missing tool parameters across turns.
type Negotiator struct {
	phase phaseState
}

// phaseState is the tagged union backing the state machine: either idle
// (zero value) or collecting with its payload.
type phaseState struct {
	phase     Phase
	toolID    string
	toolName  string
	collected map[string]string
	schema    []model.ToolParam
}

// New returns an idle negotiator.
func New() *Negotiator {
	return &Negotiator{}
}

// Phase returns the current state.
func (n *Negotiator) Phase() Phase { return n.phase.phase }

// Active reports whether a collection is in progress.
func (n *Negotiator) Active() bool { return n.phase.phase == PhaseCollecting }

// ToolID returns the tool under negotiation, or "" when idle.
func (n *Negotiator) ToolID() string { return n.phase.toolID }

// ToolName returns the display name of the tool under negotiation.
func (n *Negotiator) ToolName() string { return n.phase.toolName }

// Missing returns the required fields still absent, in schema order.
func (n *Negotiator) Missing() []model.ToolParam {
	return missingFrom(n.phase.schema, n.phase.collected)
}

// Begin starts collecting parameters for a tool. It is an error to begin
// while another negotiation is live — the caller must Abandon it first.
func (n *Negotiator) Begin(toolID, toolName string, collected map[string]string, schema []model.ToolParam) error {
	if n.phase.phase != PhaseIdle {
		return fmt.Errorf("negotiation already in progress for tool %s", n.phase.toolID)
	}

	merged := make(map[string]string, len(collected))
	for k, v := range collected {
		merged[k] = v
	}
	n.phase = phaseState{
		phase:     PhaseCollecting,
		toolID:    toolID,
		toolName:  toolName,
		collected: merged,
		schema:    schema,
	}
	return nil
}

// Supply merges newly provided values into the collection. New values
// overwrite old ones by field name. When every required field is present the
// negotiation resolves: the merged set is returned and the negotiator goes
// back to idle.
func (n *Negotiator) Supply(values map[string]string) (Outcome, error) {
	if n.phase.phase != PhaseCollecting {
		return Outcome{}, fmt.Errorf("no negotiation in progress")
	}

	for k, v := range values {
		if v != "" {
			n.phase.collected[k] = v
		}
	}

	missing := missingFrom(n.phase.schema, n.phase.collected)
	if len(missing) > 0 {
		return Outcome{Missing: missing}, nil
	}

	params := n.phase.collected
	n.phase = phaseState{}
	return Outcome{Resolved: true, Params: params}, nil
}

// Abandon discards the live negotiation without dispatching anything. Safe
// to call when idle.
func (n *Negotiator) Abandon() {
	n.phase = phaseState{}
}

func missingFrom(schema []model.ToolParam, collected map[string]string) []model.ToolParam {
	var missing []model.ToolParam
	for _, p := range schema {
		if !p.Required {
			continue
		}
		if v, ok := collected[p.Name]; !ok || v == "" {
			missing = append(missing, p)
		}
	}
	return missing
}
