// Package orchestrate sequences conversational turns: classify the user's
// utterance, then either stream a chat response, dispatch a tool, or
// negotiate missing tool parameters — keeping the message timeline and the
// execution ledger consistent throughout.
package orchestrate

import (
	"context"
	"io"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"tooldeck/backend"
	"tooldeck/classify"
	"tooldeck/model"
	"tooldeck/negotiate"
	"tooldeck/record"
)

// Backend is the dashboard REST surface the orchestrator consumes.
// *backend.Client implements it.
type Backend interface {
	StreamChat(ctx context.Context, req backend.StreamRequest) (io.ReadCloser, error)
	ExecuteTool(ctx context.Context, req backend.ExecuteRequest) (*backend.ExecuteResponse, error)
	AppendMessage(ctx context.Context, conversationID string, msg backend.MessageCreate) (*backend.PersistedMessage, error)
}

// ToolCaller dispatches plugin tool calls. *mcp.Client implements it.
type ToolCaller interface {
	CallTool(ctx context.Context, toolName string, args map[string]any) (string, error)
}

// Persister mirrors finished timeline messages to a conversation store.
// *storage.Store implements it for direct provider mode; when a backend is
// configured it is defaulted to the backend's conversation API.
type Persister interface {
	SaveMessage(ctx context.Context, conversationID, role, content, toolID string, metadata map[string]any) error
}

// backendPersister adapts the Backend message API to Persister.
type backendPersister struct {
	b Backend
}

func (p backendPersister) SaveMessage(ctx context.Context, conversationID, role, content, toolID string, metadata map[string]any) error {
	_, err := p.b.AppendMessage(ctx, conversationID, backend.MessageCreate{
		Content:  content,
		Role:     role,
		ToolID:   toolID,
		Metadata: metadata,
	})
	return err
}

// Prompt asks the user for the parameters a tool call still needs.
type Prompt struct {
	ToolID   string
	ToolName string
	Missing  []model.ToolParam
}

// MessageSink receives every timeline change: new messages and in-place
// updates to a provisional message as streamed content arrives.
type MessageSink func(msg model.Message)

// PromptSink receives parameter-collection prompts.
type PromptSink func(p Prompt)

// Config wires an orchestrator's collaborators. Backend or ChatProvider
// must be set; everything else has a usable default.
type Config struct {
	Backend    Backend
	ToolCaller ToolCaller

	// Providers dispatches tools bound directly to an LLM provider when no
	// backend is configured for them. ChatProvider serves plain chat turns
	// when Backend is nil.
	Providers    map[string]model.Provider
	ChatProvider model.Provider

	// Tools returns the tool snapshot for a turn. Read once per Submit.
	Tools func() []model.Tool

	Classifier *classify.Classifier
	Extractor  classify.Extractor
	Negotiator *negotiate.Negotiator
	Records    *record.Store

	// Persister stores finished messages under ConversationID. Defaults to
	// the Backend's conversation API when one is configured; direct provider
	// mode wires the local store here instead.
	Persister      Persister
	ConversationID string
	MessageSink    MessageSink
	PromptSink     PromptSink
	Logger         *log.Logger

	// EmptyStreamIsError makes a zero-content stream fail the turn instead
	// of substituting the fallback text.
	EmptyStreamIsError bool

	// Chat turn settings, used when no tool matches.
	ChatToolID string
	ChatModel  string
	ChatSystem string
}

// Orchestrator owns the turn loop for one conversation. At most one turn is
// in flight at a time: submitting a new turn cancels the previous one.
type Orchestrator struct {
	cfg Config

	mu         sync.Mutex
	messages   []model.Message
	cancel     context.CancelFunc
	generation uint64
}

func New(cfg Config) *Orchestrator {
	if cfg.Classifier == nil {
		cfg.Classifier = classify.New(cfg.Extractor)
	}
	if cfg.Extractor == nil {
		cfg.Extractor = classify.KeywordExtractor{}
	}
	if cfg.Negotiator == nil {
		cfg.Negotiator = negotiate.New()
	}
	if cfg.Records == nil {
		cfg.Records = record.NewStore()
	}
	if cfg.Tools == nil {
		cfg.Tools = func() []model.Tool { return nil }
	}
	if cfg.ChatToolID == "" {
		cfg.ChatToolID = "chat"
	}
	if cfg.Persister == nil && cfg.Backend != nil {
		cfg.Persister = backendPersister{b: cfg.Backend}
	}
	return &Orchestrator{cfg: cfg}
}

// Records exposes the execution ledger.
func (o *Orchestrator) Records() *record.Store { return o.cfg.Records }

// SetChatModel switches the model used for plain chat turns from the next
// turn on. In-flight turns keep the model they started with.
func (o *Orchestrator) SetChatModel(name string) {
	o.mu.Lock()
	o.cfg.ChatModel = name
	o.mu.Unlock()
}

func (o *Orchestrator) chatModel() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg.ChatModel
}

// Messages returns a copy of the conversation timeline.
func (o *Orchestrator) Messages() []model.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]model.Message, len(o.messages))
	copy(out, o.messages)
	return out
}

// CancelActive aborts the in-flight turn, if any. The cancelled turn makes
// no further writes to the timeline or the ledger.
func (o *Orchestrator) CancelActive() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
		// Invalidate any writes the dying turn still attempts.
		o.generation++
	}
}

// Submit runs one conversational turn to completion. It blocks until the
// turn finishes, fails or is cancelled; callers wanting concurrency run it
// in a goroutine. A new Submit cancels any turn still in flight.
func (o *Orchestrator) Submit(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	o.mu.Lock()
	if o.cancel != nil {
		o.cancel()
	}
	o.generation++
	gen := o.generation
	turnCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel
	o.mu.Unlock()

	defer func() {
		cancel()
		o.mu.Lock()
		if o.generation == gen {
			o.cancel = nil
		}
		o.mu.Unlock()
	}()

	userMsg := model.Message{
		ID:        uuid.NewString(),
		Role:      "user",
		Content:   text,
		Timestamp: time.Now(),
	}
	o.appendMessage(gen, userMsg)
	o.persistMessage(turnCtx, "user", text, "", nil)

	provisional := model.Message{
		ID:          uuid.NewString(),
		Role:        "assistant",
		Timestamp:   time.Now(),
		Provisional: true,
	}
	o.appendMessage(gen, provisional)

	tools := o.cfg.Tools()
	result := o.cfg.Classifier.Classify(text, tools)

	if o.cfg.Negotiator.Active() {
		return o.continueNegotiation(turnCtx, gen, provisional.ID, text, result, tools)
	}
	return o.handleResult(turnCtx, gen, provisional.ID, text, result, tools)
}

func (o *Orchestrator) handleResult(ctx context.Context, gen uint64, provisionalID, text string, result classify.Result, tools []model.Tool) error {
	switch result.Kind {
	case classify.KindTool:
		tool, ok := findTool(tools, result.ToolID)
		if !ok {
			return o.failTurnNoRecord(gen, provisionalID, result.ToolID, result.ToolName, text, "tool "+result.ToolID+" is no longer available")
		}
		return o.dispatchTool(ctx, gen, provisionalID, tool, text, result.Parameters)

	case classify.KindParameterRequest:
		tool, ok := findTool(tools, result.ToolID)
		if !ok {
			return o.failTurnNoRecord(gen, provisionalID, result.ToolID, result.ToolName, text, "tool "+result.ToolID+" is no longer available")
		}
		return o.beginNegotiation(gen, provisionalID, text, result, tool.Schema)

	default:
		return o.streamChat(ctx, gen, provisionalID, text)
	}
}

// appendMessage adds a message to the timeline unless the turn is stale.
func (o *Orchestrator) appendMessage(gen uint64, msg model.Message) {
	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		return
	}
	o.messages = append(o.messages, msg)
	o.mu.Unlock()

	if o.cfg.MessageSink != nil {
		o.cfg.MessageSink(msg)
	}
}

// updateMessage mutates a timeline message in place unless the turn is
// stale. Returns the updated copy and whether the write happened.
func (o *Orchestrator) updateMessage(gen uint64, id string, fn func(*model.Message)) (model.Message, bool) {
	o.mu.Lock()
	if o.generation != gen {
		o.mu.Unlock()
		return model.Message{}, false
	}
	var updated model.Message
	found := false
	for i := range o.messages {
		if o.messages[i].ID == id {
			fn(&o.messages[i])
			updated = o.messages[i]
			found = true
			break
		}
	}
	o.mu.Unlock()

	if found && o.cfg.MessageSink != nil {
		o.cfg.MessageSink(updated)
	}
	return updated, found
}

// persistMessage mirrors a message to the conversation store.
// Persistence failures are logged, never fatal to the turn.
func (o *Orchestrator) persistMessage(ctx context.Context, role, content, toolID string, metadata map[string]any) {
	if o.cfg.Persister == nil || o.cfg.ConversationID == "" {
		return
	}
	err := o.cfg.Persister.SaveMessage(ctx, o.cfg.ConversationID, role, content, toolID, metadata)
	if err != nil && o.cfg.Logger != nil {
		o.cfg.Logger.Printf("[Orchestrate] persist %s message failed: %v", role, err)
	}
}

// failTurn finalizes a failed turn: the provisional message becomes an
// error message and the pending record gets its single error transition.
// A cancelled turn writes nothing.
func (o *Orchestrator) failTurn(ctx context.Context, gen uint64, provisionalID, recordID, errMsg string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err := o.cfg.Records.Fail(recordID, errMsg, nil); err != nil && o.cfg.Logger != nil {
		o.cfg.Logger.Printf("[Orchestrate] record %s error transition rejected: %v", recordID, err)
	}

	o.updateMessage(gen, provisionalID, func(m *model.Message) {
		m.Content = "Something went wrong: " + errMsg
		m.Provisional = false
		m.ToolExecutionID = recordID
	})
	return nil
}

// failTurnNoRecord handles failures that occur before any record exists.
// The record still carries the tool identity and the user text so the
// ledger row stays attributable.
func (o *Orchestrator) failTurnNoRecord(gen uint64, provisionalID, toolID, toolName, input, errMsg string) error {
	rec := model.ExecutionRecord{
		ID:        uuid.NewString(),
		ToolID:    toolID,
		ToolName:  toolName,
		Input:     input,
		StartTime: time.Now(),
		Status:    model.StatusPending,
	}
	o.cfg.Records.Append(rec)
	return o.failTurn(context.Background(), gen, provisionalID, rec.ID, errMsg)
}

func findTool(tools []model.Tool, id string) (model.Tool, bool) {
	for _, t := range tools {
		if t.ID == id {
			return t, true
		}
	}
	return model.Tool{}, false
}
