package orchestrate

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"tooldeck/backend"
	"tooldeck/model"
	"tooldeck/stream"
)

// streamChat serves a plain chat turn: open the stream, apply content
// deltas to the provisional message in arrival order, finalize on the done
// frame.
func (o *Orchestrator) streamChat(ctx context.Context, gen uint64, provisionalID, text string) error {
	rec := model.ExecutionRecord{
		ID:        uuid.NewString(),
		ToolID:    o.cfg.ChatToolID,
		ToolName:  "Chat",
		Input:     text,
		StartTime: time.Now(),
		Status:    model.StatusPending,
	}
	o.cfg.Records.Append(rec)

	var content string
	var err error
	if o.cfg.Backend != nil {
		content, err = o.streamFromBackend(ctx, gen, provisionalID, text)
	} else {
		content, err = o.streamFromProvider(ctx, gen, provisionalID, text)
	}
	if err != nil {
		return o.failTurn(ctx, gen, provisionalID, rec.ID, err.Error())
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if content == "" {
		if o.cfg.EmptyStreamIsError {
			return o.failTurn(ctx, gen, provisionalID, rec.ID, "model returned no content")
		}
		content = model.NoResponseFallback
	}

	if err := o.cfg.Records.Complete(rec.ID, content, nil); err != nil && o.cfg.Logger != nil {
		o.cfg.Logger.Printf("[Orchestrate] record %s success transition rejected: %v", rec.ID, err)
	}

	finalContent := content
	o.updateMessage(gen, provisionalID, func(m *model.Message) {
		m.Content = finalContent
		m.Provisional = false
		m.ToolExecutionID = rec.ID
	})

	if done, ok := o.cfg.Records.Get(rec.ID); ok {
		o.persistMessage(ctx, "assistant", finalContent, "", backend.ExecutionMetadata(done))
	}
	return nil
}

// streamFromBackend decodes the SSE stream frame by frame, appending each
// content delta to the provisional message as it arrives.
func (o *Orchestrator) streamFromBackend(ctx context.Context, gen uint64, provisionalID, text string) (string, error) {
	params := map[string]any{}
	if m := o.chatModel(); m != "" {
		params["model"] = m
	}
	if o.cfg.ChatSystem != "" {
		params["system"] = o.cfg.ChatSystem
	}

	body, err := o.cfg.Backend.StreamChat(ctx, backend.StreamRequest{
		ToolID:         o.cfg.ChatToolID,
		Input:          text,
		Parameters:     params,
		ConversationID: o.cfg.ConversationID,
	})
	if err != nil {
		return "", err
	}
	defer body.Close()

	dec := stream.NewDecoder(body, o.cfg.Logger)
	var builder strings.Builder

	for {
		frame, err := dec.Next()
		if err != nil {
			var parseErr *stream.ParseError
			switch {
			case errors.As(err, &parseErr):
				// Malformed line from a flaky backend: drop it, keep the
				// stream alive.
				if o.cfg.Logger != nil {
					o.cfg.Logger.Printf("[Orchestrate] %v", parseErr)
				}
				continue
			case errors.Is(err, stream.ErrNoContent):
				// Terminal; empty-stream policy is applied by the caller.
				return "", nil
			default:
				if ctx.Err() != nil {
					return builder.String(), ctx.Err()
				}
				return builder.String(), err
			}
		}

		switch frame.Kind {
		case stream.FrameContent:
			builder.WriteString(frame.Text)
			soFar := builder.String()
			o.updateMessage(gen, provisionalID, func(m *model.Message) {
				m.Content = soFar
			})
		case stream.FrameDone:
			return builder.String(), nil
		}
	}
}

// streamFromProvider serves chat directly from an LLM provider when no
// backend is configured.
func (o *Orchestrator) streamFromProvider(ctx context.Context, gen uint64, provisionalID, text string) (string, error) {
	if o.cfg.ChatProvider == nil {
		return "", errors.New("no backend or chat provider configured")
	}

	var builder strings.Builder
	req := model.GenerateRequest{Prompt: text, System: o.cfg.ChatSystem}
	err := o.cfg.ChatProvider.Generate(ctx, req, func(delta string) error {
		builder.WriteString(delta)
		soFar := builder.String()
		o.updateMessage(gen, provisionalID, func(m *model.Message) {
			m.Content = soFar
		})
		return nil
	})
	return builder.String(), err
}
