// Package backend is the HTTP client for the dashboard backend: tool
// execution (streamed and direct), conversation persistence and the model
// manager passthrough.
//
// The client is a thin wire adapter. It never interprets streamed frames
// (that is the stream package's job) and never decides failure policy (that
// is the orchestrator's).
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 30 * time.Second

// Client talks to one dashboard backend instance.
type Client struct {
	baseURL string
	http    *http.Client
	// Streaming requests get no client timeout: the stream stays open for
	// the duration of the model response and is bounded by the caller's
	// context instead.
	streaming *http.Client
	logger    *log.Logger
}

// NewClient creates a client for the given base URL.
func NewClient(baseURL string, logger *log.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend URL: %w", err)
	}

	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: defaultTimeout},
		streaming: &http.Client{},
		logger:    logger,
	}, nil
}

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Code, e.Body)
}

// StreamRequest is the body of a streamed tool/chat invocation.
type StreamRequest struct {
	ToolID         string         `json:"tool_id"`
	Input          string         `json:"input"`
	Parameters     map[string]any `json:"parameters"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

// StreamChat opens a streamed invocation and returns the raw body for frame
// decoding. Cancelling ctx closes the connection and stops the stream. The
// caller owns the returned body.
func (c *Client) StreamChat(ctx context.Context, req StreamRequest) (io.ReadCloser, error) {
	if req.Parameters == nil {
		req.Parameters = map[string]any{}
	}
	req.Parameters["stream"] = true

	httpReq, err := c.newRequest(ctx, http.MethodPost, "/api/chat/stream", req)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "text/event-stream")

	resp, err := c.streaming.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readStatusError(resp)
	}
	return resp.Body, nil
}

// ExecuteRequest is the body of a direct (non-streamed) tool execution.
type ExecuteRequest struct {
	ToolID         string         `json:"tool_id"`
	Input          string         `json:"input"`
	Parameters     map[string]any `json:"parameters,omitempty"`
	ConversationID string         `json:"conversation_id,omitempty"`
}

// ExecuteResponse is the backend's answer to a direct tool execution.
type ExecuteResponse struct {
	ToolID   string         `json:"tool_id"`
	Input    string         `json:"input"`
	Output   string         `json:"output"`
	Metadata map[string]any `json:"metadata"`
	// MessageID is set when the backend also persisted the exchange.
	MessageID string `json:"message_id,omitempty"`
}

// ExecuteTool runs a tool to completion and returns its output.
func (c *Client) ExecuteTool(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	var resp ExecuteResponse
	if err := c.postJSON(ctx, "/api/tools/execute", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ProcessingTime extracts the backend-reported processing time in seconds,
// or -1 when absent.
func (r *ExecuteResponse) ProcessingTime() float64 {
	if r.Metadata == nil {
		return -1
	}
	if v, ok := r.Metadata["processing_time"].(float64); ok {
		return v
	}
	return -1
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, body)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return c.doJSON(req, out)
}

func (c *Client) doJSON(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("backend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return readStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func readStatusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	// FastAPI wraps error text in {"detail": "..."}; unwrap when possible.
	var detail struct {
		Detail string `json:"detail"`
	}
	msg := strings.TrimSpace(string(body))
	if err := json.Unmarshal(body, &detail); err == nil && detail.Detail != "" {
		msg = detail.Detail
	}
	return &StatusError{Code: resp.StatusCode, Body: msg}
}
