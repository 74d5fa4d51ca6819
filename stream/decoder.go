// Package stream decodes the dashboard backend's streamed chat responses.
//
// The backend delivers model output as newline-separated SSE frames:
//
//	data: {"content": "<delta>"}
//	data: {"error": "<message>"}
//	data: [DONE]
//
// Decoder turns the raw byte stream into one Frame per call to Next,
// independent of how the transport chunks the bytes. A frame boundary
// falling inside a multi-byte character or across chunk boundaries is
// handled by the buffered reader: frames are only emitted on complete lines.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

const (
	dataPrefix = "data: "
	doneToken  = "[DONE]"

	// Streams can carry large single-line deltas; size the reader accordingly.
	readerBufferSize = 64 * 1024
)

// FrameKind tags the variants of a decoded frame.
type FrameKind int

const (
	FrameContent FrameKind = iota
	FrameDone
)

// Frame is one decoded unit of a streamed response.
type Frame struct {
	Kind FrameKind
	Text string // Content delta; empty for FrameDone
}

// ErrNoContent is returned alongside the done frame when the stream ended
// without ever producing a content frame. Callers substitute a fallback
// message instead of silently finishing with empty output.
var ErrNoContent = errors.New("stream ended without content")

// StreamError carries an error frame delivered by the backend mid-stream.
type StreamError struct {
	Message string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream error: %s", e.Message)
}

// ParseError reports a data line whose payload could not be decoded. The
// decoder stays usable after returning one; the caller decides whether to
// skip the line or abort the stream.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed stream frame %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Decoder reads SSE frames from a response body.
//
// Decoder is forward-only and single-consumer: frames are produced lazily by
// Next in arrival order and consumed exactly once. Cancellation is the
// caller's concern; cancelling the request context closes the underlying
// body, after which Next returns the final frame and then io.EOF.
type Decoder struct {
	reader     *bufio.Reader
	logger     *log.Logger
	sawContent bool
	done       bool
}

// NewDecoder wraps a raw byte stream. logger may be nil; it only receives
// diagnostics for skipped lines.
func NewDecoder(r io.Reader, logger *log.Logger) *Decoder {
	return &Decoder{
		reader: bufio.NewReaderSize(r, readerBufferSize),
		logger: logger,
	}
}

// Next returns the next frame. The sequence ends with a FrameDone, after
// which Next returns io.EOF. A done frame paired with ErrNoContent means the
// stream closed without delivering any content.
//
// A *ParseError return leaves the decoder usable: call Next again to skip
// the malformed line, or stop to abort the stream.
func (d *Decoder) Next() (Frame, error) {
	if d.done {
		return Frame{}, io.EOF
	}

	for {
		line, err := d.reader.ReadString('\n')
		line = strings.TrimSpace(line)

		if line == "" {
			if err != nil {
				// Connection closed: treat like a terminal token.
				return d.finish()
			}
			continue
		}

		if !strings.HasPrefix(line, dataPrefix) {
			// Comments, event names and other SSE fields are not part of the
			// backend's contract; skip them.
			if d.logger != nil {
				d.logger.Printf("stream: skipping non-data line %q", line)
			}
			if err != nil {
				return d.finish()
			}
			continue
		}

		payload := strings.TrimPrefix(line, dataPrefix)
		if payload == doneToken {
			return d.finish()
		}

		var frame struct {
			Content *string `json:"content"`
			Error   *string `json:"error"`
		}
		if jsonErr := json.Unmarshal([]byte(payload), &frame); jsonErr != nil {
			if d.logger != nil {
				d.logger.Printf("stream: dropping malformed frame: %v", jsonErr)
			}
			return Frame{}, &ParseError{Line: line, Err: jsonErr}
		}

		switch {
		case frame.Error != nil:
			d.done = true
			return Frame{}, &StreamError{Message: *frame.Error}
		case frame.Content != nil:
			d.sawContent = true
			return Frame{Kind: FrameContent, Text: *frame.Content}, nil
		default:
			// A data object with neither field carries nothing useful.
			if d.logger != nil {
				d.logger.Printf("stream: skipping empty frame %q", line)
			}
			if err != nil {
				return d.finish()
			}
		}
	}
}

func (d *Decoder) finish() (Frame, error) {
	d.done = true
	if !d.sawContent {
		return Frame{Kind: FrameDone}, ErrNoContent
	}
	return Frame{Kind: FrameDone}, nil
}
