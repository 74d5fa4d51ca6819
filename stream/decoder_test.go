package stream

import (
	"errors"
	"io"
	"strings"
	"testing"
)

// chunkedReader delivers its payload in fixed-size chunks so tests can place
// frame boundaries anywhere inside a delivery.
type chunkedReader struct {
	chunks [][]byte
	index  int
}

func newChunkedReader(chunks ...string) *chunkedReader {
	r := &chunkedReader{}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkedReader) Read(p []byte) (int, error) {
	if r.index >= len(r.chunks) {
		return 0, io.EOF
	}
	n := copy(p, r.chunks[r.index])
	if n < len(r.chunks[r.index]) {
		r.chunks[r.index] = r.chunks[r.index][n:]
	} else {
		r.index++
	}
	return n, nil
}

// collect drains the decoder, returning content texts and the terminal error
// state (nil for a normal end).
func collect(t *testing.T, d *Decoder) (contents []string, terminal error) {
	t.Helper()
	for {
		frame, err := d.Next()
		switch {
		case err == io.EOF:
			return contents, terminal
		case errors.Is(err, ErrNoContent):
			return contents, err
		case err != nil:
			var parseErr *ParseError
			if errors.As(err, &parseErr) {
				continue // skip malformed line, keep decoding
			}
			return contents, err
		}
		if frame.Kind == FrameDone {
			return contents, nil
		}
		contents = append(contents, frame.Text)
	}
}

func TestDecoderBasicSequence(t *testing.T) {
	input := "data: {\"content\":\"Hel\"}\n" +
		"data: {\"content\":\"lo\"}\n" +
		"data: [DONE]\n"

	d := NewDecoder(strings.NewReader(input), nil)
	contents, terminal := collect(t, d)

	if terminal != nil {
		t.Fatalf("unexpected terminal error: %v", terminal)
	}
	if got := strings.Join(contents, ""); got != "Hello" {
		t.Errorf("accumulated content = %q, want %q", got, "Hello")
	}

	// Past the done frame the decoder reports EOF.
	if _, err := d.Next(); err != io.EOF {
		t.Errorf("Next() after done = %v, want io.EOF", err)
	}
}

func TestDecoderChunkBoundaryInvariance(t *testing.T) {
	// The same logical stream, delivered with boundaries in awkward places.
	tests := []struct {
		name   string
		chunks []string
	}{
		{
			name:   "one byte at a time",
			chunks: splitEvery("data: {\"content\":\"hi\"}\ndata: {\"content\":\" there\"}\ndata: [DONE]\n", 1),
		},
		{
			name: "boundary inside a key",
			chunks: []string{
				"data: {\"cont", "ent\":\"hi\"}\n",
				"data: {\"content\":\" there\"}\ndata: [DONE]\n",
			},
		},
		{
			name: "boundary between prefix and payload",
			chunks: []string{
				"data: ", "{\"content\":\"hi\"}\n",
				"data: {\"content\":\" there\"}\n", "data: [DONE]\n",
			},
		},
		{
			name: "boundary inside a multi-byte character",
			chunks: []string{
				"data: {\"content\":\"hi\"}\ndata: {\"content\":\" th\xc3", "\xa9re\"}\ndata: [DONE]\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(newChunkedReader(tt.chunks...), nil)
			contents, terminal := collect(t, d)
			if terminal != nil {
				t.Fatalf("unexpected terminal error: %v", terminal)
			}
			if len(contents) != 2 {
				t.Fatalf("got %d content frames, want 2 (%q)", len(contents), contents)
			}
			if contents[0] != "hi" {
				t.Errorf("first frame = %q, want %q", contents[0], "hi")
			}
		})
	}
}

func TestDecoderSplitLineYieldsSingleFrame(t *testing.T) {
	d := NewDecoder(newChunkedReader("data: {\"cont", "ent\":\"hi\"}\ndata: [DONE]\n"), nil)
	contents, terminal := collect(t, d)
	if terminal != nil {
		t.Fatalf("unexpected terminal error: %v", terminal)
	}
	if len(contents) != 1 || contents[0] != "hi" {
		t.Errorf("contents = %q, want exactly [\"hi\"]", contents)
	}
}

func TestDecoderMalformedLineSkipped(t *testing.T) {
	input := "data: {\"content\":\"ok\"}\n" +
		"data: {not json at all\n" +
		"data: {\"content\":\"still ok\"}\n" +
		"data: [DONE]\n"

	d := NewDecoder(strings.NewReader(input), nil)

	var contents []string
	sawParseError := false
	for {
		frame, err := d.Next()
		if err == io.EOF || (err == nil && frame.Kind == FrameDone) {
			break
		}
		var parseErr *ParseError
		if errors.As(err, &parseErr) {
			sawParseError = true
			continue
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		contents = append(contents, frame.Text)
	}

	if !sawParseError {
		t.Error("expected a ParseError for the malformed line")
	}
	if len(contents) != 2 {
		t.Errorf("got %d content frames, want 2 — malformed line must not abort the stream", len(contents))
	}
}

func TestDecoderErrorFrame(t *testing.T) {
	input := "data: {\"content\":\"partial\"}\n" +
		"data: {\"error\":\"model exploded\"}\n"

	d := NewDecoder(strings.NewReader(input), nil)

	frame, err := d.Next()
	if err != nil || frame.Text != "partial" {
		t.Fatalf("first frame = (%v, %v), want content \"partial\"", frame, err)
	}

	_, err = d.Next()
	var streamErr *StreamError
	if !errors.As(err, &streamErr) {
		t.Fatalf("expected StreamError, got %v", err)
	}
	if streamErr.Message != "model exploded" {
		t.Errorf("StreamError.Message = %q, want %q", streamErr.Message, "model exploded")
	}

	// The error terminates the sequence.
	if _, err := d.Next(); err != io.EOF {
		t.Errorf("Next() after stream error = %v, want io.EOF", err)
	}
}

func TestDecoderEmptyStream(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "immediate close", input: ""},
		{name: "done without content", input: "data: [DONE]\n"},
		{name: "only blank lines", input: "\n\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDecoder(strings.NewReader(tt.input), nil)
			frame, err := d.Next()
			if !errors.Is(err, ErrNoContent) {
				t.Fatalf("Next() = (%v, %v), want ErrNoContent", frame, err)
			}
			if frame.Kind != FrameDone {
				t.Errorf("frame kind = %v, want FrameDone", frame.Kind)
			}
		})
	}
}

func TestDecoderConnectionCloseWithoutDone(t *testing.T) {
	// No [DONE] token: the connection just ends. Content was delivered, so
	// this is a normal completion, not ErrNoContent.
	input := "data: {\"content\":\"hi\"}\n"
	d := NewDecoder(strings.NewReader(input), nil)

	contents, terminal := collect(t, d)
	if terminal != nil {
		t.Fatalf("unexpected terminal error: %v", terminal)
	}
	if len(contents) != 1 || contents[0] != "hi" {
		t.Errorf("contents = %q, want [\"hi\"]", contents)
	}
}

func TestDecoderFrameCountMatchesWellFormedLines(t *testing.T) {
	// Property from the wire contract: N well-formed content lines produce
	// exactly N content frames in order, however the bytes are chunked.
	var b strings.Builder
	want := []string{"a", "b", "c", "d", "e", "f", "g"}
	for _, s := range want {
		b.WriteString("data: {\"content\":\"" + s + "\"}\n")
	}
	b.WriteString("data: [DONE]\n")
	full := b.String()

	for _, size := range []int{1, 2, 3, 5, 7, all(full)} {
		d := NewDecoder(newChunkedReader(splitEvery(full, size)...), nil)
		contents, terminal := collect(t, d)
		if terminal != nil {
			t.Fatalf("chunk size %d: terminal error %v", size, terminal)
		}
		if len(contents) != len(want) {
			t.Fatalf("chunk size %d: got %d frames, want %d", size, len(contents), len(want))
		}
		for i := range want {
			if contents[i] != want[i] {
				t.Errorf("chunk size %d: frame %d = %q, want %q", size, i, contents[i], want[i])
			}
		}
	}
}

func splitEvery(s string, n int) []string {
	var chunks []string
	for len(s) > n {
		chunks = append(chunks, s[:n])
		s = s[n:]
	}
	return append(chunks, s)
}

func all(s string) int { return len(s) }
