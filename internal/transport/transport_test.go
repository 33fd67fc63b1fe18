package transport_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/pveldt/skim/internal/transport"
)

type fakeCompletionStream struct {
	chunks []string
	err    error
	pos    int
}

func (s *fakeCompletionStream) Recv() (string, error) {
	if s.pos >= len(s.chunks) {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	chunk := s.chunks[s.pos]
	s.pos++
	return chunk, nil
}

func (s *fakeCompletionStream) Close() error {
	return nil
}

type recordingStream struct {
	payloads []transport.MessageStreamPayload
}

func (m *recordingStream) Send(ctx context.Context, payload transport.MessageStreamPayload) error {
	m.payloads = append(m.payloads, payload)
	return nil
}

func (m *recordingStream) Recv(ctx context.Context) (*transport.MessageStreamPayload, error) {
	return nil, io.EOF
}

func (m *recordingStream) Text(ctx context.Context) (string, error) {
	return "", nil
}

func (m *recordingStream) GetID() string {
	return "recording"
}

func TestProcessCompletionStream(t *testing.T) {
	cs := &fakeCompletionStream{chunks: []string{"Hello ", "world", "!"}}
	ms := &recordingStream{}

	out, err := transport.ProcessCompletionStream(context.Background(), ms, cs)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if out != "Hello world!" {
		t.Errorf("unexpected output '%s'", out)
	}

	if len(ms.payloads) != 3 {
		t.Fatalf("expected 3 payloads, got %d", len(ms.payloads))
	}
	for i, p := range ms.payloads {
		if p.Status != "OK" {
			t.Errorf("expected OK payload, got '%s'", p.Status)
		}
		if p.Type != transport.MessageTypeContent {
			t.Errorf("expected content payload type, got %d", p.Type)
		}
		if p.ID != i {
			t.Errorf("expected sequential payload id %d, got %d", i, p.ID)
		}
	}
}

func TestProcessCompletionStreamSkipsBlankChunks(t *testing.T) {
	cs := &fakeCompletionStream{chunks: []string{"Hello", "  ", "world"}}
	ms := &recordingStream{}

	out, err := transport.ProcessCompletionStream(context.Background(), ms, cs)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	// blank chunks are folded into the next message
	if out != "Hello  world" {
		t.Errorf("unexpected output '%s'", out)
	}
	if len(ms.payloads) != 2 {
		t.Errorf("expected 2 payloads, got %d", len(ms.payloads))
	}
	if ms.payloads[1].Content != "  world" {
		t.Errorf("unexpected payload content '%s'", ms.payloads[1].Content)
	}
}

func TestProcessCompletionStreamError(t *testing.T) {
	streamErr := errors.New("provider failed")
	cs := &fakeCompletionStream{chunks: []string{"partial"}, err: streamErr}
	ms := &recordingStream{}

	out, err := transport.ProcessCompletionStream(context.Background(), ms, cs)
	if !errors.Is(err, streamErr) {
		t.Fatalf("expected provider error, got %v", err)
	}
	if out != "partial" {
		t.Errorf("expected partial output to be returned, got '%s'", out)
	}

	last := ms.payloads[len(ms.payloads)-1]
	if last.Status != "ERR" {
		t.Errorf("expected final ERR payload, got '%s'", last.Status)
	}
}
