package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/pveldt/skim/internal/transport"
)

// streamResult accumulates everything a task wrote to its message
// stream before finishing.
type streamResult struct {
	Content   string
	Documents []transport.Document
}

// streamError carries the ERR payload content reported by the worker.
type streamError struct {
	TraceID string
	Message string
}

func (e streamError) Error() string {
	return e.Message
}

// consumeMessageStream reads the message stream until the task reports
// DONE or ERR, collecting streamed content and documents.
func consumeMessageStream(ctx context.Context, traceID string, tstream transport.MessageStream) (*streamResult, error) {
	result := &streamResult{}

	readFails := 0
	for {
		msg, err := tstream.Recv(ctx)

		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			slog.Warn("failed to read from stream", "stream", traceID)
			readFails += 1
			if readFails >= 10 {
				slog.Error("exceeded stream read attempts, failed", "id", traceID)
				return nil, errors.New("exceeded stream read attempts")
			}
			time.Sleep(100 * time.Millisecond)
			continue
		}
		readFails = 0

		switch msg.Status {
		case "ERR":
			return nil, streamError{TraceID: traceID, Message: msg.Content}
		case "DONE":
			slog.Debug("message stream done", "trace", traceID)
			return result, nil
		}

		switch msg.Type {
		case transport.MessageTypeContent:
			result.Content += msg.Content
		case transport.MessageTypeDocument:
			result.Documents = append(result.Documents, msg.Document)
		}
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "err", err)
	}
}

func writeError(w http.ResponseWriter, code int, detail string) {
	writeJSON(w, code, map[string]string{"detail": detail})
}
