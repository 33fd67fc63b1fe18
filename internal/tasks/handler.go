package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/pveldt/skim/internal/api"
	"github.com/pveldt/skim/internal/pipeline"
	"github.com/pveldt/skim/internal/transport"
)

// Retriever runs the retrieval pipeline operations a task needs.
type Retriever interface {
	Index(ctx context.Context, url string) (*pipeline.IndexResult, error)
	Search(ctx context.Context, query string, docID string, limit int) ([]*api.ScoredDocument, error)
	Answer(ctx context.Context, query string, docs []*api.ScoredDocument, ms transport.MessageStream) (string, error)
	Summarize(ctx context.Context, url string, maxWords int, ms transport.MessageStream) (string, error)
}

type TaskHandler struct {
	transport transport.Transport
	retriever Retriever
}

func NewTaskHandler(transport transport.Transport, retriever Retriever) *TaskHandler {
	return &TaskHandler{
		transport: transport,
		retriever: retriever,
	}
}

func (h TaskHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	id := t.ResultWriter().TaskID()
	slog.Info("task id", "id", id)

	ms, err := h.transport.GetMessageStream(id)
	if err != nil {
		slog.Error("failed to initialize message stream", "err", err)
		return fmt.Errorf("failed to initialize message stream: %v (%w)", err, asynq.SkipRetry)
	}

	switch t.Type() {
	case TypeRetrieve:
		var p retrieveTaskPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("malformed retrieve payload: %v (%w)", err, asynq.SkipRetry)
		}
		slog.Info("received retrieve task", "url", p.URL, "query", p.Query, "top_k", p.TopK)
		return h.handleRetrieve(ctx, id, ms, p)

	case TypeSummarize:
		var p summarizeTaskPayload
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("malformed summarize payload: %v (%w)", err, asynq.SkipRetry)
		}
		slog.Info("received summarize task", "url", p.URL, "max_words", p.MaxWords)
		return h.handleSummarize(ctx, id, ms, p)

	default:
		return fmt.Errorf("unrecognized task type (%w)", asynq.SkipRetry)
	}
}

func (h TaskHandler) handleRetrieve(ctx context.Context, id string, ms transport.MessageStream, p retrieveTaskPayload) error {
	trace := h.startTrace(ctx, id, "retrieve", p.Query, p.URL)

	res, err := h.retriever.Index(ctx, p.URL)
	if err != nil {
		return h.failTask(ctx, ms, trace, fmt.Errorf("indexing failed: %w", err))
	}
	slog.Info("indexed document", "doc_id", res.DocID, "chunks", res.Chunks)

	docs, err := h.retriever.Search(ctx, p.Query, res.DocID, p.TopK)
	if err != nil {
		return h.failTask(ctx, ms, trace, fmt.Errorf("search failed: %w", err))
	}

	for i, doc := range docs {
		err = ms.Send(ctx, transport.MessageStreamPayload{
			ID:     i,
			Status: "OK",
			Type:   transport.MessageTypeDocument,
			Document: transport.Document{
				Title:      doc.Title,
				Content:    doc.Content,
				Source:     doc.Url,
				Score:      doc.Score,
				ChunkIndex: doc.ChunkIndex,
			},
		})
		if err != nil {
			slog.Warn("failed sending document to message stream", "id", id, "index", i)
		}
	}

	if _, err := h.retriever.Answer(ctx, p.Query, docs, ms); err != nil {
		return h.failTask(ctx, ms, trace, fmt.Errorf("answer generation failed: %w", err))
	}

	return h.completeTask(ctx, ms, trace)
}

func (h TaskHandler) handleSummarize(ctx context.Context, id string, ms transport.MessageStream, p summarizeTaskPayload) error {
	trace := h.startTrace(ctx, id, "summarize", "", p.URL)

	if _, err := h.retriever.Summarize(ctx, p.URL, p.MaxWords, ms); err != nil {
		return h.failTask(ctx, ms, trace, fmt.Errorf("summarization failed: %w", err))
	}

	return h.completeTask(ctx, ms, trace)
}

func (h TaskHandler) startTrace(ctx context.Context, id string, kind string, query string, url string) *transport.RequestTrace {
	trace := &transport.RequestTrace{
		ID:          id,
		Kind:        kind,
		Status:      transport.TraceStatusRunning,
		StartedAt:   time.Now().UnixNano(),
		CompletedAt: 0,
		Query:       query,
		URL:         url,
	}
	if err := h.transport.SetTrace(ctx, trace); err != nil {
		slog.Error("failed to set trace", "id", id, "err", err)
	}
	return trace
}

func (h TaskHandler) failTask(ctx context.Context, ms transport.MessageStream, trace *transport.RequestTrace, taskErr error) error {
	ms.Send(ctx, transport.MessageStreamPayload{
		Content: taskErr.Error(),
		Status:  "ERR",
	})

	trace.CompletedAt = time.Now().UnixNano()
	trace.Status = transport.TraceStatusFailed
	if err := h.transport.SetTrace(ctx, trace); err != nil {
		slog.Error("failed to set trace", "id", trace.ID, "err", err)
	}

	return fmt.Errorf("%v (%w)", taskErr, asynq.SkipRetry)
}

func (h TaskHandler) completeTask(ctx context.Context, ms transport.MessageStream, trace *transport.RequestTrace) error {
	err := ms.Send(ctx, transport.MessageStreamPayload{
		Content: "task finished",
		Status:  "DONE",
	})
	if err != nil {
		slog.Warn("failed to write DONE message to stream", "id", trace.ID)
	}

	trace.CompletedAt = time.Now().UnixNano()
	trace.Status = transport.TraceStatusCompleted
	if err := h.transport.SetTrace(ctx, trace); err != nil {
		slog.Error("failed to set trace", "id", trace.ID, "err", err)
	}

	return nil
}
