package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/hibiken/asynq"

	"github.com/pveldt/skim/internal/tasks"
)

type retrieveRequest struct {
	URL   string `json:"url"`
	Query string `json:"query"`
	TopK  int    `json:"top_k"`
}

type summarizeRequest struct {
	URL      string `json:"url"`
	MaxWords int    `json:"max_words"`
}

type sourceDocument struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	URL        string  `json:"url"`
	Score      float64 `json:"score"`
	ChunkIndex int     `json:"chunk_index"`
}

type retrieveResponse struct {
	TraceID string           `json:"trace_id"`
	URL     string           `json:"url"`
	Query   string           `json:"query"`
	Answer  string           `json:"answer"`
	Sources []sourceDocument `json:"sources"`
}

type summarizeResponse struct {
	TraceID string `json:"trace_id"`
	URL     string `json:"url"`
	Summary string `json:"summary"`
}

type traceResponse struct {
	TraceID     string `json:"trace_id"`
	Kind        string `json:"kind"`
	Status      int    `json:"status"`
	StartedAt   int64  `json:"started_at"`
	CompletedAt int64  `json:"completed_at"`
	Query       string `json:"query"`
	URL         string `json:"url"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "skim",
		"endpoints": []string{
			"POST /retrieve",
			"POST /summarize",
			"GET /health",
			"GET /traces/{id}",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Server) handleRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validPageURL(req.URL) {
		writeError(w, http.StatusBadRequest, "parameter 'url' must be a valid http(s) url")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "parameter 'query' must not be empty")
		return
	}
	if req.TopK < 0 {
		writeError(w, http.StatusBadRequest, "parameter 'top_k' must not be negative")
		return
	}

	slog.Debug("received retrieve request", "url", req.URL, "query", req.Query, "top_k", req.TopK)

	t, err := tasks.NewRetrieveTask(req.URL, req.Query, req.TopK)
	if err != nil {
		slog.Error(err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	result, traceID, err := s.runTask(w, r, t)
	if err != nil {
		return
	}

	sources := make([]sourceDocument, 0, len(result.Documents))
	for _, doc := range result.Documents {
		sources = append(sources, sourceDocument{
			Title:      doc.Title,
			Content:    doc.Content,
			URL:        doc.Source,
			Score:      doc.Score,
			ChunkIndex: doc.ChunkIndex,
		})
	}

	writeJSON(w, http.StatusOK, retrieveResponse{
		TraceID: traceID,
		URL:     req.URL,
		Query:   req.Query,
		Answer:  result.Content,
		Sources: sources,
	})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if !validPageURL(req.URL) {
		writeError(w, http.StatusBadRequest, "parameter 'url' must be a valid http(s) url")
		return
	}
	if req.MaxWords < 0 {
		writeError(w, http.StatusBadRequest, "parameter 'max_words' must not be negative")
		return
	}

	slog.Debug("received summarize request", "url", req.URL, "max_words", req.MaxWords)

	t, err := tasks.NewSummarizeTask(req.URL, req.MaxWords)
	if err != nil {
		slog.Error(err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	result, traceID, err := s.runTask(w, r, t)
	if err != nil {
		return
	}

	writeJSON(w, http.StatusOK, summarizeResponse{
		TraceID: traceID,
		URL:     req.URL,
		Summary: result.Content,
	})
}

func (s *Server) handleTrace(w http.ResponseWriter, r *http.Request) {
	traceID := r.PathValue("id")

	trace, err := s.transport.GetTrace(r.Context(), traceID)
	if err != nil {
		writeError(w, http.StatusNotFound, "trace with given id does not exist")
		return
	}

	writeJSON(w, http.StatusOK, traceResponse{
		TraceID:     trace.ID,
		Kind:        trace.Kind,
		Status:      trace.Status,
		StartedAt:   trace.StartedAt,
		CompletedAt: trace.CompletedAt,
		Query:       trace.Query,
		URL:         trace.URL,
	})
}

// runTask enqueues t and blocks until the worker finishes it, writing
// the error response itself when the task fails.
func (s *Server) runTask(w http.ResponseWriter, r *http.Request, t *asynq.Task) (*streamResult, string, error) {
	info, err := s.asynqClient.Enqueue(t)
	if err != nil {
		slog.Error(err.Error())
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, "", err
	}
	slog.Info("enqueued task successfully", "id", info.ID)
	traceID := info.ID

	tstream, err := s.transport.GetMessageStream(traceID)
	if err != nil {
		slog.Error("failed to retrieve stream", "id", traceID)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return nil, "", err
	}

	result, err := consumeMessageStream(r.Context(), traceID, tstream)
	if err != nil {
		var serr streamError
		if errors.As(err, &serr) {
			writeError(w, taskErrorStatus(serr.Message), serr.Message)
		} else {
			writeError(w, http.StatusInternalServerError, "internal server error")
		}
		return nil, "", err
	}

	return result, traceID, nil
}

// taskErrorStatus maps a worker failure back onto an HTTP status.
// Unreachable or empty pages are client errors, everything else is on
// our side.
func taskErrorStatus(msg string) int {
	if strings.Contains(msg, "failed to fetch page") || strings.Contains(msg, "no readable content") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func validPageURL(raw string) bool {
	if strings.TrimSpace(raw) == "" {
		return false
	}
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
