// Copyright 2025 Piet Veldt
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to use,
// copy, modify, merge, publish, distribute, sublicense, and/or sell copies of the
// Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND,
// EXPRESS OR IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES
// OF MERCHANTABILITY, FITNESS FOR A PARTICULAR PURPOSE AND
// NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR COPYRIGHT
// HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY,
// WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR
// OTHER DEALINGS IN THE SOFTWARE.

// Package pipeline implements the retrieval flow: scrape a page, chunk
// its text, embed the chunks, index them in the vector store, then
// search and optionally generate a grounded answer.
package pipeline

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pveldt/skim/internal/api"
	"github.com/pveldt/skim/internal/chunker"
	"github.com/pveldt/skim/internal/provider"
	"github.com/pveldt/skim/internal/transport"
	"github.com/pveldt/skim/internal/vector"
)

const (
	DefaultTopK         = 5
	DefaultTemperature  = 0.3
	DefaultMaxTokens    = 1000
	DefaultSummaryWords = 500

	// chunks embedded per provider call when indexing
	embedBatchSize = 64
)

// PageScraper fetches a page and returns its extracted document.
type PageScraper interface {
	Scrape(ctx context.Context, rawURL string) (*api.Document, error)
}

type Config struct {
	Collection  string
	TopK        int
	Temperature float32
	MaxTokens   int
}

type Service struct {
	scraper  PageScraper
	chunker  *chunker.Chunker
	embedder provider.Embedder
	lm       provider.LM
	reranker provider.Reranker
	store    vector.Store

	collection  string
	topK        int
	temperature float32
	maxTokens   int
}

func New(scraper PageScraper, ch *chunker.Chunker, embedder provider.Embedder, lm provider.LM, store vector.Store, conf Config) *Service {
	s := &Service{
		scraper:     scraper,
		chunker:     ch,
		embedder:    embedder,
		lm:          lm,
		store:       store,
		collection:  conf.Collection,
		topK:        conf.TopK,
		temperature: conf.Temperature,
		maxTokens:   conf.MaxTokens,
	}
	if s.topK <= 0 {
		s.topK = DefaultTopK
	}
	if s.temperature == 0 {
		s.temperature = DefaultTemperature
	}
	if s.maxTokens <= 0 {
		s.maxTokens = DefaultMaxTokens
	}
	return s
}

// SetReranker enables post-retrieval reranking of search results.
func (s *Service) SetReranker(r provider.Reranker) {
	s.reranker = r
}

// DocumentID returns the stable identifier for a page URL.
func DocumentID(url string) string {
	sum := md5.Sum([]byte(url))
	return hex.EncodeToString(sum[:])
}

type IndexResult struct {
	DocID  string
	URL    string
	Title  string
	Chunks int
}

// Index scrapes the page at url, chunks its content, embeds the chunks
// and upserts them into the vector store. Indexing the same url again
// overwrites its previous points.
func (s *Service) Index(ctx context.Context, url string) (*IndexResult, error) {
	doc, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return nil, err
	}

	docID := DocumentID(url)
	chunks := s.chunker.ChunkDocument(docID, doc)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("no chunks produced for url '%s'", url)
	}
	slog.Info("chunked document", "url", url, "doc_id", docID, "chunks", len(chunks))

	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	vectors, err := s.embedChunks(ctx, doc.Meta.Title, chunks)
	if err != nil {
		return nil, fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}

	points := vector.CreatePoints(url, chunks, vectors)
	if err := s.store.Upsert(ctx, s.collection, points); err != nil {
		return nil, fmt.Errorf("failed to upsert points to vector store: %w", err)
	}

	return &IndexResult{
		DocID:  docID,
		URL:    url,
		Title:  doc.Meta.Title,
		Chunks: len(points),
	}, nil
}

func (s *Service) ensureCollection(ctx context.Context) error {
	exists, err := s.store.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("failed to communicate with vector store: %w", err)
	}

	if !exists {
		slog.Info("requested collection not found", "name", s.collection)
		err := s.store.CreateCollection(ctx, vector.Collection{
			Name:       s.collection,
			Dimensions: s.embedder.GetDimensions(),
		})
		if err != nil {
			return fmt.Errorf("failed to create collection: %w", err)
		}
		slog.Info("successfully created collection", "name", s.collection)
	}

	return nil
}

// embedChunks embeds the chunk texts in batches, preserving chunk
// order in the returned vectors.
func (s *Service) embedChunks(ctx context.Context, title string, chunks []api.Chunk) ([][]float32, error) {
	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	batches := 0
	for start := 0; start < len(texts); start += embedBatchSize {
		batches++
	}

	results := make([][][]float32, batches)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)

	for i := range batches {
		start := i * embedBatchSize
		end := start + embedBatchSize
		if end > len(texts) {
			end = len(texts)
		}

		g.Go(func() error {
			embeddings, err := s.embedder.EmbedDocuments(gctx, []*api.EmbedDocumentRequest{
				{Title: title, Chunks: texts[start:end]},
			})
			if err != nil {
				return err
			}
			if len(embeddings) != 1 || len(embeddings[0].Values) != end-start {
				return fmt.Errorf("embedding batch %d returned unexpected vector count", i)
			}
			results[i] = embeddings[0].Values
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	vectors := make([][]float32, 0, len(texts))
	for _, batch := range results {
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// Search embeds the query and returns the most similar chunks. When
// docID is not empty, results are restricted to that document. A limit
// of zero falls back to the configured top-k.
func (s *Service) Search(ctx context.Context, query string, docID string, limit int) ([]*api.ScoredDocument, error) {
	if limit <= 0 {
		limit = s.topK
	}

	vec, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query '%s': %w", query, err)
	}

	opts := []vector.QueryParamsOption{
		vector.WithPayload(true),
		vector.WithLimit(uint(limit)),
	}
	if docID != "" {
		opts = append(opts, vector.WithFilter(&vector.QueryMatch{Key: "doc_id", Value: docID}))
	}

	points, err := s.store.Query(ctx, vector.NewQueryParams(s.collection, vec, opts...))
	if err != nil {
		return nil, fmt.Errorf("failed to get results for query '%s': %w", query, err)
	}

	scoredDocs := make([]*api.ScoredDocument, 0, len(points))
	for _, p := range points {
		doc, ok := scoredDocumentFromPoint(p)
		if !ok {
			slog.Warn("malformed retrieved context point: missing 'text' field in payload", "id", p.ID, "payload", p.Payload)
			continue
		}
		scoredDocs = append(scoredDocs, doc)
	}

	if s.reranker != nil && len(scoredDocs) > 0 {
		reranked, err := s.rerank(ctx, query, scoredDocs, limit)
		if err != nil {
			slog.Warn("reranking failed, returning dense results", "err", err)
			return scoredDocs, nil
		}
		return reranked, nil
	}

	return scoredDocs, nil
}

func (s *Service) rerank(ctx context.Context, query string, docs []*api.ScoredDocument, limit int) ([]*api.ScoredDocument, error) {
	contents := make([]string, len(docs))
	byContent := make(map[string]*api.ScoredDocument, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
		byContent[d.Content] = d
	}

	resp, err := s.reranker.Rerank(ctx, api.RerankRequest{
		Query:     query,
		Documents: contents,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	reranked := make([]*api.ScoredDocument, 0, len(resp.Documents))
	for _, rd := range resp.Documents {
		if orig, ok := byContent[rd.Content]; ok {
			doc := orig.Copy()
			doc.Score = rd.Score
			reranked = append(reranked, doc)
		}
	}
	return reranked, nil
}

func scoredDocumentFromPoint(p *vector.ScoredPoint) (*api.ScoredDocument, bool) {
	text, ok := p.Payload["text"].(string)
	if !ok {
		return nil, false
	}

	doc := &api.ScoredDocument{
		Content: text,
		Score:   float64(p.Score),
	}
	if title, ok := p.Payload["title"].(string); ok {
		doc.Title = title
	}
	if url, ok := p.Payload["url"].(string); ok {
		doc.Url = url
	}
	if idx, ok := p.Payload["chunk_index"].(int64); ok {
		doc.ChunkIndex = int(idx)
	}
	return doc, true
}

// Answer generates a grounded answer for query from the given context
// documents, streaming output chunks to ms as they arrive. The full
// answer text is returned once the stream ends.
func (s *Service) Answer(ctx context.Context, query string, docs []*api.ScoredDocument, ms transport.MessageStream) (string, error) {
	var sb strings.Builder
	for _, d := range docs {
		sb.WriteString(strings.TrimSpace(d.Content))
		sb.WriteString("\n---\n")
	}

	prompt, err := renderAnswerPrompt(sb.String(), query)
	if err != nil {
		return "", err
	}

	stream, err := s.lm.Generate(ctx, api.GenerationRequest{
		Prompt:      prompt,
		Temperature: s.temperature,
		MaxTokens:   s.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion stream: %w", err)
	}
	defer stream.Close()

	output, err := transport.ProcessCompletionStream(ctx, ms, stream)
	if err != nil {
		return "", fmt.Errorf("failed to process completion stream: %w", err)
	}

	return output, nil
}

// Summarize scrapes the page at url and streams a generated summary of
// at most maxWords words to ms. A non-positive maxWords falls back to
// the default word budget.
func (s *Service) Summarize(ctx context.Context, url string, maxWords int, ms transport.MessageStream) (string, error) {
	if maxWords <= 0 {
		maxWords = DefaultSummaryWords
	}

	doc, err := s.scraper.Scrape(ctx, url)
	if err != nil {
		return "", err
	}

	prompt, err := renderSummaryPrompt(doc.Meta.Title, doc.Content, maxWords)
	if err != nil {
		return "", err
	}

	stream, err := s.lm.Generate(ctx, api.GenerationRequest{
		Prompt:      prompt,
		Temperature: s.temperature,
		// rough words-to-tokens headroom for the requested budget
		MaxTokens: maxWords * 2,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create completion stream: %w", err)
	}
	defer stream.Close()

	output, err := transport.ProcessCompletionStream(ctx, ms, stream)
	if err != nil {
		return "", fmt.Errorf("failed to process completion stream: %w", err)
	}

	return output, nil
}
