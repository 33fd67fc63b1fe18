package skim_cohere

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	cohere "github.com/cohere-ai/cohere-go/v2"
	cohereclient "github.com/cohere-ai/cohere-go/v2/client"

	"github.com/pveldt/skim/internal/api"
)

const (
	EmbedMaxTexts = 96
)

type embedRequestWrapper struct {
	Title   string
	Chunks  []string
	Request *cohere.V2EmbedRequest
}

type embedResponseWrapper struct {
	Title    string
	Chunks   []string
	Response *cohere.EmbedByTypeResponse
}

type CohereProvider struct {
	client *cohereclient.Client
}

func New(apiKey string) *CohereProvider {
	c := cohereclient.NewClient(
		cohereclient.WithToken(apiKey),
		cohereclient.WithHTTPClient(
			&http.Client{
				Timeout: 60 * time.Second,
			},
		),
	)
	return &CohereProvider{
		client: c,
	}
}

func (p CohereProvider) EmbedQuery(ctx context.Context, q string) ([]float32, error) {
	resp, err := p.client.V2.Embed(
		ctx,
		&cohere.V2EmbedRequest{
			Texts:          []string{q},
			Model:          "embed-multilingual-v3.0",
			InputType:      cohere.EmbedInputTypeSearchQuery,
			EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("embed request failed: %w", err)
	}

	f32 := make([]float32, 0, len(resp.Embeddings.Float[0]))
	for _, f := range resp.Embeddings.Float[0] {
		f32 = append(f32, float32(f))
	}

	return f32, nil
}

func (p CohereProvider) EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error) {
	embedRequests := make([]*embedRequestWrapper, 0, len(docs))
	for _, doc := range docs {
		// the API accepts at most EmbedMaxTexts texts per call
		for start := 0; start < len(doc.Chunks); start += EmbedMaxTexts {
			end := start + EmbedMaxTexts
			if end > len(doc.Chunks) {
				end = len(doc.Chunks)
			}

			part := doc.Chunks[start:end]
			req := &cohere.V2EmbedRequest{
				Texts:          part,
				Model:          "embed-multilingual-v3.0",
				InputType:      cohere.EmbedInputTypeSearchDocument,
				EmbeddingTypes: []cohere.EmbeddingType{cohere.EmbeddingTypeFloat},
			}
			embedRequests = append(embedRequests, &embedRequestWrapper{
				Title:   doc.Title,
				Chunks:  part,
				Request: req,
			})
		}
	}

	var wg sync.WaitGroup
	var embedRespMu sync.Mutex
	embedResponses := make([]*embedResponseWrapper, len(embedRequests))

	for i, ereq := range embedRequests {
		wg.Add(1)
		ctxTimeout, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		go func(ctx context.Context, i int, ereq *embedRequestWrapper) {
			defer wg.Done()
			resp, err := p.client.V2.Embed(ctx, ereq.Request)
			if err == nil {
				embedRespMu.Lock()
				embedResponses[i] = &embedResponseWrapper{
					Title:    ereq.Title,
					Chunks:   ereq.Chunks,
					Response: resp,
				}
				embedRespMu.Unlock()
			}
		}(ctxTimeout, i, ereq)
	}
	wg.Wait()

	docEmbeddings := make([]*api.DocumentEmbedding, 0, len(embedResponses))
	for _, eresp := range embedResponses {
		if eresp == nil {
			return nil, fmt.Errorf("embed request failed for one or more batches")
		}
		vectors := make([][]float32, 0, len(eresp.Response.Embeddings.Float))
		for _, cohereVector := range eresp.Response.Embeddings.Float {
			vector := make([]float32, 0, len(cohereVector))
			for _, f64 := range cohereVector {
				vector = append(vector, float32(f64))
			}
			vectors = append(vectors, vector)
		}
		docEmbeddings = append(docEmbeddings, &api.DocumentEmbedding{
			Title:  eresp.Title,
			Chunks: eresp.Chunks,
			Values: vectors,
		})
	}

	return docEmbeddings, nil
}

func (p CohereProvider) GetDimensions() uint {
	return 1024
}

func (p CohereProvider) Rerank(ctx context.Context, req api.RerankRequest) (*api.RerankResponse, error) {
	if req.Query == "" {
		return nil, fmt.Errorf("rerank request failed: missing parameter 'query' in request")
	}

	if len(req.Documents) == 0 {
		return nil, fmt.Errorf("rerank request failed: missing parameter 'documents' in request")
	}

	returnDocuments := true
	coReq := &cohere.V2RerankRequest{
		Query:           req.Query,
		Documents:       req.Documents,
		Model:           "rerank-v3.5",
		ReturnDocuments: &returnDocuments,
	}

	if req.ModelName != "" {
		coReq.Model = req.ModelName
	}

	if req.Limit != 0 {
		coReq.TopN = &req.Limit
	}

	threshold := float64(api.RerankScoreThreshold)
	if req.Threshold != nil {
		threshold = *req.Threshold
	}

	resp, err := p.client.V2.Rerank(ctx, coReq)
	if err != nil {
		return nil, fmt.Errorf("rerank request failed: %w", err)
	}

	scoredDocs := make([]*api.ScoredDocument, 0, len(resp.Results))
	for _, result := range resp.Results {
		if result.RelevanceScore >= threshold {
			scoredDocs = append(scoredDocs, &api.ScoredDocument{
				Content: result.Document.Text,
				Score:   result.RelevanceScore,
			})
		}
	}

	return &api.RerankResponse{
		Query:     req.Query,
		Documents: scoredDocs,
		ModelName: coReq.Model,
	}, nil
}
