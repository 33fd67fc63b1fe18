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

// Package provider exposes the language model, embedding and reranking
// backends behind small interfaces. Concrete clients live in the
// subpackages and are selected by name through the factory functions.
package provider

import (
	"context"
	"errors"

	"github.com/pveldt/skim/internal/api"
	skim_cohere "github.com/pveldt/skim/internal/provider/cohere"
	"github.com/pveldt/skim/internal/provider/gemini"
	"github.com/pveldt/skim/internal/provider/openai"
)

var (
	ErrInvalidLMType       = errors.New("no language model provider found for given type")
	ErrInvalidEmbedderType = errors.New("no embeddings provider found for given type")
	ErrInvalidRerankerType = errors.New("no reranker provider found for given type")
)

type LM interface {
	Generate(ctx context.Context, req api.GenerationRequest) (api.CompletionStream, error)
}

type Embedder interface {
	EmbedQuery(ctx context.Context, q string) ([]float32, error)
	EmbedDocuments(ctx context.Context, docs []*api.EmbedDocumentRequest) ([]*api.DocumentEmbedding, error)
	GetDimensions() uint
}

type Reranker interface {
	Rerank(ctx context.Context, req api.RerankRequest) (*api.RerankResponse, error)
}

func NewLM(name string, apiKey string) (LM, error) {
	switch name {
	case "openai":
		return openai.New(apiKey), nil
	case "gemini":
		return gemini.New(apiKey)
	default:
		return nil, ErrInvalidLMType
	}
}

func NewEmbedder(name string, apiKey string) (Embedder, error) {
	switch name {
	case "openai":
		return openai.New(apiKey), nil
	case "gemini":
		return gemini.New(apiKey)
	case "cohere":
		return skim_cohere.New(apiKey), nil
	default:
		return nil, ErrInvalidEmbedderType
	}
}

func NewReranker(name string, apiKey string) (Reranker, error) {
	switch name {
	case "cohere":
		return skim_cohere.New(apiKey), nil
	default:
		return nil, ErrInvalidRerankerType
	}
}
