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

// Package worker runs the task queue consumer that executes retrieval
// and summarization tasks.
package worker

import (
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/pveldt/skim/internal/chunker"
	"github.com/pveldt/skim/internal/pipeline"
	"github.com/pveldt/skim/internal/provider"
	"github.com/pveldt/skim/internal/scrape"
	"github.com/pveldt/skim/internal/tasks"
	"github.com/pveldt/skim/internal/transport"
	"github.com/pveldt/skim/internal/vector"
)

type WorkerConfig struct {
	RedisAddr     string
	RedisUsername string
	RedisPassword string
	RedisDB       int

	Concurrency int

	VectorStore string
	VectorHost  string
	VectorPort  int
	Collection  string

	EmbedderName string
	EmbedderKey  string
	LMName       string
	LMKey        string
	RerankerName string
	RerankerKey  string

	ChunkSize    int
	ChunkOverlap int

	TopK        int
	Temperature float32
	MaxTokens   int

	ScrapeTimeout    time.Duration
	UserAgent        string
	MaxContentLength int
}

func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		RedisAddr:    "localhost:6379",
		Concurrency:  10,
		VectorStore:  "qdrant",
		VectorHost:   "localhost",
		VectorPort:   6334,
		Collection:   "pages",
		EmbedderName: "openai",
		LMName:       "openai",
	}
}

type Worker struct {
	config WorkerConfig

	rdb         *redis.Client
	asynqServer *asynq.Server

	transport   transport.Transport
	vectorStore vector.Store
}

func New(config WorkerConfig) *Worker {
	return &Worker{
		config: config,
	}
}

func (w *Worker) Start() error {
	w.rdb = redis.NewClient(&redis.Options{
		Addr:     w.config.RedisAddr,
		Username: w.config.RedisUsername,
		Password: w.config.RedisPassword,
		DB:       w.config.RedisDB,
	})
	defer w.rdb.Close()

	concurrency := w.config.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	w.asynqServer = asynq.NewServerFromRedisClient(
		w.rdb,
		asynq.Config{
			Concurrency: concurrency,
		},
	)

	w.transport = transport.NewRedisTransport(w.rdb)

	vs, err := vector.NewStore(w.config.VectorStore, w.config.VectorHost, w.config.VectorPort)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	w.vectorStore = vs
	defer w.vectorStore.Close()

	svc, err := w.buildPipeline()
	if err != nil {
		return err
	}

	handler := tasks.NewTaskHandler(w.transport, svc)

	mux := asynq.NewServeMux()
	mux.Handle(tasks.TypeRetrieve, handler)
	mux.Handle(tasks.TypeSummarize, handler)

	if err := w.asynqServer.Run(mux); err != nil {
		return err
	}
	return nil
}

func (w *Worker) buildPipeline() (*pipeline.Service, error) {
	embedder, err := provider.NewEmbedder(w.config.EmbedderName, w.config.EmbedderKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder '%s': %w", w.config.EmbedderName, err)
	}

	lm, err := provider.NewLM(w.config.LMName, w.config.LMKey)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize language model '%s': %w", w.config.LMName, err)
	}

	scrapeOpts := make([]scrape.ScraperOption, 0)
	if w.config.ScrapeTimeout > 0 {
		scrapeOpts = append(scrapeOpts, scrape.WithTimeout(w.config.ScrapeTimeout))
	}
	if w.config.UserAgent != "" {
		scrapeOpts = append(scrapeOpts, scrape.WithUserAgent(w.config.UserAgent))
	}
	if w.config.MaxContentLength > 0 {
		scrapeOpts = append(scrapeOpts, scrape.WithMaxContentLength(w.config.MaxContentLength))
	}
	scraper := scrape.New(scrapeOpts...)

	ch := chunker.New(w.config.ChunkSize, w.config.ChunkOverlap)

	svc := pipeline.New(scraper, ch, embedder, lm, w.vectorStore, pipeline.Config{
		Collection:  w.config.Collection,
		TopK:        w.config.TopK,
		Temperature: w.config.Temperature,
		MaxTokens:   w.config.MaxTokens,
	})

	if w.config.RerankerName != "" {
		reranker, err := provider.NewReranker(w.config.RerankerName, w.config.RerankerKey)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize reranker '%s': %w", w.config.RerankerName, err)
		}
		svc.SetReranker(reranker)
	}

	return svc, nil
}
