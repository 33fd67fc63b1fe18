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

package main

import (
	"os"
	"strings"
	"time"

	"github.com/goccy/go-yaml"

	"github.com/pveldt/skim/server"
	"github.com/pveldt/skim/worker"
)

type redisConfig struct {
	Addr     string `yaml:"addr"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type qdrantConfig struct {
	Host       string `yaml:"host"`
	Port       int    `yaml:"port"`
	Collection string `yaml:"collection"`
}

type serverConfig struct {
	ListenHost string `yaml:"listen_host"`
	ListenPort int    `yaml:"listen_port"`
}

type workerConfig struct {
	Workers int `yaml:"workers"`
}

type providersConfig struct {
	Embedder       string `yaml:"embedder"`
	EmbedderAPIKey string `yaml:"embedder_api_key"`
	LM             string `yaml:"lm"`
	LMAPIKey       string `yaml:"lm_api_key"`
	Reranker       string `yaml:"reranker"`
	RerankerAPIKey string `yaml:"reranker_api_key"`
}

type scrapeConfig struct {
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
	UserAgent        string `yaml:"user_agent"`
	MaxContentLength int    `yaml:"max_content_length"`
}

type chunkerConfig struct {
	Size    int `yaml:"size"`
	Overlap int `yaml:"overlap"`
}

type retrievalConfig struct {
	TopK int `yaml:"top_k"`
}

type llmConfig struct {
	Temperature float32 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type config struct {
	Server serverConfig `yaml:"server"`
	Worker workerConfig `yaml:"worker"`

	Transport   redisConfig  `yaml:"transport"`
	VectorStore qdrantConfig `yaml:"vector_store"`

	Providers providersConfig `yaml:"providers"`
	Scrape    scrapeConfig    `yaml:"scrape"`
	Chunker   chunkerConfig   `yaml:"chunker"`
	Retrieval retrievalConfig `yaml:"retrieval"`
	LLM       llmConfig       `yaml:"llm"`
}

// ReadConfig loads the yaml config at path. A missing file yields the
// zero config so every setting falls back to its default.
func ReadConfig(path string) (*config, error) {
	var conf config

	file, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &conf, nil
	}
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(file, &conf); err != nil {
		return nil, err
	}

	return &conf, nil
}

func (c *config) serverConfig() server.ServerConfig {
	sc := server.DefaultConfig()
	if c.Server.ListenHost != "" {
		sc.ListenHost = c.Server.ListenHost
	}
	if c.Server.ListenPort != 0 {
		sc.ListenPort = c.Server.ListenPort
	}
	if c.Transport.Addr != "" {
		sc.RedisAddr = c.Transport.Addr
	}
	sc.RedisUsername = c.Transport.Username
	sc.RedisPassword = c.Transport.Password
	sc.RedisDB = c.Transport.DB
	return sc
}

func (c *config) workerConfig() worker.WorkerConfig {
	wc := worker.DefaultConfig()
	if c.Transport.Addr != "" {
		wc.RedisAddr = c.Transport.Addr
	}
	wc.RedisUsername = c.Transport.Username
	wc.RedisPassword = c.Transport.Password
	wc.RedisDB = c.Transport.DB

	if c.Worker.Workers > 0 {
		wc.Concurrency = c.Worker.Workers
	}

	if c.VectorStore.Host != "" {
		wc.VectorHost = c.VectorStore.Host
	}
	if c.VectorStore.Port != 0 {
		wc.VectorPort = c.VectorStore.Port
	}
	if c.VectorStore.Collection != "" {
		wc.Collection = c.VectorStore.Collection
	}

	if c.Providers.Embedder != "" {
		wc.EmbedderName = c.Providers.Embedder
	}
	wc.EmbedderKey = resolveAPIKey(wc.EmbedderName, c.Providers.EmbedderAPIKey)

	if c.Providers.LM != "" {
		wc.LMName = c.Providers.LM
	}
	wc.LMKey = resolveAPIKey(wc.LMName, c.Providers.LMAPIKey)

	if c.Providers.Reranker != "" {
		wc.RerankerName = c.Providers.Reranker
		wc.RerankerKey = resolveAPIKey(wc.RerankerName, c.Providers.RerankerAPIKey)
	}

	if c.Scrape.TimeoutSeconds > 0 {
		wc.ScrapeTimeout = time.Duration(c.Scrape.TimeoutSeconds) * time.Second
	}
	wc.UserAgent = c.Scrape.UserAgent
	wc.MaxContentLength = c.Scrape.MaxContentLength

	wc.ChunkSize = c.Chunker.Size
	wc.ChunkOverlap = c.Chunker.Overlap

	wc.TopK = c.Retrieval.TopK
	wc.Temperature = c.LLM.Temperature
	wc.MaxTokens = c.LLM.MaxTokens

	return wc
}

// resolveAPIKey prefers the key from the config file, falling back to
// the provider's conventional environment variable.
func resolveAPIKey(providerName string, configured string) string {
	if configured != "" {
		return configured
	}
	return os.Getenv(strings.ToUpper(providerName) + "_API_KEY")
}
