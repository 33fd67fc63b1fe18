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

// Package scrape fetches web pages and extracts their readable text
// content and metadata.
package scrape

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/pveldt/skim/internal/api"
	skimhttp "github.com/pveldt/skim/internal/http"
)

const (
	DefaultUserAgent        = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
	DefaultTimeout          = 30 * time.Second
	DefaultMaxContentLength = 100000
)

var (
	ErrFetchFailed  = errors.New("failed to fetch page")
	ErrEmptyContent = errors.New("no readable content extracted from page")
)

type Scraper struct {
	client           skimhttp.Client
	maxContentLength int
}

type ScraperOption func(*scraperConfig)

type scraperConfig struct {
	timeout          time.Duration
	userAgent        string
	maxRetries       int
	maxContentLength int
}

func WithTimeout(timeout time.Duration) ScraperOption {
	return func(c *scraperConfig) {
		c.timeout = timeout
	}
}

func WithUserAgent(agent string) ScraperOption {
	return func(c *scraperConfig) {
		c.userAgent = agent
	}
}

func WithMaxContentLength(n int) ScraperOption {
	return func(c *scraperConfig) {
		c.maxContentLength = n
	}
}

func New(opts ...ScraperOption) *Scraper {
	conf := &scraperConfig{
		timeout:          DefaultTimeout,
		userAgent:        DefaultUserAgent,
		maxRetries:       3,
		maxContentLength: DefaultMaxContentLength,
	}
	for _, opt := range opts {
		opt(conf)
	}

	client := skimhttp.NewClient(
		skimhttp.WithTimeout(conf.timeout),
		skimhttp.WithMaxRetries(conf.maxRetries),
		skimhttp.WithUserAgent(conf.userAgent),
	)

	return &Scraper{
		client:           client,
		maxContentLength: conf.maxContentLength,
	}
}

// Scrape fetches rawURL and returns the extracted document. The
// returned document content is plain text with paragraphs separated by
// blank lines, ready for chunking.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*api.Document, error) {
	body, err := s.client.GetText(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetchFailed, err)
	}

	content := ExtractContent(root)
	if len(content) > s.maxContentLength {
		// back up to a rune boundary so the cut never emits invalid UTF-8
		cut := s.maxContentLength
		for cut > 0 && !utf8.RuneStart(content[cut]) {
			cut--
		}
		content = content[:cut]
	}
	if content == "" {
		return nil, ErrEmptyContent
	}

	meta := ExtractMeta(root)
	meta.ScrapedAt = time.Now().UTC().Format(time.RFC3339)
	if u, err := url.Parse(rawURL); err == nil {
		meta.Domain = u.Host
	}

	return &api.Document{
		URL:     rawURL,
		Content: content,
		Meta:    meta,
	}, nil
}
