package scrape_test

import (
	"context"
	"errors"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"golang.org/x/net/html"

	"github.com/pveldt/skim/internal/scrape"
)

const samplePage = `<!DOCTYPE html>
<html>
<head>
	<title>Gophers in the Wild</title>
	<meta name="description" content="A field guide to gophers.">
	<meta name="author" content="J. Burrows">
	<meta name="keywords" content="gophers,burrows,field guide">
	<meta property="og:title" content="Gophers in the Wild — OG">
	<meta property="article:published_time" content="2025-05-01T09:00:00Z">
</head>
<body>
	<nav><ul><li>This navigation entry is long enough to match</li></ul></nav>
	<header><p>Header boilerplate that should never appear in output.</p></header>
	<div class="sidebar-widget"><p>Sidebar promotions that should be stripped away.</p></div>
	<article>
		<h1>Gophers in the Wild: A Field Guide</h1>
		<p>Gophers are burrowing rodents found across North and Central America.</p>
		<p>ok</p>
		<p>They spend most of their lives underground, building extensive tunnel systems.</p>
		<ul><li>Pocket gophers carry food in fur-lined cheek pouches.</li></ul>
		<div class="cookie-consent"><p>We use cookies to improve your experience on this site.</p></div>
	</article>
	<footer><p>Footer text that must be excluded from extraction.</p></footer>
	<script>console.log("tracking script that must not leak into text");</script>
</body>
</html>`

func parsePage(t *testing.T, page string) *html.Node {
	t.Helper()
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		t.Fatalf("failed to parse test page: %v", err)
	}
	return root
}

func TestExtractContent(t *testing.T) {
	content := scrape.ExtractContent(parsePage(t, samplePage))

	expected := []string{
		"Gophers in the Wild: A Field Guide",
		"Gophers are burrowing rodents found across North and Central America.",
		"They spend most of their lives underground, building extensive tunnel systems.",
		"Pocket gophers carry food in fur-lined cheek pouches.",
	}
	paragraphs := strings.Split(content, "\n\n")
	if len(paragraphs) != len(expected) {
		t.Fatalf("expected %d paragraphs, got %d: %q", len(expected), len(paragraphs), paragraphs)
	}
	for i, p := range expected {
		if paragraphs[i] != p {
			t.Errorf("expected paragraph '%s', got '%s'", p, paragraphs[i])
		}
	}

	excluded := []string{"navigation entry", "Header boilerplate", "Sidebar", "cookies", "Footer", "tracking script", "ok"}
	for _, frag := range excluded {
		if strings.Contains(content, frag) {
			t.Errorf("expected '%s' to be excluded from content", frag)
		}
	}
}

func TestExtractContentFallsBackToBody(t *testing.T) {
	page := `<html><body><p>A page without article or main landmarks still yields text.</p></body></html>`
	content := scrape.ExtractContent(parsePage(t, page))
	if content != "A page without article or main landmarks still yields text." {
		t.Errorf("unexpected content '%s'", content)
	}
}

func TestExtractMeta(t *testing.T) {
	meta := scrape.ExtractMeta(parsePage(t, samplePage))

	if meta.Title != "Gophers in the Wild" {
		t.Errorf("expected title 'Gophers in the Wild', got '%s'", meta.Title)
	}
	if meta.Description != "A field guide to gophers." {
		t.Errorf("unexpected description '%s'", meta.Description)
	}
	if meta.Author != "J. Burrows" {
		t.Errorf("unexpected author '%s'", meta.Author)
	}
	if meta.Keywords != "gophers,burrows,field guide" {
		t.Errorf("unexpected keywords '%s'", meta.Keywords)
	}
	if meta.PublishedAt != "2025-05-01T09:00:00Z" {
		t.Errorf("unexpected published time '%s'", meta.PublishedAt)
	}
}

func TestExtractMetaTitleFallback(t *testing.T) {
	page := `<html><head><meta property="og:title" content="OG Title"></head><body></body></html>`
	meta := scrape.ExtractMeta(parsePage(t, page))
	if meta.Title != "OG Title" {
		t.Errorf("expected og:title fallback, got '%s'", meta.Title)
	}
}

func TestScrape(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	s := scrape.New()
	doc, err := s.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	if doc.URL != srv.URL {
		t.Errorf("expected url '%s', got '%s'", srv.URL, doc.URL)
	}
	if !strings.Contains(doc.Content, "burrowing rodents") {
		t.Error("expected scraped content to contain article text")
	}
	if doc.Meta.Title != "Gophers in the Wild" {
		t.Errorf("unexpected title '%s'", doc.Meta.Title)
	}
	if doc.Meta.Domain == "" {
		t.Error("expected domain to be set")
	}
	if doc.Meta.ScrapedAt == "" {
		t.Error("expected scraped_at to be set")
	}
}

func TestScrapeEmptyContent(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Write([]byte(`<html><body><nav><p>Menu entries of reasonable length here.</p></nav></body></html>`))
	}))
	defer srv.Close()

	s := scrape.New()
	_, err := s.Scrape(context.Background(), srv.URL)
	if !errors.Is(err, scrape.ErrEmptyContent) {
		t.Errorf("expected ErrEmptyContent, got %v", err)
	}
}

func TestScrapeFetchError(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.WriteHeader(gohttp.StatusForbidden)
	}))
	defer srv.Close()

	s := scrape.New()
	_, err := s.Scrape(context.Background(), srv.URL)
	if !errors.Is(err, scrape.ErrFetchFailed) {
		t.Errorf("expected ErrFetchFailed, got %v", err)
	}
}

func TestScrapeMaxContentLength(t *testing.T) {
	long := strings.Repeat("Content sentences that keep going and going. ", 200)
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Write([]byte(`<html><body><p>` + long + `</p></body></html>`))
	}))
	defer srv.Close()

	s := scrape.New(scrape.WithMaxContentLength(500))
	doc, err := s.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(doc.Content) > 500 {
		t.Errorf("expected content capped at 500, got %d", len(doc.Content))
	}
}

func TestScrapeMaxContentLengthKeepsValidUTF8(t *testing.T) {
	// 300 two-byte runes; a 501-byte cap lands in the middle of one
	long := strings.Repeat("é", 300)
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Write([]byte(`<html><body><p>` + long + `</p></body></html>`))
	}))
	defer srv.Close()

	s := scrape.New(scrape.WithMaxContentLength(501))
	doc, err := s.Scrape(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(doc.Content) > 501 {
		t.Errorf("expected content capped at 501 bytes, got %d", len(doc.Content))
	}
	if !utf8.ValidString(doc.Content) {
		t.Error("expected truncated content to remain valid UTF-8")
	}
}
