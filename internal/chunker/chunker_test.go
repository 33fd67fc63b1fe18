package chunker_test

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/pveldt/skim/internal/api"
	"github.com/pveldt/skim/internal/chunker"
)

// wordParagraph builds a paragraph of n distinct 5-character words.
func wordParagraph(prefix string, n int) string {
	words := make([]string, n)
	for i := range n {
		words[i] = fmt.Sprintf("%s%03d", prefix, i%1000)
	}
	return strings.Join(words, " ")
}

func TestSplitEmptyInput(t *testing.T) {
	inputs := []string{"", "   ", "   \n\n  ", "\n\n\n\n", "\t \n\n \t"}
	for _, in := range inputs {
		got := chunker.Split(in, 1000, 200)
		if len(got) != 0 {
			t.Errorf("expected no chunks for input %q, got %d", in, len(got))
		}
	}
}

func TestSplitSingleSmallText(t *testing.T) {
	text := "  The quick brown fox jumps over the lazy dog.  "
	got := chunker.Split(text, 1000, 200)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	expected := strings.TrimSpace(text)
	if got[0] != expected {
		t.Errorf("expected chunk '%s', got '%s'", expected, got[0])
	}
}

func TestSplitOversizedParagraphNoDelimiter(t *testing.T) {
	// a single paragraph with no sentence delimiter must come back
	// whole, even though it overflows the bound
	para := strings.Repeat("x", 1500)
	got := chunker.Split(para, 1000, 200)
	if len(got) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(got))
	}
	if len(got[0]) <= 1000 {
		t.Errorf("expected chunk to exceed max size, got length %d", len(got[0]))
	}
	if !strings.HasPrefix(got[0], para) {
		t.Error("oversized paragraph was truncated")
	}
}

func TestSplitOversizedParagraphSentenceFallback(t *testing.T) {
	sentences := make([]string, 0, 30)
	for i := range 30 {
		sentences = append(sentences, fmt.Sprintf("Sentence number %d is modestly sized", i))
	}
	para := strings.Join(sentences, ". ")
	got := chunker.Split(para, 200, 100)

	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}
	for i, c := range got {
		if len(c) > 200+len(". ") {
			t.Errorf("chunk %d exceeds max size: %d", i, len(c))
		}
	}
	// sentence-level accumulation must retain every sentence in order
	joined := strings.Join(got, " ")
	for _, s := range sentences {
		if !strings.Contains(joined, s) {
			t.Errorf("sentence '%s' missing from output", s)
		}
	}
}

func TestSplitParagraphOverlap(t *testing.T) {
	para1 := wordParagraph("aa", 150)
	para2 := wordParagraph("bb", 150)
	got := chunker.Split(para1+"\n\n"+para2, 1000, 100)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[0] != para1 {
		t.Errorf("expected first chunk to equal first paragraph")
	}

	// 100/5 = 20 trailing words of chunk one must lead chunk two
	words := strings.Fields(got[0])
	tail := strings.Join(words[len(words)-20:], " ")
	if !strings.HasPrefix(got[1], tail) {
		t.Errorf("expected second chunk to start with overlap tail '%s'", tail)
	}
	if !strings.HasSuffix(got[1], para2) {
		t.Error("expected second chunk to end with second paragraph")
	}
}

func TestSplitSmallOverlapYieldsNoTail(t *testing.T) {
	// overlap under 5 rounds down to a zero word budget
	para1 := wordParagraph("aa", 150)
	para2 := wordParagraph("bb", 150)
	got := chunker.Split(para1+"\n\n"+para2, 1000, 4)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[1] != para2 {
		t.Errorf("expected second chunk to equal second paragraph with no overlap tail")
	}
}

func TestSplitShortBufferYieldsNoTail(t *testing.T) {
	// an emitted chunk holding no more words than the overlap budget
	// contributes no tail
	para1 := strings.Repeat("A", 500)
	para2 := strings.Repeat("B", 600)
	got := chunker.Split(para1+"\n\n"+para2, 1000, 100)

	if len(got) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(got))
	}
	if got[1] != para2 {
		t.Errorf("expected second chunk without overlap tail, got length %d", len(got[1]))
	}
}

func TestSplitAccumulationScenario(t *testing.T) {
	text := strings.Repeat("A", 500) + "\n\n" + strings.Repeat("B", 600) + "\n\n" + strings.Repeat("C", 100)
	got := chunker.Split(text, 1000, 100)

	expected := []string{
		strings.Repeat("A", 500),
		strings.Repeat("B", 600) + strings.Repeat("C", 100),
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("unexpected chunk sequence, expected lengths %d/%d, got %d chunks", len(expected[0]), len(expected[1]), len(got))
	}
}

func TestSplitContentCoverage(t *testing.T) {
	paras := make([]string, 0, 12)
	for i := range 12 {
		paras = append(paras, wordParagraph(fmt.Sprintf("p%d", i), 60))
	}
	text := strings.Join(paras, "\n\n")

	// zero overlap makes chunk concatenation an exact partition of the
	// source paragraphs
	got := chunker.Split(text, 1200, 0)
	if len(got) < 2 {
		t.Fatalf("expected multiple chunks, got %d", len(got))
	}

	// compare ignoring all whitespace: chunk boundaries may drop or
	// move separators, but never characters
	compact := func(s string) string {
		return strings.Join(strings.Fields(s), "")
	}
	joined := compact(strings.Join(got, " "))
	original := compact(text)
	if joined != original {
		t.Error("chunk concatenation does not reproduce source content")
	}
}

func TestSplitDeterministic(t *testing.T) {
	text := wordParagraph("alpha", 200) + "\n\n" + wordParagraph("beta", 120) + "\n\n" + wordParagraph("gamma", 80)
	first := chunker.Split(text, 800, 150)
	second := chunker.Split(text, 800, 150)
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different chunk sequences")
	}
}

func TestChunkDocument(t *testing.T) {
	doc := &api.Document{
		URL:     "https://example.com/article",
		Content: wordParagraph("aa", 150) + "\n\n" + wordParagraph("bb", 150),
		Meta: api.DocumentMeta{
			Title:     "Example Article",
			Domain:    "example.com",
			ScrapedAt: "2025-06-01T12:00:00Z",
		},
	}

	c := chunker.New(1000, 100)
	chunks := c.ChunkDocument("doc-1", doc)
	if len(chunks) != 2 {
		t.Fatalf("expected 2 chunks, got %d", len(chunks))
	}

	for i, ch := range chunks {
		if ch.Index != i {
			t.Errorf("expected chunk index %d, got %d", i, ch.Index)
		}
		if ch.DocID != "doc-1" {
			t.Errorf("expected doc id 'doc-1', got '%s'", ch.DocID)
		}
		if ch.Meta.Title != doc.Meta.Title {
			t.Errorf("chunk %d did not inherit document metadata", i)
		}
	}
}

func TestChunkDocumentEmpty(t *testing.T) {
	c := chunker.New(0, -1)
	chunks := c.ChunkDocument("doc-1", &api.Document{Content: "   \n\n  "})
	if len(chunks) != 0 {
		t.Errorf("expected no chunks for whitespace-only document, got %d", len(chunks))
	}
}
