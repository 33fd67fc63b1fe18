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

// Package chunker splits document text into bounded, overlapping
// segments suitable for independent embedding.
package chunker

import (
	"strings"

	"github.com/pveldt/skim/internal/api"
)

const (
	DefaultSize    = 1000
	DefaultOverlap = 200
)

// Split breaks text into chunks of at most maxSize characters using
// two-level greedy accumulation: paragraphs (blank-line separated) are
// packed into a buffer until the next one would push it past maxSize.
// On flush the next buffer is seeded with the trailing overlap/5 words
// of the emitted chunk. A single paragraph larger than maxSize falls
// back to sentence-level (". ") accumulation, without word overlap
// between sentence boundaries.
//
// A paragraph or sentence that alone exceeds maxSize is emitted whole
// rather than truncated, so individual chunks may overflow the bound.
// Empty or whitespace-only text yields no chunks. The function is pure
// and deterministic and never fails.
func Split(text string, maxSize, overlap int) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []string
	current := ""

	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}

		if len(current)+len(para) > maxSize {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))
				current = overlapTail(current, overlap) + "\n\n" + para
			} else {
				// single paragraph exceeds the bound, accumulate
				// sentence by sentence instead
				for _, sent := range strings.Split(para, ". ") {
					if len(current)+len(sent) > maxSize {
						if current != "" {
							chunks = append(chunks, strings.TrimSpace(current))
						}
						current = sent + ". "
					} else {
						current += sent + ". "
					}
				}
			}
		} else {
			current += para + "\n\n"
		}
	}

	if strings.TrimSpace(current) != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	return chunks
}

// overlapTail returns the last overlap/5 whitespace-delimited words of
// buf joined by single spaces. The word count approximates a character
// budget assuming a mean word length of 5. Returns an empty string when
// the budget rounds down to zero words or buf holds no more words than
// the budget.
func overlapTail(buf string, overlap int) string {
	words := strings.Fields(buf)
	n := overlap / 5
	if n == 0 || len(words) <= n {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ")
}

// Chunker applies Split with configured defaults and attaches document
// metadata and sequence indexes to the resulting chunks.
type Chunker struct {
	size    int
	overlap int
}

func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = DefaultSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Chunker{
		size:    size,
		overlap: overlap,
	}
}

// ChunkDocument splits doc's content and wraps the pieces as ordered
// chunks inheriting the document metadata. Insertion order equals
// reading order of the source document.
func (c *Chunker) ChunkDocument(docID string, doc *api.Document) []api.Chunk {
	texts := Split(doc.Content, c.size, c.overlap)

	chunks := make([]api.Chunk, 0, len(texts))
	for i, t := range texts {
		chunks = append(chunks, api.Chunk{
			DocID: docID,
			Index: i,
			Text:  t,
			Meta:  doc.Meta,
		})
	}
	return chunks
}
