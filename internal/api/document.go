package api

// Document is a single scraped web page. It is immutable once returned
// by the scraper and owned by the request that fetched it.
type Document struct {
	URL     string
	Content string
	Meta    DocumentMeta
}

// DocumentMeta carries the metadata extracted alongside the page content.
type DocumentMeta struct {
	Title       string
	Description string
	Author      string
	Keywords    string
	PublishedAt string
	Domain      string
	ScrapedAt   string
}

// Chunk is a bounded span of a Document's text. Index is the chunk's
// 0-based position in reading order; Meta is inherited from the parent
// document.
type Chunk struct {
	DocID string
	Index int
	Text  string
	Meta  DocumentMeta
}

type ScoredDocument struct {
	// Required
	Content string
	Score   float64

	// Optional
	Title      string
	Url        string
	ChunkIndex int
}

func (d ScoredDocument) Copy() *ScoredDocument {
	return &ScoredDocument{
		Content:    d.Content,
		Score:      d.Score,
		Title:      d.Title,
		Url:        d.Url,
		ChunkIndex: d.ChunkIndex,
	}
}
