package driven

import (
	"context"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// PageFetcher retrieves one page's raw HTML.
// A failure is page-level: callers skip the page and carry on.
type PageFetcher interface {
	// Fetch returns the raw HTML for url.
	// Errors wrap domain.ErrFetchFailed.
	Fetch(ctx context.Context, url string) (string, error)
}

// PageParser extracts readable text and outbound links from raw HTML.
// It never fails; unparsable input yields an empty page.
type PageParser interface {
	Parse(pageURL, rawHTML string) domain.Page
}

// Chunker splits extracted page text into overlapping chunks.
type Chunker interface {
	Chunk(url, text string) []domain.Chunk
}
