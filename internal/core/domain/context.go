package domain

import (
	"fmt"
	"strings"
)

// contextSeparator joins context blocks.
const contextSeparator = "\n\n---\n\n"

// RankedChunk pairs a chunk with its relevance score.
type RankedChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// ContextResult is the retrieval outcome handed to the chat agent.
// Chunks are ordered by descending score.
type ContextResult struct {
	// Context is the concatenated, attributed excerpts.
	Context string `json:"context"`

	// SourceLabel is the label of the index the excerpts came from.
	SourceLabel string `json:"sourceLabel"`

	// ChunkCount is the number of excerpts in Context.
	ChunkCount int `json:"chunkCount"`

	// UsedCache reports whether the index was loaded from the cache.
	UsedCache bool `json:"usedCache"`

	// TopScore is the highest relevance score, zero for an unscored fallback.
	TopScore float64 `json:"topScore"`

	// Chunks are the ranked excerpts behind Context.
	Chunks []RankedChunk `json:"chunks"`
}

// Top returns a copy holding only the n best excerpts, with Context
// and ChunkCount rebuilt to match. It returns r itself when n is not
// positive or r already holds n excerpts or fewer.
func (r *ContextResult) Top(n int) *ContextResult {
	if r == nil || n <= 0 || n >= len(r.Chunks) {
		return r
	}
	top := *r
	top.Chunks = r.Chunks[:n:n]
	top.ChunkCount = n
	top.Context = FormatContext(top.Chunks)
	return &top
}

// FormatContext renders ranked excerpts as numbered, attributed blocks.
func FormatContext(ranked []RankedChunk) string {
	blocks := make([]string, len(ranked))
	for i, item := range ranked {
		blocks[i] = fmt.Sprintf("Source %d: %s\nRelevance: %.4f\n%s", i+1, item.Chunk.URL, item.Score, item.Chunk.Text)
	}
	return strings.Join(blocks, contextSeparator)
}

// StatusKind classifies a retrieval progress notification.
type StatusKind string

const (
	StatusCacheHit   StatusKind = "cache_hit"
	StatusBuildStart StatusKind = "build_start"
	StatusPage       StatusKind = "page"
	StatusIndexReady StatusKind = "index_ready"
)

// StatusEvent is a one-way progress notification emitted while an
// index is loaded or built.
type StatusEvent struct {
	Kind    StatusKind
	Message string

	// URL is the page being read, for StatusPage.
	URL string

	// Visited and Budget are the running page count and crawl budget.
	Visited int
	Budget  int

	// Chunks is the index size, for StatusCacheHit and StatusIndexReady.
	Chunks int
}
