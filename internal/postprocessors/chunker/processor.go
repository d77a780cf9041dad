// Package chunker provides a fixed-size, overlapping text chunker.
package chunker

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/postprocessors/terms"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 900

// DefaultChunkOverlap is the default number of characters shared by
// consecutive chunks.
const DefaultChunkOverlap = 140

// Processor splits page text into fixed-size windows that overlap so
// sentences crossing a boundary survive in at least one chunk.
// Sizes are counted in runes.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in characters.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Stride is how far each window advances past the previous one.
func (p *Processor) Stride() int {
	return p.chunkSize - p.overlap
}

// Chunk splits text into windows of chunkSize runes advancing by
// chunkSize-overlap. Each window is trimmed; the first window that trims
// to nothing ends chunking.
func (p *Processor) Chunk(url, text string) []domain.Chunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	total := len(runes)
	chunks := make([]domain.Chunk, 0, total/p.Stride()+1)

	for start, seq := 0, 0; start < total; start, seq = start+p.Stride(), seq+1 {
		end := min(start+p.chunkSize, total)

		slice := strings.TrimSpace(string(runes[start:end]))
		if slice == "" {
			break
		}

		tokens := terms.Tokenize(slice)
		chunks = append(chunks, domain.Chunk{
			ID:     url + "#" + strconv.Itoa(seq),
			URL:    url,
			Seq:    seq,
			Text:   slice,
			Terms:  terms.Frequency(tokens),
			Length: max(len(tokens), 1),
			Start:  start,
			End:    end,
		})

		if end >= total {
			break
		}
	}

	return chunks
}
