package domain

import "time"

// Chunk is a contiguous slice of extracted page text.
// Chunks are immutable once created and owned by the Index that produced them.
type Chunk struct {
	// ID is the chunk identity: the page URL plus "#" and the sequence index.
	ID string `json:"id"`

	// URL is the page the chunk was cut from.
	URL string `json:"url"`

	// Seq is the ordinal position within the page.
	Seq int `json:"seq"`

	// Text is the trimmed window text.
	Text string `json:"text"`

	// Terms maps each token in Text to its occurrence count.
	Terms map[string]int `json:"terms"`

	// Length is the token count, never below 1.
	Length int `json:"length"`

	// Start and End are rune offsets of the untrimmed window in the page text.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Index is the result of crawling and chunking one documentation source
// or one explicit URL. An index is never partially updated: a rebuild
// replaces it as a whole.
type Index struct {
	// Label is the human-readable source name.
	Label string `json:"label"`

	// BuiltAt is when the crawl finished.
	BuiltAt time.Time `json:"builtAt"`

	// Chunks holds every chunk; order carries no meaning.
	Chunks []Chunk `json:"chunks"`
}

// Age returns how long ago the index was built, relative to now.
func (i *Index) Age(now time.Time) time.Duration {
	return now.Sub(i.BuiltAt)
}

// Page is the readable content extracted from one HTML page.
type Page struct {
	// URL is the page address the content was parsed from.
	URL string

	// Title is the <title> text, if any.
	Title string

	// Text is the collapsed, truncated readable text.
	Text string

	// Links are absolute URLs of every anchor on the page.
	Links []string
}
