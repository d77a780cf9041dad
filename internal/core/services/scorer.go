package services

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/postprocessors/terms"
)

// DefaultMaxChunks bounds both the ranked list and the context.
const DefaultMaxChunks = 8

// Query is a query prepared once for scoring a whole index.
type Query struct {
	// Lower is the lower-cased query.
	Lower string

	// Phrase is the trimmed, lower-cased query.
	Phrase string

	// Tokens are the query's index tokens.
	Tokens []string

	// Terms is the term-frequency bag of Tokens.
	Terms map[string]int

	// Unique lists the keys of Terms in first-occurrence order, so sums
	// over them are reproducible.
	Unique []string

	// Intent are the tokens left after removing stop words.
	Intent []string
}

// PrepareQuery tokenizes query for scoring.
func PrepareQuery(query string) Query {
	tokens := terms.Tokenize(query)
	bag := terms.Frequency(tokens)
	unique := make([]string, 0, len(bag))
	seen := make(map[string]bool, len(bag))
	for _, token := range tokens {
		if !seen[token] {
			seen[token] = true
			unique = append(unique, token)
		}
	}
	return Query{
		Lower:  strings.ToLower(query),
		Phrase: strings.ToLower(strings.TrimSpace(query)),
		Tokens: tokens,
		Terms:  bag,
		Unique: unique,
		Intent: terms.Significant(tokens),
	}
}

// Candidate is a chunk with the lower-cased views boost rules look at.
type Candidate struct {
	Chunk     *domain.Chunk
	LowerURL  string
	LowerText string
}

// BoostRule adds a heuristic bonus on top of the TF-IDF base score.
type BoostRule interface {
	Name() string
	Boost(q Query, c Candidate) float64
}

// PhraseRule rewards chunks that contain the whole query verbatim.
type PhraseRule struct {
	MinLength int
	Bonus     float64
}

func (r PhraseRule) Name() string { return "phrase" }

func (r PhraseRule) Boost(q Query, c Candidate) float64 {
	if len(q.Phrase) > r.MinLength && strings.Contains(c.LowerText, q.Phrase) {
		return r.Bonus
	}
	return 0
}

// urlSeparators are the characters that split a URL into words.
var urlSeparators = regexp.MustCompile(`[/:._-]+`)

// URLOverlapRule rewards chunks whose URL names the query's significant
// tokens, in proportion to how many it names.
type URLOverlapRule struct {
	Weight float64
}

func (r URLOverlapRule) Name() string { return "url_overlap" }

func (r URLOverlapRule) Boost(q Query, c Candidate) float64 {
	if len(q.Intent) == 0 {
		return 0
	}
	urlTokens := make(map[string]struct{})
	for _, token := range terms.Tokenize(urlSeparators.ReplaceAllString(c.LowerURL, " ")) {
		urlTokens[token] = struct{}{}
	}
	overlap := 0
	for _, token := range q.Intent {
		if _, ok := urlTokens[token]; ok {
			overlap++
		}
	}
	return float64(overlap) / float64(len(q.Intent)) * r.Weight
}

// HeadingRule rewards significant query tokens near the start of a chunk,
// where page titles and headings land.
type HeadingRule struct {
	Window int
	Bonus  float64
}

func (r HeadingRule) Name() string { return "heading" }

func (r HeadingRule) Boost(q Query, c Candidate) float64 {
	heading := c.LowerText
	if len(heading) > r.Window {
		heading = heading[:r.Window]
	}
	var score float64
	for _, token := range q.Intent {
		if strings.Contains(heading, token) {
			score += r.Bonus
		}
	}
	return score
}

// KeywordRule boosts chunks for a topic the query mentions. MarkerBonus
// applies once when the URL holds a URL marker or the text holds a text
// marker; CodeBonus applies once when the text holds a code marker.
type KeywordRule struct {
	Label   string
	Trigger *regexp.Regexp

	URLMarkers  []string
	TextMarkers []string
	MarkerBonus float64

	CodeMarkers []string
	CodeBonus   float64
}

func (r KeywordRule) Name() string { return "keyword:" + r.Label }

func (r KeywordRule) Boost(q Query, c Candidate) float64 {
	if r.Trigger == nil || !r.Trigger.MatchString(q.Lower) {
		return 0
	}
	var score float64
	if containsAny(c.LowerURL, r.URLMarkers) || containsAny(c.LowerText, r.TextMarkers) {
		score += r.MarkerBonus
	}
	if containsAny(c.LowerText, r.CodeMarkers) {
		score += r.CodeBonus
	}
	return score
}

// WeatherRule steers weather questions to the weather agent example.
func WeatherRule() KeywordRule {
	return KeywordRule{
		Label:       "weather",
		Trigger:     regexp.MustCompile(`\bweather\b|\bmeteo\b`),
		URLMarkers:  []string{"weather", "example"},
		TextMarkers: []string{"weather agent"},
		MarkerBonus: 0.6,
		CodeMarkers: []string{"get_lat_lng", "get_weather"},
		CodeBonus:   0.8,
	}
}

// NamedSourceRule nudges chunks hosted by a catalog source the query names.
type NamedSourceRule struct {
	Sources []domain.KnownSource
	Bonus   float64
}

func (r NamedSourceRule) Name() string { return "named_source" }

func (r NamedSourceRule) Boost(q Query, c Candidate) float64 {
	for _, source := range r.Sources {
		host := strings.ToLower(source.Host())
		if host != "" && source.Matches(q.Lower) && strings.Contains(c.LowerURL, host) {
			return r.Bonus
		}
	}
	return 0
}

func containsAny(s string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}

// DefaultBoostRules returns the standard rule set for a catalog.
func DefaultBoostRules(catalog []domain.KnownSource) []BoostRule {
	return []BoostRule{
		PhraseRule{MinLength: 5, Bonus: 0.25},
		URLOverlapRule{Weight: 0.7},
		HeadingRule{Window: 220, Bonus: 0.05},
		WeatherRule(),
		NamedSourceRule{Sources: catalog, Bonus: 0.1},
	}
}

// Scorer ranks chunks against a query with TF-IDF plus boost rules.
type Scorer struct {
	rules     []BoostRule
	maxChunks int
}

// ScorerOption configures a Scorer.
type ScorerOption func(*Scorer)

// WithMaxChunks bounds the ranked list.
func WithMaxChunks(n int) ScorerOption {
	return func(s *Scorer) {
		if n > 0 {
			s.maxChunks = n
		}
	}
}

// WithRules replaces the boost rules.
func WithRules(rules ...BoostRule) ScorerOption {
	return func(s *Scorer) {
		s.rules = rules
	}
}

// NewScorer creates a scorer with the default rules for catalog.
func NewScorer(catalog []domain.KnownSource, opts ...ScorerOption) *Scorer {
	s := &Scorer{
		rules:     DefaultBoostRules(catalog),
		maxChunks: DefaultMaxChunks,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MaxChunks returns the ranked list bound.
func (s *Scorer) MaxChunks() int {
	return s.maxChunks
}

// Score returns at most MaxChunks chunks with a positive score, highest
// first. Chunks with equal scores keep their index order. A query with no
// tokens ranks nothing.
func (s *Scorer) Score(query string, chunks []domain.Chunk) []domain.RankedChunk {
	if len(chunks) == 0 {
		return nil
	}
	q := PrepareQuery(query)
	if len(q.Tokens) == 0 {
		return nil
	}

	idf := s.inverseDocumentFrequency(q, chunks)

	ranked := make([]domain.RankedChunk, 0, len(chunks))
	for i := range chunks {
		chunk := &chunks[i]
		score := baseScore(q, chunk, idf)

		candidate := Candidate{
			Chunk:     chunk,
			LowerURL:  strings.ToLower(chunk.URL),
			LowerText: strings.ToLower(chunk.Text),
		}
		for _, rule := range s.rules {
			score += rule.Boost(q, candidate)
		}

		if score > 0 {
			ranked = append(ranked, domain.RankedChunk{Chunk: *chunk, Score: score})
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	if len(ranked) > s.maxChunks {
		ranked = ranked[:s.maxChunks]
	}
	return ranked
}

func (s *Scorer) inverseDocumentFrequency(q Query, chunks []domain.Chunk) map[string]float64 {
	n := float64(len(chunks))
	idf := make(map[string]float64, len(q.Terms))
	for token := range q.Terms {
		df := 0
		for i := range chunks {
			if chunks[i].Terms[token] > 0 {
				df++
			}
		}
		idf[token] = math.Log((n+1)/float64(df+1)) + 1
	}
	return idf
}

func baseScore(q Query, chunk *domain.Chunk, idf map[string]float64) float64 {
	length := chunk.Length
	if length < 1 {
		length = 1
	}
	var score float64
	for _, token := range q.Unique {
		tf := chunk.Terms[token]
		if tf == 0 {
			continue
		}
		score += float64(tf) / float64(length) * idf[token] * float64(q.Terms[token])
	}
	return score
}
