// Package terms turns raw text into index tokens and term-frequency bags.
package terms

import "strings"

// MinTokenLength is the shortest token kept; shorter tokens carry too
// little signal for ranking.
const MinTokenLength = 3

// Tokenize lower-cases text and splits it on every character outside
// [a-z0-9]. Tokens shorter than MinTokenLength are dropped.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !isTokenRune(r)
	})

	tokens := fields[:0]
	for _, f := range fields {
		if len(f) >= MinTokenLength {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isTokenRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// Frequency counts each token's occurrences.
func Frequency(tokens []string) map[string]int {
	bag := make(map[string]int, len(tokens))
	for _, token := range tokens {
		bag[token]++
	}
	return bag
}

// stopWords are filler words (English, Italian, Spanish) that say nothing
// about which page a query is after.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {}, "from": {}, "that": {},
	"this": {}, "show": {}, "make": {}, "using": {}, "according": {},
	"official": {}, "ufficial": {}, "docs": {}, "documentation": {},
	"please": {}, "about": {}, "como": {}, "come": {}, "para": {},
	"con": {}, "que": {}, "how": {}, "what": {}, "where": {}, "when": {},
	"why": {}, "agent": {},
}

// IsStopWord reports whether token is filler.
func IsStopWord(token string) bool {
	_, ok := stopWords[token]
	return ok
}

// Significant returns tokens with stop words removed, preserving order
// and duplicates.
func Significant(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if !IsStopWord(token) {
			out = append(out, token)
		}
	}
	return out
}
