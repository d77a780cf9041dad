package services

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// DefaultURLPageBudget is the crawl budget for an explicit URL found in a
// query; ad hoc sites get fewer pages than catalog sources.
const DefaultURLPageBudget = 8

// explicitURL finds the first http(s) URL in free text.
var explicitURL = regexp.MustCompile(`(?i)https?://[^\s)]+`)

// IntentResolver maps a query to a documentation source or URL.
type IntentResolver struct {
	catalog       []domain.KnownSource
	urlPageBudget int
}

// NewIntentResolver creates a resolver over catalog, matched in order.
func NewIntentResolver(catalog []domain.KnownSource) *IntentResolver {
	return &IntentResolver{
		catalog:       catalog,
		urlPageBudget: DefaultURLPageBudget,
	}
}

// Resolve classifies query. An explicit URL always wins over source
// keywords; among sources the first match wins. The boolean is false when
// no documentation context applies.
func (r *IntentResolver) Resolve(query string) (domain.Intent, bool) {
	if match := explicitURL.FindString(query); match != "" {
		if normalized, ok := NormalizeURL(match); ok {
			return domain.Intent{
				Kind:     domain.IntentURL,
				URL:      normalized,
				Label:    normalized,
				MaxPages: r.urlPageBudget,
			}, true
		}
	}

	lower := strings.ToLower(query)
	for i := range r.catalog {
		if r.catalog[i].Matches(lower) {
			source := r.catalog[i]
			return domain.Intent{Kind: domain.IntentSource, Source: &source}, true
		}
	}

	return domain.Intent{}, false
}

// NamedSources returns every catalog source the query names, in catalog order.
func (r *IntentResolver) NamedSources(query string) []domain.KnownSource {
	lower := strings.ToLower(query)
	var named []domain.KnownSource
	for _, source := range r.catalog {
		if source.Matches(lower) {
			named = append(named, source)
		}
	}
	return named
}

// Source looks up a catalog entry by key.
func (r *IntentResolver) Source(key string) (domain.KnownSource, bool) {
	for _, source := range r.catalog {
		if source.Key == key {
			return source, true
		}
	}
	return domain.KnownSource{}, false
}

// Catalog returns a copy of the catalog.
func (r *IntentResolver) Catalog() []domain.KnownSource {
	return append([]domain.KnownSource(nil), r.catalog...)
}
