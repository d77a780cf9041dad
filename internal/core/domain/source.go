package domain

import (
	"net/url"
	"regexp"
)

// KnownSource is a compiled-in documentation catalog entry.
type KnownSource struct {
	// Key is the cache namespace; unique across the catalog.
	Key string

	// Label is the display name.
	Label string

	// BaseURL is the canonical site root; its host bounds the crawl.
	BaseURL string

	// Seeds are the first pages queued for a crawl, in order.
	Seeds []string

	// MaxPages is the crawl page budget.
	MaxPages int

	// Pattern matches a lower-cased query that names this source.
	Pattern *regexp.Regexp
}

// Host returns the host of BaseURL, or an empty string if it does not parse.
func (s KnownSource) Host() string {
	u, err := url.Parse(s.BaseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Matches reports whether the lower-cased query names this source.
func (s KnownSource) Matches(lowerQuery string) bool {
	return s.Pattern != nil && s.Pattern.MatchString(lowerQuery)
}

// DefaultCatalog returns the documentation sources the helper knows about.
// Order matters: intent resolution is first-match-wins.
func DefaultCatalog() []KnownSource {
	return []KnownSource{
		{
			Key:     "pydantic-ai",
			Label:   "PydanticAI Docs",
			BaseURL: "https://ai.pydantic.dev",
			Seeds: []string{
				"https://ai.pydantic.dev/",
				"https://ai.pydantic.dev/examples/",
				"https://ai.pydantic.dev/examples/weather-agent/",
			},
			MaxPages: 26,
			Pattern:  regexp.MustCompile(`pydantic[\s-]?ai|ai\.pydantic\.dev`),
		},
		{
			Key:      "fastapi",
			Label:    "FastAPI Docs",
			BaseURL:  "https://fastapi.tiangolo.com",
			Seeds:    []string{"https://fastapi.tiangolo.com/"},
			MaxPages: 10,
			Pattern:  regexp.MustCompile(`fastapi`),
		},
		{
			Key:      "langchain",
			Label:    "LangChain Docs",
			BaseURL:  "https://python.langchain.com",
			Seeds:    []string{"https://python.langchain.com/docs/introduction/"},
			MaxPages: 10,
			Pattern:  regexp.MustCompile(`langchain`),
		},
		{
			Key:      "langgraph",
			Label:    "LangGraph Docs",
			BaseURL:  "https://langchain-ai.github.io/langgraph",
			Seeds:    []string{"https://langchain-ai.github.io/langgraph/"},
			MaxPages: 10,
			Pattern:  regexp.MustCompile(`langgraph`),
		},
	}
}

// IntentKind distinguishes the two query intent variants.
type IntentKind string

const (
	// IntentSource binds a query to a KnownSource.
	IntentSource IntentKind = "source"

	// IntentURL binds a query to an explicit URL found in its text.
	IntentURL IntentKind = "url"
)

// Intent is the classification of a single query. Computed per query,
// never persisted.
type Intent struct {
	Kind IntentKind

	// Source is set for IntentSource.
	Source *KnownSource

	// URL, Label and MaxPages are set for IntentURL.
	URL      string
	Label    string
	MaxPages int
}
