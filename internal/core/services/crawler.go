package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
	"github.com/custodia-labs/docsrag/internal/logger"
)

// CrawlRequest bounds one crawl.
type CrawlRequest struct {
	// Seeds are queued first, in order.
	Seeds []string

	// MaxPages is the number of distinct URLs visited before stopping.
	MaxPages int

	// AllowedHost is the only host whose links are followed.
	AllowedHost string
}

// Crawler walks one documentation site breadth-first, one page at a time.
// The queue and visited set are owned by a single Crawl call, so a Crawler
// may be shared between goroutines.
type Crawler struct {
	fetcher driven.PageFetcher
	parser  driven.PageParser
	chunker driven.Chunker
}

// NewCrawler creates a crawler from its three collaborators.
func NewCrawler(fetcher driven.PageFetcher, parser driven.PageParser, chunker driven.Chunker) *Crawler {
	return &Crawler{
		fetcher: fetcher,
		parser:  parser,
		chunker: chunker,
	}
}

// Crawl visits up to req.MaxPages distinct URLs starting from req.Seeds and
// returns the chunks of every page read. A page whose fetch fails is
// skipped. When ctx is cancelled the chunks gathered so far are returned
// together with ctx.Err().
func (c *Crawler) Crawl(ctx context.Context, req CrawlRequest, observer driving.StatusObserver) ([]domain.Chunk, error) {
	queue := make([]string, 0, len(req.Seeds))
	queued := make(map[string]bool, len(req.Seeds))
	for _, seed := range req.Seeds {
		queue = append(queue, seed)
		if normalized, ok := NormalizeURL(seed); ok {
			queued[normalized] = true
		}
	}
	allowedHost := strings.ToLower(req.AllowedHost)
	visited := make(map[string]bool, req.MaxPages)
	var chunks []domain.Chunk

	for len(queue) > 0 && len(visited) < req.MaxPages {
		if err := ctx.Err(); err != nil {
			return chunks, err
		}

		raw := queue[0]
		queue = queue[1:]

		current, ok := NormalizeURL(raw)
		if !ok || visited[current] {
			continue
		}
		visited[current] = true

		notify(observer, domain.StatusEvent{
			Kind:    domain.StatusPage,
			Message: fmt.Sprintf("[Docs] Reading %d/%d: %s", len(visited), req.MaxPages, current),
			URL:     current,
			Visited: len(visited),
			Budget:  req.MaxPages,
		})

		html, err := c.fetcher.Fetch(ctx, current)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return chunks, ctxErr
			}
			logger.Debug("crawl: skipping %s: %v", current, err)
			continue
		}

		page := c.parser.Parse(current, html)
		pageChunks := c.chunker.Chunk(current, page.Text)
		chunks = append(chunks, pageChunks...)
		logger.Debug("crawl: %s -> %d chunks, %d links", current, len(pageChunks), len(page.Links))

		for _, rawLink := range page.Links {
			link, ok := NormalizeURL(rawLink)
			if !ok || visited[link] || queued[link] {
				continue
			}
			if hostOf(link) != allowedHost {
				continue
			}
			queued[link] = true
			queue = append(queue, link)
		}
	}

	return chunks, nil
}

// NormalizeURL strips the fragment of an absolute URL, lower-cases the
// host and drops a default port. Query strings are kept. An http(s) URL
// with an empty path gets "/". Returns false for relative or unparsable
// input.
func NormalizeURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "", false
	}
	if (u.Scheme == "http" || u.Scheme == "https") && u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	u.RawFragment = ""
	u.Host = canonicalHost(u.Scheme, u.Host)
	if (u.Scheme == "http" || u.Scheme == "https") && u.Path == "" && u.Opaque == "" {
		u.Path = "/"
	}
	return u.String(), true
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return canonicalHost(u.Scheme, u.Host)
}

// canonicalHost lower-cases host and removes the scheme's default port.
func canonicalHost(scheme, host string) string {
	host = strings.ToLower(host)
	switch scheme {
	case "https":
		host = strings.TrimSuffix(host, ":443")
	case "http":
		host = strings.TrimSuffix(host, ":80")
	}
	return host
}
