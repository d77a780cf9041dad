package html

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/docsrag/internal/core/domain"
	"github.com/custodia-labs/docsrag/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.PageParser = (*Normaliser)(nil)

// MaxTextPerPage bounds the text kept per page so one huge page cannot
// dominate the index.
const MaxTextPerPage = 18000

// Normaliser parses HTML documentation pages.
type Normaliser struct {
	maxText int
}

// Option configures the normaliser.
type Option func(*Normaliser)

// WithMaxText sets the per-page text limit in characters.
func WithMaxText(n int) Option {
	return func(p *Normaliser) {
		if n > 0 {
			p.maxText = n
		}
	}
}

// New creates a new HTML normaliser.
func New(opts ...Option) *Normaliser {
	n := &Normaliser{maxText: MaxTextPerPage}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Parse extracts the readable text and absolute links of a page.
// Malformed markup is parsed leniently; malformed hrefs are dropped.
func (n *Normaliser) Parse(pageURL, rawHTML string) domain.Page {
	page := domain.Page{URL: pageURL}

	doc, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return page
	}

	page.Title = collapse(textOf(findFirst(doc, func(node *html.Node) bool {
		return node.DataAtom == atom.Title
	})))

	root := findFirst(doc, isMainContent)
	if root == nil {
		root = findFirst(doc, func(node *html.Node) bool { return node.DataAtom == atom.Body })
	}
	if root == nil {
		root = doc
	}
	page.Text = truncate(collapse(textOf(root)), n.maxText)
	page.Links = extractLinks(doc, pageURL)

	return page
}

// contentClasses are class names documentation generators put on the
// element holding the article body.
var contentClasses = []string{"md-content", "markdown", "content"}

// isMainContent matches main, article, [role=main], .md-content,
// .markdown, .content and #content.
func isMainContent(node *html.Node) bool {
	if node.Type != html.ElementNode {
		return false
	}
	if node.DataAtom == atom.Main || node.DataAtom == atom.Article {
		return true
	}
	if attr(node, "role") == "main" || attr(node, "id") == "content" {
		return true
	}
	for _, class := range strings.Fields(attr(node, "class")) {
		for _, want := range contentClasses {
			if class == want {
				return true
			}
		}
	}
	return false
}

// findFirst returns the first node in document order matching pred.
func findFirst(node *html.Node, pred func(*html.Node) bool) *html.Node {
	if node == nil {
		return nil
	}
	if pred(node) {
		return node
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if found := findFirst(child, pred); found != nil {
			return found
		}
	}
	return nil
}

// skipped holds elements whose text is never visible prose.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Head:     true,
}

// blocks holds elements that start a new line of text. Only these get a
// separating space; inline markup joins its text to its neighbours.
var blocks = map[atom.Atom]bool{
	atom.P:          true,
	atom.Div:        true,
	atom.Li:         true,
	atom.Ul:         true,
	atom.Ol:         true,
	atom.H1:         true,
	atom.H2:         true,
	atom.H3:         true,
	atom.H4:         true,
	atom.H5:         true,
	atom.H6:         true,
	atom.Tr:         true,
	atom.Td:         true,
	atom.Th:         true,
	atom.Pre:        true,
	atom.Br:         true,
	atom.Blockquote: true,
	atom.Section:    true,
	atom.Table:      true,
	atom.Dt:         true,
	atom.Dd:         true,
}

// textOf concatenates the visible text below node the way textContent
// does, with a space around block-level elements.
func textOf(node *html.Node) string {
	if node == nil {
		return ""
	}
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipped[n.DataAtom] && n != node {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		block := n.Type == html.ElementNode && blocks[n.DataAtom]
		if block {
			b.WriteByte(' ')
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
		if block {
			b.WriteByte(' ')
		}
	}
	walk(node)
	return b.String()
}

// extractLinks resolves every a[href] against the page URL.
func extractLinks(doc *html.Node, pageURL string) []string {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	var links []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.A {
			if href, ok := attrOK(n, "href"); ok {
				if ref, err := base.Parse(strings.TrimSpace(href)); err == nil {
					links = append(links, ref.String())
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)
	return links
}

func attr(node *html.Node, key string) string {
	v, _ := attrOK(node, key)
	return v
}

func attrOK(node *html.Node, key string) (string, bool) {
	for _, a := range node.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// collapse replaces whitespace runs with single spaces and trims.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate keeps at most n runes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
