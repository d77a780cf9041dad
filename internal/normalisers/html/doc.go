// Package html extracts the main readable text and the outbound links of
// a documentation page. Script, style and other non-visible content is
// skipped; the main/article/content-role element is preferred over the
// full body.
package html
