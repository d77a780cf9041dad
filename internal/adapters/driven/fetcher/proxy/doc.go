// Package proxy fetches documentation pages through a CORS-bypass style
// fetch proxy that wraps the target page's HTML in a JSON envelope.
//
// The proxy is called as GET <endpoint>?url=<url-encoded target> and
// answers {"contents": "<html>...", "status": {...}}. Any non-2xx answer
// is a page-level failure.
package proxy
