// Package mcp provides an MCP (Model Context Protocol) server adapter for docsrag.
// It lets AI assistants retrieve ranked documentation excerpts from the
// same local index the chat agent uses.
package mcp

import "errors"

// ErrMissingDocsService is returned when the docs service is not provided.
var ErrMissingDocsService = errors.New("mcp: docs service is required")
