package mcp

import (
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the MCP server.
type Ports struct {
	// Docs retrieves documentation context and manages the index cache.
	Docs driving.DocsService

	// Status relays crawl progress to clients as log notifications. Optional.
	Status driving.StatusSource
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Docs == nil {
		return ErrMissingDocsService
	}
	return nil
}
