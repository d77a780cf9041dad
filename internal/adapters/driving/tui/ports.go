// Package tui provides the interactive chat window for docsrag.
// It is a driving adapter over the chat service.
package tui

import (
	"github.com/custodia-labs/docsrag/internal/core/ports/driving"
)

// Ports aggregates the driving ports required by the TUI.
type Ports struct {
	// Chat answers messages and owns the transcript.
	Chat driving.ChatService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil || p.Chat == nil {
		return ErrMissingChatService
	}
	return nil
}
