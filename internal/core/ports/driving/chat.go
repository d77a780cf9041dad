package driving

import (
	"context"

	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// ChatService is the portfolio chat agent.
type ChatService interface {
	// Ask answers one user message. Model failures come back as a reply
	// with Failed set and readable text, together with the wrapped error.
	Ask(ctx context.Context, text string, observer StatusObserver) (*domain.ChatReply, error)

	// History returns the persisted transcript, oldest first.
	History(ctx context.Context) ([]domain.ChatTurn, error)

	// Clear drops the transcript.
	Clear(ctx context.Context) error

	// SetAPIKey stores a user-supplied model API key.
	SetAPIKey(ctx context.Context, key string) error

	// ClearAPIKey removes the user-supplied key, returning to guest mode.
	ClearAPIKey(ctx context.Context) error

	// HasAPIKey reports whether a user-supplied key is stored.
	HasAPIKey(ctx context.Context) bool

	// GuestMessagesLeft returns how many messages the guest key can still answer.
	GuestMessagesLeft(ctx context.Context) int

	// SetWebSearch toggles the web search tool for weak retrieval results.
	SetWebSearch(enabled bool)

	// WebSearch reports whether the web search tool is enabled.
	WebSearch() bool
}
