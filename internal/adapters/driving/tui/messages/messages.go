// Package messages defines Bubbletea message types for the chat TUI.
package messages

import (
	"github.com/custodia-labs/docsrag/internal/core/domain"
)

// HistoryLoaded carries the persisted transcript when the TUI starts.
type HistoryLoaded struct {
	Turns []domain.ChatTurn
	Err   error
}

// ReplyReceived carries the chat agent's answer to one message.
// Reply is set even when Err is, with Failed marking an error message.
type ReplyReceived struct {
	Question string
	Reply    *domain.ChatReply
	Err      error
}

// StatusReceived carries a retrieval progress notification.
type StatusReceived struct {
	Event domain.StatusEvent
}

// TranscriptCleared is sent after the transcript was dropped.
type TranscriptCleared struct {
	Err error
}
