package driving

import "github.com/custodia-labs/docsrag/internal/core/domain"

// StatusObserver receives retrieval progress notifications.
// Notifications are synchronous and one-way; observers must not block.
type StatusObserver interface {
	OnStatus(event domain.StatusEvent)
}

// StatusFunc adapts a plain function to StatusObserver.
type StatusFunc func(event domain.StatusEvent)

// OnStatus calls f(event).
func (f StatusFunc) OnStatus(event domain.StatusEvent) {
	f(event)
}

// StatusSource publishes the progress of every retrieval, whoever
// started it.
type StatusSource interface {
	// Subscribe registers observer and returns a function that removes it.
	Subscribe(observer StatusObserver) (unsubscribe func())
}
